package oracle_test

import (
	"testing"

	"github.com/sunholo/relaxir/internal/ir"
	"github.com/sunholo/relaxir/internal/oracle"
)

func TestStructuralProvesLiteralsAndSymbols(t *testing.T) {
	oc := oracle.NewStructural()
	if !oc.CanProveEqual(ir.IntImm{Value: 4}, ir.IntImm{Value: 4}) {
		t.Fatalf("expected equal int literals to be provable")
	}
	if !oc.CanProveEqual(ir.SymVar{Name: "N"}, ir.SymVar{Name: "N"}) {
		t.Fatalf("expected equal symbolic names to be provable")
	}
	if oc.CanProveEqual(ir.IntImm{Value: 4}, ir.IntImm{Value: 5}) {
		t.Fatalf("expected distinct literals to be unprovable")
	}
}

func TestStructuralDoesNotNormalizeCommutativity(t *testing.T) {
	oc := oracle.NewStructural()
	a := ir.BinArith{Op: ir.OpAdd, Left: ir.SymVar{Name: "N"}, Right: ir.IntImm{Value: 1}}
	b := ir.BinArith{Op: ir.OpAdd, Left: ir.IntImm{Value: 1}, Right: ir.SymVar{Name: "N"}}
	if oc.CanProveEqual(a, b) {
		t.Fatalf("Structural must never claim N+1 == 1+N: false means unknown, not unequal, so this must stay unprovable")
	}
}
