package bridge_test

import (
	"testing"

	"github.com/sunholo/relaxir/internal/bridge"
	"github.com/sunholo/relaxir/internal/ir"
	"github.com/sunholo/relaxir/internal/visit"
)

// TestAttachRoutesRegisteredHookThroughCallback exercises §8 scenario
// 5 against a real traversal (not just a bare Dispatch call): visiting
// a Tuple whose only field is a Call, with "visit_call_" registered,
// invokes the callback exactly once for the Call and falls through to
// the host's default visit_tuple_ for the Tuple itself.
func TestAttachRoutesRegisteredHookThroughCallback(t *testing.T) {
	var callCount int
	var tupleCount int

	a := bridge.NewAdapter(func(name string, n ir.Expr) (any, error) {
		return nil, nil
	})
	a.Register("visit_call_", func(n ir.Expr) (any, error) {
		callCount++
		return nil, nil
	})

	v := visit.NewVisitor()
	hostTuple := v.VisitTuple
	v.VisitTuple = func(vv *visit.Visitor, n ir.Expr) error {
		tupleCount++
		return hostTuple(vv, n)
	}
	bridge.Attach(v, a)

	call := &ir.Call{Callee: &ir.Op{OpKey: "add"}}
	tuple := &ir.Tuple{Fields: []ir.Expr{call}}

	if err := v.Visit(tuple); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if callCount != 1 {
		t.Fatalf("expected the visit_call_ callback to fire exactly once, got %d", callCount)
	}
	if tupleCount != 1 {
		t.Fatalf("expected the Tuple to fall through to the host default exactly once, got %d", tupleCount)
	}
}

// TestAttachLeavesUnregisteredHooksOnHostDefault confirms an unattached
// (never-registered) hook keeps recursing exactly as NewVisitor built
// it, rather than being silently disabled by Attach.
func TestAttachLeavesUnregisteredHooksOnHostDefault(t *testing.T) {
	var varVisits int

	a := bridge.NewAdapter(func(name string, n ir.Expr) (any, error) { return nil, nil })

	v := visit.NewVisitor()
	v.VisitVar = func(vv *visit.Visitor, n ir.Expr) error {
		varVisits++
		return nil
	}
	bridge.Attach(v, a)

	call := &ir.Call{Callee: &ir.Op{OpKey: "add"}, Args: []ir.Expr{&ir.Var{VarId: ir.NewId("x", 1)}}}
	if err := v.Visit(call); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if varVisits != 1 {
		t.Fatalf("expected the unregistered visit_var_ hook to still fire via the host default, got %d", varVisits)
	}
}
