package ir_test

import (
	"testing"

	"github.com/sunholo/relaxir/internal/ir"
)

func TestProgramStringOrdersFunctionsByName(t *testing.T) {
	zeta := &ir.Function{Params: nil, Body: &ir.Constant{Value: 1}}
	alpha := &ir.Function{Params: nil, Body: &ir.Constant{Value: 2}}

	prog := ir.NewProgram(map[string]*ir.Function{"zeta": zeta, "alpha": alpha})

	want := "alpha = " + alpha.String() + "\n" + "zeta = " + zeta.String() + "\n"
	if got := prog.String(); got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}

func TestProgramStringIsDeterministicAcrossRepeatedCalls(t *testing.T) {
	funcs := map[string]*ir.Function{
		"c": {Body: &ir.Constant{Value: 3}},
		"a": {Body: &ir.Constant{Value: 1}},
		"b": {Body: &ir.Constant{Value: 2}},
	}
	prog := ir.NewProgram(funcs)

	first := prog.String()
	for i := 0; i < 5; i++ {
		if got := prog.String(); got != first {
			t.Fatalf("String() not stable across repeated calls: %q vs %q", got, first)
		}
	}
}
