package bridge_test

import (
	"errors"
	"testing"

	"github.com/sunholo/relaxir/internal/bridge"
	"github.com/sunholo/relaxir/internal/ir"
)

func TestRegisterRejectsNonCanonicalName(t *testing.T) {
	a := bridge.NewAdapter(func(name string, n ir.Expr) (any, error) { return nil, nil })
	ok := a.Register("visit_nonsense", func(ir.Expr) (any, error) { return nil, nil })
	if ok {
		t.Fatalf("expected Register to reject a non-canonical hook name")
	}
}

func TestRegisterAcceptsEveryCanonicalName(t *testing.T) {
	a := bridge.NewAdapter(func(name string, n ir.Expr) (any, error) { return nil, nil })
	for _, name := range bridge.HookNames {
		if !a.Register(name, func(ir.Expr) (any, error) { return nil, nil }) {
			t.Fatalf("expected Register to accept canonical name %q", name)
		}
	}
}

func TestDispatchUsesRegisteredCallback(t *testing.T) {
	a := bridge.NewAdapter(func(name string, n ir.Expr) (any, error) { return "host-default", nil })
	a.Register("visit_constant_", func(n ir.Expr) (any, error) { return "from-script", nil })
	out, err := a.Dispatch("visit_constant_", &ir.Constant{Value: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "from-script" {
		t.Fatalf("expected the registered callback to run, got %v", out)
	}
}

func TestDispatchFallsBackToHostDefault(t *testing.T) {
	a := bridge.NewAdapter(func(name string, n ir.Expr) (any, error) { return "host-default", nil })
	out, err := a.Dispatch("visit_constant_", &ir.Constant{Value: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "host-default" {
		t.Fatalf("expected the host default to run for an unregistered name, got %v", out)
	}
}

func TestUnregisterRevertsToHostDefault(t *testing.T) {
	a := bridge.NewAdapter(func(name string, n ir.Expr) (any, error) { return "host-default", nil })
	a.Register("visit_constant_", func(n ir.Expr) (any, error) { return "from-script", nil })
	a.Unregister("visit_constant_")
	out, _ := a.Dispatch("visit_constant_", &ir.Constant{Value: 1})
	if out != "host-default" {
		t.Fatalf("expected Unregister to revert to the host default, got %v", out)
	}
}

func TestDispatchPropagatesCallbackError(t *testing.T) {
	boom := errors.New("boom")
	a := bridge.NewAdapter(func(name string, n ir.Expr) (any, error) { return nil, nil })
	a.Register("visit_call_", func(n ir.Expr) (any, error) { return nil, boom })
	_, err := a.Dispatch("visit_call_", &ir.Call{Callee: &ir.Op{OpKey: "f"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the script callback's error to propagate, got %v", err)
	}
}

func TestHookNameForCoversEveryKind(t *testing.T) {
	for k := ir.Kind(0); k < ir.NumKinds; k++ {
		name, ok := bridge.HookNameFor(k)
		if !ok {
			t.Fatalf("expected HookNameFor to cover kind %s", k)
		}
		found := false
		for _, hn := range bridge.HookNames {
			if hn == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("HookNameFor(%s) = %q is not among the canonical HookNames", k, name)
		}
	}
}
