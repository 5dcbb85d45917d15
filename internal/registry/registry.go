// Package registry declares the operator registry external interface
// (§6): lookup of per-operator shape/type inference, keyed by an
// ir.Op's key. The real registry lives outside this core (§1 scope);
// this package only states the contract plus one reference,
// YAML-backed adapter used by tests and the demo tool.
package registry

import (
	"github.com/sunholo/relaxir/internal/diag"
	"github.com/sunholo/relaxir/internal/ir"
)

// Registry looks up per-operator inference rules by the Call's Op key.
// Absence of an entry is not an error (§4.6, §6): both methods report
// ok=false and the builder proceeds with "unknown" (empty shape/type).
type Registry interface {
	InferShape(call *ir.Call, dctx *diag.Ctx) (shape ir.Expr, ok bool)
	InferType(call *ir.Call, dctx *diag.Ctx) (t ir.Type, ok bool)
}

// Empty is a Registry with no entries — every call's inference is
// "unknown". Useful as a default/no-op collaborator in tests that do
// not exercise eager inference.
type Empty struct{}

func (Empty) InferShape(*ir.Call, *diag.Ctx) (ir.Expr, bool) { return nil, false }
func (Empty) InferType(*ir.Call, *diag.Ctx) (ir.Type, bool)  { return nil, false }
