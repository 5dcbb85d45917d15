package bridge

import (
	"github.com/sunholo/relaxir/internal/ir"
	"github.com/sunholo/relaxir/internal/visit"
)

// Attach plugs a into v: every hook v.dispatch keys by Kind is
// replaced with one that consults a's registered callback for that
// hook's canonical name first, falling back to v's existing (host)
// hook — unchanged and still free to recurse into vv — when nothing is
// registered (§4.7, §8 scenario 5). Call Attach once, after v has been
// built (e.g. by visit.NewVisitor) and before traversal begins; a later
// Register/Unregister on a takes effect on the very next visit, since
// Attach's wrappers consult a.Lookup live rather than snapshotting it.
func Attach(v *visit.Visitor, a *Adapter) {
	wire(&v.VisitConstant, "visit_constant_", a)
	wire(&v.VisitTuple, "visit_tuple_", a)
	wire(&v.VisitTupleGetItem, "visit_tuple_getitem_", a)
	wire(&v.VisitVar, "visit_var_", a)
	wire(&v.VisitDataflowVar, "visit_dataflow_var_", a)
	wire(&v.VisitGlobalVar, "visit_global_var_", a)
	wire(&v.VisitExternFunc, "visit_extern_func_", a)
	wire(&v.VisitShapeExpr, "visit_shape_expr_", a)
	wire(&v.VisitRuntimeDepShape, "visit_runtime_dep_shape_", a)
	wire(&v.VisitOp, "visit_op_", a)
	wire(&v.VisitCall, "visit_call_", a)
	wire(&v.VisitSeqExpr, "visit_seq_expr_", a)
	wire(&v.VisitIf, "visit_if_", a)
	wire(&v.VisitFunction, "visit_function_", a)
}

// wire replaces *hook with a version that shadows it behind a's
// registration for name, preserving the original as the fallback.
func wire(hook *visit.ExprHook, name string, a *Adapter) {
	host := *hook
	*hook = func(vv *visit.Visitor, n ir.Expr) error {
		if cb, ok := a.Lookup(name); ok {
			_, err := cb(n)
			return err
		}
		return host(vv, n)
	}
}
