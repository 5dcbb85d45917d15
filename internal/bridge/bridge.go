// Package bridge implements the scripting bridge adapter of §4.7: a
// host-language embedder registers named callbacks that shadow a
// subset of a Visitor's or Mutator's hooks, falling back to the host's
// own default implementation for any name it left unregistered. It is
// grounded on the teacher's eval/builtins.go + builtins_call.go
// name-to-callback dispatch, generalized from AILANG's fixed builtin
// table to the traversal framework's fixed canonical hook-name list.
package bridge

import "github.com/sunholo/relaxir/internal/ir"

// Callback is one script-supplied hook override. It receives the node
// being visited and returns whatever the embedder's scripting runtime
// produced; Adapter does not interpret the result, it only decides
// whether to call the script or fall through to the host default.
type Callback func(n ir.Expr) (any, error)

// HookNames is the fixed, canonical list of hook names the bridge
// recognizes (§4.7). A name outside this list is rejected by
// Register — the embedder cannot invent new hook points, only shadow
// ones the traversal framework already exposes.
var HookNames = []string{
	"visit_expr",
	"visit_constant_",
	"visit_tuple_",
	"visit_var_",
	"visit_dataflow_var_",
	"visit_shape_expr_",
	"visit_runtime_dep_shape_",
	"visit_extern_func_",
	"visit_global_var_",
	"visit_function_",
	"visit_call_",
	"visit_seq_expr_",
	"visit_if_",
	"visit_op_",
	"visit_tuple_getitem_",
	"visit_binding",
	"visit_var_binding_",
	"visit_match_shape_",
	"visit_binding_block",
	"visit_binding_block_",
	"visit_dataflow_block_",
	"visit_var_def",
	"visit_var_def_",
	"visit_dataflow_var_def_",
	"visit_type",
	"visit_span",
}

func isCanonical(name string) bool {
	for _, n := range HookNames {
		if n == name {
			return true
		}
	}
	return false
}

// Adapter maps hook names to script callbacks, with a host-supplied
// default for any name the script did not register (§4.7 "falling
// back to the host's default implementation for any name it left
// unregistered").
type Adapter struct {
	callbacks map[string]Callback
	Default   func(name string, n ir.Expr) (any, error)
}

// NewAdapter builds an empty Adapter; every call to Dispatch falls
// through to def until callbacks are registered.
func NewAdapter(def func(name string, n ir.Expr) (any, error)) *Adapter {
	return &Adapter{callbacks: make(map[string]Callback), Default: def}
}

// Register installs a script callback for a canonical hook name. It
// reports ok=false (no-op) if name is not one of HookNames.
func (a *Adapter) Register(name string, cb Callback) bool {
	if !isCanonical(name) {
		return false
	}
	a.callbacks[name] = cb
	return true
}

// Unregister removes a previously-registered callback, reverting that
// hook to the host default.
func (a *Adapter) Unregister(name string) {
	delete(a.callbacks, name)
}

// Dispatch calls the script callback registered for name if present,
// else falls back to the Adapter's host default.
func (a *Adapter) Dispatch(name string, n ir.Expr) (any, error) {
	if cb, ok := a.callbacks[name]; ok {
		return cb(n)
	}
	return a.Default(name, n)
}

// Lookup returns the script callback registered for name, if any.
// Attach uses this instead of Dispatch because a visit.Visitor hook's
// host fallback needs to keep recursing with the visitor in scope —
// something Adapter.Default's signature (name, node) has no room for.
func (a *Adapter) Lookup(name string) (Callback, bool) {
	cb, ok := a.callbacks[name]
	return cb, ok
}

// HookNameFor returns the canonical hook name for a node's Kind, i.e.
// the name a script would register to shadow that variant's default
// handling. It does not cover visit_expr/visit_binding/
// visit_binding_block/visit_var_def/visit_type/visit_span, which are
// not keyed by Kind.
func HookNameFor(k ir.Kind) (string, bool) {
	switch k {
	case ir.KConstant:
		return "visit_constant_", true
	case ir.KTuple:
		return "visit_tuple_", true
	case ir.KTupleGetItem:
		return "visit_tuple_getitem_", true
	case ir.KVar:
		return "visit_var_", true
	case ir.KDataflowVar:
		return "visit_dataflow_var_", true
	case ir.KGlobalVar:
		return "visit_global_var_", true
	case ir.KExternFunc:
		return "visit_extern_func_", true
	case ir.KShapeExpr:
		return "visit_shape_expr_", true
	case ir.KRuntimeDepShape:
		return "visit_runtime_dep_shape_", true
	case ir.KOp:
		return "visit_op_", true
	case ir.KCall:
		return "visit_call_", true
	case ir.KSeqExpr:
		return "visit_seq_expr_", true
	case ir.KIf:
		return "visit_if_", true
	case ir.KFunction:
		return "visit_function_", true
	default:
		return "", false
	}
}
