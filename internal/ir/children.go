package ir

// Children returns expr's direct structural children, in source order,
// for every Expr reachable through the traversal framework (§4.2): for
// a Call, the callee then args by index; for a Tuple, fields by index;
// for an If, cond/then/else; for a SeqExpr, each block's bindings
// (value, then bound-var definition if any) followed by the body; for
// a Function, params (definition sites) followed by the body; for a
// TupleGetItem, the base. Leaves (Constant, Var, DataflowVar,
// GlobalVar, ExternFunc, Op, ShapeExpr, RuntimeDepShape) have none.
//
// ShapeExpr's Dims are PrimExpr values, not Expr nodes (§3 "Shape
// expressions are values, not nodes of the main AST"), so they are
// never included here — internal/visit visits them through a separate
// hook that does not affect Expr reachability.
func Children(expr Expr) []Expr {
	switch e := expr.(type) {
	case *Call:
		out := make([]Expr, 0, 1+len(e.Args))
		out = append(out, e.Callee)
		out = append(out, e.Args...)
		return out
	case *Tuple:
		out := make([]Expr, len(e.Fields))
		copy(out, e.Fields)
		return out
	case *TupleGetItem:
		return []Expr{e.Base}
	case *If:
		return []Expr{e.Cond, e.Then, e.Else}
	case *SeqExpr:
		var out []Expr
		for _, blk := range e.Blocks {
			for _, b := range blk.Bindings {
				switch bind := b.(type) {
				case VarBinding:
					out = append(out, bind.Value, bind.BoundVar)
				case MatchShape:
					out = append(out, bind.Value)
					if bind.BoundVar != nil {
						out = append(out, bind.BoundVar)
					}
				}
			}
		}
		out = append(out, e.Body)
		return out
	case *Function:
		out := make([]Expr, 0, len(e.Params)+1)
		for _, p := range e.Params {
			out = append(out, p)
		}
		out = append(out, e.Body)
		return out
	default:
		// Constant, Var, DataflowVar, GlobalVar, ExternFunc, Op,
		// ShapeExpr, RuntimeDepShape: no Expr children.
		return nil
	}
}
