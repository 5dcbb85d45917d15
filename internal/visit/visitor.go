package visit

import "github.com/sunholo/relaxir/internal/ir"

// ExprHook is one read-only per-variant hook: inspect n, recurse into
// its children through v, return a fatal diagnostic if something is
// structurally wrong.
type ExprHook func(v *Visitor, n ir.Expr) error

// Visitor is the read-only specialization of the dispatch functor
// (§4.2): signature void(Expr), i.e. R=struct{} under the hood. Every
// hook is an overridable func field; NewVisitor's defaults perform a
// recursive structural traversal visiting children in source order.
// Overriding a field shadows only that variant's default — every other
// variant keeps recursing normally, exactly as a per-variant override
// on a Dispatcher slot would.
type Visitor struct {
	dispatch *Dispatcher[struct{}, *Visitor]

	VisitConstant        ExprHook
	VisitTuple           ExprHook
	VisitTupleGetItem    ExprHook
	VisitVar             ExprHook // use site
	VisitDataflowVar     ExprHook // use site
	VisitGlobalVar       ExprHook
	VisitExternFunc      ExprHook
	VisitShapeExpr       ExprHook
	VisitRuntimeDepShape ExprHook
	VisitOp              ExprHook
	VisitCall            ExprHook
	VisitSeqExpr         ExprHook
	VisitIf              ExprHook
	VisitFunction        ExprHook

	// VisitVarDef is invoked only at definition sites: function
	// parameters and the bound var of a VarBinding/MatchShape. It is
	// distinct from VisitVar/VisitDataflowVar, which fire only at use
	// sites (§4.2 "This split is essential and must be preserved").
	VisitVarDef func(v *Visitor, def ir.Expr) error

	// VisitType/VisitSpan fire for every node's metadata, no-ops by
	// default.
	VisitType func(v *Visitor, t ir.Type) error
	VisitSpan func(v *Visitor, s ir.Span) error

	// VisitDim fires for each symbolic dimension inside a ShapeExpr or
	// a MatchShape pattern. No-op by default.
	VisitDim func(v *Visitor, d ir.PrimExpr) error

	VisitBinding      func(v *Visitor, b ir.Binding) error
	VisitVarBinding   func(v *Visitor, b ir.VarBinding) error
	VisitMatchShape   func(v *Visitor, b ir.MatchShape) error
	VisitBindingBlock func(v *Visitor, blk ir.BindingBlock) error
	// VisitBindingBlockOrdinary/VisitDataflowBlock are the two
	// branches VisitBindingBlock dispatches to based on blk.IsDataflow
	// (§4.2 "dispatches to visit_binding_block_ or
	// visit_dataflow_block_").
	VisitBindingBlockOrdinary func(v *Visitor, blk ir.BindingBlock) error
	VisitDataflowBlock        func(v *Visitor, blk ir.BindingBlock) error
}

// NewVisitor builds a Visitor whose every hook performs the default
// recursive structural traversal described in §4.2.
func NewVisitor() *Visitor {
	v := &Visitor{}

	v.VisitType = func(*Visitor, ir.Type) error { return nil }
	v.VisitSpan = func(*Visitor, ir.Span) error { return nil }
	v.VisitDim = func(*Visitor, ir.PrimExpr) error { return nil }

	v.VisitConstant = func(*Visitor, ir.Expr) error { return nil }
	v.VisitVar = func(*Visitor, ir.Expr) error { return nil }
	v.VisitDataflowVar = func(*Visitor, ir.Expr) error { return nil }
	v.VisitGlobalVar = func(*Visitor, ir.Expr) error { return nil }
	v.VisitExternFunc = func(*Visitor, ir.Expr) error { return nil }
	v.VisitOp = func(*Visitor, ir.Expr) error { return nil }
	v.VisitRuntimeDepShape = func(*Visitor, ir.Expr) error { return nil }

	v.VisitShapeExpr = func(vv *Visitor, n ir.Expr) error {
		s := n.(*ir.ShapeExpr)
		for _, d := range s.DimsVal {
			if err := visitDimRec(vv, d); err != nil {
				return err
			}
		}
		return nil
	}

	v.VisitTupleGetItem = func(vv *Visitor, n ir.Expr) error {
		g := n.(*ir.TupleGetItem)
		return vv.Visit(g.Base)
	}

	v.VisitTuple = func(vv *Visitor, n ir.Expr) error {
		t := n.(*ir.Tuple)
		for _, f := range t.Fields {
			if err := vv.Visit(f); err != nil {
				return err
			}
		}
		return nil
	}

	v.VisitCall = func(vv *Visitor, n ir.Expr) error {
		c := n.(*ir.Call)
		if err := vv.Visit(c.Callee); err != nil {
			return err
		}
		for _, a := range c.Args {
			if err := vv.Visit(a); err != nil {
				return err
			}
		}
		return nil
	}

	v.VisitIf = func(vv *Visitor, n ir.Expr) error {
		i := n.(*ir.If)
		if err := vv.Visit(i.Cond); err != nil {
			return err
		}
		if err := vv.Visit(i.Then); err != nil {
			return err
		}
		return vv.Visit(i.Else)
	}

	v.VisitSeqExpr = func(vv *Visitor, n ir.Expr) error {
		s := n.(*ir.SeqExpr)
		for _, blk := range s.Blocks {
			if err := vv.VisitBindingBlock(vv, blk); err != nil {
				return err
			}
		}
		return vv.Visit(s.Body)
	}

	v.VisitFunction = func(vv *Visitor, n ir.Expr) error {
		f := n.(*ir.Function)
		for _, p := range f.Params {
			if err := vv.VisitVarDef(vv, p); err != nil {
				return err
			}
		}
		return vv.Visit(f.Body)
	}

	v.VisitVarDef = func(vv *Visitor, def ir.Expr) error {
		return vv.touchMetadata(def)
	}

	v.VisitVarBinding = func(vv *Visitor, b ir.VarBinding) error {
		if err := vv.Visit(b.Value); err != nil {
			return err
		}
		return vv.VisitVarDef(vv, b.BoundVar)
	}

	v.VisitMatchShape = func(vv *Visitor, b ir.MatchShape) error {
		if err := vv.Visit(b.Value); err != nil {
			return err
		}
		for _, d := range b.Pattern {
			if err := visitDimRec(vv, d); err != nil {
				return err
			}
		}
		if b.BoundVar != nil {
			return vv.VisitVarDef(vv, b.BoundVar)
		}
		return nil
	}

	v.VisitBinding = func(vv *Visitor, b ir.Binding) error {
		switch bind := b.(type) {
		case ir.VarBinding:
			return vv.VisitVarBinding(vv, bind)
		case ir.MatchShape:
			return vv.VisitMatchShape(vv, bind)
		default:
			return nil // ir.Binding is closed to these two variants
		}
	}

	v.VisitBindingBlockOrdinary = func(vv *Visitor, blk ir.BindingBlock) error {
		for _, b := range blk.Bindings {
			if err := vv.VisitBinding(vv, b); err != nil {
				return err
			}
		}
		return nil
	}
	v.VisitDataflowBlock = v.VisitBindingBlockOrdinary

	v.VisitBindingBlock = func(vv *Visitor, blk ir.BindingBlock) error {
		if blk.IsDataflow {
			return vv.VisitDataflowBlock(vv, blk)
		}
		return vv.VisitBindingBlockOrdinary(vv, blk)
	}

	v.dispatch = NewDispatcher[struct{}, *Visitor](Unhandled[struct{}, *Visitor]())
	v.dispatch.Set(ir.KConstant, func(e ir.Expr, vv *Visitor) (struct{}, error) { return struct{}{}, vv.VisitConstant(vv, e) })
	v.dispatch.Set(ir.KTuple, func(e ir.Expr, vv *Visitor) (struct{}, error) { return struct{}{}, vv.VisitTuple(vv, e) })
	v.dispatch.Set(ir.KTupleGetItem, func(e ir.Expr, vv *Visitor) (struct{}, error) { return struct{}{}, vv.VisitTupleGetItem(vv, e) })
	v.dispatch.Set(ir.KVar, func(e ir.Expr, vv *Visitor) (struct{}, error) { return struct{}{}, vv.VisitVar(vv, e) })
	v.dispatch.Set(ir.KDataflowVar, func(e ir.Expr, vv *Visitor) (struct{}, error) { return struct{}{}, vv.VisitDataflowVar(vv, e) })
	v.dispatch.Set(ir.KGlobalVar, func(e ir.Expr, vv *Visitor) (struct{}, error) { return struct{}{}, vv.VisitGlobalVar(vv, e) })
	v.dispatch.Set(ir.KExternFunc, func(e ir.Expr, vv *Visitor) (struct{}, error) { return struct{}{}, vv.VisitExternFunc(vv, e) })
	v.dispatch.Set(ir.KShapeExpr, func(e ir.Expr, vv *Visitor) (struct{}, error) { return struct{}{}, vv.VisitShapeExpr(vv, e) })
	v.dispatch.Set(ir.KRuntimeDepShape, func(e ir.Expr, vv *Visitor) (struct{}, error) { return struct{}{}, vv.VisitRuntimeDepShape(vv, e) })
	v.dispatch.Set(ir.KOp, func(e ir.Expr, vv *Visitor) (struct{}, error) { return struct{}{}, vv.VisitOp(vv, e) })
	v.dispatch.Set(ir.KCall, func(e ir.Expr, vv *Visitor) (struct{}, error) { return struct{}{}, vv.VisitCall(vv, e) })
	v.dispatch.Set(ir.KSeqExpr, func(e ir.Expr, vv *Visitor) (struct{}, error) { return struct{}{}, vv.VisitSeqExpr(vv, e) })
	v.dispatch.Set(ir.KIf, func(e ir.Expr, vv *Visitor) (struct{}, error) { return struct{}{}, vv.VisitIf(vv, e) })
	v.dispatch.Set(ir.KFunction, func(e ir.Expr, vv *Visitor) (struct{}, error) { return struct{}{}, vv.VisitFunction(vv, e) })

	return v
}

// Visit is the traversal's top-level entry point (§4.1 visit). It
// fires VisitType/VisitSpan for the node's metadata before dispatching
// to the per-variant hook — use-site visits only, definition sites go
// through VisitVarDef instead and are never routed through Visit.
func (v *Visitor) Visit(e ir.Expr) error {
	if e == nil {
		_, err := v.dispatch.Dispatch(nil, v)
		return err
	}
	if err := v.touchMetadata(e); err != nil {
		return err
	}
	_, err := v.dispatch.Dispatch(e, v)
	return err
}

func (v *Visitor) touchMetadata(e ir.Expr) error {
	if t := e.CheckedType(); t != nil {
		if err := v.VisitType(v, t); err != nil {
			return err
		}
	}
	return v.VisitSpan(v, e.Span())
}

func visitDimRec(v *Visitor, d ir.PrimExpr) error {
	if err := v.VisitDim(v, d); err != nil {
		return err
	}
	if bin, ok := d.(ir.BinArith); ok {
		if err := visitDimRec(v, bin.Left); err != nil {
			return err
		}
		return visitDimRec(v, bin.Right)
	}
	return nil
}

// PostOrderVisit applies cb to every Expr reachable from e in
// children-before-parent order, using an explicit work stack rather
// than host-stack recursion so traversal depth is bounded by heap, not
// control stack (§4.2, §5). It reaches exactly the multiset of nodes a
// default Visitor reaches — including binding values and bound-var
// definition sites — by walking ir.Children.
func PostOrderVisit(e ir.Expr, cb func(ir.Expr)) {
	if e == nil {
		return
	}
	type frame struct {
		node     ir.Expr
		children []ir.Expr
		idx      int
	}
	stack := []*frame{{node: e, children: ir.Children(e)}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.idx < len(top.children) {
			child := top.children[top.idx]
			top.idx++
			stack = append(stack, &frame{node: child, children: ir.Children(child)})
			continue
		}
		cb(top.node)
		stack = stack[:len(stack)-1]
	}
}
