// Package mutate implements the unnormalized Mutator specialization of
// the dispatch functor (§4.3): signature Expr(Expr), rebuilding a node
// only when a child (or its type annotation) actually changed, and
// returning the original node by identity otherwise so structural
// sharing survives a no-op pass (§8 invariant 1).
package mutate

import (
	"github.com/sunholo/relaxir/internal/ir"
	"github.com/sunholo/relaxir/internal/visit"
)

// ExprHook rewrites n, returning either n itself (no change) or a
// freshly built node of the same variant.
type ExprHook func(m *Mutator, n ir.Expr) (ir.Expr, error)

// TypeHook rewrites a type annotation. The default is identity.
type TypeHook func(m *Mutator, t ir.Type) (ir.Type, error)

// Mutator is the unnormalized rewriting specialization (§4.3). Every
// hook is an overridable func field; internal/normalize builds the
// normalizing mutator (§4.4) by holding a Mutator and overriding
// VisitFunction/VisitSeqExpr/VisitIf/VisitCall/VisitTuple/
// VisitTupleGetItem/VisitVar/VisitDataflowVar.
type Mutator struct {
	dispatch *visit.Dispatcher[ir.Expr, *Mutator]

	VisitConstant        ExprHook
	VisitTuple           ExprHook
	VisitTupleGetItem    ExprHook
	VisitVar             ExprHook
	VisitDataflowVar     ExprHook
	VisitGlobalVar       ExprHook
	VisitExternFunc      ExprHook
	VisitShapeExpr       ExprHook
	VisitRuntimeDepShape ExprHook
	VisitOp              ExprHook
	VisitCall            ExprHook
	VisitSeqExpr         ExprHook
	VisitIf              ExprHook
	VisitFunction        ExprHook

	VisitType TypeHook

	// VisitBindingBlock rewrites a block's bindings transparently: the
	// unnormalized mutator does not open a scope (§4.3).
	VisitBindingBlock func(m *Mutator, blk ir.BindingBlock) (ir.BindingBlock, error)
	VisitVarBinding   func(m *Mutator, b ir.VarBinding) (ir.Binding, error)
	VisitMatchShape   func(m *Mutator, b ir.MatchShape) (ir.Binding, error)
}

func typesEqual(a, b ir.Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equals(b)
}

// rewriteAnnotations applies m.VisitType to n's CheckedType and returns
// n unchanged (by identity) if the type didn't change, else a stamped
// copy. Shape annotations are left untouched — the spec only calls for
// a type-rewriting hook (§4.3).
func (m *Mutator) rewriteAnnotations(n ir.Expr) (ir.Expr, error) {
	oldType := n.CheckedType()
	newType, err := m.VisitType(m, oldType)
	if err != nil {
		return nil, err
	}
	if typesEqual(oldType, newType) {
		return n, nil
	}
	return n.WithAnnotations(newType, nil), nil
}

// NewMutator builds a Mutator whose every hook performs the default
// rebuild-if-changed traversal described in §4.3.
func NewMutator() *Mutator {
	m := &Mutator{}

	m.VisitType = func(_ *Mutator, t ir.Type) (ir.Type, error) { return t, nil }

	identity := func(mm *Mutator, n ir.Expr) (ir.Expr, error) {
		return mm.rewriteAnnotations(n)
	}
	m.VisitConstant = identity
	m.VisitVar = identity
	m.VisitDataflowVar = identity
	m.VisitGlobalVar = identity
	m.VisitExternFunc = identity
	m.VisitOp = identity
	m.VisitShapeExpr = identity
	m.VisitRuntimeDepShape = identity

	m.VisitTupleGetItem = func(mm *Mutator, n ir.Expr) (ir.Expr, error) {
		g := n.(*ir.TupleGetItem)
		newBase, err := mm.Visit(g.Base)
		if err != nil {
			return nil, err
		}
		out := ir.Expr(g)
		if newBase != g.Base {
			out = g.WithBase(newBase)
		}
		return mm.rewriteAnnotations(out)
	}

	m.VisitTuple = func(mm *Mutator, n ir.Expr) (ir.Expr, error) {
		t := n.(*ir.Tuple)
		changed := false
		newFields := make([]ir.Expr, len(t.Fields))
		for i, f := range t.Fields {
			nf, err := mm.Visit(f)
			if err != nil {
				return nil, err
			}
			newFields[i] = nf
			if nf != f {
				changed = true
			}
		}
		out := ir.Expr(t)
		if changed {
			out = t.WithFields(newFields)
		}
		return mm.rewriteAnnotations(out)
	}

	m.VisitCall = func(mm *Mutator, n ir.Expr) (ir.Expr, error) {
		c := n.(*ir.Call)
		newCallee, err := mm.Visit(c.Callee)
		if err != nil {
			return nil, err
		}
		changed := newCallee != c.Callee
		newArgs := make([]ir.Expr, len(c.Args))
		for i, a := range c.Args {
			na, err := mm.Visit(a)
			if err != nil {
				return nil, err
			}
			newArgs[i] = na
			if na != a {
				changed = true
			}
		}
		out := ir.Expr(c)
		if changed {
			out = c.WithOperands(newCallee, newArgs)
		}
		return mm.rewriteAnnotations(out)
	}

	m.VisitIf = func(mm *Mutator, n ir.Expr) (ir.Expr, error) {
		i := n.(*ir.If)
		nc, err := mm.Visit(i.Cond)
		if err != nil {
			return nil, err
		}
		nt, err := mm.Visit(i.Then)
		if err != nil {
			return nil, err
		}
		ne, err := mm.Visit(i.Else)
		if err != nil {
			return nil, err
		}
		out := ir.Expr(i)
		if nc != i.Cond || nt != i.Then || ne != i.Else {
			out = i.WithParts(nc, nt, ne)
		}
		return mm.rewriteAnnotations(out)
	}

	m.VisitSeqExpr = func(mm *Mutator, n ir.Expr) (ir.Expr, error) {
		s := n.(*ir.SeqExpr)
		changed := false
		newBlocks := make([]ir.BindingBlock, len(s.Blocks))
		for i, blk := range s.Blocks {
			nb, err := mm.VisitBindingBlock(mm, blk)
			if err != nil {
				return nil, err
			}
			newBlocks[i] = nb
			if !sameBindingBlock(blk, nb) {
				changed = true
			}
		}
		newBody, err := mm.Visit(s.Body)
		if err != nil {
			return nil, err
		}
		if newBody != s.Body {
			changed = true
		}
		out := ir.Expr(s)
		if changed {
			out = s.WithParts(newBlocks, newBody)
		}
		return mm.rewriteAnnotations(out)
	}

	m.VisitFunction = func(mm *Mutator, n ir.Expr) (ir.Expr, error) {
		f := n.(*ir.Function)
		newBody, err := mm.Visit(f.Body)
		if err != nil {
			return nil, err
		}
		out := ir.Expr(f)
		if newBody != f.Body {
			out = f.WithParts(f.Params, newBody)
		}
		return mm.rewriteAnnotations(out)
	}

	m.VisitVarBinding = func(mm *Mutator, b ir.VarBinding) (ir.Binding, error) {
		newValue, err := mm.Visit(b.Value)
		if err != nil {
			return nil, err
		}
		if newValue == b.Value {
			return b, nil
		}
		return ir.VarBinding{BoundVar: b.BoundVar, Value: newValue}, nil
	}

	m.VisitMatchShape = func(mm *Mutator, b ir.MatchShape) (ir.Binding, error) {
		newValue, err := mm.Visit(b.Value)
		if err != nil {
			return nil, err
		}
		if newValue == b.Value {
			return b, nil
		}
		return ir.MatchShape{Value: newValue, Pattern: b.Pattern, BoundVar: b.BoundVar}, nil
	}

	m.VisitBindingBlock = func(mm *Mutator, blk ir.BindingBlock) (ir.BindingBlock, error) {
		newBindings := make([]ir.Binding, len(blk.Bindings))
		for i, b := range blk.Bindings {
			var nb ir.Binding
			var err error
			switch bind := b.(type) {
			case ir.VarBinding:
				nb, err = mm.VisitVarBinding(mm, bind)
			case ir.MatchShape:
				nb, err = mm.VisitMatchShape(mm, bind)
			default:
				nb, err = b, nil
			}
			if err != nil {
				return ir.BindingBlock{}, err
			}
			newBindings[i] = nb
		}
		return ir.BindingBlock{Bindings: newBindings, IsDataflow: blk.IsDataflow}, nil
	}

	m.dispatch = visit.NewDispatcher[ir.Expr, *Mutator](visit.Unhandled[ir.Expr, *Mutator]())
	m.dispatch.Set(ir.KConstant, func(e ir.Expr, mm *Mutator) (ir.Expr, error) { return mm.VisitConstant(mm, e) })
	m.dispatch.Set(ir.KTuple, func(e ir.Expr, mm *Mutator) (ir.Expr, error) { return mm.VisitTuple(mm, e) })
	m.dispatch.Set(ir.KTupleGetItem, func(e ir.Expr, mm *Mutator) (ir.Expr, error) { return mm.VisitTupleGetItem(mm, e) })
	m.dispatch.Set(ir.KVar, func(e ir.Expr, mm *Mutator) (ir.Expr, error) { return mm.VisitVar(mm, e) })
	m.dispatch.Set(ir.KDataflowVar, func(e ir.Expr, mm *Mutator) (ir.Expr, error) { return mm.VisitDataflowVar(mm, e) })
	m.dispatch.Set(ir.KGlobalVar, func(e ir.Expr, mm *Mutator) (ir.Expr, error) { return mm.VisitGlobalVar(mm, e) })
	m.dispatch.Set(ir.KExternFunc, func(e ir.Expr, mm *Mutator) (ir.Expr, error) { return mm.VisitExternFunc(mm, e) })
	m.dispatch.Set(ir.KShapeExpr, func(e ir.Expr, mm *Mutator) (ir.Expr, error) { return mm.VisitShapeExpr(mm, e) })
	m.dispatch.Set(ir.KRuntimeDepShape, func(e ir.Expr, mm *Mutator) (ir.Expr, error) { return mm.VisitRuntimeDepShape(mm, e) })
	m.dispatch.Set(ir.KOp, func(e ir.Expr, mm *Mutator) (ir.Expr, error) { return mm.VisitOp(mm, e) })
	m.dispatch.Set(ir.KCall, func(e ir.Expr, mm *Mutator) (ir.Expr, error) { return mm.VisitCall(mm, e) })
	m.dispatch.Set(ir.KSeqExpr, func(e ir.Expr, mm *Mutator) (ir.Expr, error) { return mm.VisitSeqExpr(mm, e) })
	m.dispatch.Set(ir.KIf, func(e ir.Expr, mm *Mutator) (ir.Expr, error) { return mm.VisitIf(mm, e) })
	m.dispatch.Set(ir.KFunction, func(e ir.Expr, mm *Mutator) (ir.Expr, error) { return mm.VisitFunction(mm, e) })
	return m
}

// sameBindingBlock reports whether two blocks hold pointer-identical
// bindings throughout (used only to decide whether a SeqExpr needs
// rebuilding, not as a general equality notion).
func sameBindingBlock(a, b ir.BindingBlock) bool {
	if len(a.Bindings) != len(b.Bindings) || a.IsDataflow != b.IsDataflow {
		return false
	}
	for i := range a.Bindings {
		if !sameBinding(a.Bindings[i], b.Bindings[i]) {
			return false
		}
	}
	return true
}

func sameBinding(a, b ir.Binding) bool {
	switch av := a.(type) {
	case ir.VarBinding:
		bv, ok := b.(ir.VarBinding)
		return ok && av.Value == bv.Value && av.BoundVar == bv.BoundVar
	case ir.MatchShape:
		bv, ok := b.(ir.MatchShape)
		return ok && av.Value == bv.Value && av.BoundVar == bv.BoundVar
	default:
		return false
	}
}

// Visit is the traversal's top-level entry point.
func (m *Mutator) Visit(e ir.Expr) (ir.Expr, error) {
	return m.dispatch.Dispatch(e, m)
}
