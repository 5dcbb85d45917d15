// Package normalize implements the Normalizing Mutator of §4.4: a
// mutate.Mutator composed with a builder.Builder so that Function,
// SeqExpr, and If bodies are rewritten under a fresh builder scope
// instead of in place. Bindings are re-emitted through the builder
// (which performs the same eager shape/type inference emit() always
// does), producing a var-remap from each binding's original Id to the
// freshly bound Var/DataflowVar it now resolves to; use-site Var and
// DataflowVar visits consult that remap instead of passing the old
// reference through unchanged.
package normalize

import (
	"github.com/sunholo/relaxir/internal/builder"
	"github.com/sunholo/relaxir/internal/diag"
	"github.com/sunholo/relaxir/internal/ir"
	"github.com/sunholo/relaxir/internal/mutate"
	"github.com/sunholo/relaxir/internal/oracle"
	"github.com/sunholo/relaxir/internal/registry"
)

// Normalizer is the normalizing mutator: a mutate.Mutator whose
// control-flow/scope hooks have been overridden to drive a
// builder.Builder.
type Normalizer struct {
	Mutator *mutate.Mutator
	b       *builder.Builder
	remap   map[uint64]ir.Expr
}

// New builds a Normalizer with its own Builder and remap table.
func New(reg registry.Registry, oc oracle.Oracle, dctx *diag.Ctx) *Normalizer {
	n := &Normalizer{b: builder.New(reg, oc, dctx), remap: make(map[uint64]ir.Expr)}
	m := mutate.NewMutator()

	m.VisitVar = func(_ *mutate.Mutator, e ir.Expr) (ir.Expr, error) { return n.resolveVar(e) }
	m.VisitDataflowVar = func(_ *mutate.Mutator, e ir.Expr) (ir.Expr, error) { return n.resolveVar(e) }

	m.VisitTuple = func(mm *mutate.Mutator, e ir.Expr) (ir.Expr, error) {
		t := e.(*ir.Tuple)
		changed := false
		fields := make([]ir.Expr, len(t.Fields))
		for i, f := range t.Fields {
			nf, err := n.toAtomic(mm, f, "t")
			if err != nil {
				return nil, err
			}
			fields[i] = nf
			if nf != f {
				changed = true
			}
		}
		if changed {
			return t.WithFields(fields), nil
		}
		return t, nil
	}

	m.VisitTupleGetItem = func(mm *mutate.Mutator, e ir.Expr) (ir.Expr, error) {
		g := e.(*ir.TupleGetItem)
		base, err := n.toAtomic(mm, g.Base, "t")
		if err != nil {
			return nil, err
		}
		if base != g.Base {
			return g.WithBase(base), nil
		}
		return g, nil
	}

	m.VisitCall = func(mm *mutate.Mutator, e ir.Expr) (ir.Expr, error) {
		c := e.(*ir.Call)
		callee, err := n.toAtomic(mm, c.Callee, "f")
		if err != nil {
			return nil, err
		}
		changed := callee != c.Callee
		args := make([]ir.Expr, len(c.Args))
		for i, a := range c.Args {
			na, err := n.toAtomic(mm, a, "a")
			if err != nil {
				return nil, err
			}
			args[i] = na
			if na != a {
				changed = true
			}
		}
		if changed {
			return c.WithOperands(callee, args), nil
		}
		return c, nil
	}

	m.VisitIf = func(mm *mutate.Mutator, e ir.Expr) (ir.Expr, error) {
		i := e.(*ir.If)
		cond, err := n.toAtomic(mm, i.Cond, "c")
		if err != nil {
			return nil, err
		}
		thenE, err := n.normalizeScoped(mm, i.Then, false, true)
		if err != nil {
			return nil, err
		}
		elseE, err := n.normalizeScoped(mm, i.Else, false, true)
		if err != nil {
			return nil, err
		}
		if cond != i.Cond || thenE != i.Then || elseE != i.Else {
			return i.WithParts(cond, thenE, elseE), nil
		}
		return i, nil
	}

	m.VisitSeqExpr = func(mm *mutate.Mutator, e ir.Expr) (ir.Expr, error) {
		return n.normalizeSeqExpr(mm, e.(*ir.SeqExpr))
	}

	m.VisitFunction = func(mm *mutate.Mutator, e ir.Expr) (ir.Expr, error) {
		f := e.(*ir.Function)
		body, err := n.normalizeScoped(mm, f.Body, false, false)
		if err != nil {
			return nil, err
		}
		if body != f.Body {
			return f.WithParts(f.Params, body), nil
		}
		return f, nil
	}

	n.Mutator = m
	return n
}

// Normalize runs the normalizing mutator over expr (§4.4, §4.6
// "normalize"). It is idempotent: running the output back through
// Normalize with a fresh Normalizer produces the same structure, since
// each run allocates names from a fresh table using the same
// deterministic hint sequence.
func Normalize(expr ir.Expr, reg registry.Registry, oc oracle.Oracle, dctx *diag.Ctx) (ir.Expr, error) {
	n := New(reg, oc, dctx)
	defer n.b.Close()
	out, err := n.normalizeScoped(n.Mutator, expr, false, false)
	if err != nil {
		return nil, err
	}
	if err := n.b.CheckScope(out); err != nil {
		return nil, err
	}
	return out, nil
}

// toAtomic normalizes e, then — if the result isn't already atomic —
// emits it through the builder and returns the fresh binding-site
// reference in its place (§3 invariant 1: every Call argument, tuple
// field, and TupleGetItem base must be atomic).
func (n *Normalizer) toAtomic(mm *mutate.Mutator, e ir.Expr, hint string) (ir.Expr, error) {
	rewritten, err := mm.Visit(e)
	if err != nil {
		return nil, err
	}
	if ir.IsAtomic(rewritten) {
		return rewritten, nil
	}
	return n.b.Emit(rewritten, hint)
}

// normalizeScoped opens a fresh block (dataflow or ordinary), visits
// body inside it, and wraps whatever bindings were emitted around the
// resulting tail. With atomicTail set (If branches) the tail itself
// must end up atomic (§8 scenario 4: normalizing
// If(p, Call(f, [Call(g, [x])]), y) binds both the nested call and the
// branch's own outer call, leaving the branch as a SeqExpr whose body
// is the atomic var naming the outer call's result) so a non-atomic
// tail is emitted through the builder like any other non-atomic
// operand. Without it (function bodies, the top-level expression) the
// tail is kept as visited. A body that emits nothing collapses back to
// its own tail, so normalizing an already-atomic leaf never introduces
// a spurious empty SeqExpr.
func (n *Normalizer) normalizeScoped(mm *mutate.Mutator, body ir.Expr, isDataflow, atomicTail bool) (ir.Expr, error) {
	if isDataflow {
		n.b.BeginDataflowBlock()
	} else {
		n.b.BeginBindingBlock()
	}
	tail, err := mm.Visit(body)
	if err != nil {
		return nil, err
	}
	if atomicTail && !ir.IsAtomic(tail) {
		tail, err = n.b.Emit(tail, hintOf(tail))
		if err != nil {
			return nil, err
		}
	}
	blk, err := n.b.EndBlock()
	if err != nil {
		return nil, err
	}
	if len(blk.Bindings) == 0 {
		return tail, nil
	}
	return &ir.SeqExpr{Blocks: []ir.BindingBlock{blk}, Body: tail}, nil
}

// normalizeSeqExpr re-emits every existing block's bindings through the
// builder, installing a remap entry for each bound var, then
// normalizes the tail.
func (n *Normalizer) normalizeSeqExpr(mm *mutate.Mutator, s *ir.SeqExpr) (ir.Expr, error) {
	blocks := make([]ir.BindingBlock, 0, len(s.Blocks))
	for _, blk := range s.Blocks {
		if blk.IsDataflow {
			n.b.BeginDataflowBlock()
		} else {
			n.b.BeginBindingBlock()
		}
		for _, bind := range blk.Bindings {
			switch bd := bind.(type) {
			case ir.VarBinding:
				newVal, err := mm.Visit(bd.Value)
				if err != nil {
					return nil, err
				}
				boundExpr, err := n.b.Emit(newVal, hintOf(bd.BoundVar))
				if err != nil {
					return nil, err
				}
				n.installRemap(bd.BoundVar, boundExpr)
			case ir.MatchShape:
				newVal, err := mm.Visit(bd.Value)
				if err != nil {
					return nil, err
				}
				hint := ""
				if bd.BoundVar != nil {
					hint = hintOf(bd.BoundVar)
				}
				boundExpr, err := n.b.EmitMatchShape(newVal, bd.Pattern, hint)
				if err != nil {
					return nil, err
				}
				if bd.BoundVar != nil {
					n.installRemap(bd.BoundVar, boundExpr)
				}
			}
		}
		nb, err := n.b.EndBlock()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, nb)
	}
	tail, err := mm.Visit(s.Body)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return tail, nil
	}
	return s.WithParts(blocks, tail), nil
}

func (n *Normalizer) resolveVar(e ir.Expr) (ir.Expr, error) {
	id, ok := ir.VarIdOf(e)
	if !ok {
		return e, nil
	}
	if r, found := n.remap[id.Unique()]; found {
		return r, nil
	}
	return e, nil
}

func (n *Normalizer) installRemap(boundVar, newExpr ir.Expr) {
	if id, ok := ir.VarIdOf(boundVar); ok {
		n.remap[id.Unique()] = newExpr
	}
}

func hintOf(boundVar ir.Expr) string {
	if id, ok := ir.VarIdOf(boundVar); ok {
		return id.Name()
	}
	return "v"
}

// LookupBinding returns the value currently bound to v, consulting the
// builder's binding table (§4.4 "lookup_binding").
func (n *Normalizer) LookupBinding(v ir.Expr) (ir.Expr, bool) {
	id, ok := ir.VarIdOf(v)
	if !ok {
		return nil, false
	}
	return n.b.LookupVar(id)
}

// WithShapeAndType re-stamps v's shape and/or type without introducing
// a new binding, and updates the remap so later references observe the
// new annotation (§4.4 "with_shape_and_type"). Passing a nil shape or
// type leaves that slot untouched.
func (n *Normalizer) WithShapeAndType(v ir.Expr, shape ir.Expr, t ir.Type) ir.Expr {
	stamped := v.WithAnnotations(t, shape)
	if id, ok := ir.VarIdOf(v); ok {
		n.remap[id.Unique()] = stamped
	}
	return stamped
}
