package builder

import (
	"github.com/sunholo/relaxir/internal/ir"
	"github.com/sunholo/relaxir/internal/visit"
)

// CheckScope walks expr with a read-only visit.Visitor enforcing §3's
// DataflowBlock invariant (iii): a DataflowVar defined inside a
// dataflow block must not be referenced from outside it. It is the
// dedicated scope-checking visitor CheckDataflowScope needs to be
// anything more than a bare assertion helper — it drives that method
// with the "was this use site inside the defining block" fact a
// completed tree has to be walked to recover, rather than tracked live
// the way the builder's own frame stack tracks it during emission.
func (b *Builder) CheckScope(expr ir.Expr) error {
	var openDataflowBlocks []map[uint64]bool

	v := visit.NewVisitor()

	v.VisitDataflowBlock = func(vv *visit.Visitor, blk ir.BindingBlock) error {
		defined := make(map[uint64]bool, len(blk.Bindings))
		for _, bind := range blk.Bindings {
			var boundVar ir.Expr
			switch bd := bind.(type) {
			case ir.VarBinding:
				boundVar = bd.BoundVar
			case ir.MatchShape:
				boundVar = bd.BoundVar
			}
			if boundVar == nil {
				continue
			}
			if id, ok := ir.VarIdOf(boundVar); ok {
				defined[id.Unique()] = true
			}
		}
		openDataflowBlocks = append(openDataflowBlocks, defined)
		for _, bind := range blk.Bindings {
			if err := vv.VisitBinding(vv, bind); err != nil {
				openDataflowBlocks = openDataflowBlocks[:len(openDataflowBlocks)-1]
				return err
			}
		}
		openDataflowBlocks = openDataflowBlocks[:len(openDataflowBlocks)-1]
		return nil
	}

	v.VisitDataflowVar = func(vv *visit.Visitor, e ir.Expr) error {
		dv := e.(*ir.DataflowVar)
		insideSameBlock := false
		for _, defined := range openDataflowBlocks {
			if defined[dv.VarId.Unique()] {
				insideSameBlock = true
				break
			}
		}
		return b.CheckDataflowScope(dv, insideSameBlock)
	}

	return v.Visit(expr)
}
