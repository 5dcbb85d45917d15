// Package oracle declares the symbolic-equality oracle external
// interface (§6) the block builder consults to prove shape-dimension
// equality, plus a reference, dependency-free implementation sound
// enough to exercise the builder and its tests without a real
// arithmetic analyzer.
package oracle

import "github.com/sunholo/relaxir/internal/ir"

// Oracle proves equality of two symbolic dimension expressions. It
// must be sound: CanProveEqual returning true implies the two
// expressions are mathematically equal for every assignment of their
// free symbolic variables; false means "unknown", never "unequal"
// (§6).
type Oracle interface {
	CanProveEqual(a, b ir.PrimExpr) bool
}

// Structural is a reference Oracle that proves equality only for
// syntactically identical expressions: equal integer literals, equal
// symbolic-variable names, or the same operator applied to
// structurally-equal operands. It never normalizes (e.g. it will not
// prove "N+1" equal to "1+N") — conservative per §6, just narrower
// than a real analyzer.
type Structural struct{}

// NewStructural constructs the reference oracle.
func NewStructural() Structural { return Structural{} }

func (Structural) CanProveEqual(a, b ir.PrimExpr) bool {
	return ir.SamePrimExpr(a, b)
}
