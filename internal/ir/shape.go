package ir

import "fmt"

// PrimExpr is the small symbolic-arithmetic sublanguage shape
// dimensions are drawn from (§3 Shapes): integers, symbolic variables,
// and +, -, x over them. PrimExpr values are plain data, not nodes of
// the main Expr AST: the traversal framework never dispatches on them
// as Exprs, and the read-only visitor reaches them only through its
// VisitDim hook.
type PrimExpr interface {
	String() string
	primExpr()
}

// IntImm is an integer literal dimension.
type IntImm struct {
	Value int64
}

func (IntImm) primExpr() {}
func (p IntImm) String() string { return fmt.Sprintf("%d", p.Value) }

// SymVar is a named symbolic dimension variable (e.g. a batch size "N"
// unknown until runtime).
type SymVar struct {
	Name string
}

func (SymVar) primExpr() {}
func (p SymVar) String() string { return p.Name }

// BinArithOp is the operator of a binary PrimExpr.
type BinArithOp int

const (
	OpAdd BinArithOp = iota
	OpSub
	OpMul
)

func (op BinArithOp) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	default:
		return "?"
	}
}

// BinArith is a binary arithmetic combination of two PrimExprs.
type BinArith struct {
	Op          BinArithOp
	Left, Right PrimExpr
}

func (BinArith) primExpr() {}
func (p BinArith) String() string {
	return fmt.Sprintf("(%s %s %s)", p.Left, p.Op, p.Right)
}

// Dims is an ordered sequence of symbolic dimension expressions — the
// payload of both ShapeExpr and MatchShape's pattern.
type Dims []PrimExpr

func (d Dims) String() string {
	s := "["
	for i, dim := range d {
		if i > 0 {
			s += ", "
		}
		s += dim.String()
	}
	return s + "]"
}

// SamePrimExpr reports pure syntactic equality (same literal value, or
// same symbolic variable name, or same operator over equal operands).
// This is NOT the sound symbolic-equality oracle (§6) — it is the
// fallback a reference oracle implementation can use for the literal
// cases; internal/oracle's Structural oracle is built on it.
func SamePrimExpr(a, b PrimExpr) bool {
	switch av := a.(type) {
	case IntImm:
		bv, ok := b.(IntImm)
		return ok && av.Value == bv.Value
	case SymVar:
		bv, ok := b.(SymVar)
		return ok && av.Name == bv.Name
	case BinArith:
		bv, ok := b.(BinArith)
		return ok && av.Op == bv.Op && SamePrimExpr(av.Left, bv.Left) && SamePrimExpr(av.Right, bv.Right)
	default:
		return false
	}
}
