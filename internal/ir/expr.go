package ir

import (
	"fmt"
	"strings"
)

// Kind is the variant discriminant every Expr carries, used by the
// traversal framework (internal/visit) to index its per-signature
// dispatch table in O(1) instead of via a type switch (§4.1).
type Kind int

const (
	KConstant Kind = iota
	KTuple
	KTupleGetItem
	KVar
	KDataflowVar
	KGlobalVar
	KExternFunc
	KShapeExpr
	KRuntimeDepShape
	KOp
	KCall
	KSeqExpr
	KIf
	KFunction

	// NumKinds is the number of Expr variants. Adding a variant means
	// adding a constant above NumKinds and updating every dispatch
	// table sized by it (§9 design notes).
	NumKinds
)

func (k Kind) String() string {
	switch k {
	case KConstant:
		return "Constant"
	case KTuple:
		return "Tuple"
	case KTupleGetItem:
		return "TupleGetItem"
	case KVar:
		return "Var"
	case KDataflowVar:
		return "DataflowVar"
	case KGlobalVar:
		return "GlobalVar"
	case KExternFunc:
		return "ExternFunc"
	case KShapeExpr:
		return "ShapeExpr"
	case KRuntimeDepShape:
		return "RuntimeDepShape"
	case KOp:
		return "Op"
	case KCall:
		return "Call"
	case KSeqExpr:
		return "SeqExpr"
	case KIf:
		return "If"
	case KFunction:
		return "Function"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Expr is the base interface for every Core-IR expression node (§3).
//
// CheckedType and Shape are the two metadata slots every node carries
// (mutable, monotone, structural): they start nil/unset and are filled
// exactly once by inference. The core never mutates a node in place to
// stamp them — WithAnnotations returns a fresh node of the same
// concrete type, sharing every other field, so existing holders of the
// old value keep observing the pre-stamp node (§3 Ownership, §9
// "Publish-once metadata slots").
type Expr interface {
	Kind() Kind
	Span() Span
	CheckedType() Type
	Shape() Expr
	// WithAnnotations returns a copy of this node with CheckedType and
	// Shape replaced. Passing a nil Type/Expr leaves that slot as-is.
	WithAnnotations(t Type, shape Expr) Expr
	String() string
}

// base is embedded in every concrete node; it is never itself an Expr.
type base struct {
	SpanVal        Span
	CheckedTypeVal Type
	ShapeVal       Expr
}

func (b base) Span() Span        { return b.SpanVal }
func (b base) CheckedType() Type { return b.CheckedTypeVal }
func (b base) Shape() Expr       { return b.ShapeVal }

func stamped(b base, t Type, shape Expr) base {
	out := b
	if t != nil {
		out.CheckedTypeVal = t
	}
	if shape != nil {
		out.ShapeVal = shape
	}
	return out
}

// --- Constant ---

// Constant is an immediate scalar/tensor literal.
type Constant struct {
	base
	Value interface{}
}

func (c *Constant) Kind() Kind { return KConstant }
func (c *Constant) String() string { return fmt.Sprintf("%v", c.Value) }
func (c *Constant) WithAnnotations(t Type, shape Expr) Expr {
	n := *c
	n.base = stamped(c.base, t, shape)
	return &n
}

// --- Tuple ---

// Tuple is an ordered heterogeneous product of fields.
type Tuple struct {
	base
	Fields []Expr
}

func (t *Tuple) Kind() Kind { return KTuple }
func (t *Tuple) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
}
func (t *Tuple) WithAnnotations(ty Type, shape Expr) Expr {
	n := *t
	n.base = stamped(t.base, ty, shape)
	return &n
}

// WithFields returns a copy of t with its Fields replaced, annotations
// carried over unchanged. Used by internal/mutate to rebuild a Tuple
// only when a field actually changed.
func (t *Tuple) WithFields(fields []Expr) *Tuple {
	n := *t
	n.Fields = fields
	return &n
}

// --- TupleGetItem ---

// TupleGetItem projects the field at Index out of Base.
type TupleGetItem struct {
	base
	Base  Expr
	Index int
}

func (g *TupleGetItem) Kind() Kind { return KTupleGetItem }
func (g *TupleGetItem) String() string {
	return fmt.Sprintf("%s.%d", g.Base, g.Index)
}
func (g *TupleGetItem) WithAnnotations(t Type, shape Expr) Expr {
	n := *g
	n.base = stamped(g.base, t, shape)
	return &n
}

// WithBase returns a copy of g with Base replaced.
func (g *TupleGetItem) WithBase(base Expr) *TupleGetItem {
	n := *g
	n.Base = base
	return &n
}

// --- Var ---

// Var is an ordinary (possibly impure) binding reference.
type Var struct {
	base
	VarId Id
}

func (v *Var) Kind() Kind { return KVar }
func (v *Var) String() string { return v.VarId.Name() }
func (v *Var) WithAnnotations(t Type, shape Expr) Expr {
	n := *v
	n.base = stamped(v.base, t, shape)
	return &n
}

// --- DataflowVar ---

// DataflowVar is a reference restricted to a single DataflowBlock
// (§3 "Key structural invariants", scope invariant 2).
type DataflowVar struct {
	base
	VarId Id
}

func (v *DataflowVar) Kind() Kind { return KDataflowVar }
func (v *DataflowVar) String() string { return "%" + v.VarId.Name() }
func (v *DataflowVar) WithAnnotations(t Type, shape Expr) Expr {
	n := *v
	n.base = stamped(v.base, t, shape)
	return &n
}

// --- GlobalVar ---

// GlobalVar references a module-level function.
type GlobalVar struct {
	base
	VarId Id
}

func (v *GlobalVar) Kind() Kind { return KGlobalVar }
func (v *GlobalVar) String() string { return "@" + v.VarId.Name() }
func (v *GlobalVar) WithAnnotations(t Type, shape Expr) Expr {
	n := *v
	n.base = stamped(v.base, t, shape)
	return &n
}

// --- ExternFunc ---

// ExternFunc is an externally linked callable, referenced by symbol.
type ExternFunc struct {
	base
	Symbol string
}

func (e *ExternFunc) Kind() Kind { return KExternFunc }
func (e *ExternFunc) String() string { return fmt.Sprintf("extern(%q)", e.Symbol) }
func (e *ExternFunc) WithAnnotations(t Type, shape Expr) Expr {
	n := *e
	n.base = stamped(e.base, t, shape)
	return &n
}

// --- ShapeExpr ---

// ShapeExpr is a literal shape: an ordered tuple of symbolic dimension
// expressions.
type ShapeExpr struct {
	base
	DimsVal Dims
}

func (s *ShapeExpr) Kind() Kind { return KShapeExpr }
func (s *ShapeExpr) String() string { return s.DimsVal.String() }
func (s *ShapeExpr) WithAnnotations(t Type, shape Expr) Expr {
	n := *s
	n.base = stamped(s.base, t, shape)
	return &n
}

// --- RuntimeDepShape ---

// RuntimeDepShape is the sentinel "shape only known at runtime".
type RuntimeDepShape struct {
	base
}

func (r *RuntimeDepShape) Kind() Kind { return KRuntimeDepShape }
func (r *RuntimeDepShape) String() string { return "?shape" }
func (r *RuntimeDepShape) WithAnnotations(t Type, shape Expr) Expr {
	n := *r
	n.base = stamped(r.base, t, shape)
	return &n
}

// --- Op ---

// Op references a registered operator by key.
type Op struct {
	base
	OpKey string
}

func (o *Op) Kind() Kind { return KOp }
func (o *Op) String() string { return o.OpKey }
func (o *Op) WithAnnotations(t Type, shape Expr) Expr {
	n := *o
	n.base = stamped(o.base, t, shape)
	return &n
}

// --- Call ---

// Call applies Callee to Args. In normalized (ANF) IR every arg is
// atomic (§3 invariant 1).
type Call struct {
	base
	Callee   Expr
	Args     []Expr
	Attrs    map[string]interface{}
	TypeArgs []Type
}

func (c *Call) Kind() Kind { return KCall }
func (c *Call) String() string {
	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", c.Callee, strings.Join(parts, ", "))
}
func (c *Call) WithAnnotations(t Type, shape Expr) Expr {
	n := *c
	n.base = stamped(c.base, t, shape)
	return &n
}

// WithOperands returns a copy of c with Callee/Args replaced; Attrs,
// TypeArgs and the existing annotations are preserved. Used by
// internal/mutate and internal/normalize to rebuild a call only when
// an operand actually changed.
func (c *Call) WithOperands(callee Expr, args []Expr) *Call {
	n := *c
	n.Callee = callee
	n.Args = args
	return &n
}

// --- SeqExpr ---

// SeqExpr sequences zero or more binding blocks before a body
// expression.
type SeqExpr struct {
	base
	Blocks []BindingBlock
	Body   Expr
}

func (s *SeqExpr) Kind() Kind { return KSeqExpr }
func (s *SeqExpr) String() string {
	var b strings.Builder
	for _, blk := range s.Blocks {
		b.WriteString(blk.String())
	}
	b.WriteString(s.Body.String())
	return b.String()
}
func (s *SeqExpr) WithAnnotations(t Type, shape Expr) Expr {
	n := *s
	n.base = stamped(s.base, t, shape)
	return &n
}

// WithParts returns a copy of s with Blocks/Body replaced.
func (s *SeqExpr) WithParts(blocks []BindingBlock, body Expr) *SeqExpr {
	n := *s
	n.Blocks, n.Body = blocks, body
	return &n
}

// --- If ---

// If is a conditional expression.
type If struct {
	base
	Cond, Then, Else Expr
}

func (i *If) Kind() Kind { return KIf }
func (i *If) String() string {
	return fmt.Sprintf("if %s then %s else %s", i.Cond, i.Then, i.Else)
}
func (i *If) WithAnnotations(t Type, shape Expr) Expr {
	n := *i
	n.base = stamped(i.base, t, shape)
	return &n
}

// WithParts returns a copy of i with Cond/Then/Else replaced.
func (i *If) WithParts(cond, then, els Expr) *If {
	n := *i
	n.Cond, n.Then, n.Else = cond, then, els
	return &n
}

// --- Function ---

// Function is a lambda or module-level function definition.
type Function struct {
	base
	Params  []*Var
	Body    Expr
	RetType Type
	Attrs   map[string]interface{}
}

func (f *Function) Kind() Kind { return KFunction }
func (f *Function) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return fmt.Sprintf("fn(%s) { %s }", strings.Join(parts, ", "), f.Body)
}
func (f *Function) WithAnnotations(t Type, shape Expr) Expr {
	n := *f
	n.base = stamped(f.base, t, shape)
	return &n
}

// WithParts returns a copy of f with Params/Body replaced.
func (f *Function) WithParts(params []*Var, body Expr) *Function {
	n := *f
	n.Params, n.Body = params, body
	return &n
}

// VarIdOf extracts the Id of a Var or DataflowVar binding-site
// expression; it returns ok=false for any other Expr kind. Builders and
// mutators use it to key the binding table and the var-remap map
// without a type switch at every call site.
func VarIdOf(e Expr) (Id, bool) {
	switch v := e.(type) {
	case *Var:
		return v.VarId, true
	case *DataflowVar:
		return v.VarId, true
	default:
		return Id{}, false
	}
}

// IsAtomic reports whether expr may appear directly as a Call argument
// in normalized IR (§3 invariant 1): a Var, DataflowVar, GlobalVar,
// Constant, Op, ShapeExpr, ExternFunc, or a Tuple all of whose own
// fields are atomic.
func IsAtomic(expr Expr) bool {
	switch e := expr.(type) {
	case *Var, *DataflowVar, *GlobalVar, *Constant, *Op, *ShapeExpr, *ExternFunc:
		return true
	case *Tuple:
		for _, f := range e.Fields {
			if !IsAtomic(f) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
