// Package builder implements the block builder of §4.6: the stateful
// helper that incrementally constructs ANF IR, issuing fresh Ids
// through an internal/names.Table, eagerly inferring each Call's shape
// and type through an internal/registry.Registry, and reporting
// structural misuse through an internal/diag.Ctx. It is grounded on
// the teacher's elaborate package, which plays the same role (an
// explicit frame stack plus a binding table) for Core-ANF lowering.
package builder

import (
	"github.com/sunholo/relaxir/internal/diag"
	"github.com/sunholo/relaxir/internal/ir"
	"github.com/sunholo/relaxir/internal/names"
	"github.com/sunholo/relaxir/internal/oracle"
	"github.com/sunholo/relaxir/internal/registry"
)

// frame is one entry of the builder's explicit scope stack (§4.6 "frame
// stack"). A frame's lifecycle is Open -> Closed: once end_block pops
// it, its bindings are handed to the caller and the frame itself is
// discarded.
type frame struct {
	bindings   []ir.Binding
	isDataflow bool
}

// Builder incrementally constructs ANF IR (§4.6). It owns a name table,
// a binding table mapping every Id it has emitted to its defining
// value, a diagnostic context, an operator registry, and a symbolic
// equality oracle.
type Builder struct {
	names    *names.Table
	dctx     *diag.Ctx
	reg      registry.Registry
	oc       oracle.Oracle
	frames   []*frame
	bindings map[uint64]ir.Expr // Id.Unique() -> defining value
}

// New creates an empty Builder with no frames open.
func New(reg registry.Registry, oc oracle.Oracle, dctx *diag.Ctx) *Builder {
	return &Builder{
		names:    names.NewTable(),
		dctx:     dctx,
		reg:      reg,
		oc:       oc,
		bindings: make(map[uint64]ir.Expr),
	}
}

// Close reports UnclosedBlock for every frame still open when the
// caller is done with the builder (§4.6 "destroying the builder with
// open frames is a non-fatal warning, not an error").
func (b *Builder) Close() {
	for range b.frames {
		b.dctx.Emit(diag.CodeUnclosedBlock, nil, "builder destroyed with an open block", nil)
	}
	b.frames = nil
}

// BeginDataflowBlock opens a new dataflow scope (§4.6, §3 "two scope
// flavors").
func (b *Builder) BeginDataflowBlock() {
	b.frames = append(b.frames, &frame{isDataflow: true})
}

// BeginBindingBlock opens a new ordinary (impure) scope.
func (b *Builder) BeginBindingBlock() {
	b.frames = append(b.frames, &frame{isDataflow: false})
}

// inDataflow reports whether the innermost open frame is a dataflow
// block; false (with ok=false) if no frame is open.
func (b *Builder) inDataflow() (isDataflow bool, ok bool) {
	if len(b.frames) == 0 {
		return false, false
	}
	top := b.frames[len(b.frames)-1]
	return top.isDataflow, true
}

// Depth reports how many frames are currently open, e.g. for a console
// prompt that wants to show nesting.
func (b *Builder) Depth() int { return len(b.frames) }

// current returns the innermost open frame, or nil if none is open.
func (b *Builder) current() *frame {
	if len(b.frames) == 0 {
		return nil
	}
	return b.frames[len(b.frames)-1]
}

// EndBlock closes the innermost frame and returns its bindings as a
// BindingBlock. Calling it with no frame open is fatal (§4.6, §7).
func (b *Builder) EndBlock() (ir.BindingBlock, error) {
	if len(b.frames) == 0 {
		return ir.BindingBlock{}, b.dctx.EmitFatal(diag.CodeUnclosedBlock, nil,
			"end_block: no open frame to close", nil)
	}
	top := b.frames[len(b.frames)-1]
	b.frames = b.frames[:len(b.frames)-1]
	return ir.BindingBlock{Bindings: top.bindings, IsDataflow: top.isDataflow}, nil
}

// defaultHint fills in emit's default name hint (§4.6 "emit(expr,
// name_hint=\"\")"): "lv" inside a dataflow block, "gv" otherwise (§8
// scenario 6). A caller-supplied hint is left untouched.
func (b *Builder) defaultHint(hint string) string {
	if hint != "" {
		return hint
	}
	if isDataflow, _ := b.inDataflow(); isDataflow {
		return "lv"
	}
	return "gv"
}

// newBindingVar allocates the Expr that names a fresh binding: a
// DataflowVar inside a dataflow block, a Var otherwise (§3 "two scope
// flavors").
func (b *Builder) newBindingVar(hint string) ir.Expr {
	id := b.names.Fresh(hint)
	isDataflow, _ := b.inDataflow()
	if isDataflow {
		return &ir.DataflowVar{VarId: id}
	}
	return &ir.Var{VarId: id}
}

// inferAnnotations runs eager shape/type inference for a Call through
// the registry, stamping the result onto expr if it is a Call whose
// callee is an ir.Op. Any other expression, or a Call whose callee
// isn't an Op, is returned unchanged — absence of an entry is simply
// "unknown", never an error (§4.6, §6).
//
// Per §9's design note on eager inference, the call node's own shape_
// slot is only ever stamped with a concrete ir.ShapeExpr: a
// RuntimeDepShape result is reported back (rawShape) so the caller can
// still carry it onto a binding-site var, but it is never written onto
// the call node itself. This is the documented (if initially
// surprising) behavior rather than a bug — see DESIGN.md's Open
// Question 3.
func (b *Builder) inferAnnotations(expr ir.Expr) (annotated ir.Expr, rawShape ir.Expr) {
	call, ok := expr.(*ir.Call)
	if !ok {
		return expr, nil
	}
	if _, isOp := call.Callee.(*ir.Op); !isOp {
		return expr, nil
	}
	shape, shapeOK := b.reg.InferShape(call, b.dctx)
	t, typeOK := b.reg.InferType(call, b.dctx)
	if !shapeOK && !typeOK {
		return expr, nil
	}
	var stampShape ir.Expr
	if shapeOK {
		if _, isShapeExpr := shape.(*ir.ShapeExpr); isShapeExpr {
			stampShape = shape
		}
		rawShape = shape
	}
	var newType ir.Type
	if typeOK {
		newType = t
	}
	return expr.WithAnnotations(newType, stampShape), rawShape
}

// Emit binds a fresh name to value's (possibly just-inferred) result
// inside the innermost open frame, and returns the binding-site
// expression future references should use (§4.6 emit). Calling it with
// no frame open is fatal.
func (b *Builder) Emit(value ir.Expr, hint string) (ir.Expr, error) {
	if b.current() == nil {
		return nil, b.dctx.EmitFatal(diag.CodeUnclosedBlock, nil,
			"emit: no open frame to bind into", nil)
	}
	hint = b.defaultHint(hint)
	annotated, rawShape := b.inferAnnotations(value)
	boundVar := b.newBindingVar(hint)
	if _, isShapeExpr := rawShape.(*ir.ShapeExpr); rawShape != nil && !isShapeExpr {
		// RuntimeDepShape (or any non-ShapeExpr result): not stamped onto
		// the call itself, but still carried onto the binding-site var.
		boundVar = boundVar.WithAnnotations(nil, rawShape)
	}
	b.bind(boundVar, annotated)
	return boundVar, nil
}

// EmitVarBinding emits a caller-supplied VarBinding verbatim, without
// allocating a fresh name — used when re-emitting a binding whose
// bound var was already chosen upstream (e.g. by the normalizing
// mutator's var remap).
func (b *Builder) EmitVarBinding(vb ir.VarBinding) error {
	if b.current() == nil {
		return b.dctx.EmitFatal(diag.CodeUnclosedBlock, nil,
			"emit: no open frame to bind into", nil)
	}
	isDataflow, _ := b.inDataflow()
	_, isDataflowVar := vb.BoundVar.(*ir.DataflowVar)
	if isDataflow != isDataflowVar {
		return b.dctx.EmitFatal(diag.CodeDataflowScopeViolation, nil,
			"var binding flavor does not match the enclosing block",
			map[string]any{"var": vb.BoundVar.String(), "dataflow_block": isDataflow})
	}
	annotated, rawShape := b.inferAnnotations(vb.Value)
	vb.Value = annotated
	if _, isShapeExpr := rawShape.(*ir.ShapeExpr); rawShape != nil && !isShapeExpr {
		vb.BoundVar = vb.BoundVar.WithAnnotations(nil, rawShape)
	}
	b.current().bindings = append(b.current().bindings, vb)
	if id, ok := ir.VarIdOf(vb.BoundVar); ok {
		b.bindings[id.Unique()] = annotated
	}
	return nil
}

func (b *Builder) bind(boundVar, value ir.Expr) {
	b.current().bindings = append(b.current().bindings, ir.VarBinding{BoundVar: boundVar, Value: value})
	if id, ok := ir.VarIdOf(boundVar); ok {
		b.bindings[id.Unique()] = value
	}
}

// EmitMatchShape constrains value's shape against pattern, optionally
// binding a fresh name for it. A Value whose checked type is known and
// is neither DynTensorType nor ShapeType (e.g. a Call typed as a tuple
// or a function), or a Function literal, is rejected with
// BadMatchShapeOperand (§7, §3 invariant on MatchShape operands).
func (b *Builder) EmitMatchShape(value ir.Expr, pattern ir.Dims, hint string) (ir.Expr, error) {
	if b.current() == nil {
		return nil, b.dctx.EmitFatal(diag.CodeUnclosedBlock, nil,
			"emit_match_shape: no open frame to bind into", nil)
	}
	if !canCarryShape(value) {
		return nil, b.dctx.EmitFatal(diag.CodeBadMatchShapeOperand, nil,
			"match_shape operand cannot carry a shape", map[string]any{"operand": value.String()})
	}
	var boundVar ir.Expr
	if hint != "" {
		boundVar = b.newBindingVar(hint)
		boundVar = stampMatchShapeVar(boundVar, value, pattern)
	}
	mb := ir.MatchShape{Value: value, Pattern: pattern, BoundVar: boundVar}
	b.current().bindings = append(b.current().bindings, mb)
	if boundVar != nil {
		if id, ok := ir.VarIdOf(boundVar); ok {
			b.bindings[id.Unique()] = &ir.ShapeExpr{DimsVal: pattern}
		}
	}
	return boundVar, nil
}

// EmitMatchShapeBinding re-emits a caller-built MatchShape verbatim.
// Per §9 Open Question 2, a bound var, if present, must be an ordinary
// Var in every block, dataflow or not: a DataflowVar bound var is a
// DataflowScopeViolation.
func (b *Builder) EmitMatchShapeBinding(mb ir.MatchShape) error {
	if b.current() == nil {
		return b.dctx.EmitFatal(diag.CodeUnclosedBlock, nil,
			"emit_match_shape: no open frame to bind into", nil)
	}
	if !canCarryShape(mb.Value) {
		return b.dctx.EmitFatal(diag.CodeBadMatchShapeOperand, nil,
			"match_shape operand cannot carry a shape", map[string]any{"operand": mb.Value.String()})
	}
	if mb.BoundVar != nil {
		isDataflow, _ := b.inDataflow()
		if _, isDataflowVar := mb.BoundVar.(*ir.DataflowVar); isDataflowVar {
			return b.dctx.EmitFatal(diag.CodeDataflowScopeViolation, nil,
				"match_shape bound var must not be a DataflowVar",
				map[string]any{"var": mb.BoundVar.String(), "dataflow_block": isDataflow})
		}
	}
	b.current().bindings = append(b.current().bindings, mb)
	if mb.BoundVar != nil {
		if id, ok := ir.VarIdOf(mb.BoundVar); ok {
			b.bindings[id.Unique()] = &ir.ShapeExpr{DimsVal: mb.Pattern}
		}
	}
	return nil
}

// stampMatchShapeVar annotates boundVar per §4.6's emit_match_shape
// contract (§8 scenario 2): checked_type is ShapeType when value's
// checked type is already ShapeType; otherwise it is
// DynTensorType(rank=len(pattern), dtype=value's dtype) and shape is
// set to ShapeExpr(pattern).
func stampMatchShapeVar(boundVar, value ir.Expr, pattern ir.Dims) ir.Expr {
	if _, isShapeType := value.CheckedType().(ir.ShapeType); isShapeType {
		return boundVar.WithAnnotations(ir.ShapeType{}, nil)
	}
	var dtype ir.DType
	if dtt, ok := value.CheckedType().(ir.DynTensorType); ok {
		dtype = dtt.Dtype
	}
	rank := len(pattern)
	t := ir.DynTensorType{Rank: &rank, Dtype: dtype}
	return boundVar.WithAnnotations(t, &ir.ShapeExpr{DimsVal: pattern})
}

// canCarryShape reports whether expr is the kind of node a MatchShape
// may legally constrain: one whose checked type is DynTensorType or
// ShapeType, or not yet known. A node with any other checked type
// (TupleType, FuncType, OpaqueType) never qualifies, nor does a
// Function literal.
func canCarryShape(expr ir.Expr) bool {
	if _, isFunction := expr.(*ir.Function); isFunction {
		return false
	}
	switch expr.CheckedType().(type) {
	case nil, ir.DynTensorType, ir.ShapeType:
		return true
	default:
		return false
	}
}

// EmitOutput emits value as the binding block's output: legal only
// inside a dataflow block, where it surfaces the value to the
// enclosing ordinary scope via an implicit re-binding (§3 Binding
// blocks, §7 OutputOutsideDataflow).
func (b *Builder) EmitOutput(value ir.Expr, hint string) (ir.Expr, error) {
	isDataflow, open := b.inDataflow()
	if !open {
		return nil, b.dctx.EmitFatal(diag.CodeUnclosedBlock, nil,
			"emit_output: no open frame", nil)
	}
	if !isDataflow {
		return nil, b.dctx.EmitFatal(diag.CodeOutputOutsideDataflow, nil,
			"emit_output called outside a dataflow block", nil)
	}
	annotated, rawShape := b.inferAnnotations(value)
	id := b.names.Fresh(hint)
	var boundExpr ir.Expr = &ir.Var{VarId: id}
	if _, isShapeExpr := rawShape.(*ir.ShapeExpr); rawShape != nil && !isShapeExpr {
		boundExpr = boundExpr.WithAnnotations(nil, rawShape)
	}
	b.current().bindings = append(b.current().bindings, ir.VarBinding{BoundVar: boundExpr, Value: annotated})
	b.bindings[id.Unique()] = annotated
	return boundExpr, nil
}

// LookupVar returns the value bound to id, if any (§4.6 lookup_var).
func (b *Builder) LookupVar(id ir.Id) (ir.Expr, bool) {
	v, ok := b.bindings[id.Unique()]
	return v, ok
}

// CanProveShapeEqual reports whether a and b are provably the same
// shape (§4.6 can_prove_shape_equal): true when they are the identical
// reference, or when both are *ir.ShapeExpr of equal rank whose
// corresponding dimensions are each proved equal by the symbolic
// oracle. Anything else is conservatively false — "unknown", never
// "unequal" (§6, §8 invariant 6: can_prove_shape_equal(s, s) holds for
// any ShapeExpr s, which the identical-reference shortcut covers
// directly and the structural branch covers for a separately built but
// dimension-wise identical copy).
func (b *Builder) CanProveShapeEqual(a, bexpr ir.Expr) bool {
	if a == bexpr {
		return true
	}
	sa, ok := a.(*ir.ShapeExpr)
	if !ok {
		return false
	}
	sb, ok := bexpr.(*ir.ShapeExpr)
	if !ok {
		return false
	}
	if len(sa.DimsVal) != len(sb.DimsVal) {
		return false
	}
	for i := range sa.DimsVal {
		if !b.oc.CanProveEqual(sa.DimsVal[i], sb.DimsVal[i]) {
			return false
		}
	}
	return true
}

// Names exposes the builder's owned name table, e.g. for a normalizing
// mutator that needs to allocate fresh vars outside of emit.
func (b *Builder) Names() *names.Table { return b.names }

// Diag exposes the builder's diagnostic context.
func (b *Builder) Diag() *diag.Ctx { return b.dctx }

// CheckDataflowScope reports DataflowScopeViolation if a DataflowVar
// defined inside the innermost dataflow block is referenced from
// outside it (§3 scope invariant 2, §7). Callers pass the var being
// referenced and whether the reference site is itself inside the same
// dataflow block.
func (b *Builder) CheckDataflowScope(v *ir.DataflowVar, insideSameBlock bool) error {
	if insideSameBlock {
		return nil
	}
	return b.dctx.EmitFatal(diag.CodeDataflowScopeViolation, nil,
		"dataflow var referenced outside its defining dataflow block",
		map[string]any{"var": v.VarId.Name()})
}

