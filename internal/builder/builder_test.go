package builder_test

import (
	"testing"

	"github.com/sunholo/relaxir/internal/builder"
	"github.com/sunholo/relaxir/internal/diag"
	"github.com/sunholo/relaxir/internal/ir"
	"github.com/sunholo/relaxir/internal/oracle"
	"github.com/sunholo/relaxir/internal/registry"
)

func newB(dctx *diag.Ctx) *builder.Builder {
	return builder.New(registry.Empty{}, oracle.NewStructural(), dctx)
}

func TestEmitWithNoOpenFrameIsFatal(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	_, err := b.Emit(&ir.Constant{Value: 1}, "v")
	code, ok := diag.CodeOf(err)
	if !ok || code != diag.CodeUnclosedBlock {
		t.Fatalf("expected UnclosedBlock, got %v", code)
	}
}

func TestEndBlockWithNoOpenFrameIsFatal(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	_, err := b.EndBlock()
	code, ok := diag.CodeOf(err)
	if !ok || code != diag.CodeUnclosedBlock {
		t.Fatalf("expected UnclosedBlock, got %v", code)
	}
}

func TestBeginEmitEndBlockRoundTrip(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginBindingBlock()
	bound, err := b.Emit(&ir.Constant{Value: 42}, "lv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := bound.(*ir.Var); !ok {
		t.Fatalf("expected an ordinary Var inside a non-dataflow block, got %T", bound)
	}
	blk, err := b.EndBlock()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(blk.Bindings) != 1 || blk.IsDataflow {
		t.Fatalf("expected exactly one ordinary binding, got %#v", blk)
	}
}

func TestEmitInsideDataflowBlockProducesDataflowVar(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginDataflowBlock()
	bound, err := b.Emit(&ir.Constant{Value: 1}, "lv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := bound.(*ir.DataflowVar); !ok {
		t.Fatalf("expected a DataflowVar inside a dataflow block, got %T", bound)
	}
	blk, err := b.EndBlock()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !blk.IsDataflow {
		t.Fatalf("expected the closed block to be flagged dataflow")
	}
}

func TestUniqueNamingSequence(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginBindingBlock()
	v1, _ := b.Emit(&ir.Constant{Value: 1}, "lv")
	v2, _ := b.Emit(&ir.Constant{Value: 2}, "lv")
	v3, _ := b.Emit(&ir.Constant{Value: 3}, "lv")
	if v1.String() != "lv" || v2.String() != "lv1" || v3.String() != "lv2" {
		t.Fatalf("expected lv, lv1, lv2, got %s, %s, %s", v1, v2, v3)
	}
}

func TestEmitOutputOutsideDataflowIsFatal(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginBindingBlock()
	_, err := b.EmitOutput(&ir.Constant{Value: 1}, "out")
	code, ok := diag.CodeOf(err)
	if !ok || code != diag.CodeOutputOutsideDataflow {
		t.Fatalf("expected OutputOutsideDataflow, got %v", code)
	}
}

func TestEmitOutputOutsideAnyBlockIsUnclosedBlock(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	_, err := b.EmitOutput(&ir.Constant{Value: 1}, "out")
	code, ok := diag.CodeOf(err)
	if !ok || code != diag.CodeUnclosedBlock {
		t.Fatalf("expected UnclosedBlock, got %v", code)
	}
}

func TestEmitOutputInsideDataflowSucceeds(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginDataflowBlock()
	out, err := b.EmitOutput(&ir.Constant{Value: 7}, "out")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := out.(*ir.Var); !ok {
		t.Fatalf("expected emit_output to bind an ordinary Var (it surfaces out of the dataflow block), got %T", out)
	}
}

func TestEmitMatchShapeRejectsFunctionOperand(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginBindingBlock()
	_, err := b.EmitMatchShape(&ir.Function{Body: &ir.Constant{Value: 1}}, ir.Dims{ir.IntImm{Value: 1}}, "s")
	code, ok := diag.CodeOf(err)
	if !ok || code != diag.CodeBadMatchShapeOperand {
		t.Fatalf("expected BadMatchShapeOperand, got %v", code)
	}
}

func TestEmitMatchShapeWithoutHintLeavesBoundVarNil(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginBindingBlock()
	bound, err := b.EmitMatchShape(&ir.Var{VarId: ir.NewId("t", 1)}, ir.Dims{ir.IntImm{Value: 4}}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bound != nil {
		t.Fatalf("expected a nil bound var for a constrain-only match_shape, got %v", bound)
	}
}

func TestEmitVarBindingFlavorMismatchIsDataflowScopeViolation(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginBindingBlock() // ordinary block
	dfVar := &ir.DataflowVar{VarId: ir.NewId("x", 1)}
	err := b.EmitVarBinding(ir.VarBinding{BoundVar: dfVar, Value: &ir.Constant{Value: 1}})
	code, ok := diag.CodeOf(err)
	if !ok || code != diag.CodeDataflowScopeViolation {
		t.Fatalf("expected DataflowScopeViolation, got %v", code)
	}
}

func TestEmitVarBindingFlavorMatchSucceeds(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginBindingBlock()
	v := &ir.Var{VarId: ir.NewId("x", 1)}
	if err := b.EmitVarBinding(ir.VarBinding{BoundVar: v, Value: &ir.Constant{Value: 1}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	val, ok := b.LookupVar(v.VarId)
	if !ok {
		t.Fatalf("expected the var binding to be recorded for lookup")
	}
	if c, ok := val.(*ir.Constant); !ok || c.Value != 1 {
		t.Fatalf("unexpected bound value: %#v", val)
	}
}

func TestEmitMatchShapeBindingDataflowVarIsDataflowScopeViolation(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginDataflowBlock() // dataflow block
	dfVar := &ir.DataflowVar{VarId: ir.NewId("x", 1)}
	mb := ir.MatchShape{Value: &ir.Var{VarId: ir.NewId("s", 2)}, Pattern: ir.Dims{ir.IntImm{Value: 1}}, BoundVar: dfVar}
	err := b.EmitMatchShapeBinding(mb)
	code, ok := diag.CodeOf(err)
	if !ok || code != diag.CodeDataflowScopeViolation {
		t.Fatalf("expected DataflowScopeViolation, got %v", code)
	}
}

func TestCloseWithOpenFramesWarnsNonFatal(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginBindingBlock()
	b.BeginDataflowBlock()
	b.Close()
	if len(dctx.Warnings()) != 2 {
		t.Fatalf("expected one UnclosedBlock warning per still-open frame, got %d", len(dctx.Warnings()))
	}
}

func TestEagerInferenceStampsConcreteShapeOntoCall(t *testing.T) {
	dctx := diag.New()
	reg := registry.NewYamlFromSpecs(map[string]struct {
		Rank  int
		Dtype string
		Dims  []string
	}{"add": {Rank: 1, Dtype: "f32", Dims: []string{"N"}}})
	b := builder.New(reg, oracle.NewStructural(), dctx)
	b.BeginBindingBlock()
	call := &ir.Call{Callee: &ir.Op{OpKey: "add"}, Args: []ir.Expr{}}
	bound, err := b.Emit(call, "lv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	val, ok := b.LookupVar(mustVarId(t, bound))
	if !ok {
		t.Fatalf("expected the emitted call to be recorded in the binding table")
	}
	annotated, ok := val.(*ir.Call)
	if !ok || annotated.Shape() == nil {
		t.Fatalf("expected the registry's shape inference to be stamped onto the call node itself")
	}
}

func TestEagerInferenceForUnregisteredOpIsUnknownNotError(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx) // Empty registry
	b.BeginBindingBlock()
	call := &ir.Call{Callee: &ir.Op{OpKey: "mystery"}}
	bound, err := b.Emit(call, "lv")
	if err != nil {
		t.Fatalf("unexpected error: an unregistered op must be treated as unknown, not an error: %v", err)
	}
	if bound == nil {
		t.Fatalf("expected a bound var even with no inference available")
	}
	if len(dctx.Log()) != 0 {
		t.Fatalf("expected no diagnostics for an unregistered op")
	}
}

func mustVarId(t *testing.T, e ir.Expr) ir.Id {
	t.Helper()
	id, ok := ir.VarIdOf(e)
	if !ok {
		t.Fatalf("expected a var-shaped expr, got %T", e)
	}
	return id
}

func TestEmitDefaultsHintToLvInsideDataflow(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginDataflowBlock()
	bound, err := b.Emit(&ir.Constant{Value: 1}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bound.String() != "%lv" {
		t.Fatalf("expected default dataflow hint 'lv', got %q", bound.String())
	}
}

func TestEmitDefaultsHintToGvOutsideDataflow(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginBindingBlock()
	bound, err := b.Emit(&ir.Constant{Value: 1}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bound.String() != "gv" {
		t.Fatalf("expected default binding hint 'gv', got %q", bound.String())
	}
}

func TestEmitMatchShapeStampsDynTensorTypeAndShape(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginBindingBlock()
	rank := 2
	t2 := &ir.Var{VarId: ir.NewId("t", 1)}
	val := t2.WithAnnotations(ir.DynTensorType{Rank: &rank, Dtype: "f32"}, nil)
	bound, err := b.EmitMatchShape(val, ir.Dims{ir.SymVar{Name: "N"}, ir.SymVar{Name: "M"}}, "n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tt, ok := bound.CheckedType().(ir.DynTensorType)
	if !ok {
		t.Fatalf("expected the bound var's checked type to be DynTensorType, got %T", bound.CheckedType())
	}
	if tt.Rank == nil || *tt.Rank != 2 || tt.Dtype != "f32" {
		t.Fatalf("expected DynTensorType(rank=2, dtype=f32), got %+v", tt)
	}
	shape, ok := bound.Shape().(*ir.ShapeExpr)
	if !ok || len(shape.DimsVal) != 2 {
		t.Fatalf("expected shape = ShapeExpr([N, M]), got %#v", bound.Shape())
	}
}

func TestEmitMatchShapeOnShapeTypedValueStampsShapeType(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	b.BeginBindingBlock()
	val := (&ir.Var{VarId: ir.NewId("s", 1)}).WithAnnotations(ir.ShapeType{}, nil)
	bound, err := b.EmitMatchShape(val, ir.Dims{ir.IntImm{Value: 4}}, "n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := bound.CheckedType().(ir.ShapeType); !ok {
		t.Fatalf("expected the bound var's checked type to be ShapeType, got %T", bound.CheckedType())
	}
}

func TestCanProveShapeEqualIdenticalReference(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	s := &ir.ShapeExpr{DimsVal: ir.Dims{ir.SymVar{Name: "N"}}}
	if !b.CanProveShapeEqual(s, s) {
		t.Fatalf("expected an identical reference to be provably equal")
	}
}

func TestCanProveShapeEqualStructurallyEqualShapeExprs(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	a := &ir.ShapeExpr{DimsVal: ir.Dims{ir.SymVar{Name: "N"}, ir.IntImm{Value: 4}}}
	c := &ir.ShapeExpr{DimsVal: ir.Dims{ir.SymVar{Name: "N"}, ir.IntImm{Value: 4}}}
	if !b.CanProveShapeEqual(a, c) {
		t.Fatalf("expected dimension-wise equal ShapeExprs to be provably equal")
	}
}

func TestCanProveShapeEqualDifferentRankIsFalse(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	a := &ir.ShapeExpr{DimsVal: ir.Dims{ir.SymVar{Name: "N"}}}
	c := &ir.ShapeExpr{DimsVal: ir.Dims{ir.SymVar{Name: "N"}, ir.IntImm{Value: 4}}}
	if b.CanProveShapeEqual(a, c) {
		t.Fatalf("expected different-rank ShapeExprs to be unprovable")
	}
}

func TestCanProveShapeEqualNonShapeExprIsFalse(t *testing.T) {
	dctx := diag.New()
	b := newB(dctx)
	s := &ir.ShapeExpr{DimsVal: ir.Dims{ir.SymVar{Name: "N"}}}
	v := &ir.Var{VarId: ir.NewId("x", 1)}
	if b.CanProveShapeEqual(s, v) {
		t.Fatalf("expected a non-ShapeExpr operand to be unprovable")
	}
}
