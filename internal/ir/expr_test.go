package ir_test

import (
	"testing"

	"github.com/sunholo/relaxir/internal/ir"
)

func mkVar(name string, uniq uint64) *ir.Var {
	return &ir.Var{VarId: ir.NewId(name, uniq)}
}

func TestIdEquality(t *testing.T) {
	a := ir.NewId("x", 1)
	b := ir.NewId("x", 1)
	c := ir.NewId("x", 2)
	if !a.Equal(b) {
		t.Fatalf("expected equal ids with same uniq")
	}
	if a.Equal(c) {
		t.Fatalf("expected distinct ids with different uniq")
	}
}

func TestWithAnnotationsPreservesUnsetSlots(t *testing.T) {
	v := mkVar("x", 1)
	ty := ir.DynTensorType{Dtype: "f32"}
	stamped := v.WithAnnotations(ty, nil)
	if stamped.CheckedType() == nil {
		t.Fatalf("expected type to be stamped")
	}
	if stamped.Shape() != nil {
		t.Fatalf("expected shape to remain unset when nil is passed")
	}
	if v.CheckedType() != nil {
		t.Fatalf("original node must not be mutated in place")
	}
}

func TestWithAnnotationsStructuralSharing(t *testing.T) {
	v := mkVar("x", 1)
	shape := &ir.ShapeExpr{DimsVal: ir.Dims{ir.IntImm{Value: 3}}}
	stamped := v.WithAnnotations(nil, shape)
	restamped := stamped.WithAnnotations(ir.DynTensorType{Dtype: "f32"}, nil)
	if restamped.Shape() != shape {
		t.Fatalf("restamping type must preserve the existing shape slot by identity")
	}
}

func TestIsAtomic(t *testing.T) {
	cases := []struct {
		name string
		expr ir.Expr
		want bool
	}{
		{"var", mkVar("x", 1), true},
		{"constant", &ir.Constant{Value: 1}, true},
		{"op", &ir.Op{OpKey: "add"}, true},
		{"shape_expr", &ir.ShapeExpr{}, true},
		{"tuple_of_atomics", &ir.Tuple{Fields: []ir.Expr{mkVar("a", 1), &ir.Constant{Value: 2}}}, true},
		{"tuple_with_call", &ir.Tuple{Fields: []ir.Expr{&ir.Call{Callee: &ir.Op{OpKey: "f"}}}}, false},
		{"call", &ir.Call{Callee: &ir.Op{OpKey: "f"}}, false},
		{"if", &ir.If{Cond: mkVar("c", 1), Then: mkVar("t", 2), Else: mkVar("e", 3)}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ir.IsAtomic(c.expr); got != c.want {
				t.Fatalf("IsAtomic(%s) = %v, want %v", c.name, got, c.want)
			}
		})
	}
}

func TestVarIdOf(t *testing.T) {
	v := mkVar("x", 7)
	id, ok := ir.VarIdOf(v)
	if !ok || id.Unique() != 7 {
		t.Fatalf("expected to extract id from Var")
	}
	dv := &ir.DataflowVar{VarId: ir.NewId("y", 8)}
	id, ok = ir.VarIdOf(dv)
	if !ok || id.Unique() != 8 {
		t.Fatalf("expected to extract id from DataflowVar")
	}
	if _, ok := ir.VarIdOf(&ir.Constant{Value: 1}); ok {
		t.Fatalf("expected VarIdOf to reject a non-var expr")
	}
}

func TestChildrenReachability(t *testing.T) {
	x := mkVar("x", 1)
	body := &ir.Call{Callee: &ir.Op{OpKey: "add"}, Args: []ir.Expr{x, x}}
	fn := &ir.Function{Params: []*ir.Var{x}, Body: body}

	got := ir.Children(fn)
	if len(got) != 2 || got[0] != ir.Expr(x) || got[1] != ir.Expr(body) {
		t.Fatalf("unexpected Function children: %v", got)
	}

	gotCall := ir.Children(body)
	if len(gotCall) != 3 {
		t.Fatalf("expected callee+2 args, got %d children", len(gotCall))
	}
}

func TestSamePrimExpr(t *testing.T) {
	a := ir.BinArith{Op: ir.OpAdd, Left: ir.IntImm{Value: 1}, Right: ir.SymVar{Name: "n"}}
	b := ir.BinArith{Op: ir.OpAdd, Left: ir.IntImm{Value: 1}, Right: ir.SymVar{Name: "n"}}
	c := ir.BinArith{Op: ir.OpAdd, Left: ir.SymVar{Name: "n"}, Right: ir.IntImm{Value: 1}}
	if !ir.SamePrimExpr(a, b) {
		t.Fatalf("expected structurally identical expressions to compare equal")
	}
	if ir.SamePrimExpr(a, c) {
		t.Fatalf("SamePrimExpr must not normalize commutativity")
	}
}

func TestTypeEquals(t *testing.T) {
	rank := 2
	a := ir.DynTensorType{Rank: &rank, Dtype: "f32"}
	b := ir.DynTensorType{Rank: &rank, Dtype: "f32"}
	if !a.Equals(b) {
		t.Fatalf("expected equal DynTensorTypes to compare equal")
	}
	tup := ir.TupleType{Fields: []ir.Type{a, ir.ShapeType{}}}
	tup2 := ir.TupleType{Fields: []ir.Type{b, ir.ShapeType{}}}
	if !tup.Equals(tup2) {
		t.Fatalf("expected equal TupleTypes to compare equal")
	}
}
