package ir

import (
	"fmt"
	"strings"
)

// DType is a primitive tensor element type token (f32, i64, bool, ...).
// It is an opaque string rather than an enum because the operator
// registry (an external collaborator, §6) is the authority on which
// dtype tokens exist; the core never validates dtype spelling.
type DType string

// Type is one of DynTensorType, ShapeType, TupleType, FuncType,
// OpaqueType (§3 Types). A Type may also be entirely absent
// (represented as a nil Type) during construction, before inference
// fills it in.
type Type interface {
	String() string
	Equals(Type) bool
	typeNode()
}

// DynTensorType describes a tensor whose rank may or may not be known
// statically (Rank == nil means unknown rank) and whose dtype is a
// registry-defined token.
type DynTensorType struct {
	Rank  *int // nil == unknown rank
	Dtype DType
}

func (DynTensorType) typeNode() {}

func (t DynTensorType) String() string {
	if t.Rank == nil {
		return fmt.Sprintf("Tensor(?, %s)", t.Dtype)
	}
	return fmt.Sprintf("Tensor(%d, %s)", *t.Rank, t.Dtype)
}

func (t DynTensorType) Equals(other Type) bool {
	o, ok := other.(DynTensorType)
	if !ok {
		return false
	}
	if t.Dtype != o.Dtype {
		return false
	}
	if t.Rank == nil || o.Rank == nil {
		return t.Rank == o.Rank
	}
	return *t.Rank == *o.Rank
}

// ShapeType is the type of a first-class shape value (the type
// ShapeExpr/RuntimeDepShape nodes carry, and the type MatchShape binds
// when its operand is itself a shape rather than a tensor).
type ShapeType struct{}

func (ShapeType) typeNode() {}
func (ShapeType) String() string { return "Shape" }
func (ShapeType) Equals(other Type) bool {
	_, ok := other.(ShapeType)
	return ok
}

// TupleType is the type of a Tuple expression.
type TupleType struct {
	Fields []Type
}

func (TupleType) typeNode() {}

func (t TupleType) String() string {
	parts := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		parts[i] = f.String()
	}
	return fmt.Sprintf("(%s)", strings.Join(parts, ", "))
}

func (t TupleType) Equals(other Type) bool {
	o, ok := other.(TupleType)
	if !ok || len(t.Fields) != len(o.Fields) {
		return false
	}
	for i := range t.Fields {
		if !t.Fields[i].Equals(o.Fields[i]) {
			return false
		}
	}
	return true
}

// FuncType is the type of a Function expression.
type FuncType struct {
	Args []Type
	Ret  Type
}

func (FuncType) typeNode() {}

func (t FuncType) String() string {
	parts := make([]string, len(t.Args))
	for i, a := range t.Args {
		parts[i] = a.String()
	}
	return fmt.Sprintf("(%s) -> %s", strings.Join(parts, ", "), t.Ret)
}

func (t FuncType) Equals(other Type) bool {
	o, ok := other.(FuncType)
	if !ok || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equals(o.Args[i]) {
			return false
		}
	}
	if (t.Ret == nil) != (o.Ret == nil) {
		return false
	}
	if t.Ret == nil {
		return true
	}
	return t.Ret.Equals(o.Ret)
}

// OpaqueType is the type of values the core has no further structural
// knowledge of (e.g. externally defined objects).
type OpaqueType struct {
	Name string
}

func (OpaqueType) typeNode() {}
func (t OpaqueType) String() string { return fmt.Sprintf("Opaque<%s>", t.Name) }
func (t OpaqueType) Equals(other Type) bool {
	o, ok := other.(OpaqueType)
	return ok && t.Name == o.Name
}
