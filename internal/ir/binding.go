package ir

import (
	"fmt"
	"strings"
)

// Binding is one of VarBinding or MatchShape (§3 Bindings).
type Binding interface {
	String() string
	bindingNode()
}

// VarBinding is the let form: BoundVar = Value.
type VarBinding struct {
	BoundVar Expr // either *Var or *DataflowVar — the binding site
	Value    Expr
}

func (VarBinding) bindingNode() {}
func (b VarBinding) String() string {
	return fmt.Sprintf("%s = %s", b.BoundVar, b.Value)
}

// MatchShape binds (or simply constrains) the shape of Value against
// Pattern, optionally introducing a fresh var annotated with the
// pattern's shape.
type MatchShape struct {
	Value   Expr
	Pattern Dims
	// BoundVar is nil when MatchShape only constrains, without binding
	// a fresh name (§3 Bindings).
	BoundVar Expr // *Var or *DataflowVar
}

func (MatchShape) bindingNode() {}
func (m MatchShape) String() string {
	if m.BoundVar != nil {
		return fmt.Sprintf("%s = match_shape(%s, %s)", m.BoundVar, m.Value, m.Pattern)
	}
	return fmt.Sprintf("match_shape(%s, %s)", m.Value, m.Pattern)
}

// BindingBlock is a straight-line sequence of bindings (§3 Binding
// blocks). IsDataflow distinguishes a plain BindingBlock from a
// DataflowBlock; NewBindingBlock and NewDataflowBlock below build each
// flavor.
type BindingBlock struct {
	Bindings   []Binding
	IsDataflow bool
}

func (b BindingBlock) String() string {
	var sb strings.Builder
	if b.IsDataflow {
		sb.WriteString("dataflow {\n")
	} else {
		sb.WriteString("{\n")
	}
	for _, bind := range b.Bindings {
		sb.WriteString("  ")
		sb.WriteString(bind.String())
		sb.WriteString("\n")
	}
	sb.WriteString("}\n")
	return sb.String()
}

// DataflowBlock is a BindingBlock whose invariants additionally require
// (§3): every binding is pure, DataflowVars may only be defined inside
// it, and a DataflowVar defined inside must not escape it (§3 Binding
// blocks). The invariant is enforced by internal/builder, not by this
// type itself — DataflowBlock is a tag, not an enforcement mechanism.
type DataflowBlock struct {
	BindingBlock
}

// NewBindingBlock wraps bindings as an ordinary (non-dataflow) block.
func NewBindingBlock(bindings []Binding) BindingBlock {
	return BindingBlock{Bindings: bindings, IsDataflow: false}
}

// NewDataflowBlock wraps bindings as a dataflow block.
func NewDataflowBlock(bindings []Binding) DataflowBlock {
	return DataflowBlock{BindingBlock{Bindings: bindings, IsDataflow: true}}
}
