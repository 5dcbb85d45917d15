package ir

import (
	"sort"
	"strings"
)

// Program is a set of top-level function declarations. It is a
// convenience container for the demo tool and tests that need more
// than one named function in scope at once; the spec itself only
// talks about Expr/Binding trees, not module-level linking.
type Program struct {
	Funcs map[string]*Function
}

// NewProgram builds a Program from a name-to-function map.
func NewProgram(funcs map[string]*Function) *Program {
	return &Program{Funcs: funcs}
}

// String prints each function in name order, so two Programs holding
// the same functions always render identically regardless of map
// iteration order.
func (p *Program) String() string {
	names := make([]string, 0, len(p.Funcs))
	for name := range p.Funcs {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		sb.WriteString(name)
		sb.WriteString(" = ")
		sb.WriteString(p.Funcs[name].String())
		sb.WriteString("\n")
	}
	return sb.String()
}
