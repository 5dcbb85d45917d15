// Package names implements the monotone Id allocator of §4.5: a fresh,
// display-name-unique Id table owned by exactly one builder at a time.
package names

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/sunholo/relaxir/internal/ir"
)

// Table allocates fresh ir.Ids. Thread-affinity: single owner — callers
// must not share a Table across goroutines (§4.5, §5).
type Table struct {
	used map[string]bool
	next uint64
}

// NewTable creates an empty name table.
func NewTable() *Table {
	return &Table{used: make(map[string]bool)}
}

// GetUniqueName returns hint if unused, else hint with the smallest
// positive integer k appended that makes it unused (lv, lv1, lv2, ...;
// §4.5). An empty hint is treated as "v". The hint is first
// normalized to Unicode NFC so that two differently-encoded but
// visually identical hints collide, the same boundary normalization
// the teacher's lexer applies to source text before tokenizing.
func (t *Table) GetUniqueName(hint string) string {
	hint = normalizeHint(hint)
	if hint == "" {
		hint = "v"
	}
	if !t.used[hint] {
		t.used[hint] = true
		return hint
	}
	for k := 1; ; k++ {
		candidate := fmt.Sprintf("%s%d", hint, k)
		if !t.used[candidate] {
			t.used[candidate] = true
			return candidate
		}
	}
}

// Fresh allocates a brand-new, globally distinct Id whose display name
// is the deduplicated hint (§3 "Two Ids produced by the name table are
// distinct").
func (t *Table) Fresh(hint string) ir.Id {
	name := t.GetUniqueName(hint)
	t.next++
	return ir.NewId(name, t.next)
}

func normalizeHint(hint string) string {
	b := []byte(hint)
	if norm.NFC.IsNormal(b) {
		return hint
	}
	return string(norm.NFC.Bytes(b))
}
