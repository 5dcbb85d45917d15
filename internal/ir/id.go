package ir

import "fmt"

// Id is an opaque, equality-comparable token carrying a display name.
// Two Ids produced by the name table are always distinct, even when
// their display names collide (§3, §4.5): identity is the counter, the
// display name is cosmetic.
type Id struct {
	name string
	uniq uint64
}

// NewId constructs an Id directly. Production code should go through
// names.Table.Fresh instead; this constructor exists for tests and for
// components (like the demo tool naming its function parameter) that
// need to name a handful of well-known, already-unique symbols.
func NewId(name string, uniq uint64) Id {
	return Id{name: name, uniq: uniq}
}

// Name returns the Id's display name.
func (id Id) Name() string { return id.name }

// Unique returns the allocation counter distinguishing this Id from any
// other Id with the same display name.
func (id Id) Unique() uint64 { return id.uniq }

func (id Id) String() string {
	return fmt.Sprintf("%s$%d", id.name, id.uniq)
}

// Equal reports whether two Ids refer to the same binding site.
func (id Id) Equal(other Id) bool {
	return id.uniq == other.uniq
}
