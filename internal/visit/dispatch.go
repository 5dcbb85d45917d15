// Package visit implements the generic dispatch functor (§4.1) and its
// read-only Visitor specialization (§4.2). The unnormalized Mutator
// (§4.3) lives in internal/mutate, built on this package's Dispatcher,
// and internal/normalize builds the normalizing mutator (§4.4) on top
// of that Mutator.
package visit

import (
	"fmt"

	"github.com/sunholo/relaxir/internal/diag"
	"github.com/sunholo/relaxir/internal/ir"
)

// Handler is one per-variant hook of a Dispatcher[R, A]: given the node
// and the client's chosen extra argument, produce the client's chosen
// result type, or a fatal diagnostic error.
type Handler[R any, A any] func(ir.Expr, A) (R, error)

// Dispatcher is the type-directed double-dispatch mechanism of §4.1: a
// client picks a return type R and an extra-argument type A once, then
// dispatches from any ir.Expr to the correct Handler in O(1) via the
// node's Kind() discriminant — without the AST ever knowing the
// traversal exists (open traversal / closed sum, §9). Every concrete
// traversal (this package's Visitor, internal/mutate's Mutator) is
// built by instantiating a Dispatcher and filling its table.
type Dispatcher[R any, A any] struct {
	table   [ir.NumKinds]Handler[R, A]
	Default Handler[R, A]
}

// NewDispatcher builds a Dispatcher whose slots are all unset; Set
// installs per-variant overrides, and def (Default) handles every unset
// slot. If def is nil, Dispatch fails an unset slot with
// UnhandledVariant (see below).
func NewDispatcher[R any, A any](def Handler[R, A]) *Dispatcher[R, A] {
	return &Dispatcher[R, A]{Default: def}
}

// Set installs the handler for one variant kind, shadowing Default for
// that kind only.
func (d *Dispatcher[R, A]) Set(k ir.Kind, h Handler[R, A]) {
	d.table[k] = h
}

// Dispatch looks up expr's handler by Kind and calls it. A nil expr
// fails with NullNode before any handler runs (§4.1 "visit(null) fails
// with NullNode"); an unhandled variant with no Default set falls
// through to Unhandled's UnhandledVariant failure.
func (d *Dispatcher[R, A]) Dispatch(expr ir.Expr, arg A) (R, error) {
	var zero R
	if expr == nil {
		return zero, &diag.Report{
			Code:     diag.CodeNullNode,
			Severity: diag.SeverityFatal,
			Message:  "visit(nil): no expression to dispatch on",
		}
	}
	h := d.table[expr.Kind()]
	if h == nil {
		h = d.Default
	}
	if h == nil {
		h = Unhandled[R, A]()
	}
	return h(expr, arg)
}

// Unhandled is the canonical visit_default failure: UnhandledVariant
// carrying the node's variant tag (§4.1, §7).
func Unhandled[R any, A any]() Handler[R, A] {
	return func(e ir.Expr, _ A) (R, error) {
		var zero R
		return zero, &diag.Report{
			Code:     diag.CodeUnhandledVariant,
			Severity: diag.SeverityFatal,
			Message:  fmt.Sprintf("no handler registered for variant %s", e.Kind()),
			Data:     map[string]any{"kind": e.Kind().String()},
		}
	}
}
