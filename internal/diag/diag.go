// Package diag implements the diagnostic context consumed by the
// traversal framework and the block builder (§6, §7). It mirrors the
// teacher's internal/errors package: a structured report carrying a
// stable code, a human message, and optional span/data, wrapped as a
// Go error so it composes with errors.As/errors.Is.
package diag

import (
	"fmt"

	"github.com/sunholo/relaxir/internal/ir"
)

// Code is one of the stable error-kind tokens from §7's taxonomy.
type Code string

const (
	CodeNullNode              Code = "NullNode"
	CodeUnhandledVariant      Code = "UnhandledVariant"
	CodeUnclosedBlock         Code = "UnclosedBlock"
	CodeUnknownVar            Code = "UnknownVar"
	CodeBadMatchShapeOperand  Code = "BadMatchShapeOperand"
	CodeOutputOutsideDataflow Code = "OutputOutsideDataflow"
	CodeDataflowScopeViolation Code = "DataflowScopeViolation"
	CodeOperatorInferenceFailure Code = "OperatorInferenceFailure"
)

// Severity distinguishes diagnostics that merely get logged from ones
// that abort the current operation.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityFatal
)

func (s Severity) String() string {
	if s == SeverityFatal {
		return "fatal"
	}
	return "warning"
}

// Report is the structured payload of a diagnostic (modeled on the
// teacher's errors.Report).
type Report struct {
	Code     Code
	Severity Severity
	Message  string
	Span     *ir.Span
	Data     map[string]any
}

func (r *Report) Error() string {
	if r.Span != nil {
		return fmt.Sprintf("%s [%s] %s: %s", r.Severity, r.Code, r.Span, r.Message)
	}
	return fmt.Sprintf("%s [%s] %s", r.Severity, r.Code, r.Message)
}

// Ctx is the diagnostic context the block builder and inference
// routines emit into (§6 "Diagnostic context (consumed)"). Fatal
// reports are additionally returned by EmitFatal as a Go error, since
// that is the idiomatic way for an abort to propagate in this
// codebase; Ctx itself only accumulates the log.
type Ctx struct {
	log []*Report
}

// New creates an empty diagnostic context.
func New() *Ctx {
	return &Ctx{}
}

// Emit records a non-fatal diagnostic and continues.
func (c *Ctx) Emit(code Code, span *ir.Span, message string, data map[string]any) *Report {
	r := &Report{Code: code, Severity: SeverityWarning, Message: message, Span: span, Data: data}
	c.log = append(c.log, r)
	return r
}

// EmitFatal records a fatal diagnostic and returns it as an error for
// the caller to propagate (§7: "structural misuse is fatal and
// surfaces through the diagnostic context").
func (c *Ctx) EmitFatal(code Code, span *ir.Span, message string, data map[string]any) error {
	r := &Report{Code: code, Severity: SeverityFatal, Message: message, Span: span, Data: data}
	c.log = append(c.log, r)
	return r
}

// Log returns every diagnostic recorded so far, in emission order.
func (c *Ctx) Log() []*Report {
	out := make([]*Report, len(c.log))
	copy(out, c.log)
	return out
}

// Warnings returns only the non-fatal diagnostics, mirroring the
// teacher's Elaborator.GetWarnings/ClearWarnings accumulation.
func (c *Ctx) Warnings() []*Report {
	var out []*Report
	for _, r := range c.log {
		if r.Severity == SeverityWarning {
			out = append(out, r)
		}
	}
	return out
}

// Clear empties the accumulated log.
func (c *Ctx) Clear() {
	c.log = nil
}

// CodeOf extracts the Code from an error produced by EmitFatal, if any.
func CodeOf(err error) (Code, bool) {
	if r, ok := err.(*Report); ok {
		return r.Code, true
	}
	return "", false
}
