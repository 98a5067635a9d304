// Package diagnostics implements spec.md §6-7's four user-facing error
// kinds (SyntaxError, TypeError, RuntimeError, UncaughtException),
// grounded on the teacher's Error/StackFrame pair
// (_examples/funvibe-funxy/internal/evaluator/object_control.go): a
// position-carrying message plus an optional innermost-to-outermost call
// stack rendered as "at %s:%d (called %s)" lines.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/metorex-lang/metorex/internal/token"
)

// Kind distinguishes the four error surfaces spec.md §7 names.
type Kind int

const (
	SyntaxError Kind = iota
	TypeError
	RuntimeError
	UncaughtException
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case TypeError:
		return "TypeError"
	case RuntimeError:
		return "RuntimeError"
	case UncaughtException:
		return "UncaughtException"
	}
	return "Error"
}

// Frame mirrors one entry of an Evaluator's call stack at the moment an
// exception escaped uncaught.
type Frame struct {
	Name   string
	Line   int
	Column int
}

// Diagnostic is the CLI-facing rendering of any of the four error kinds.
// IncidentID is only populated for UncaughtException (spec.md §2's
// exception-chaining supplement: uncaught exceptions get a stable id a
// user can cite when reporting a bug).
type Diagnostic struct {
	Kind       Kind
	Message    string
	Pos        token.Position
	Frames     []Frame
	Cause      *Diagnostic
	IncidentID string
}

// NewUncaught builds an UncaughtException diagnostic stamped with a fresh
// incident id, the way a production service tags an error log line so two
// reports from the same run can be told apart.
func NewUncaught(exceptionType, message string, pos token.Position, frames []Frame) *Diagnostic {
	return &Diagnostic{
		Kind:       UncaughtException,
		Message:    exceptionType + ": " + message,
		Pos:        pos,
		Frames:     frames,
		IncidentID: uuid.New().String(),
	}
}

// New builds a SyntaxError/TypeError/RuntimeError diagnostic with no
// incident id and no stack trace (those three are compile-time or
// immediate-return errors; only an exception that unwound a live call
// stack carries frames).
func New(kind Kind, message string, pos token.Position) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: message, Pos: pos}
}

// WithCause chains a prior diagnostic as this one's root cause (spec.md
// §2's Exception#exception_chain supplement, surfaced to the CLI's
// uncaught-exception report rather than only to in-language code).
func (d *Diagnostic) WithCause(cause *Diagnostic) *Diagnostic {
	d.Cause = cause
	return d
}

// Error satisfies the error interface so a Diagnostic can be returned and
// compared like any other Go error.
func (d *Diagnostic) Error() string {
	return d.String()
}

// String renders the full user-facing report: "<Kind>: <message>" at
// <line>:<col>, then (if any) the stack trace innermost-to-outermost in
// the teacher's "at %s:%d (called %s)" format, then the incident id and
// cause chain.
func (d *Diagnostic) String() string {
	var b strings.Builder
	if d.Pos.Line > 0 {
		fmt.Fprintf(&b, "%s: %s at %d:%d", d.Kind, d.Message, d.Pos.Line, d.Pos.Column)
	} else {
		fmt.Fprintf(&b, "%s: %s", d.Kind, d.Message)
	}

	if len(d.Frames) > 0 {
		b.WriteString("\nStack trace:")
		for i := len(d.Frames) - 1; i >= 0; i-- {
			f := d.Frames[i]
			caller := "main"
			if i > 0 {
				caller = d.Frames[i-1].Name
			}
			fmt.Fprintf(&b, "\n  at %s:%d (called %s)", caller, f.Line, f.Name)
		}
	}

	if d.IncidentID != "" {
		fmt.Fprintf(&b, "\nIncident: %s", d.IncidentID)
	}

	for cause := d.Cause; cause != nil; cause = cause.Cause {
		fmt.Fprintf(&b, "\nCaused by: %s", cause.Message)
	}

	return b.String()
}

// BoundsMessage formats an out-of-range index error the way a production
// diagnostics layer would for a large literal, using humanize.Comma so a
// six-digit index reads as "1,000,000" rather than an unbroken digit run —
// the one place this interpreter's error surface benefits from
// go-humanize's number formatting.
func BoundsMessage(what string, index, length int) string {
	return fmt.Sprintf("%s index %s out of range (length %s)",
		what, humanize.Comma(int64(index)), humanize.Comma(int64(length)))
}
