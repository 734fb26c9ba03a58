package wal

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined sentinel errors for the evaluation-error kinds listed in
// spec.md section 7.
var (
	ErrUndefinedSymbol = NewError("undefined symbol")
	ErrArity           = NewError("parameter count mismatch")
	ErrKindMismatch    = NewError("invalid value kind")
	ErrDivideByZero    = NewError("division by zero")
	ErrBadIndex        = NewError("bad index")
	ErrDuplicateCase   = NewError("duplicate case key")
	ErrWriteUnbound    = NewError("write to unbound name")
	ErrNotCallable     = NewError("not a valid function call")
	ErrAssertion       = NewError("assertion violated")
	ErrAlreadyDefined  = NewError("name already defined in this frame")
	ErrNoParseTree     = NewError("no parse tree generated")
	ErrReadInput       = NewError("failed to read input")
	ErrWriteOutput     = NewError("failed to write output")
	ErrMaxDepthExceeded = NewError("maximum expansion depth exceeded")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer. Grounded on the teacher's
// lang.Error.
type Error struct {
	msg   string
	err   error
	attrs []slog.Attr
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error, reusing it unchanged if
// it already is one.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error, keeping this error's
// message and attributes.
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, attrs: e.attrs}
}

// With returns an immutable copy of e with the given attributes appended.
func (e *Error) With(attrs ...slog.Attr) *Error {
	next := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(next, e.attrs)
	copy(next[len(e.attrs):], attrs)

	return &Error{msg: e.msg, err: e.err, attrs: next}
}

// ParseError carries the source excerpt and position of a reader failure.
type ParseError struct {
	Message  string
	Source   string
	Span     Span
	Expected []string
}

// Error implements the error interface, rendering a source excerpt with a
// caret marker under the offending column.
func (e *ParseError) Error() string {
	var b strings.Builder

	if e.Span.File != "" {
		fmt.Fprintf(&b, "%s:%d:%d: ", e.Span.File, e.Span.Line, e.Span.Column)
	} else {
		fmt.Fprintf(&b, "%d:%d: ", e.Span.Line, e.Span.Column)
	}

	b.WriteString(e.Message)

	if len(e.Expected) > 0 {
		b.WriteString(" (expected ")
		b.WriteString(strings.Join(e.Expected, ", "))
		b.WriteByte(')')
	}

	if excerpt := e.formatWithContext(); excerpt != "" {
		b.WriteByte('\n')
		b.WriteString(excerpt)
	}

	return b.String()
}

// formatWithContext renders the source line containing the error with a
// '^' marker under the offending column.
func (e *ParseError) formatWithContext() string {
	if e.Source == "" || e.Span.Line <= 0 {
		return ""
	}

	lines := strings.Split(e.Source, "\n")
	if e.Span.Line > len(lines) {
		return ""
	}

	line := lines[e.Span.Line-1]

	col := e.Span.Column
	if col < 1 {
		col = 1
	}

	if col > len(line)+1 {
		col = len(line) + 1
	}

	marker := strings.Repeat(" ", col-1) + "^"

	return line + "\n" + marker
}

// EvaluationError carries the span of the offending form and a backtrace
// of enclosing closure/macro names, appended as the error unwinds through
// eval_closure.go.
type EvaluationError struct {
	Kind      *Error
	Message   string
	Span      Span
	Source    string
	Backtrace []string
}

// Error implements the error interface.
func (e *EvaluationError) Error() string {
	var b strings.Builder

	if e.Kind != nil {
		b.WriteString(e.Kind.Error())

		if e.Message != "" {
			b.WriteString(": ")
		}
	}

	b.WriteString(e.Message)

	if !e.Span.IsZero() {
		fmt.Fprintf(&b, " at %d:%d", e.Span.Line, e.Span.Column)
	}

	pe := &ParseError{Source: e.Source, Span: e.Span}
	if excerpt := pe.formatWithContext(); excerpt != "" {
		b.WriteByte('\n')
		b.WriteString(excerpt)
	}

	for _, frame := range e.Backtrace {
		b.WriteString("\n\tin ")
		b.WriteString(frame)
	}

	return b.String()
}

// Unwrap exposes the underlying error kind for errors.Is/As.
func (e *EvaluationError) Unwrap() error {
	if e.Kind == nil {
		return nil
	}

	return e.Kind
}

// WithFrame returns a copy of e with frame prepended to its backtrace,
// called as the error unwinds through nested closure applications.
func (e *EvaluationError) WithFrame(frame string) *EvaluationError {
	next := make([]string, 0, len(e.Backtrace)+1)
	next = append(next, frame)
	next = append(next, e.Backtrace...)

	return &EvaluationError{
		Kind:      e.Kind,
		Message:   e.Message,
		Span:      e.Span,
		Source:    e.Source,
		Backtrace: next,
	}
}

// newEvalError builds an EvaluationError of the given sentinel kind.
func newEvalError(kind *Error, span Span, format string, args ...any) *EvaluationError {
	return &EvaluationError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Span:    span,
	}
}

// quoteIfNeeded renders s as a double-quoted string literal (every input
// is quoted) for inclusion in error messages without importing strconv at
// every call site.
func quoteIfNeeded(s string) string {
	return strconv.Quote(s)
}
