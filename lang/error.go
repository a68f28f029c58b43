package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
//
// Every error returned by this package is an [*Error] derived from one of
// these, so callers can match with [errors.Is].
var (
	ErrSyntax           = NewError("syntax error")
	ErrPath             = NewError("invalid path expression")
	ErrHelper           = NewError("helper invocation failed")
	ErrPartialNotFound  = NewError("partial not found")
	ErrMaxDepthExceeded = NewError("maximum partial depth exceeded")
	ErrWrite            = NewError("failed to write output")
	ErrReadInput        = NewError("failed to read input")
)

// Error represents an error with optional structured logging attributes and
// an optional source location.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg    string
	base   *Error      // Sentinel this error was derived from
	err    error       // Wrapped error (for errors.Unwrap)
	attrs  []slog.Attr // Attributes for structured logging
	name   string      // Template name
	pos    Position
	source string // Template source, for the excerpt
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
//
// The message has the form "<name>:<line>:<col>: <msg>: <cause>", where each
// part is omitted when unset, followed by a source excerpt when the source
// of the failing template is known.
func (e *Error) Error() string {
	part := make([]string, 0, 3)

	if loc := e.location(); loc != "" {
		part = append(part, loc)
	}

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	msg := strings.Join(part, ": ")

	if snippet := e.Snippet(); snippet != "" {
		msg += "\n" + snippet
	}

	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e == t || (e.base != nil && e.base == t.root())
}

// Position returns the source position recorded on the error, if any.
func (e *Error) Position() (Position, bool) {
	return e.pos, e.pos.Line > 0
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	if e.name != "" {
		attrs = append(attrs, slog.String("template", e.name))
	}

	if e.pos.Line > 0 {
		attrs = append(attrs, slog.Any("position", e.pos))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	next := e.derive()
	next.err = err

	return next
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	next := e.derive()
	next.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(next.attrs, e.attrs)
	copy(next.attrs[len(e.attrs):], attrs)

	return next
}

// WithPosition returns a copy of the error located at pos.
func (e *Error) WithPosition(pos Position) *Error {
	next := e.derive()
	next.pos = pos

	return next
}

// WithSource returns a copy of the error that reports the template name and
// renders an excerpt of source at its position.
func (e *Error) WithSource(name, source string) *Error {
	next := e.derive()
	next.name = name
	next.source = source

	return next
}

// Snippet returns the offending source line followed by a caret pointing at
// the error column, or an empty string if no position or source is known.
func (e *Error) Snippet() string {
	if e.pos.Line <= 0 || e.source == "" {
		return ""
	}

	lines := strings.Split(e.source, "\n")
	if e.pos.Line > len(lines) {
		return ""
	}

	line := strings.TrimRight(lines[e.pos.Line-1], "\r")
	num := strconv.Itoa(e.pos.Line)

	var src strings.Builder

	src.WriteString("  ")
	src.WriteString(num)
	src.WriteString(" | ")
	src.WriteString(line)
	src.WriteByte('\n')

	// 2 leading spaces + " | "
	padding := strings.Repeat(" ", len(num)+5)
	if e.pos.Column > 1 {
		padding += strings.Repeat(" ", e.pos.Column-1)
	}

	src.WriteString(padding)
	src.WriteString("^")

	return src.String()
}

func (e *Error) location() string {
	var loc []string

	if e.name != "" {
		loc = append(loc, e.name)
	}

	if e.pos.Line > 0 {
		loc = append(loc, strconv.Itoa(e.pos.Line), strconv.Itoa(e.pos.Column))
	}

	return strings.Join(loc, ":")
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

func (e *Error) derive() *Error {
	next := *e
	next.base = e.root()

	return &next
}
