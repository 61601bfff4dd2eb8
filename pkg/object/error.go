package object

import (
	"fmt"
	"strings"
)

// ErrorType classifies a script failure.
type ErrorType uint8

const (
	LexError ErrorType = iota + 1
	ParseError
	NameError
	TypeError
	IndexError
	InterpreterError
	InternalError
)

func (t ErrorType) String() string {
	switch t {
	case LexError:
		return "LexError"
	case ParseError:
		return "ParseError"
	case NameError:
		return "NameError"
	case TypeError:
		return "TypeError"
	case IndexError:
		return "IndexError"
	case InterpreterError:
		return "InterpreterError"
	case InternalError:
		return "InternalError"
	default:
		return "Error"
	}
}

// Parse error details.
const (
	ArityMismatch  = "ArityMismatch"
	TypeMismatch   = "TypeMismatch"
	UnknownBuiltin = "UnknownBuiltin"
	SyntaxError    = "SyntaxError"
)

// Exception categories matched by `when` handlers.
const (
	AnyError        = "ANY_ERROR"
	IOError         = "IO_ERROR"
	DBError         = "DB_ERROR"
	TypeErrorName   = "TYPE_ERROR"
	NullError       = "NULL_ERROR"
	IndexErrorName  = "INDEX_ERROR"
	MathError       = "MATH_ERROR"
	ParseErrorName  = "PARSE_ERROR"
	NetworkError    = "NETWORK_ERROR"
	NotFoundError   = "NOT_FOUND_ERROR"
	AccessError     = "ACCESS_ERROR"
	ValidationError = "VALIDATION_ERROR"
)

var standardCategories = map[string]bool{
	AnyError: true, IOError: true, DBError: true, TypeErrorName: true,
	NullError: true, IndexErrorName: true, MathError: true, ParseErrorName: true,
	NetworkError: true, NotFoundError: true, AccessError: true, ValidationError: true,
}

// IsStandardCategory reports whether name is one of the built-in exception
// categories rather than a script-defined one.
func IsStandardCategory(name string) bool {
	return standardCategories[strings.ToUpper(name)]
}

// Error is a structured script failure. It travels through evaluation as an
// Object and satisfies the error interface for Go callers.
type Error struct {
	Type     ErrorType
	Detail   string // parse error detail, e.g. ArityMismatch
	Category string // exception category used by handlers
	Message  string
	Line     int
}

func (e *Error) Kind() Kind      { return KindError }
func (e *Error) Inspect() string { return "ERROR: " + e.Message }

func (e *Error) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "[line %d] ", e.Line)
	}
	b.WriteString(e.Type.String())
	if e.Detail != "" {
		b.WriteString(" (" + e.Detail + ")")
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Catchable reports whether a script handler may intercept the error.
// Internal errors indicate an engine bug and always reach the host.
func (e *Error) Catchable() bool {
	return e.Type != InternalError
}

// AtLine sets the source line if it is not known yet and returns e.
func (e *Error) AtLine(line int) *Error {
	if e.Line == 0 {
		e.Line = line
	}
	return e
}

func defaultCategory(t ErrorType) string {
	switch t {
	case LexError, ParseError:
		return ParseErrorName
	case NameError:
		return NotFoundError
	case TypeError:
		return TypeErrorName
	case IndexError:
		return IndexErrorName
	case InternalError:
		return ""
	default:
		return AnyError
	}
}

// NewError builds an error of type t with the type's default category.
func NewError(t ErrorType, format string, a ...interface{}) *Error {
	return &Error{Type: t, Category: defaultCategory(t), Message: fmt.Sprintf(format, a...)}
}

// Raise builds an InterpreterError carrying an explicit category.
func Raise(category, format string, a ...interface{}) *Error {
	return &Error{Type: InterpreterError, Category: strings.ToUpper(category), Message: fmt.Sprintf(format, a...)}
}

// Wrap converts a Go error from a host library into a categorized
// InterpreterError. Script errors pass through unchanged.
func Wrap(category string, err error) *Error {
	if se, ok := err.(*Error); ok {
		return se
	}
	return Raise(category, "%s", err.Error())
}

// ParseFailure builds a ParseError with a detail code.
func ParseFailure(detail string, line int, format string, a ...interface{}) *Error {
	e := NewError(ParseError, format, a...)
	e.Detail = detail
	e.Line = line
	return e
}
