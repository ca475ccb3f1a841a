// Package xmlerr defines the error taxonomy shared by the decoder, lexer,
// DTD model, parser and XPath engine.
package xmlerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind names a class of failure, never a concrete Go type. Callers switch
// on Kind, not on the dynamic type of the error.
type Kind int

const (
	// InvalidEncoding: bytes not decodable in the detected encoding.
	InvalidEncoding Kind = iota
	// NotWellFormed: any violation of XML 1.0 well-formedness.
	NotWellFormed
	// Invalid: a DTD validity error.
	Invalid
	// EntityRecursion: the same entity was re-entered during expansion.
	EntityRecursion
	// ExternalEntityInAttribute: an external general entity was referenced
	// from within an attribute literal.
	ExternalEntityInAttribute
	// EncodingMismatch: the XML declaration's encoding disagrees with the
	// encoding the decoder detected from the byte stream.
	EncodingMismatch
	// UnexpectedEOF: input ended inside an incomplete construct.
	UnexpectedEOF
	// XPathSyntax: an XPath failure reported by Compile (malformed
	// expression, unknown function or axis, undefined prefix); a core
	// function called with the wrong number of arguments is reported with
	// this Kind when the call is evaluated, not at compile time.
	XPathSyntax
	// XPathType: run-time XPath type mismatch.
	XPathType
	// UndefinedVariable: an XPath $name has no binding.
	UndefinedVariable
	// UndefinedEntity: a &name; or %name; reference has no declaration.
	UndefinedEntity
)

func (k Kind) String() string {
	switch k {
	case InvalidEncoding:
		return "InvalidEncoding"
	case NotWellFormed:
		return "NotWellFormed"
	case Invalid:
		return "Invalid"
	case EntityRecursion:
		return "EntityRecursion"
	case ExternalEntityInAttribute:
		return "ExternalEntityInAttribute"
	case EncodingMismatch:
		return "EncodingMismatch"
	case UnexpectedEOF:
		return "UnexpectedEOF"
	case XPathSyntax:
		return "XPathSyntax"
	case XPathType:
		return "XPathType"
	case UndefinedVariable:
		return "UndefinedVariable"
	case UndefinedEntity:
		return "UndefinedEntity"
	default:
		return "Unknown"
	}
}

// Error is the single error type every package in this module returns. It
// carries a Kind, a human-readable message, and — for parse-time failures —
// the input line and column.
type Error struct {
	Kind    Kind
	Msg     string
	Line    int
	Column  int
	cause   error
}

func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d, column %d: %s", e.Kind, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap lets errors.Is/errors.As reach the underlying cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// New builds a positionless Error of the given Kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// At builds an Error carrying a line/column, as produced mid-parse.
func At(kind Kind, line, column int, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: line, Column: column, Msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a Kind and message to a foreign error (I/O failure, utf8
// decode error, …), keeping it, with a stack trace from github.com/pkg/errors,
// as the cause Unwrap returns, so errors.Is/errors.As still reach the
// original failure. Error has no Cause method, so errors.Cause(err) stops at
// the *Error itself.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), cause: errors.WithStack(cause)}
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
