package xpath

import (
	"fmt"

	errors "gopkg.in/src-d/go-errors.v1"
)

// ParseErrorKind classifies a ParseError.
type ParseErrorKind int

const (
	// UnexpectedToken reports a token that no grammar production accepts at
	// its position.
	UnexpectedToken ParseErrorKind = iota
	// UnterminatedLiteral reports a string literal with no closing quote.
	UnterminatedLiteral
	// MalformedQName reports a name that violates the QName grammar.
	MalformedQName
	// UnbalancedDelimiter reports a missing closing parenthesis or bracket.
	UnbalancedDelimiter
)

func (k ParseErrorKind) String() string {
	switch k {
	case UnexpectedToken:
		return "unexpected token"
	case UnterminatedLiteral:
		return "unterminated literal"
	case MalformedQName:
		return "malformed QName"
	case UnbalancedDelimiter:
		return "unbalanced delimiter"
	}
	return "parse error"
}

// ParseError is returned by Parse when the expression text violates the
// grammar. Offset is the rune offset of the offending input.
type ParseError struct {
	Kind   ParseErrorKind
	Offset int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Msg)
}

// Evaluation error kinds. These abort the whole evaluation; the silent type
// coercions of the language are never promoted to errors.
var (
	// ErrUndefinedVariable is returned when a variable reference has no
	// binding in the evaluator.
	ErrUndefinedVariable = errors.NewKind("undefined variable $%s")
	// ErrUnknownFunction is returned when a function call names a function
	// that is neither built in nor registered with the evaluator.
	ErrUnknownFunction = errors.NewKind("unknown function %s()")
	// ErrArityMismatch is returned when a function call has too few or too
	// many arguments.
	ErrArityMismatch = errors.NewKind("function %s() called with %d argument(s), expects %s")
	// ErrNotNodeSet is returned when an operand of a node-set operation,
	// such as a union or a path continuation, is not a node-set.
	ErrNotNodeSet = errors.NewKind("operand of %s is a %s, not a node-set")
	// ErrUnknownPrefix is returned when a namespace prefix has no binding in
	// the evaluator.
	ErrUnknownPrefix = errors.NewKind("unknown namespace prefix %q")
	// ErrUnsupportedAxis is returned when a step carries an axis value
	// outside the closed axis set. It indicates a hand-built AST.
	ErrUnsupportedAxis = errors.NewKind("unsupported axis %d")
	// ErrInvalidContext is returned when the context node is missing or the
	// tree provider reports it unusable.
	ErrInvalidContext = errors.NewKind("invalid context: %s")
)

// valueTypeName names the type of a value for error messages.
func valueTypeName(v Value) string {
	switch v.(type) {
	case NodeSet:
		return "node-set"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	}
	return fmt.Sprintf("%T", v)
}
