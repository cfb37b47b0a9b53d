package toon

import "fmt"

// Kind classifies codec failures.
type Kind int

const (
	KindUnsupportedValue Kind = iota + 1
	KindIndentation
	KindUnexpectedToken
	KindRowArity
	KindDuplicateKey
	KindUnterminatedString
	KindLengthMismatch
	KindMaxDepth
)

var kindNames = [...]string{
	KindUnsupportedValue:   "UnsupportedValueError",
	KindIndentation:        "IndentationError",
	KindUnexpectedToken:    "UnexpectedTokenError",
	KindRowArity:           "RowArityError",
	KindDuplicateKey:       "DuplicateKeyError",
	KindUnterminatedString: "UnterminatedStringError",
	KindLengthMismatch:     "LengthMismatchError",
	KindMaxDepth:           "MaxDepthError",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the error type returned by Encode and Decode.
//
// Decode errors carry a 1-based source Line and Column. Encode errors carry
// the Path of the offending value, e.g. "$.items[2].fn".
type Error struct {
	Kind   Kind
	Line   int
	Column int
	Path   string
	Msg    string
}

func (e *Error) Error() string {
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("toon: line %d, column %d: %s", e.Line, e.Column, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("toon: line %d: %s", e.Line, e.Msg)
	case e.Path != "":
		return fmt.Sprintf("toon: %s: %s", e.Path, e.Msg)
	default:
		return "toon: " + e.Msg
	}
}

// Is reports whether target is the sentinel for e's kind, so callers can
// write errors.Is(err, toon.ErrRowArity).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Line != 0 || t.Path != "" {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUnsupportedValue   = &Error{Kind: KindUnsupportedValue, Msg: "unsupported value"}
	ErrIndentation        = &Error{Kind: KindIndentation, Msg: "bad indentation"}
	ErrUnexpectedToken    = &Error{Kind: KindUnexpectedToken, Msg: "unexpected token"}
	ErrRowArity           = &Error{Kind: KindRowArity, Msg: "row arity mismatch"}
	ErrDuplicateKey       = &Error{Kind: KindDuplicateKey, Msg: "duplicate key"}
	ErrUnterminatedString = &Error{Kind: KindUnterminatedString, Msg: "unterminated string"}
	ErrLengthMismatch     = &Error{Kind: KindLengthMismatch, Msg: "array length mismatch"}
	ErrMaxDepth           = &Error{Kind: KindMaxDepth, Msg: "maximum nesting depth exceeded"}
)

func errAt(kind Kind, line, col int, format string, args ...any) *Error {
	return &Error{Kind: kind, Line: line, Column: col, Msg: fmt.Sprintf(format, args...)}
}

func errPath(kind Kind, path string, format string, args ...any) *Error {
	if path == "" {
		path = "$"
	}
	return &Error{Kind: kind, Path: path, Msg: fmt.Sprintf(format, args...)}
}
