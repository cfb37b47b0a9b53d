// Package toon implements the TOON (Token-Oriented Object Notation) format.
// TOON is a line-oriented, indentation-based text format that encodes the JSON data model
// with explicit structure and minimal quoting.
//
// Values are exchanged through a canonical model: nil, bool, int64, float64,
// string, []any and *Object. Encode accepts arbitrary Go values and converts
// them with Normalize first; Decode always returns canonical values.
//
// Encode and Decode are safe for concurrent use.
package toon

import "fmt"

const (
	defaultIndent      = 2
	defaultInlineLimit = 120
	defaultMaxDepth    = 1000

	// MaxIndent is the widest indentation unit the encoder accepts.
	MaxIndent = 16
)

// EncodeOptions configures TOON encoding behavior.
type EncodeOptions struct {
	Indent    int       // Number of spaces per indentation level (default: 2, at most MaxIndent)
	Delimiter Delimiter // Delimiter for arrays and tabular data (default: comma)
	// InlineLimit is the longest joined primitive array, in bytes, that is
	// written on the header line. Longer arrays become list items. Zero means
	// the default of 120; a negative value disables the limit.
	InlineLimit int
	MaxDepth    int // Maximum nesting depth (default: 1000)
}

// DecodeOptions configures TOON decoding behavior.
type DecodeOptions struct {
	// Indent is the number of spaces per level. Zero detects it from the
	// first indented line; negative values are rejected.
	Indent int
	// Strict rejects documents whose declared array lengths disagree with
	// the number of items present. Row arity and duplicate keys are always
	// errors.
	Strict   bool
	MaxDepth int // Maximum nesting depth (default: 1000)
}

func (o EncodeOptions) withDefaults() (*EncodeOptions, error) {
	if o.Indent <= 0 {
		o.Indent = defaultIndent
	}
	if o.Indent > MaxIndent {
		return nil, &Error{Kind: KindUnsupportedValue, Msg: fmt.Sprintf("indent %d exceeds %d", o.Indent, MaxIndent)}
	}
	if o.Delimiter == 0 {
		o.Delimiter = DelimiterComma
	}
	if !o.Delimiter.valid() {
		return nil, &Error{Kind: KindUnsupportedValue, Msg: "unsupported delimiter " + o.Delimiter.String()}
	}
	if o.InlineLimit == 0 {
		o.InlineLimit = defaultInlineLimit
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = defaultMaxDepth
	}
	return &o, nil
}

// Encode converts a Go value to TOON format.
func Encode(v any) (string, error) {
	return EncodeWithOptions(v, nil)
}

// EncodeWithOptions converts a Go value to TOON format with custom options.
// The output has no trailing newline.
func EncodeWithOptions(v any, opts *EncodeOptions) (string, error) {
	if opts == nil {
		opts = &EncodeOptions{}
	}
	resolved, err := opts.withDefaults()
	if err != nil {
		return "", err
	}

	normalized, err := Normalize(v)
	if err != nil {
		return "", err
	}
	return newEncoder(resolved).encode(normalized)
}

// Decode parses TOON format and returns the decoded value.
func Decode(data string) (any, error) {
	return DecodeWithOptions(data, nil)
}

// DecodeWithOptions parses TOON format with custom options. A nil opts
// decodes strictly with an auto-detected indent.
func DecodeWithOptions(data string, opts *DecodeOptions) (any, error) {
	if opts == nil {
		opts = &DecodeOptions{Strict: true}
	}
	if opts.Indent < 0 {
		return nil, &Error{Kind: KindIndentation, Msg: fmt.Sprintf("negative indent %d", opts.Indent)}
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = defaultMaxDepth
	}

	d := &decoder{indentSize: opts.Indent, strict: opts.Strict, maxDepth: maxDepth}
	return d.decode(data)
}
