package toon

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// Delimiter separates values in inline arrays, tabular headers and rows.
type Delimiter rune

const (
	DelimiterComma Delimiter = ','
	DelimiterTab   Delimiter = '\t'
	DelimiterPipe  Delimiter = '|'
	DelimiterSpace Delimiter = ' '
)

// ParseDelimiter accepts the delimiter names "comma", "tab", "pipe" and
// "space", or the delimiter character itself.
func ParseDelimiter(s string) (Delimiter, error) {
	switch strings.ToLower(s) {
	case "", "comma", ",":
		return DelimiterComma, nil
	case "tab", "\t", `\t`:
		return DelimiterTab, nil
	case "pipe", "|":
		return DelimiterPipe, nil
	case "space", " ":
		return DelimiterSpace, nil
	}
	return 0, fmt.Errorf("unknown delimiter %q (want comma, tab, pipe or space)", s)
}

func (d Delimiter) String() string {
	switch d {
	case DelimiterComma:
		return "comma"
	case DelimiterTab:
		return "tab"
	case DelimiterPipe:
		return "pipe"
	case DelimiterSpace:
		return "space"
	}
	return fmt.Sprintf("Delimiter(%q)", rune(d))
}

func (d Delimiter) valid() bool {
	switch d {
	case DelimiterComma, DelimiterTab, DelimiterPipe, DelimiterSpace:
		return true
	}
	return false
}

// marker is the character written inside an array header's brackets to
// declare a non-default delimiter.
func (d Delimiter) marker() string {
	if d == DelimiterComma {
		return ""
	}
	return string(rune(d))
}

const (
	listMarker    = '-'
	keySeparator  = ':'
	quoteChar     = '"'
	escapeChar    = '\\'
	headerOpen    = '['
	headerClose   = ']'
	fieldsOpen    = '{'
	fieldsClose   = '}'
	literalNull   = "null"
	literalTrue   = "true"
	literalFalse  = "false"
	emptyListItem = "-"
)

var (
	numericLikeRegex = regexp.MustCompile(`^-?\d+(?:\.\d+)?(?:e[+-]?\d+)?$`)
	leadingZeroRegex = regexp.MustCompile(`^0\d+`)
	identifierRegex  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	numberRegex      = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(\.\d+)?([eE][+-]?\d+)?$`)
)

// needsQuoting reports whether s must be written as a quoted string when
// delim is the active delimiter. The decoder treats every unquoted token that
// this function would reject as something other than a plain string.
func needsQuoting(s string, delim Delimiter) bool {
	if s == "" {
		return true
	}
	switch s {
	case literalTrue, literalFalse, literalNull:
		return true
	}
	if s[0] == ' ' || s[0] == '\t' || s[len(s)-1] == ' ' || s[len(s)-1] == '\t' {
		return true
	}
	if s[0] == listMarker {
		return true
	}
	for _, c := range s {
		switch c {
		case keySeparator, quoteChar, escapeChar, headerOpen, headerClose, fieldsOpen, fieldsClose:
			return true
		case rune(delim):
			return true
		}
		if c < 0x20 || c == 0x7f {
			return true
		}
	}
	if numericLikeRegex.MatchString(strings.ToLower(s)) || leadingZeroRegex.MatchString(s) {
		return true
	}
	return false
}

// quote renders s as a quoted string.
func quote(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, c := range s {
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(b, `\u%04x`, c)
				continue
			}
			b.WriteRune(c)
		}
	}
	b.WriteByte('"')
}

func writeString(b *strings.Builder, s string, delim Delimiter) {
	if needsQuoting(s, delim) {
		quote(b, s)
		return
	}
	b.WriteString(s)
}

func writeKey(b *strings.Builder, key string) {
	if identifierRegex.MatchString(key) {
		b.WriteString(key)
		return
	}
	quote(b, key)
}

// readQuoted decodes the quoted string starting at s[0] == '"'. It returns
// the decoded text and the number of bytes consumed including both quotes.
// col is the column of s[0], used for error positions.
func readQuoted(s string, line, col int) (string, int, error) {
	var b strings.Builder
	i := 1
	for i < len(s) {
		c := s[i]
		switch c {
		case '"':
			return b.String(), i + 1, nil
		case '\\':
			if i+1 >= len(s) {
				return "", 0, errAt(KindUnterminatedString, line, col, "unterminated string")
			}
			n, err := readEscape(&b, s[i:], line, col+i)
			if err != nil {
				return "", 0, err
			}
			i += n
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, errAt(KindUnterminatedString, line, col, "unterminated string")
}

// readEscape decodes the escape sequence at s[0] == '\\' and returns its
// length in bytes.
func readEscape(b *strings.Builder, s string, line, col int) (int, error) {
	switch s[1] {
	case '\\':
		b.WriteByte('\\')
	case '"':
		b.WriteByte('"')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'u':
		r, n, err := readUnicodeEscape(s, line, col)
		if err != nil {
			return 0, err
		}
		b.WriteRune(r)
		return n, nil
	default:
		return 0, errAt(KindUnexpectedToken, line, col, "invalid escape sequence %q", s[:2])
	}
	return 2, nil
}

func readUnicodeEscape(s string, line, col int) (rune, int, error) {
	hex4 := func(at int) (rune, bool) {
		if len(s) < at+6 || s[at] != '\\' || s[at+1] != 'u' {
			return 0, false
		}
		v, err := strconv.ParseUint(s[at+2:at+6], 16, 16)
		if err != nil {
			return 0, false
		}
		return rune(v), true
	}
	r, ok := hex4(0)
	if !ok {
		return 0, 0, errAt(KindUnexpectedToken, line, col, "invalid unicode escape")
	}
	if utf16.IsSurrogate(r) {
		if r2, ok := hex4(6); ok {
			if dec := utf16.DecodeRune(r, r2); dec != utf8.RuneError {
				return dec, 12, nil
			}
		}
		return utf8.RuneError, 6, nil
	}
	return r, 6, nil
}

// formatNumber renders an int64 or float64 in canonical decimal form.
func formatNumber(b *strings.Builder, v any) {
	switch n := v.(type) {
	case int64:
		b.WriteString(strconv.FormatInt(n, 10))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			b.WriteString(literalNull)
			return
		}
		if c, ok := canonicalNumber(n).(int64); ok {
			b.WriteString(strconv.FormatInt(c, 10))
			return
		}
		b.WriteString(strconv.FormatFloat(n, 'f', -1, 64))
	}
}

// canonicalNumber maps integral values that fit an int64 to int64 and
// leaves everything else as float64.
func canonicalNumber(f float64) any {
	if f == math.Trunc(f) && f >= -(1<<63) && f < 1<<63 {
		return int64(f)
	}
	return f
}

// parseNumber converts text matching numberRegex. ok is false when s is not
// a number literal at all.
func parseNumber(s string) (v any, ok bool, err error) {
	m := numberRegex.FindStringSubmatch(s)
	if m == nil {
		return nil, false, nil
	}
	if m[1] == "" && m[2] == "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true, nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, true, err
	}
	return canonicalNumber(f), true, nil
}

// pathKey appends key to a value path.
func pathKey(path, key string) string {
	if identifierRegex.MatchString(key) {
		return path + "." + key
	}
	return path + "[" + strconv.Quote(key) + "]"
}

func pathIndex(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
