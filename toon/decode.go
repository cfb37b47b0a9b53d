package toon

import (
	"strconv"
	"strings"

	"github.com/creachadair/mds/mapset"
)

type decoder struct {
	strict     bool
	indentSize int
	maxDepth   int

	lines []line
	pos   int
}

// line is one non-blank source line with its indentation removed.
type line struct {
	num   int    // 1-based line number
	depth int    // indentation level
	col   int    // 1-based column of the first content byte
	text  string // content after the indentation
}

// header is a parsed array header such as [3|]{id|name}.
type header struct {
	length int
	delim  Delimiter
	fields []string
}

func (d *decoder) decode(data string) (any, error) {
	if err := d.tokenize(data); err != nil {
		return nil, err
	}
	if len(d.lines) == 0 {
		return &Object{}, nil
	}

	first := d.lines[0]
	if first.depth != 0 {
		return nil, errAt(KindIndentation, first.num, 1, "first line must not be indented")
	}

	if strings.HasPrefix(first.text, "[") {
		v, err := d.decodeFieldValue(first, first.text, first.col, 1)
		if err != nil {
			return nil, err
		}
		if d.pos < len(d.lines) {
			ln := d.lines[d.pos]
			return nil, errAt(KindUnexpectedToken, ln.num, ln.col, "unexpected content after root array")
		}
		return v, nil
	}

	if len(d.lines) == 1 {
		if _, _, isField, err := splitKey(first.text, first.num, first.col); err != nil {
			return nil, err
		} else if !isField {
			return parseScalar(first.text, first.num, first.col)
		}
	}

	root := &Object{}
	if err := d.decodeObject(root, mapset.New[string](), 0); err != nil {
		return nil, err
	}
	return root, nil
}

// tokenize splits data into lines, drops blank ones and resolves each
// line's depth.
func (d *decoder) tokenize(data string) error {
	for i, raw := range strings.Split(data, "\n") {
		num := i + 1
		text := strings.TrimRight(raw, " \t\r")
		if text == "" {
			continue
		}

		indent := 0
		for indent < len(text) && text[indent] == ' ' {
			indent++
		}
		if text[indent] == '\t' {
			return errAt(KindIndentation, num, indent+1, "tab in indentation")
		}
		if indent > 0 && d.indentSize == 0 {
			d.indentSize = indent
		}
		if indent > 0 && indent%d.indentSize != 0 {
			return errAt(KindIndentation, num, indent+1,
				"indentation of %d spaces is not a multiple of %d", indent, d.indentSize)
		}

		depth := 0
		if indent > 0 {
			depth = indent / d.indentSize
		}
		if depth > d.maxDepth {
			return errAt(KindMaxDepth, num, indent+1, "nesting deeper than %d levels", d.maxDepth)
		}
		d.lines = append(d.lines, line{num: num, depth: depth, col: indent + 1, text: text[indent:]})
	}
	return nil
}

// next returns the line at the cursor if it sits at depth. A deeper line is
// an indentation error; ok is false at a shallower line or end of input.
func (d *decoder) next(depth int) (ln line, ok bool, err error) {
	if d.pos >= len(d.lines) {
		return line{}, false, nil
	}
	ln = d.lines[d.pos]
	switch {
	case ln.depth < depth:
		return line{}, false, nil
	case ln.depth > depth:
		return line{}, false, errAt(KindIndentation, ln.num, ln.col, "unexpected indentation")
	}
	return ln, true, nil
}

// decodeObject reads the fields at depth into obj. seen holds keys already
// present, for list-item objects whose first field was read by the caller.
func (d *decoder) decodeObject(obj *Object, seen mapset.Set[string], depth int) error {
	for {
		ln, ok, err := d.next(depth)
		if err != nil || !ok {
			return err
		}
		if err := d.decodeField(obj, seen, ln, ln.text, ln.col, depth+1); err != nil {
			return err
		}
	}
}

// decodeField parses the field written in text on line ln, whose content
// begins at column col, and appends it to obj. Nested content is read at
// childDepth.
func (d *decoder) decodeField(obj *Object, seen mapset.Set[string], ln line, text string, col, childDepth int) error {
	key, n, isField, err := splitKey(text, ln.num, col)
	if err != nil {
		return err
	}
	if !isField {
		if strings.HasPrefix(text, "-") {
			return errAt(KindUnexpectedToken, ln.num, col, "list item where a field was expected")
		}
		return errAt(KindUnexpectedToken, ln.num, col, "expected key followed by ':'")
	}
	if n == 0 {
		return errAt(KindUnexpectedToken, ln.num, col, "missing key")
	}
	if seen.Has(key) {
		return errAt(KindDuplicateKey, ln.num, col, "duplicate key %q", key)
	}
	seen.Add(key)

	v, err := d.decodeFieldValue(ln, text[n:], col+n, childDepth)
	if err != nil {
		return err
	}
	obj.Members = append(obj.Members, Member{Key: key, Value: v})
	return nil
}

// decodeFieldValue parses what follows a key: either ": value", ":" with
// nested fields, or an array header. It consumes line ln.
func (d *decoder) decodeFieldValue(ln line, text string, col, childDepth int) (any, error) {
	d.pos++

	if strings.HasPrefix(text, "[") {
		hdr, n, err := parseHeader(text, ln.num, col)
		if err != nil {
			return nil, err
		}
		rest, restCol := trimValue(text[n:], col+n)
		return d.decodeArray(hdr, ln, rest, restCol, childDepth)
	}

	if text == "" || text[0] != keySeparator {
		return nil, errAt(KindUnexpectedToken, ln.num, col, "expected ':' after key")
	}
	rest, restCol := trimValue(text[1:], col+1)
	if rest != "" {
		return parseScalar(rest, ln.num, restCol)
	}

	child := &Object{}
	if err := d.decodeObject(child, mapset.New[string](), childDepth); err != nil {
		return nil, err
	}
	return child, nil
}

func (d *decoder) decodeArray(hdr header, ln line, rest string, restCol, childDepth int) (any, error) {
	var (
		arr []any
		err error
	)
	switch {
	case rest != "":
		if hdr.fields != nil {
			return nil, errAt(KindUnexpectedToken, ln.num, restCol, "tabular header must be followed by rows")
		}
		arr, err = parseRow(rest, hdr.delim, ln.num, restCol)
	case hdr.fields != nil:
		arr, err = d.decodeTabularArray(hdr, childDepth)
	default:
		arr, err = d.decodeListArray(childDepth)
	}
	if err != nil {
		return nil, err
	}

	if d.strict && len(arr) != hdr.length {
		return nil, errAt(KindLengthMismatch, ln.num, ln.col,
			"array declares %d items but has %d", hdr.length, len(arr))
	}
	return arr, nil
}

func (d *decoder) decodeTabularArray(hdr header, depth int) ([]any, error) {
	arr := []any{}
	for {
		ln, ok, err := d.next(depth)
		if err != nil {
			return nil, err
		}
		if !ok {
			return arr, nil
		}
		cells, err := parseRow(ln.text, hdr.delim, ln.num, ln.col)
		if err != nil {
			return nil, err
		}
		if len(cells) != len(hdr.fields) {
			return nil, errAt(KindRowArity, ln.num, ln.col,
				"row has %d fields, header declares %d", len(cells), len(hdr.fields))
		}
		row := &Object{Members: make([]Member, len(cells))}
		for i, cell := range cells {
			row.Members[i] = Member{Key: hdr.fields[i], Value: cell}
		}
		arr = append(arr, row)
		d.pos++
	}
}

func (d *decoder) decodeListArray(depth int) ([]any, error) {
	arr := []any{}
	for {
		ln, ok, err := d.next(depth)
		if err != nil {
			return nil, err
		}
		if !ok {
			return arr, nil
		}
		item, err := d.decodeListItem(ln, depth)
		if err != nil {
			return nil, err
		}
		arr = append(arr, item)
	}
}

// decodeListItem parses a "- " item at depth and everything nested under it.
func (d *decoder) decodeListItem(ln line, depth int) (any, error) {
	if ln.text == emptyListItem {
		d.pos++
		return &Object{}, nil
	}
	if !strings.HasPrefix(ln.text, "- ") {
		return nil, errAt(KindUnexpectedToken, ln.num, ln.col, "expected list item")
	}
	text, col := ln.text[2:], ln.col+2

	if strings.HasPrefix(text, "[") {
		return d.decodeFieldValue(ln, text, col, depth+1)
	}

	_, _, isField, err := splitKey(text, ln.num, col)
	if err != nil {
		return nil, err
	}
	if !isField {
		d.pos++
		return parseScalar(text, ln.num, col)
	}

	obj := &Object{}
	seen := mapset.New[string]()
	if err := d.decodeField(obj, seen, ln, text, col, depth+2); err != nil {
		return nil, err
	}
	if err := d.decodeObject(obj, seen, depth+1); err != nil {
		return nil, err
	}
	return obj, nil
}

// splitKey reads the key at the start of text. isField reports whether the
// key is followed by ':' or '['; n is the key's length in bytes.
func splitKey(text string, lineNum, col int) (key string, n int, isField bool, err error) {
	if strings.HasPrefix(text, `"`) {
		key, n, err = readQuoted(text, lineNum, col)
		if err != nil {
			return "", 0, false, err
		}
		isField = n < len(text) && (text[n] == keySeparator || text[n] == headerOpen)
		return key, n, isField, nil
	}
	i := strings.IndexAny(text, ":[")
	if i < 0 {
		return "", 0, false, nil
	}
	key = strings.TrimRight(text[:i], " ")
	if strings.ContainsAny(key, `"`) {
		return "", 0, false, nil
	}
	return key, i, true, nil
}

// parseHeader parses an array header at the start of s, through the trailing
// ':'. It returns the number of bytes consumed.
func parseHeader(s string, lineNum, col int) (header, int, error) {
	hdr := header{delim: DelimiterComma}

	i := 1
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 1 {
		return hdr, 0, errAt(KindUnexpectedToken, lineNum, col+i, "missing array length")
	}
	length, err := strconv.Atoi(s[1:i])
	if err != nil {
		return hdr, 0, errAt(KindUnexpectedToken, lineNum, col+1, "invalid array length %q", s[1:i])
	}
	hdr.length = length

	if i < len(s) {
		switch d := Delimiter(s[i]); d {
		case DelimiterComma, DelimiterPipe, DelimiterTab, DelimiterSpace:
			hdr.delim = d
			i++
		}
	}
	if i >= len(s) || s[i] != headerClose {
		return hdr, 0, errAt(KindUnexpectedToken, lineNum, col+i, "expected ']' in array header")
	}
	i++

	if i < len(s) && s[i] == fieldsOpen {
		end := closingBrace(s, i+1)
		if end < 0 {
			return hdr, 0, errAt(KindUnexpectedToken, lineNum, col+i, "unterminated field list")
		}
		fields, err := parseFields(s[i+1:end], hdr.delim, lineNum, col+i+1)
		if err != nil {
			return hdr, 0, err
		}
		hdr.fields = fields
		i = end + 1
	}

	if i >= len(s) || s[i] != keySeparator {
		return hdr, 0, errAt(KindUnexpectedToken, lineNum, col+i, "expected ':' after array header")
	}
	return hdr, i + 1, nil
}

// closingBrace returns the index of the '}' ending a field list that starts
// at from, skipping quoted names.
func closingBrace(s string, from int) int {
	inQuote := false
	for i := from; i < len(s); i++ {
		switch {
		case inQuote && s[i] == escapeChar:
			i++
		case s[i] == quoteChar:
			inQuote = !inQuote
		case !inQuote && s[i] == fieldsClose:
			return i
		}
	}
	return -1
}

func parseFields(s string, delim Delimiter, lineNum, col int) ([]string, error) {
	seen := mapset.New[string]()
	var fields []string
	for _, c := range splitDelimited(s, delim, col) {
		name, ncol := trimValue(c.text, c.col)
		if name == "" {
			return nil, errAt(KindUnexpectedToken, lineNum, ncol, "empty field name")
		}
		if name[0] == quoteChar {
			key, n, err := readQuoted(name, lineNum, ncol)
			if err != nil {
				return nil, err
			}
			if n != len(name) {
				return nil, errAt(KindUnexpectedToken, lineNum, ncol+n, "unexpected text after field name")
			}
			name = key
		}
		if seen.Has(name) {
			return nil, errAt(KindDuplicateKey, lineNum, ncol, "duplicate field %q", name)
		}
		seen.Add(name)
		fields = append(fields, name)
	}
	return fields, nil
}

// cell is one delimited token and the column where it starts.
type cell struct {
	text string
	col  int
}

// splitDelimited splits s on delim outside quoted strings.
func splitDelimited(s string, delim Delimiter, col int) []cell {
	var cells []cell
	start, inQuote := 0, false
	for i := 0; i < len(s); i++ {
		switch {
		case inQuote && s[i] == escapeChar:
			i++
		case s[i] == quoteChar:
			inQuote = !inQuote
		case !inQuote && rune(s[i]) == rune(delim):
			cells = append(cells, cell{text: s[start:i], col: col + start})
			start = i + 1
		}
	}
	return append(cells, cell{text: s[start:], col: col + start})
}

// parseRow parses a delimited line of scalars. An unquoted ':' means the
// line is a field, not a row.
func parseRow(s string, delim Delimiter, lineNum, col int) ([]any, error) {
	cells := splitDelimited(s, delim, col)
	values := make([]any, len(cells))
	for i, c := range cells {
		text, tcol := trimValue(c.text, c.col)
		if !strings.HasPrefix(text, `"`) {
			if j := strings.IndexByte(text, keySeparator); j >= 0 {
				return nil, errAt(KindUnexpectedToken, lineNum, tcol+j, "unexpected ':' in row")
			}
		}
		v, err := parseScalar(text, lineNum, tcol)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// parseScalar parses a single value token.
func parseScalar(s string, lineNum, col int) (any, error) {
	s, col = trimValue(s, col)
	if s == "" {
		return nil, errAt(KindUnexpectedToken, lineNum, col, "missing value")
	}

	if s[0] == quoteChar {
		v, n, err := readQuoted(s, lineNum, col)
		if err != nil {
			return nil, err
		}
		if n != len(s) {
			return nil, errAt(KindUnexpectedToken, lineNum, col+n, "unexpected text after quoted string")
		}
		return v, nil
	}

	switch s {
	case literalNull:
		return nil, nil
	case literalTrue:
		return true, nil
	case literalFalse:
		return false, nil
	}

	if v, ok, err := parseNumber(s); ok {
		if err != nil {
			return nil, errAt(KindUnexpectedToken, lineNum, col, "number %s out of range", s)
		}
		return v, nil
	}

	if i := strings.IndexByte(s, quoteChar); i >= 0 {
		return nil, errAt(KindUnexpectedToken, lineNum, col+i, "unexpected '\"' in unquoted value")
	}
	return s, nil
}

// trimValue strips surrounding spaces and tabs, adjusting col to match.
func trimValue(s string, col int) (string, int) {
	trimmed := strings.TrimLeft(s, " \t")
	col += len(s) - len(trimmed)
	return strings.TrimRight(trimmed, " \t"), col
}
