package toon

import (
	"strconv"
	"strings"
)

type encoder struct {
	indentSize  int
	delimiter   Delimiter
	inlineLimit int
	maxDepth    int
	indentCache []string
	b           strings.Builder
}

func newEncoder(opts *EncodeOptions) *encoder {
	return &encoder{
		indentSize:  opts.Indent,
		delimiter:   opts.Delimiter,
		inlineLimit: opts.InlineLimit,
		maxDepth:    opts.MaxDepth,
	}
}

// shape is the structural class of a value, which decides its rendering.
type shape int

const (
	shapeScalar shape = iota
	shapeObject
	shapeEmptyArray
	shapePrimitiveArray
	shapeTabularArray
	shapeListArray
)

func shapeOf(v any) shape {
	switch val := v.(type) {
	case *Object:
		return shapeObject
	case []any:
		switch {
		case len(val) == 0:
			return shapeEmptyArray
		case isTabular(val):
			return shapeTabularArray
		case isPrimitiveArray(val):
			return shapePrimitiveArray
		default:
			return shapeListArray
		}
	default:
		return shapeScalar
	}
}

// isTabular reports whether every element is a non-empty object with the
// same ordered key sequence and only scalar values.
func isTabular(arr []any) bool {
	first, ok := arr[0].(*Object)
	if !ok || first.Len() == 0 {
		return false
	}
	for _, item := range arr {
		obj, ok := item.(*Object)
		if !ok || obj.Len() != first.Len() {
			return false
		}
		for i, m := range obj.Members {
			if m.Key != first.Members[i].Key || !isScalar(m.Value) {
				return false
			}
		}
	}
	return true
}

func isPrimitiveArray(arr []any) bool {
	for _, item := range arr {
		if !isScalar(item) {
			return false
		}
	}
	return true
}

func (e *encoder) encode(v any) (string, error) {
	switch shapeOf(v) {
	case shapeScalar:
		e.writeScalar(v)
	case shapeObject:
		if err := e.writeObject(v.(*Object), 0, "$"); err != nil {
			return "", err
		}
	default:
		if err := e.writeArray("", "", v.([]any), 1, "$"); err != nil {
			return "", err
		}
	}
	return e.b.String(), nil
}

func (e *encoder) indent(depth int) string {
	for len(e.indentCache) <= depth {
		e.indentCache = append(e.indentCache, strings.Repeat(" ", len(e.indentCache)*e.indentSize))
	}
	return e.indentCache[depth]
}

// startLine begins a new output line; the first line has no leading newline.
func (e *encoder) startLine(depth int) {
	if e.b.Len() > 0 {
		e.b.WriteByte('\n')
	}
	e.b.WriteString(e.indent(depth))
}

func (e *encoder) checkDepth(depth int, path string) error {
	if depth > e.maxDepth {
		return errPath(KindMaxDepth, path, "nesting deeper than %d levels", e.maxDepth)
	}
	return nil
}

func (e *encoder) writeScalar(v any) {
	switch val := v.(type) {
	case nil:
		e.b.WriteString(literalNull)
	case bool:
		e.b.WriteString(strconv.FormatBool(val))
	case int64, float64:
		formatNumber(&e.b, val)
	case string:
		writeString(&e.b, val, e.delimiter)
	}
}

func (e *encoder) writeObject(obj *Object, depth int, path string) error {
	if err := e.checkDepth(depth, path); err != nil {
		return err
	}
	for _, m := range obj.Members {
		e.startLine(depth)
		if err := e.writeField(m, depth, path); err != nil {
			return err
		}
	}
	return nil
}

// writeField writes a member whose line has already been started at depth.
// Nested content goes one level deeper.
func (e *encoder) writeField(m Member, depth int, path string) error {
	return e.writeMember(m, depth+1, path)
}

// writeMember writes "key..." on the current line and places any nested
// content at childDepth.
func (e *encoder) writeMember(m Member, childDepth int, path string) error {
	path = pathKey(path, m.Key)
	switch val := m.Value.(type) {
	case *Object:
		writeKey(&e.b, m.Key)
		e.b.WriteByte(keySeparator)
		return e.writeObject(val, childDepth, path)
	case []any:
		var key strings.Builder
		writeKey(&key, m.Key)
		return e.writeArrayHeader(key.String(), val, childDepth, path)
	default:
		writeKey(&e.b, m.Key)
		e.b.WriteString(": ")
		e.writeScalar(val)
		return nil
	}
}

// writeArray starts a line at the depth above childDepth with lead (for list
// items "- ") and writes the array there.
func (e *encoder) writeArray(lead, key string, arr []any, childDepth int, path string) error {
	e.startLine(childDepth - 1)
	e.b.WriteString(lead)
	return e.writeArrayHeader(key, arr, childDepth, path)
}

// writeArrayHeader writes "key[N]..." on the current line followed by rows or
// items at childDepth.
func (e *encoder) writeArrayHeader(key string, arr []any, childDepth int, path string) error {
	if err := e.checkDepth(childDepth, path); err != nil {
		return err
	}
	e.b.WriteString(key)
	e.b.WriteByte(headerOpen)
	e.b.WriteString(strconv.Itoa(len(arr)))
	e.b.WriteString(e.delimiter.marker())
	e.b.WriteByte(headerClose)

	switch shapeOf(arr) {
	case shapeEmptyArray:
		e.b.WriteByte(keySeparator)
		return nil
	case shapeTabularArray:
		return e.writeTabular(arr, childDepth)
	case shapePrimitiveArray:
		if joined, ok := e.inlineValues(arr); ok {
			e.b.WriteString(": ")
			e.b.WriteString(joined)
			return nil
		}
		e.b.WriteByte(keySeparator)
		for _, item := range arr {
			e.startLine(childDepth)
			e.b.WriteString("- ")
			e.writeScalar(item)
		}
		return nil
	default:
		e.b.WriteByte(keySeparator)
		for i, item := range arr {
			if err := e.writeListItem(item, childDepth, pathIndex(path, i)); err != nil {
				return err
			}
		}
		return nil
	}
}

// inlineValues joins a primitive array; ok is false when the result exceeds
// the inline limit.
func (e *encoder) inlineValues(arr []any) (string, bool) {
	sub := encoder{delimiter: e.delimiter}
	for i, item := range arr {
		if i > 0 {
			sub.b.WriteRune(rune(e.delimiter))
		}
		sub.writeScalar(item)
	}
	joined := sub.b.String()
	if e.inlineLimit >= 0 && len(joined) > e.inlineLimit {
		return "", false
	}
	return joined, true
}

func (e *encoder) writeTabular(arr []any, childDepth int) error {
	first := arr[0].(*Object)
	e.b.WriteByte(fieldsOpen)
	for i, m := range first.Members {
		if i > 0 {
			e.b.WriteRune(rune(e.delimiter))
		}
		writeKey(&e.b, m.Key)
	}
	e.b.WriteByte(fieldsClose)
	e.b.WriteByte(keySeparator)

	for _, item := range arr {
		e.startLine(childDepth)
		for i, m := range item.(*Object).Members {
			if i > 0 {
				e.b.WriteRune(rune(e.delimiter))
			}
			e.writeScalar(m.Value)
		}
	}
	return nil
}

// writeListItem writes one "- " item of a list array at depth.
func (e *encoder) writeListItem(item any, depth int, path string) error {
	switch val := item.(type) {
	case []any:
		return e.writeArray("- ", "", val, depth+1, path)
	case *Object:
		if err := e.checkDepth(depth+1, path); err != nil {
			return err
		}
		e.startLine(depth)
		if val.Len() == 0 {
			e.b.WriteString(emptyListItem)
			return nil
		}
		e.b.WriteString("- ")
		// The first field shares the hyphen line; its nested content sits two
		// levels below the hyphen and the remaining fields one level below.
		if err := e.writeMember(val.Members[0], depth+2, path); err != nil {
			return err
		}
		for _, m := range val.Members[1:] {
			e.startLine(depth + 1)
			if err := e.writeField(m, depth+1, path); err != nil {
				return err
			}
		}
		return nil
	default:
		e.startLine(depth)
		e.b.WriteString("- ")
		e.writeScalar(val)
		return nil
	}
}
