package toon

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/creachadair/jtree"
)

// ParseJSON parses a single JSON value into the canonical model. Object
// member order is preserved; a repeated member keeps its first position and
// takes the last value, as JSON.parse does.
func ParseJSON(data []byte) (any, error) {
	st := jtree.NewStream(bytes.NewReader(data))
	h := new(jsonHandler)
	if err := st.ParseOne(h); err == io.EOF {
		return nil, errors.New("toon: empty JSON input")
	} else if err != nil {
		return nil, fmt.Errorf("toon: invalid JSON: %w", err)
	}
	if len(h.stk) != 1 {
		return nil, errors.New("toon: incomplete JSON value")
	}
	if err := st.ParseOne(h); err != io.EOF {
		if err == nil {
			return nil, errors.New("toon: unexpected data after JSON value")
		}
		return nil, fmt.Errorf("toon: invalid JSON: %w", err)
	}
	return h.stk[0], nil
}

// jsonHandler implements jtree.Handler. The stack holds open containers and
// pending member keys; completed values are folded into their parent.
type jsonHandler struct {
	stk []any
}

type pendingMember struct{ key string }

func (h *jsonHandler) push(v any) { h.stk = append(h.stk, v) }

func (h *jsonHandler) pop() any {
	v := h.stk[len(h.stk)-1]
	h.stk = h.stk[:len(h.stk)-1]
	return v
}

// reduce attaches v to the container on top of the stack, or leaves it as
// the result when the stack is empty.
func (h *jsonHandler) reduce(v any) {
	if len(h.stk) == 0 {
		h.push(v)
		return
	}
	switch top := h.stk[len(h.stk)-1].(type) {
	case pendingMember:
		h.pop()
		h.stk[len(h.stk)-1].(*Object).Set(top.key, v)
	case *jsonArray:
		top.values = append(top.values, v)
	default:
		h.push(v)
	}
}

type jsonArray struct{ values []any }

func (h *jsonHandler) BeginObject(jtree.Anchor) error {
	h.push(&Object{})
	return nil
}

func (h *jsonHandler) EndObject(jtree.Anchor) error {
	h.reduce(h.pop())
	return nil
}

func (h *jsonHandler) BeginArray(jtree.Anchor) error {
	h.push(&jsonArray{values: []any{}})
	return nil
}

func (h *jsonHandler) EndArray(jtree.Anchor) error {
	arr := h.pop().(*jsonArray)
	h.reduce(arr.values)
	return nil
}

func (h *jsonHandler) BeginMember(loc jtree.Anchor) error {
	key, err := jtree.UnquoteString(string(loc.Text()))
	if err != nil {
		return err
	}
	h.push(pendingMember{key: string(key)})
	return nil
}

func (h *jsonHandler) EndMember(jtree.Anchor) error { return nil }

func (h *jsonHandler) Value(loc jtree.Anchor) error {
	text := string(loc.Text())
	switch loc.Token() {
	case jtree.String:
		s, err := jtree.UnquoteString(text)
		if err != nil {
			return err
		}
		h.reduce(string(s))
	case jtree.Integer, jtree.Number:
		v, _, err := parseNumber(text)
		if err != nil {
			return fmt.Errorf("number %s out of range", text)
		}
		h.reduce(v)
	case jtree.True:
		h.reduce(true)
	case jtree.False:
		h.reduce(false)
	case jtree.Null:
		h.reduce(nil)
	default:
		return fmt.Errorf("unexpected token %v", loc.Token())
	}
	return nil
}

func (h *jsonHandler) EndOfInput(jtree.Anchor) {}

// MarshalJSON renders a canonical-model value as JSON. When indent is
// non-empty the output is pretty-printed with that indent per level.
func MarshalJSON(v any, indent string) ([]byte, error) {
	var b strings.Builder
	if err := writeJSON(&b, v, indent, 0, "$"); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func writeJSON(b *strings.Builder, v any, indent string, depth int, path string) error {
	newline := func(d int) {
		if indent == "" {
			return
		}
		b.WriteByte('\n')
		b.WriteString(strings.Repeat(indent, d))
	}
	switch val := v.(type) {
	case nil:
		b.WriteString(literalNull)
	case bool:
		b.WriteString(strconv.FormatBool(val))
	case int64:
		b.WriteString(strconv.FormatInt(val, 10))
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			b.WriteString(literalNull)
			return nil
		}
		data, err := json.Marshal(val)
		if err != nil {
			return errPath(KindUnsupportedValue, path, "%v", err)
		}
		b.Write(data)
	case string:
		b.WriteString(jtree.Quote(val))
	case []any:
		if len(val) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			newline(depth + 1)
			if err := writeJSON(b, item, indent, depth+1, pathIndex(path, i)); err != nil {
				return err
			}
		}
		newline(depth)
		b.WriteByte(']')
	case *Object:
		if val.Len() == 0 {
			b.WriteString("{}")
			return nil
		}
		b.WriteByte('{')
		for i, m := range val.Members {
			if i > 0 {
				b.WriteByte(',')
			}
			newline(depth + 1)
			b.WriteString(jtree.Quote(m.Key))
			b.WriteByte(':')
			if indent != "" {
				b.WriteByte(' ')
			}
			if err := writeJSON(b, m.Value, indent, depth+1, pathKey(path, m.Key)); err != nil {
				return err
			}
		}
		newline(depth)
		b.WriteByte('}')
	default:
		norm, err := Normalize(v)
		if err != nil {
			return err
		}
		return writeJSON(b, norm, indent, depth, path)
	}
	return nil
}
