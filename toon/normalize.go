package toon

import (
	"encoding"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/creachadair/jtree"
)

var (
	jsonMarshalerType = reflect.TypeFor[json.Marshaler]()
	textMarshalerType = reflect.TypeFor[encoding.TextMarshaler]()
	objectPtrType     = reflect.TypeFor[*Object]()
	jsonNumberType    = reflect.TypeFor[json.Number]()
)

// Normalize converts a Go value into the canonical model used by the codec:
// nil, bool, int64, float64, string, []any and *Object. Maps are emitted with
// sorted keys since Go maps carry no order; structs keep their field order.
func Normalize(v any) (any, error) {
	n := normalizer{active: map[uintptr]bool{}}
	return n.normalize(reflect.ValueOf(v), "$", 0)
}

type normalizer struct {
	// active holds the containers on the current path, to detect cycles.
	active map[uintptr]bool
}

func (n *normalizer) normalize(val reflect.Value, path string, depth int) (any, error) {
	if depth > defaultMaxDepth {
		return nil, errPath(KindMaxDepth, path, "nesting deeper than %d levels", defaultMaxDepth)
	}
	if !val.IsValid() {
		return nil, nil
	}
	// Fields promoted from unexported embedded structs are read-only; alias
	// them so Interface works as it does for encoding/json.
	if !val.CanInterface() && val.CanAddr() {
		val = reflect.NewAt(val.Type(), val.Addr().UnsafePointer()).Elem()
	}

	switch val.Type() {
	case objectPtrType:
		return n.object(val, path, depth)
	case objectPtrType.Elem():
		obj := val.Interface().(Object)
		return n.object(reflect.ValueOf(&obj), path, depth)
	}
	if val.Kind() == reflect.Ptr && val.IsNil() {
		return nil, nil
	}
	if marshalsItself(val.Type()) {
		return n.viaJSON(val, path)
	}
	if val.Kind() == reflect.Struct {
		if val.CanAddr() && marshalsItself(reflect.PointerTo(val.Type())) {
			return n.viaJSON(val.Addr(), path)
		}
		if !val.CanAddr() {
			cp := reflect.New(val.Type()).Elem()
			cp.Set(val)
			val = cp
		}
		obj := &Object{}
		if err := n.structFields(val, obj, map[string]int{}, 0, path, depth); err != nil {
			return nil, err
		}
		return obj, nil
	}

	switch val.Kind() {
	case reflect.Ptr:
		return n.enter(val, path, depth, func() (any, error) {
			return n.normalize(val.Elem(), path, depth)
		})
	case reflect.Interface:
		if val.IsNil() {
			return nil, nil
		}
		return n.normalize(val.Elem(), path, depth)
	case reflect.Bool:
		return val.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return val.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := val.Uint()
		if u > math.MaxInt64 {
			return float64(u), nil
		}
		return int64(u), nil
	case reflect.Float32, reflect.Float64:
		f := val.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, nil
		}
		return canonicalNumber(f), nil
	case reflect.String:
		if val.Type() == jsonNumberType {
			v, isNum, err := parseNumber(val.String())
			if !isNum || err != nil {
				return nil, errPath(KindUnsupportedValue, path, "invalid json.Number %q", val.String())
			}
			return v, nil
		}
		return val.String(), nil
	case reflect.Slice:
		if val.IsNil() {
			return nil, nil
		}
		if val.Type().Elem().Kind() == reflect.Uint8 {
			return base64.StdEncoding.EncodeToString(val.Bytes()), nil
		}
		return n.enter(val, path, depth, func() (any, error) { return n.array(val, path, depth) })
	case reflect.Array:
		return n.array(val, path, depth)
	case reflect.Map:
		if val.IsNil() {
			return nil, nil
		}
		return n.enter(val, path, depth, func() (any, error) { return n.mapValue(val, path, depth) })
	default:
		return nil, errPath(KindUnsupportedValue, path, "unsupported value of type %s", val.Type())
	}
}

// enter marks a reference-typed container as active while fn runs.
func (n *normalizer) enter(val reflect.Value, path string, depth int, fn func() (any, error)) (any, error) {
	ptr := val.Pointer()
	if n.active[ptr] {
		return nil, errPath(KindUnsupportedValue, path, "cyclic reference of type %s", val.Type())
	}
	n.active[ptr] = true
	defer delete(n.active, ptr)
	return fn()
}

func (n *normalizer) array(val reflect.Value, path string, depth int) (any, error) {
	result := make([]any, val.Len())
	for i := range result {
		v, err := n.normalize(val.Index(i), pathIndex(path, i), depth+1)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

func (n *normalizer) mapValue(val reflect.Value, path string, depth int) (any, error) {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, val.Len())
	iter := val.MapRange()
	for iter.Next() {
		entries = append(entries, entry{key: mapKey(iter.Key()), val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })

	obj := &Object{Members: make([]Member, 0, len(entries))}
	for _, e := range entries {
		v, err := n.normalize(e.val, pathKey(path, e.key), depth+1)
		if err != nil {
			return nil, err
		}
		obj.Set(e.key, v)
	}
	return obj, nil
}

func (n *normalizer) object(val reflect.Value, path string, depth int) (any, error) {
	if val.IsNil() {
		return nil, nil
	}
	return n.enter(val, path, depth, func() (any, error) {
		src := val.Interface().(*Object)
		obj := &Object{Members: make([]Member, 0, src.Len())}
		for _, m := range src.Members {
			if _, dup := obj.Get(m.Key); dup {
				return nil, errPath(KindDuplicateKey, pathKey(path, m.Key), "duplicate key %q", m.Key)
			}
			v, err := n.normalize(reflect.ValueOf(m.Value), pathKey(path, m.Key), depth+1)
			if err != nil {
				return nil, err
			}
			obj.Members = append(obj.Members, Member{Key: m.Key, Value: v})
		}
		return obj, nil
	})
}

func marshalsItself(t reflect.Type) bool {
	return t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType)
}

// structFields adds the fields of val to obj the way encoding/json names
// them. Fields of embedded structs are promoted; level records how deep
// each key was found so that shallower fields win.
func (n *normalizer) structFields(val reflect.Value, obj *Object, level map[string]int, embed int, path string, depth int) error {
	t := val.Type()
	for i := range t.NumField() {
		f := t.Field(i)
		fv := val.Field(i)
		name, opts, tagged := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" && !tagged {
			continue
		}
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && !marshalsItself(f.Type) {
				if fv.Kind() == reflect.Ptr {
					if fv.IsNil() {
						continue
					}
					fv = fv.Elem()
				}
				if err := n.structFields(fv, obj, level, embed+1, path, depth); err != nil {
					return err
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if hasTagOption(opts, "omitempty") && isEmptyValue(fv) {
			continue
		}
		if hasTagOption(opts, "omitzero") && fv.IsZero() {
			continue
		}
		if prev, ok := level[name]; ok && prev <= embed {
			continue
		}

		v, err := n.normalize(fv, pathKey(path, name), depth+1)
		if err != nil {
			return err
		}
		if hasTagOption(opts, "string") {
			v = quotedScalar(v)
		}
		level[name] = embed
		obj.Set(name, v)
	}
	return nil
}

func hasTagOption(opts, want string) bool {
	for opt := range strings.SplitSeq(opts, ",") {
		if opt == want {
			return true
		}
	}
	return false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Interface, reflect.Pointer:
		return v.IsZero()
	}
	return false
}

// quotedScalar applies the ",string" tag option: scalars become their JSON
// text.
func quotedScalar(v any) any {
	switch v := v.(type) {
	case bool:
		return strconv.FormatBool(v)
	case int64, float64:
		var b strings.Builder
		formatNumber(&b, v)
		return b.String()
	case string:
		return jtree.Quote(v)
	}
	return v
}

// viaJSON normalizes and json.Marshaler values by round-tripping
// them through encoding/json and the order-preserving JSON parser.
func (n *normalizer) viaJSON(val reflect.Value, path string) (any, error) {
	data, err := json.Marshal(val.Interface())
	if err != nil {
		return nil, errPath(KindUnsupportedValue, path, "%v", err)
	}
	v, err := ParseJSON(data)
	if err != nil {
		return nil, errPath(KindUnsupportedValue, path, "%v", err)
	}
	return v, nil
}

func mapKey(k reflect.Value) string {
	switch k.Kind() {
	case reflect.String:
		return k.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10)
	}
	return fmt.Sprintf("%v", k.Interface())
}
