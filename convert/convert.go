// Package convert moves values between TOON and the other text formats the
// toon command and MCP tools accept: JSON, JWCC (JSON with comments and
// trailing commas) and YAML. Every format reads into the canonical model of
// package toon, so object member order survives a conversion.
package convert

import (
	"fmt"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/tailscale/hujson"
	"github.com/toonkit/toonmcp/toon"
)

// Format names a text encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatJWCC
	FormatYAML
	FormatTOON
)

var formatNames = [...]string{
	FormatJSON: "json",
	FormatJWCC: "jwcc",
	FormatYAML: "yaml",
	FormatTOON: "toon",
}

func (f Format) String() string {
	if f >= 0 && int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat accepts a format name or its one-letter abbreviation.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "j":
		return FormatJSON, nil
	case "jwcc", "c", "hujson":
		return FormatJWCC, nil
	case "yaml", "y", "yml":
		return FormatYAML, nil
	case "toon", "t":
		return FormatTOON, nil
	}
	return 0, fmt.Errorf("unknown format %q (want json, jwcc, yaml or toon)", s)
}

// Read parses data in format f. opts applies to TOON input only.
func Read(data []byte, f Format, opts *toon.DecodeOptions) (any, error) {
	switch f {
	case FormatJSON:
		return toon.ParseJSON(data)
	case FormatJWCC:
		std, err := hujson.Standardize(data)
		if err != nil {
			return nil, fmt.Errorf("jwcc: %w", err)
		}
		return toon.ParseJSON(std)
	case FormatYAML:
		return readYAML(data)
	case FormatTOON:
		return toon.DecodeWithOptions(string(data), opts)
	}
	return nil, fmt.Errorf("cannot read %v", f)
}

// WriteOptions configures Write.
type WriteOptions struct {
	TOON       *toon.EncodeOptions
	JSONIndent string // pretty-print JSON with this indent per level
}

// Write renders v in format f. JWCC output is plain JSON.
func Write(v any, f Format, opts *WriteOptions) ([]byte, error) {
	if opts == nil {
		opts = &WriteOptions{}
	}
	switch f {
	case FormatJSON, FormatJWCC:
		return toon.MarshalJSON(v, opts.JSONIndent)
	case FormatYAML:
		return writeYAML(v)
	case FormatTOON:
		out, err := toon.EncodeWithOptions(v, opts.TOON)
		if err != nil {
			return nil, err
		}
		return []byte(out), nil
	}
	return nil, fmt.Errorf("cannot write %v", f)
}

func readYAML(data []byte) (any, error) {
	var v any
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	return fromYAML(v)
}

// fromYAML replaces the ordered maps produced by the YAML decoder with
// toon objects and normalizes the scalars.
func fromYAML(v any) (any, error) {
	switch val := v.(type) {
	case yaml.MapSlice:
		obj := &toon.Object{Members: make([]toon.Member, 0, len(val))}
		for _, item := range val {
			key := fmt.Sprint(item.Key)
			if _, dup := obj.Get(key); dup {
				return nil, fmt.Errorf("yaml: duplicate key %q", key)
			}
			child, err := fromYAML(item.Value)
			if err != nil {
				return nil, err
			}
			obj.Members = append(obj.Members, toon.Member{Key: key, Value: child})
		}
		return obj, nil
	case []any:
		arr := make([]any, len(val))
		for i, item := range val {
			child, err := fromYAML(item)
			if err != nil {
				return nil, err
			}
			arr[i] = child
		}
		return arr, nil
	default:
		return toon.Normalize(v)
	}
}

func writeYAML(v any) ([]byte, error) {
	norm, err := toon.Normalize(v)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(toYAML(norm))
}

func toYAML(v any) any {
	switch val := v.(type) {
	case *toon.Object:
		ms := make(yaml.MapSlice, len(val.Members))
		for i, m := range val.Members {
			ms[i] = yaml.MapItem{Key: m.Key, Value: toYAML(m.Value)}
		}
		return ms
	case []any:
		arr := make([]any, len(val))
		for i, item := range val {
			arr[i] = toYAML(item)
		}
		return arr
	default:
		return v
	}
}
