package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrUnknownParameter is returned by the ToolRequest accessors when the
// argument is absent.
var ErrUnknownParameter = errors.New("unknown parameter")

// ToolHandler represents a function that handles tool calls
type ToolHandler func(ctx context.Context, req *ToolRequest) (*ToolResponse, error)

// ToolRequest provides typed access to tool arguments
type ToolRequest struct {
	name string
	args map[string]any
}

// NewToolRequest creates a new ToolRequest with the given arguments
func NewToolRequest(args map[string]any) *ToolRequest {
	return &ToolRequest{args: args}
}

// Name returns the name of the tool being called.
func (r *ToolRequest) Name() string {
	return r.name
}

// Args returns the raw argument map.
func (r *ToolRequest) Args() map[string]any {
	return r.args
}

func (r *ToolRequest) lookup(name string) (any, error) {
	val, ok := r.args[name]
	if !ok || val == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	return val, nil
}

func (r *ToolRequest) String(name string) (string, error) {
	val, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	if str, ok := val.(string); ok {
		return str, nil
	}
	return "", fmt.Errorf("parameter '%s' is not a string", name)
}

func (r *ToolRequest) StringOr(name, defaultValue string) string {
	if val, err := r.String(name); err == nil {
		return val
	}
	return defaultValue
}

func (r *ToolRequest) Float(name string) (float64, error) {
	val, err := r.lookup(name)
	if err != nil {
		return 0, err
	}
	if f, ok := toFloat(val); ok {
		return f, nil
	}
	return 0, fmt.Errorf("parameter '%s' is not a number", name)
}

func (r *ToolRequest) FloatOr(name string, defaultValue float64) float64 {
	if val, err := r.Float(name); err == nil {
		return val
	}
	return defaultValue
}

// Int returns a numeric parameter as an int. Fractional values are rejected.
func (r *ToolRequest) Int(name string) (int, error) {
	f, err := r.Float(name)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, fmt.Errorf("parameter '%s' is not an integer", name)
	}
	return int(f), nil
}

func (r *ToolRequest) IntOr(name string, defaultValue int) int {
	if val, err := r.Int(name); err == nil {
		return val
	}
	return defaultValue
}

func (r *ToolRequest) Bool(name string) (bool, error) {
	val, err := r.lookup(name)
	if err != nil {
		return false, err
	}
	if b, ok := val.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("parameter '%s' is not a boolean", name)
}

func (r *ToolRequest) BoolOr(name string, defaultValue bool) bool {
	if val, err := r.Bool(name); err == nil {
		return val
	}
	return defaultValue
}

func (r *ToolRequest) StringSlice(name string) ([]string, error) {
	val, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	arr, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("parameter '%s' is not an array", name)
	}
	result := make([]string, len(arr))
	for i, item := range arr {
		str, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("parameter '%s' contains non-string element at index %d", name, i)
		}
		result[i] = str
	}
	return result, nil
}

func (r *ToolRequest) StringSliceOr(name string, defaultValue []string) []string {
	if val, err := r.StringSlice(name); err == nil {
		return val
	}
	return defaultValue
}

func (r *ToolRequest) FloatSlice(name string) ([]float64, error) {
	val, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	arr, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("parameter '%s' is not an array", name)
	}
	result := make([]float64, len(arr))
	for i, item := range arr {
		f, ok := toFloat(item)
		if !ok {
			return nil, fmt.Errorf("parameter '%s' contains non-number element at index %d", name, i)
		}
		result[i] = f
	}
	return result, nil
}

// Object returns a parameter as a map[string]any (generic object)
func (r *ToolRequest) Object(name string) (map[string]any, error) {
	val, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if obj, ok := val.(map[string]any); ok {
		return obj, nil
	}
	return nil, fmt.Errorf("parameter '%s' is not an object", name)
}

// Bind decodes all arguments into v, which should be a pointer to a struct
// with json tags.
func (r *ToolRequest) Bind(v any) error {
	data, err := json.Marshal(r.args)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
