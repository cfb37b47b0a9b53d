package mcp

import "strings"

// ToolBuilder describes a tool's name, description and parameter schema.
// Create one with NewTool and pass it to Server.RegisterTool.
type ToolBuilder struct {
	name         string
	description  string
	params       []paramDef
	outputParams []paramDef
}

// Parameter is a tool input or output parameter, created with String,
// Number, Integer, Boolean, StringArray, NumberArray, Object or ObjectArray.
type Parameter interface {
	definition() paramDef
}

// Option modifies a parameter.
type Option func(*paramDef)

type paramDef struct {
	name        string
	paramType   string
	description string
	required    bool
	enum        []string
	defaultVal  any
	properties  []paramDef // object members, in declaration order
	items       *paramDef  // array element
}

func (p paramDef) definition() paramDef { return p }

type outputParam struct {
	parameters []Parameter
}

func (o *outputParam) definition() paramDef { return paramDef{} }

// Required marks a parameter as required. The server rejects calls that
// omit it or pass an empty string.
func Required() Option {
	return func(p *paramDef) { p.required = true }
}

// Enum restricts a string parameter to a fixed set of values.
func Enum(values ...string) Option {
	return func(p *paramDef) { p.enum = values }
}

// Default documents the value used when the parameter is omitted.
func Default(v any) Option {
	return func(p *paramDef) { p.defaultVal = v }
}

// NewTool creates a new tool with the declarative API
func NewTool(name, description string, parameters ...Parameter) *ToolBuilder {
	t := &ToolBuilder{name: name, description: description}
	for _, p := range parameters {
		t.AddParam(p)
	}
	return t
}

// AddParam appends a parameter. An Output wrapper adds its members to the
// output schema instead.
func (t *ToolBuilder) AddParam(p Parameter) *ToolBuilder {
	if out, ok := p.(*outputParam); ok {
		for _, param := range out.parameters {
			t.outputParams = append(t.outputParams, param.definition())
		}
		return t
	}
	t.params = append(t.params, p.definition())
	return t
}

// Output declares the fields of the tool's structured content.
func Output(parameters ...Parameter) Parameter {
	return &outputParam{parameters: parameters}
}

func newParam(name, paramType, description string, options []Option) paramDef {
	p := paramDef{name: name, paramType: paramType, description: description}
	for _, opt := range options {
		opt(&p)
	}
	return p
}

// String creates a string parameter
func String(name, description string, options ...Option) Parameter {
	return newParam(name, "string", description, options)
}

// Number creates a number parameter
func Number(name, description string, options ...Option) Parameter {
	return newParam(name, "number", description, options)
}

// Integer creates an integer parameter
func Integer(name, description string, options ...Option) Parameter {
	return newParam(name, "integer", description, options)
}

// Boolean creates a boolean parameter
func Boolean(name, description string, options ...Option) Parameter {
	return newParam(name, "boolean", description, options)
}

// StringArray creates a string array parameter
func StringArray(name, description string, options ...Option) Parameter {
	p := newParam(name, "array", description, options)
	p.items = &paramDef{paramType: "string"}
	return p
}

// NumberArray creates a number array parameter
func NumberArray(name, description string, options ...Option) Parameter {
	p := newParam(name, "array", description, options)
	p.items = &paramDef{paramType: "number"}
	return p
}

// Object creates an object parameter. The variadic arguments mix member
// Parameters and Options.
func Object(name, description string, propertiesAndOptions ...any) Parameter {
	p := newParam(name, "object", description, nil)
	p.properties = splitMembers(&p, propertiesAndOptions)
	return p
}

// ObjectArray creates an array of objects parameter
func ObjectArray(name, description string, propertiesAndOptions ...any) Parameter {
	p := newParam(name, "array", description, nil)
	item := paramDef{paramType: "object"}
	item.properties = splitMembers(&p, propertiesAndOptions)
	p.items = &item
	return p
}

func splitMembers(p *paramDef, items []any) []paramDef {
	var members []paramDef
	for _, item := range items {
		switch v := item.(type) {
		case Parameter:
			members = append(members, v.definition())
		case Option:
			v(p)
		}
	}
	return members
}

// Name returns the tool's name
func (t *ToolBuilder) Name() string {
	return t.name
}

// Description returns the tool's description with runs of whitespace,
// including newlines, collapsed to single spaces.
func (t *ToolBuilder) Description() string {
	return strings.Join(strings.Fields(t.description), " ")
}

// BuildSchema returns the JSON Schema for the tool's input parameters.
func (t *ToolBuilder) BuildSchema() map[string]any {
	return buildObjectSchema(t.params, false)
}

// BuildOutputSchema returns the JSON Schema for the tool's structured
// output, or nil when no Output was declared.
func (t *ToolBuilder) BuildOutputSchema() map[string]any {
	if len(t.outputParams) == 0 {
		return nil
	}
	return buildObjectSchema(t.outputParams, false)
}

func (t *ToolBuilder) requiredParams() []string {
	var names []string
	for _, p := range t.params {
		if p.required {
			names = append(names, p.name)
		}
	}
	return names
}

func buildObjectSchema(params []paramDef, open bool) map[string]any {
	if open && len(params) == 0 {
		return map[string]any{
			"type":                 "object",
			"additionalProperties": true,
		}
	}

	properties := make(map[string]any, len(params))
	var required []string
	for _, p := range params {
		properties[p.name] = buildParamSchema(&p)
		if p.required {
			required = append(required, p.name)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func buildParamSchema(p *paramDef) map[string]any {
	var schema map[string]any
	switch p.paramType {
	case "object":
		schema = buildObjectSchema(p.properties, true)
	case "array":
		schema = map[string]any{"type": "array"}
		if p.items != nil {
			schema["items"] = buildParamSchema(p.items)
		}
	default:
		schema = map[string]any{"type": p.paramType}
	}

	if p.description != "" {
		schema["description"] = p.description
	}
	if len(p.enum) > 0 {
		schema["enum"] = p.enum
	}
	if p.defaultVal != nil {
		schema["default"] = p.defaultVal
	}
	return schema
}
