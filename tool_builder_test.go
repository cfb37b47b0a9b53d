package mcp

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildSchema(t *testing.T) {
	tool := NewTool("toon_encode", "Encode\n\tJSON   as TOON",
		String("json", "JSON text", Required()),
		String("delimiter", "delimiter", Enum("comma", "tab")),
		Integer("indent", "spaces", Default(2)),
		Boolean("stats", ""),
		StringArray("tags", "labels"),
		Object("meta", "free form"),
		Object("point", "typed", Number("x", "", Required()), Number("y", ""), Required()),
		ObjectArray("rows", "", String("id", "", Required())),
		Output(String("toon", "TOON text", Required())),
	)

	if got := tool.Description(); got != "Encode JSON as TOON" {
		t.Errorf("Description() = %q", got)
	}

	want := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"json", "point"},
		"properties": map[string]any{
			"json":      map[string]any{"type": "string", "description": "JSON text"},
			"delimiter": map[string]any{"type": "string", "description": "delimiter", "enum": []string{"comma", "tab"}},
			"indent":    map[string]any{"type": "integer", "description": "spaces", "default": 2},
			"stats":     map[string]any{"type": "boolean"},
			"tags": map[string]any{
				"type":        "array",
				"description": "labels",
				"items":       map[string]any{"type": "string"},
			},
			"meta": map[string]any{
				"type":                 "object",
				"description":          "free form",
				"additionalProperties": true,
			},
			"point": map[string]any{
				"type":                 "object",
				"description":          "typed",
				"additionalProperties": false,
				"required":             []string{"x"},
				"properties": map[string]any{
					"x": map[string]any{"type": "number"},
					"y": map[string]any{"type": "number"},
				},
			},
			"rows": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"id"},
					"properties": map[string]any{
						"id": map[string]any{"type": "string"},
					},
				},
			},
		},
	}
	if diff := cmp.Diff(want, tool.BuildSchema()); diff != "" {
		t.Errorf("BuildSchema (-want +got):\n%s", diff)
	}

	wantOut := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"toon"},
		"properties": map[string]any{
			"toon": map[string]any{"type": "string", "description": "TOON text"},
		},
	}
	if diff := cmp.Diff(wantOut, tool.BuildOutputSchema()); diff != "" {
		t.Errorf("BuildOutputSchema (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{"json", "point"}, tool.requiredParams()); diff != "" {
		t.Errorf("requiredParams (-want +got):\n%s", diff)
	}
}

func TestBuildSchemaEmpty(t *testing.T) {
	tool := NewTool("ping", "")
	want := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           map[string]any{},
	}
	if diff := cmp.Diff(want, tool.BuildSchema()); diff != "" {
		t.Errorf("BuildSchema (-want +got):\n%s", diff)
	}
	if tool.BuildOutputSchema() != nil {
		t.Error("expected nil output schema")
	}
}

func TestAddParam(t *testing.T) {
	tool := NewTool("t", "d").AddParam(String("a", "")).AddParam(Boolean("b", "", Required()))
	props := tool.BuildSchema()["properties"].(map[string]any)
	if len(props) != 2 {
		t.Errorf("expected 2 properties, got %v", props)
	}
	if diff := cmp.Diff([]string{"b"}, tool.requiredParams()); diff != "" {
		t.Errorf("requiredParams (-want +got):\n%s", diff)
	}
}
