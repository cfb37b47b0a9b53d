package mcp

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestToolRequestHelpers(t *testing.T) {
	req := NewToolRequest(map[string]any{
		"s":   "x",
		"i":   5.0,
		"n":   json.Number("7"),
		"b":   true,
		"ss":  []any{"a", "b"},
		"ff":  []any{1.5, 2},
		"obj": map[string]any{"k": "v"},
	})

	if v, _ := req.String("s"); v != "x" {
		t.Error("String")
	}
	if v := req.StringOr("sx", "d"); v != "d" {
		t.Error("StringOr")
	}
	if v, _ := req.Int("i"); v != 5 {
		t.Error("Int")
	}
	if v, _ := req.Int("n"); v != 7 {
		t.Error("Int from json.Number")
	}
	if v := req.IntOr("ix", 7); v != 7 {
		t.Error("IntOr")
	}
	if v, _ := req.Float("i"); v != 5.0 {
		t.Error("Float")
	}
	if v := req.FloatOr("fx", 1.2); v != 1.2 {
		t.Error("FloatOr")
	}
	if v, _ := req.Bool("b"); !v {
		t.Error("Bool")
	}
	if v := req.BoolOr("bx", true); !v {
		t.Error("BoolOr")
	}
	if v, _ := req.StringSlice("ss"); !cmp.Equal(v, []string{"a", "b"}) {
		t.Error("StringSlice")
	}
	if v := req.StringSliceOr("sx", []string{"z"}); !cmp.Equal(v, []string{"z"}) {
		t.Error("StringSliceOr")
	}
	if v, _ := req.FloatSlice("ff"); !cmp.Equal(v, []float64{1.5, 2}) {
		t.Error("FloatSlice")
	}
	if v, _ := req.Object("obj"); v["k"] != "v" {
		t.Error("Object")
	}
}

func TestToolRequestErrors(t *testing.T) {
	req := NewToolRequest(map[string]any{"x": 1.5, "arr": []any{"a", 2.0}, "null": nil})

	if _, err := req.String("missing"); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("missing: got %v, want ErrUnknownParameter", err)
	}
	if _, err := req.String("null"); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("null: got %v, want ErrUnknownParameter", err)
	}
	if _, err := req.String("x"); err == nil {
		t.Error("expected type error for string")
	}
	if _, err := req.Int("x"); err == nil {
		t.Error("expected error for fractional int")
	}
	if _, err := req.StringSlice("arr"); err == nil {
		t.Error("expected mixed-type array to error")
	}
	if _, err := req.Object("x"); err == nil {
		t.Error("expected not object error")
	}
}

func TestToolRequestBind(t *testing.T) {
	req := NewToolRequest(map[string]any{"name": "a", "count": 3.0})
	var v struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := req.Bind(&v); err != nil {
		t.Fatal(err)
	}
	if v.Name != "a" || v.Count != 3 {
		t.Errorf("Bind = %+v", v)
	}

	var bad struct {
		Name int `json:"name"`
	}
	if err := req.Bind(&bad); err == nil {
		t.Error("expected Bind type error")
	}
}

func TestToolResponseHelpers(t *testing.T) {
	r := NewToolResponseText("hi")
	if len(r.Content) != 1 || r.Content[0].Type != "text" {
		t.Fatal("text")
	}

	r = NewToolResponseJSON(map[string]any{"a": 1})
	if r.Content[0].Text != `{"a":1}` {
		t.Errorf("json = %q", r.Content[0].Text)
	}

	tr, err := NewToolResponseTOON(map[string]any{"ids": []int{1, 2}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Content[0].Text != "ids[2]: 1,2" {
		t.Errorf("toon = %q", tr.Content[0].Text)
	}
	if _, err := NewToolResponseTOON(map[string]any{"f": func() {}}, nil); err == nil {
		t.Error("expected TOON encode error for func value")
	}

	img := NewToolResponseImage([]byte{0x01, 0x02}, "image/png")
	if img.Content[0].Type != "image" || img.Content[0].Data != base64.StdEncoding.EncodeToString([]byte{0x01, 0x02}) {
		t.Error("image")
	}

	res := NewToolResponseResource("toon://x", "hello", "text/plain")
	if res.Content[0].Type != "resource" || res.Content[0].Resource.URI != "toon://x" {
		t.Error("resource")
	}

	a := NewToolResponseStructured(map[string]any{"a": 1})
	b := NewToolResponseStructured(map[string]any{"b": 2})
	if a.Content != nil {
		t.Error("structured response should have no content")
	}
	m := NewToolResponseMulti(r, a, b)
	if len(m.Content) != 1 {
		t.Errorf("multi content = %+v", m.Content)
	}
	if sc, ok := m.StructuredContent.(map[string]any); !ok || sc["b"] != 2 {
		t.Error("expected last structured content to win")
	}
}

func TestResourceResponseHelpers(t *testing.T) {
	txt := NewResourceResponseText("toon://x", "hello", "text/plain")
	if len(txt.Contents) != 1 || txt.Contents[0].Text != "hello" || txt.Contents[0].MimeType != "text/plain" {
		t.Fatalf("unexpected text resource: %+v", txt)
	}
	data := []byte{0x01, 0x02}
	blob := NewResourceResponseBlob("toon://y", data, "application/octet-stream")
	if blob.Contents[0].Blob != base64.StdEncoding.EncodeToString(data) || blob.Contents[0].URI != "toon://y" {
		t.Fatalf("unexpected blob resource: %+v", blob)
	}
}
