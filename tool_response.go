package mcp

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/toonkit/toonmcp/toon"
)

// ToolResponse represents the response from a tool
type ToolResponse struct {
	Content           []ToolContent `json:"content"`
	StructuredContent any           `json:"structuredContent,omitempty"`
}

// NewToolResponseMulti merges the content of several responses. The last
// non-nil structured content wins.
func NewToolResponseMulti(responses ...*ToolResponse) *ToolResponse {
	var allContent []ToolContent
	var structuredContent any

	for _, resp := range responses {
		allContent = append(allContent, resp.Content...)
		if resp.StructuredContent != nil {
			structuredContent = resp.StructuredContent
		}
	}

	return &ToolResponse{
		Content:           allContent,
		StructuredContent: structuredContent,
	}
}

func NewToolResponseText(text string) *ToolResponse {
	return &ToolResponse{Content: []ToolContent{{Type: "text", Text: text}}}
}

func NewToolResponseJSON(data any) *ToolResponse {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return NewToolResponseText(fmt.Sprintf("Error marshaling data: %v", err))
	}
	return NewToolResponseText(string(jsonData))
}

// NewToolResponseTOON renders data as TOON text content. It is usually a
// good deal smaller than the JSON rendering of the same value.
func NewToolResponseTOON(data any, opts *toon.EncodeOptions) (*ToolResponse, error) {
	text, err := toon.EncodeWithOptions(data, opts)
	if err != nil {
		return nil, err
	}
	return NewToolResponseText(text), nil
}

func NewToolResponseImage(data []byte, mimeType string) *ToolResponse {
	return &ToolResponse{Content: []ToolContent{{Type: "image", Data: base64.StdEncoding.EncodeToString(data), MimeType: mimeType}}}
}

func NewToolResponseResource(uri, text, mimeType string) *ToolResponse {
	return &ToolResponse{Content: []ToolContent{{Type: "resource", Resource: &ResourceContent{URI: uri, Text: text, MimeType: mimeType}}}}
}

func NewToolResponseStructured(data any) *ToolResponse {
	return &ToolResponse{StructuredContent: data}
}
