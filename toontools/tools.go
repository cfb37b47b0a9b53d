// Package toontools exposes the TOON codec as MCP tools.
package toontools

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	mcp "github.com/toonkit/toonmcp"
	"github.com/toonkit/toonmcp/convert"
	"github.com/toonkit/toonmcp/estimate"
	"github.com/toonkit/toonmcp/toon"
)

// FormatURI is the resource holding the TOON cheat sheet.
const FormatURI = "toon://format"

//go:embed format.md
var cheatSheet string

// Register adds toon_encode, toon_decode, toon_stats and the format
// resource to s.
func Register(s *mcp.Server) {
	s.RegisterTool(
		mcp.NewTool("toon_encode", `Convert JSON, JWCC or YAML text to TOON, a compact
			line-oriented encoding of the JSON data model that uses fewer tokens.`,
			mcp.String("json", "Input document text", mcp.Required()),
			mcp.String("format", "Input format", mcp.Enum("json", "jwcc", "yaml"), mcp.Default("json")),
			mcp.Integer("indent", "Spaces per indentation level, at most 16", mcp.Default(2)),
			mcp.String("delimiter", "Array and row delimiter", mcp.Enum("comma", "tab", "pipe", "space"), mcp.Default("comma")),
			mcp.Output(
				mcp.String("toon", "TOON text", mcp.Required()),
				mcp.Object("stats", "Size comparison against the input", mcp.Required()),
			),
		),
		handleEncode,
	)

	s.RegisterTool(
		mcp.NewTool("toon_decode", "Convert TOON text back to JSON or YAML.",
			mcp.String("toon", "TOON document text", mcp.Required()),
			mcp.String("format", "Output format", mcp.Enum("json", "yaml"), mcp.Default("json")),
			mcp.Integer("indent", "Spaces per indentation level; 0 detects it"),
			mcp.Boolean("strict", "Reject declared array lengths that do not match", mcp.Default(true)),
			mcp.Boolean("pretty", "Indent JSON output", mcp.Default(true)),
		),
		handleDecode,
	)

	s.RegisterTool(
		mcp.NewTool("toon_stats", "Estimate the size and token savings of TOON over JSON for a document.",
			mcp.String("json", "JSON document text", mcp.Required()),
		),
		handleStats,
	)

	s.RegisterResource(FormatURI, "TOON format", "Quick reference for reading and writing TOON", "text/markdown",
		func(ctx context.Context, uri string) (*mcp.ResourceResponse, error) {
			return mcp.NewResourceResponseText(uri, cheatSheet, "text/markdown"), nil
		})
}

func handleEncode(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	input, _ := req.String("json")

	format, err := convert.ParseFormat(req.StringOr("format", "json"))
	if err != nil || format == convert.FormatTOON {
		return nil, mcp.NewToolErrorInvalidParams(fmt.Sprintf("unsupported input format %q", req.StringOr("format", "")))
	}
	delim, err := toon.ParseDelimiter(req.StringOr("delimiter", ""))
	if err != nil {
		return nil, mcp.NewToolErrorInvalidParams(err.Error())
	}
	indent := req.IntOr("indent", 0)
	if indent < 0 || indent > toon.MaxIndent {
		return nil, mcp.NewToolErrorInvalidParams(fmt.Sprintf("indent must be between 0 and %d", toon.MaxIndent))
	}

	v, err := convert.Read([]byte(input), format, nil)
	if err != nil {
		return nil, codecError(err)
	}
	resp, err := mcp.NewToolResponseTOON(v, &toon.EncodeOptions{Indent: indent, Delimiter: delim})
	if err != nil {
		return nil, codecError(err)
	}

	text := resp.Content[0].Text
	resp.StructuredContent = map[string]any{
		"toon":  text,
		"stats": estimate.Compare(input, text),
	}
	return resp, nil
}

func handleDecode(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	input, _ := req.String("toon")

	format, err := convert.ParseFormat(req.StringOr("format", "json"))
	if err != nil || (format != convert.FormatJSON && format != convert.FormatYAML) {
		return nil, mcp.NewToolErrorInvalidParams(fmt.Sprintf("unsupported output format %q", req.StringOr("format", "")))
	}
	indent := req.IntOr("indent", 0)
	if indent < 0 {
		return nil, mcp.NewToolErrorInvalidParams("indent must not be negative")
	}

	v, err := toon.DecodeWithOptions(input, &toon.DecodeOptions{
		Indent: indent,
		Strict: req.BoolOr("strict", true),
	})
	if err != nil {
		return nil, codecError(err)
	}

	opts := &convert.WriteOptions{}
	if req.BoolOr("pretty", true) {
		opts.JSONIndent = "  "
	}
	out, err := convert.Write(v, format, opts)
	if err != nil {
		return nil, codecError(err)
	}
	return mcp.NewToolResponseText(string(out)), nil
}

func handleStats(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
	input, _ := req.String("json")

	v, err := toon.ParseJSON([]byte(input))
	if err != nil {
		return nil, codecError(err)
	}
	text, err := toon.Encode(v)
	if err != nil {
		return nil, codecError(err)
	}

	stats := estimate.Compare(input, text)
	summary := fmt.Sprintf("JSON %d tokens, TOON %d tokens, saved %d (%.1f%%)",
		stats.JSONTokens, stats.TOONTokens, stats.SavedTokens, stats.TokenPercent)
	return mcp.NewToolResponseMulti(
		mcp.NewToolResponseText(summary),
		mcp.NewToolResponseStructured(stats),
	), nil
}

// codecError converts a conversion failure into a ToolError carrying the
// failure location when there is one.
func codecError(err error) error {
	var terr *toon.Error
	if errors.As(err, &terr) {
		data := map[string]any{"kind": terr.Kind.String()}
		if terr.Line > 0 {
			data["line"] = terr.Line
			data["column"] = terr.Column
		}
		if terr.Path != "" {
			data["path"] = terr.Path
		}
		return mcp.NewToolError(mcp.ErrorCodeCodec, terr.Error(), data)
	}
	return mcp.NewToolError(mcp.ErrorCodeCodec, err.Error(), map[string]any{"kind": "ParseError"})
}
