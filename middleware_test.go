package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"
)

func TestChainOrder(t *testing.T) {
	var trace []string
	mark := func(name string) Middleware {
		return func(next ToolHandler) ToolHandler {
			return func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
				trace = append(trace, name+">")
				resp, err := next(ctx, req)
				trace = append(trace, "<"+name)
				return resp, err
			}
		}
	}

	s := NewServer("s", "1", WithMiddleware(mark("a"), mark("b")))
	s.RegisterTool(NewTool("t", ""), func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
		trace = append(trace, "handler")
		return NewToolResponseText("ok"), nil
	})
	if _, err := s.CallTool(context.Background(), "t", nil); err != nil {
		t.Fatal(err)
	}

	want := []string{"a>", "b>", "handler", "<b", "<a"}
	if diff := cmp.Diff(want, trace); diff != "" {
		t.Errorf("call order (-want +got):\n%s", diff)
	}
}

func TestRateLimit(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(0.001), 2)
	s := NewServer("s", "1", WithMiddleware(RateLimit(limiter)))
	s.RegisterTool(NewTool("t", ""), func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
		return NewToolResponseText("ok"), nil
	})

	for i := range 2 {
		if _, err := s.CallTool(context.Background(), "t", nil); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	_, err := s.CallTool(context.Background(), "t", nil)
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected *ToolError, got %v", err)
	}
	if toolErr.Code != ErrorCodeRateLimited {
		t.Errorf("Code = %d, want %d", toolErr.Code, ErrorCodeRateLimited)
	}
	data := toolErr.Data.(map[string]any)
	if data["burst"] != 2 {
		t.Errorf("burst = %v, want 2", data["burst"])
	}
}

func TestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := NewServer("s", "1", WithMiddleware(Logging(logger)))
	s.RegisterTool(NewTool("good", ""), func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
		return NewToolResponseText("ok"), nil
	})
	s.RegisterTool(NewTool("bad", ""), func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
		return nil, fmt.Errorf("boom")
	})

	_, _ = s.CallTool(context.Background(), "good", nil)
	_, _ = s.CallTool(context.Background(), "bad", nil)

	out := buf.String()
	for _, want := range []string{
		`level=INFO msg="tool call" tool=good`,
		`level=WARN msg="tool call failed" tool=bad`,
		"error=boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}
