package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

type staticAuth struct {
	header    string
	refreshes atomic.Int32
}

func (s *staticAuth) GetAuthHeader() (string, error) { return s.header, nil }
func (s *staticAuth) Refresh() error                 { s.refreshes.Add(1); return nil }

func TestClientInitializeListCall(t *testing.T) {
	srv := NewServer("svc", "1")
	srv.RegisterTool(NewTool("upper", "to upper", String("s", "s", Required())), func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
		v, _ := req.String("s")
		return NewToolResponseText(strings.ToUpper(v)), nil
	})
	ts := httptest.NewServer(srv)
	defer ts.Close()

	c := NewClient(ts.URL, &staticAuth{header: "Bearer t"}, WithHTTPClient(ts.Client()))
	ctx := context.Background()

	tools, err := c.ListTools(ctx)
	if err != nil {
		t.Fatalf("list tools: %v", err)
	}
	if len(tools) != 1 || tools[0].Name != "upper" {
		t.Fatalf("unexpected tools: %+v", tools)
	}
	if c.SessionID() == "" {
		t.Error("expected a session id from the server")
	}

	resp, err := c.CallTool(ctx, "upper", map[string]any{"s": "abc"})
	if err != nil {
		t.Fatalf("call tool: %v", err)
	}
	if len(resp.Content) != 1 || resp.Content[0].Text != "ABC" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	_, err = c.CallTool(ctx, "upper", map[string]any{})
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Code != ErrorCodeInvalidParams {
		t.Fatalf("expected invalid params ToolError, got %v", err)
	}
}

// fakeServer answers JSON-RPC requests by method and records request headers.
type fakeServer struct {
	mu      sync.Mutex
	headers map[string]http.Header
	counts  map[string]int
	reply   func(w http.ResponseWriter, req *MCPRequest)
}

func newFakeServer(reply func(w http.ResponseWriter, req *MCPRequest)) *fakeServer {
	return &fakeServer{headers: map[string]http.Header{}, counts: map[string]int{}, reply: reply}
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req MCPRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	f.headers[req.Method] = r.Header.Clone()
	f.counts[req.Method]++
	f.mu.Unlock()
	f.reply(w, &req)
}

func (f *fakeServer) header(method string) http.Header {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headers[method]
}

func (f *fakeServer) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[method]
}

func writeResult(w http.ResponseWriter, id any, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(MCPResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func TestClientSendsSessionAndAuth(t *testing.T) {
	fake := newFakeServer(func(w http.ResponseWriter, req *MCPRequest) {
		if req.Method == "initialize" {
			w.Header().Set("Mcp-Session-Id", "hdr-456")
		}
		writeResult(w, req.ID, map[string]any{"tools": []MCPTool{}})
	})
	ts := httptest.NewServer(fake)
	defer ts.Close()

	c := NewClient(ts.URL, &staticAuth{header: "Bearer token-xyz"}, WithHTTPClient(ts.Client()))
	if _, err := c.ListTools(context.Background()); err != nil {
		t.Fatal(err)
	}

	h := fake.header("tools/list")
	if got := h.Get("Mcp-Session-Id"); got != "hdr-456" {
		t.Errorf("session header = %q, want hdr-456", got)
	}
	if got := h.Get("Authorization"); got != "Bearer token-xyz" {
		t.Errorf("auth header = %q", got)
	}
	if got := h.Get("MCP-Protocol-Version"); got != MCPProtocolVersionLatest {
		t.Errorf("protocol header = %q", got)
	}
	if got := fake.header("initialize").Get("Mcp-Session-Id"); got != "" {
		t.Errorf("initialize should not carry a session id, got %q", got)
	}
}

func TestClientEventStream(t *testing.T) {
	fake := newFakeServer(func(w http.ResponseWriter, req *MCPRequest) {
		w.Header().Set("Content-Type", "text/event-stream")
		body, _ := json.Marshal(MCPResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]any{
			"content": []ToolContent{{Type: "text", Text: "streamed"}},
		}})
		fmt.Fprintf(w, ": comment\nevent: message\ndata:\ndata: %s\n\n", body)
	})
	ts := httptest.NewServer(fake)
	defer ts.Close()

	c := NewClient(ts.URL, nil, WithHTTPClient(ts.Client()))
	resp, err := c.CallTool(context.Background(), "x", nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content[0].Text != "streamed" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

func TestParseEventStreamEmpty(t *testing.T) {
	var resp MCPResponse
	if err := parseEventStream([]byte("event: ping\n\n"), &resp); err == nil {
		t.Error("expected error for a stream without data")
	}
}

func TestClientNon200Status(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, nil, WithHTTPClient(ts.Client()))
	err := c.Initialize(context.Background())
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestClientRefreshesAuthOn401(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var req MCPRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		writeResult(w, req.ID, map[string]any{})
	}))
	defer ts.Close()

	auth := &staticAuth{header: "Bearer old"}
	c := NewClient(ts.URL, auth, WithHTTPClient(ts.Client()))
	if err := c.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if auth.refreshes.Load() != 1 {
		t.Errorf("refreshes = %d, want 1", auth.refreshes.Load())
	}
	if calls.Load() != 2 {
		t.Errorf("requests = %d, want 2", calls.Load())
	}
}

func TestClientRefreshToolCache(t *testing.T) {
	var mu sync.Mutex
	names := []string{"one"}
	fake := newFakeServer(func(w http.ResponseWriter, req *MCPRequest) {
		mu.Lock()
		defer mu.Unlock()
		var tools []MCPTool
		for _, n := range names {
			tools = append(tools, MCPTool{Name: n})
		}
		writeResult(w, req.ID, map[string]any{"tools": tools})
	})
	ts := httptest.NewServer(fake)
	defer ts.Close()

	c := NewClient(ts.URL, nil, WithHTTPClient(ts.Client()))
	ctx := context.Background()
	if tools, _ := c.ListTools(ctx); len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}

	mu.Lock()
	names = append(names, "two")
	mu.Unlock()

	if tools, _ := c.ListTools(ctx); len(tools) != 1 {
		t.Errorf("cached list should still have 1 tool, got %d", len(tools))
	}
	if err := c.RefreshToolCache(ctx); err != nil {
		t.Fatal(err)
	}
	if tools, _ := c.ListTools(ctx); len(tools) != 2 {
		t.Errorf("refreshed list should have 2 tools, got %d", len(tools))
	}
	if n := fake.count("tools/list"); n != 2 {
		t.Errorf("tools/list requests = %d, want 2", n)
	}
	if n := fake.count("initialize"); n != 1 {
		t.Errorf("initialize requests = %d, want 1", n)
	}
}
