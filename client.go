package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/toonkit/toonmcp/pool"
)

const (
	mcpClientName    = "toonmcp-client"
	mcpClientVersion = "1.0.0"
)

// errUnauthorized marks a 401 so the request can be retried after a refresh.
var errUnauthorized = errors.New("unauthorized")

// Client represents an MCP client for connecting to remote servers
type Client struct {
	baseURL     string
	httpClient  *http.Client
	auth        AuthProvider
	nextID      atomic.Int64
	cachedTools []MCPTool
	mu          sync.RWMutex
	initialized bool
	sessionID   string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the HTTP client taken from the shared pool.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new MCP client. auth may be nil.
func NewClient(baseURL string, auth AuthProvider, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		auth:    auth,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = pool.GetPool().GetHTTPClient()
	}
	return c
}

// SessionID returns the session id assigned by the server during Initialize.
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// Initialize performs the MCP handshake with the remote server
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return nil
	}

	req := c.newRequest("initialize", map[string]any{
		"protocolVersion": MCPProtocolVersionLatest,
		"capabilities":    map[string]any{},
		"clientInfo": map[string]any{
			"name":    mcpClientName,
			"version": mcpClientVersion,
		},
	})

	var resp MCPResponse
	headers, err := c.sendRequest(ctx, req, &resp, "")
	if err != nil {
		return fmt.Errorf("initialize failed: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("initialize error: %s", resp.Error.Message)
	}

	c.sessionID = headers.Get("Mcp-Session-Id")
	c.initialized = true
	return nil
}

func (c *Client) ensureInitialized(ctx context.Context) (string, error) {
	c.mu.RLock()
	ready, session := c.initialized, c.sessionID
	c.mu.RUnlock()
	if ready {
		return session, nil
	}
	if err := c.Initialize(ctx); err != nil {
		return "", err
	}
	return c.SessionID(), nil
}

// ListTools retrieves tools from the remote server. Results are cached
// until RefreshToolCache is called.
func (c *Client) ListTools(ctx context.Context) ([]MCPTool, error) {
	session, err := c.ensureInitialized(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	if c.cachedTools != nil {
		result := make([]MCPTool, len(c.cachedTools))
		copy(result, c.cachedTools)
		c.mu.RUnlock()
		return result, nil
	}
	c.mu.RUnlock()

	var resp MCPResponse
	if _, err := c.sendRequest(ctx, c.newRequest("tools/list", nil), &resp, session); err != nil {
		return nil, fmt.Errorf("list tools failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("list tools error: code %d: %s", resp.Error.Code, resp.Error.Message)
	}

	var result struct {
		Tools []MCPTool `json:"tools"`
	}
	if err := decodeParams(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to parse tools response: %w", err)
	}

	c.mu.Lock()
	c.cachedTools = make([]MCPTool, len(result.Tools))
	copy(c.cachedTools, result.Tools)
	c.mu.Unlock()

	return result.Tools, nil
}

// RefreshToolCache explicitly refreshes the tool cache
func (c *Client) RefreshToolCache(ctx context.Context) error {
	c.mu.Lock()
	c.cachedTools = nil
	c.mu.Unlock()

	_, err := c.ListTools(ctx)
	return err
}

// CallTool executes a tool on the remote server. JSON-RPC errors are
// returned as *ToolError.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResponse, error) {
	session, err := c.ensureInitialized(ctx)
	if err != nil {
		return nil, err
	}

	req := c.newRequest("tools/call", map[string]any{
		"name":      name,
		"arguments": args,
	})

	var resp MCPResponse
	if _, err := c.sendRequest(ctx, req, &resp, session); err != nil {
		return nil, fmt.Errorf("call tool failed: %w", err)
	}

	if resp.Error != nil {
		return nil, &ToolError{
			Code:    resp.Error.Code,
			Message: resp.Error.Message,
			Data:    resp.Error.Data,
		}
	}

	var result ToolResult
	if err := decodeParams(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("failed to parse tool response: %w", err)
	}

	return &ToolResponse{
		Content:           result.Content,
		StructuredContent: result.StructuredContent,
	}, nil
}

func (c *Client) newRequest(method string, params any) *MCPRequest {
	return &MCPRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}
}

// sendRequest posts req and decodes the reply into resp. A 401 triggers
// one auth refresh and retry.
func (c *Client) sendRequest(ctx context.Context, req *MCPRequest, resp *MCPResponse, session string) (http.Header, error) {
	headers, err := c.post(ctx, req, resp, session)
	if errors.Is(err, errUnauthorized) && c.auth != nil {
		if rerr := c.auth.Refresh(); rerr != nil {
			return nil, fmt.Errorf("refresh auth: %w", rerr)
		}
		headers, err = c.post(ctx, req, resp, session)
	}
	return headers, err
}

func (c *Client) post(ctx context.Context, req *MCPRequest, resp *MCPResponse, session string) (http.Header, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json, text/event-stream")
	httpReq.Header.Set("User-Agent", fmt.Sprintf("%s/%s", mcpClientName, mcpClientVersion))
	if req.Method != "initialize" {
		httpReq.Header.Set("MCP-Protocol-Version", MCPProtocolVersionLatest)
		if session != "" {
			httpReq.Header.Set("Mcp-Session-Id", session)
		}
	}

	if c.auth != nil {
		authHeader, err := c.auth.GetAuthHeader()
		if err != nil {
			return nil, fmt.Errorf("failed to get auth header: %w", err)
		}
		httpReq.Header.Set("Authorization", authHeader)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	switch httpResp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, errUnauthorized
	default:
		return nil, fmt.Errorf("server returned status %d", httpResp.StatusCode)
	}

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if strings.HasPrefix(httpResp.Header.Get("Content-Type"), "text/event-stream") {
		return httpResp.Header, parseEventStream(bodyBytes, resp)
	}

	if err := json.Unmarshal(bodyBytes, resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return httpResp.Header, nil
}

// parseEventStream decodes the first non-empty data line of a
// Server-Sent Events body.
func parseEventStream(data []byte, resp *MCPResponse) error {
	for line := range bytes.SplitSeq(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		payload := bytes.TrimSpace(bytes.TrimPrefix(line, []byte("data:")))
		if len(payload) == 0 {
			continue
		}
		return json.Unmarshal(payload, resp)
	}
	return fmt.Errorf("no JSON data found in event stream")
}
