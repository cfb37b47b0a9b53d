// Package mcp implements a Model Context Protocol server and client
// speaking JSON-RPC 2.0 over HTTP POST.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	MCPProtocolVersionLatest = "2025-06-18"
	MCPProtocolVersionMin    = "2024-11-05"
)

var supportedProtocolVersions = []string{
	"2024-11-05",
	"2025-03-26",
	"2025-06-18",
}

// ErrUnknownTool is returned by CallTool for a name that was never registered.
var ErrUnknownTool = errors.New("unknown tool")

type registeredTool struct {
	Name         string
	Description  string
	Schema       map[string]any
	OutputSchema map[string]any
	Required     []string
	Handler      ToolHandler
}

// Server represents an MCP server instance
type Server struct {
	name         string
	version      string
	instructions string
	logger       *slog.Logger
	middleware   []Middleware
	tools        map[string]*registeredTool
	resources    map[string]*registeredResource
	mu           sync.RWMutex
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server's logger. The default discards everything.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logger }
}

// WithMiddleware wraps every tool handler. The first middleware is outermost.
func WithMiddleware(m ...Middleware) ServerOption {
	return func(s *Server) { s.middleware = append(s.middleware, m...) }
}

// WithInstructions sets the instructions returned from initialize.
func WithInstructions(text string) ServerOption {
	return func(s *Server) { s.instructions = text }
}

// NewServer creates a new MCP server instance
func NewServer(name, version string, opts ...ServerOption) *Server {
	s := &Server{
		name:      name,
		version:   version,
		logger:    slog.New(slog.DiscardHandler),
		tools:     make(map[string]*registeredTool),
		resources: make(map[string]*registeredResource),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterTool registers a tool, replacing any tool with the same name.
func (s *Server) RegisterTool(tool *ToolBuilder, handler ToolHandler) {
	s.mu.Lock()
	s.tools[tool.name] = &registeredTool{
		Name:         tool.name,
		Description:  tool.Description(),
		Schema:       tool.BuildSchema(),
		OutputSchema: tool.BuildOutputSchema(),
		Required:     tool.requiredParams(),
		Handler:      handler,
	}
	s.mu.Unlock()
}

// HandleRequest handles MCP protocol requests
func (s *Server) HandleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Mcp-Session-Id, MCP-Protocol-Version")
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.WriteHeader(http.StatusOK)
		return
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if contentType != "application/json" && !strings.HasPrefix(contentType, "application/json;") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	if v := strings.TrimSpace(r.Header.Get("MCP-Protocol-Version")); v != "" && !isSupportedProtocolVersion(v) {
		http.Error(w, "Unsupported MCP-Protocol-Version", http.StatusBadRequest)
		return
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")

	var req MCPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.sendMCPError(w, nil, ErrorCodeParseError, "Parse error", map[string]any{
			"details": err.Error(),
		})
		return
	}

	if req.JSONRPC != "2.0" {
		s.sendMCPError(w, req.ID, ErrorCodeInvalidRequest, "Invalid Request", map[string]any{
			"details": "JSONRPC field must be '2.0'",
		})
		return
	}

	if req.ID == nil {
		req.ID = ""
	}

	s.logger.Debug("mcp request", "method", req.Method, "id", req.ID)

	switch req.Method {
	case "initialize":
		s.handleInitialize(w, &req)
	case "ping":
		s.sendMCPResponse(w, req.ID, map[string]any{})
	case "tools/list":
		s.sendMCPResponse(w, req.ID, map[string]any{"tools": s.ListTools()})
	case "tools/call":
		s.handleToolsCall(w, r, &req)
	case "resources/list":
		s.sendMCPResponse(w, req.ID, map[string]any{"resources": s.ListResources()})
	case "resources/read":
		s.handleResourcesRead(w, r, &req)
	default:
		s.sendMCPError(w, req.ID, ErrorCodeMethodNotFound, "Method not found", map[string]any{
			"method": req.Method,
		})
	}
}

// ServeHTTP makes Server an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.HandleRequest(w, r)
}

func isSupportedProtocolVersion(version string) bool {
	return slices.Contains(supportedProtocolVersions, version)
}

// decodeParams re-decodes the generic params value into a typed struct.
func decodeParams(params any, v any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *Server) handleInitialize(w http.ResponseWriter, req *MCPRequest) {
	var params initializeParams
	if req.Params != nil {
		if err := decodeParams(req.Params, &params); err != nil {
			s.sendMCPError(w, req.ID, ErrorCodeInvalidParams, "Invalid params", nil)
			return
		}
	}

	protocolVersion := MCPProtocolVersionLatest
	if params.ProtocolVersion != "" {
		if !isSupportedProtocolVersion(params.ProtocolVersion) {
			s.sendMCPError(w, req.ID, ErrorCodeInvalidParams, "Unsupported protocol version", map[string]any{
				"requested": params.ProtocolVersion,
				"supported": supportedProtocolVersions,
			})
			return
		}
		protocolVersion = params.ProtocolVersion
	}

	sessionID := uuid.NewString()
	s.logger.Info("session initialized",
		"session", sessionID,
		"protocol", protocolVersion,
		"client", params.ClientInfo.Name)

	w.Header().Set("Mcp-Session-Id", sessionID)
	s.sendMCPResponse(w, req.ID, initializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    s.buildCapabilities(protocolVersion),
		ServerInfo: serverInfo{
			Name:    s.name,
			Version: s.version,
		},
		Instructions: s.instructions,
	})
}

func (s *Server) buildCapabilities(protocolVersion string) capabilities {
	if protocolVersion == "2024-11-05" {
		return capabilities{
			Tools:     map[string]any{},
			Resources: map[string]any{},
		}
	}
	return capabilities{
		Tools: map[string]any{
			"listChanged": false,
		},
		Resources: map[string]any{
			"subscribe":   false,
			"listChanged": false,
		},
	}
}

// ListTools returns all registered tools sorted by name.
func (s *Server) ListTools() []MCPTool {
	s.mu.RLock()
	tools := make([]MCPTool, 0, len(s.tools))
	for _, tool := range s.tools {
		item := MCPTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.Schema,
		}
		if tool.OutputSchema != nil {
			item.OutputSchema = tool.OutputSchema
		}
		tools = append(tools, item)
	}
	s.mu.RUnlock()

	slices.SortFunc(tools, func(a, b MCPTool) int { return strings.Compare(a.Name, b.Name) })
	return tools
}

// CallTool validates required arguments and runs the named tool through
// the server's middleware.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (*ToolResponse, error) {
	s.mu.RLock()
	tool, exists := s.tools[name]
	s.mu.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	for _, param := range tool.Required {
		val, ok := args[param]
		if str, isString := val.(string); !ok || val == nil || (isString && str == "") {
			return nil, NewToolErrorInvalidParams(fmt.Sprintf("missing required parameter '%s'", param))
		}
	}

	handler := Chain(s.middleware...)(tool.Handler)
	return handler(ctx, &ToolRequest{name: name, args: args})
}

func (s *Server) handleToolsCall(w http.ResponseWriter, r *http.Request, req *MCPRequest) {
	var params ToolCallParams
	if err := decodeParams(req.Params, &params); err != nil || params.Name == "" {
		s.sendMCPError(w, req.ID, ErrorCodeInvalidParams, "Invalid params", nil)
		return
	}

	response, err := s.CallTool(r.Context(), params.Name, params.Arguments)
	if err != nil {
		var toolErr *ToolError
		switch {
		case errors.As(err, &toolErr):
			s.sendMCPError(w, req.ID, toolErr.Code, toolErr.Message, toolErr.Data)
		case errors.Is(err, ErrUnknownTool):
			s.sendMCPError(w, req.ID, ErrorCodeInvalidParams, "Unknown tool", map[string]any{
				"name": params.Name,
			})
		default:
			s.logger.Error("tool failed", "tool", params.Name, "error", err)
			s.sendMCPError(w, req.ID, ErrorCodeInternalError, fmt.Sprintf("Tool execution failed: %v", err), nil)
		}
		return
	}

	s.sendMCPResponse(w, req.ID, ToolResult{
		Content:           response.Content,
		StructuredContent: response.StructuredContent,
	})
}

func (s *Server) sendMCPResponse(w http.ResponseWriter, id any, result any) {
	s.writeResponse(w, MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	})
}

func (s *Server) sendMCPError(w http.ResponseWriter, id any, code int, message string, data any) {
	s.writeResponse(w, MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	})
}

// JSON-RPC responses, errors included, always use status 200.
func (s *Server) writeResponse(w http.ResponseWriter, response MCPResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		s.logger.Warn("write response", "error", err)
	}
}
