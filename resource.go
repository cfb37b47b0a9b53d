package mcp

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
)

// ErrUnknownResource is returned by ReadResource for URIs nothing is
// registered under.
var ErrUnknownResource = errors.New("unknown resource")

// ResourceHandler produces the contents of a registered resource.
type ResourceHandler func(ctx context.Context, uri string) (*ResourceResponse, error)

type registeredResource struct {
	MCPResource
	Handler ResourceHandler
}

// RegisterResource serves a read-only document under uri, replacing any
// resource already registered there.
func (s *Server) RegisterResource(uri, name, description, mimeType string, handler ResourceHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[uri] = &registeredResource{
		MCPResource: MCPResource{URI: uri, Name: name, Description: description, MimeType: mimeType},
		Handler:     handler,
	}
}

// ListResources returns all registered resources sorted by URI.
func (s *Server) ListResources() []MCPResource {
	s.mu.RLock()
	resources := make([]MCPResource, 0, len(s.resources))
	for _, r := range s.resources {
		resources = append(resources, r.MCPResource)
	}
	s.mu.RUnlock()

	slices.SortFunc(resources, func(a, b MCPResource) int { return strings.Compare(a.URI, b.URI) })
	return resources
}

// ReadResource runs the handler registered for uri.
func (s *Server) ReadResource(ctx context.Context, uri string) (*ResourceResponse, error) {
	s.mu.RLock()
	r, ok := s.resources[uri]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, uri)
	}
	return r.Handler(ctx, uri)
}

func (s *Server) handleResourcesRead(w http.ResponseWriter, r *http.Request, req *MCPRequest) {
	var params resourceReadParams
	if err := decodeParams(req.Params, &params); err != nil {
		s.sendMCPError(w, req.ID, ErrorCodeInvalidParams, "Invalid params", nil)
		return
	}

	resp, err := s.ReadResource(r.Context(), params.URI)
	switch {
	case errors.Is(err, ErrUnknownResource):
		s.sendMCPError(w, req.ID, ErrorCodeInvalidParams, "Resource not found", map[string]any{"uri": params.URI})
	case err != nil:
		s.logger.Warn("resource read failed", "uri", params.URI, "error", err)
		s.sendMCPError(w, req.ID, ErrorCodeInternalError, fmt.Sprintf("Resource read failed: %v", err), nil)
	default:
		s.sendMCPResponse(w, req.ID, resp)
	}
}

// NewResourceResponseText returns a single text document.
func NewResourceResponseText(uri, text, mimeType string) *ResourceResponse {
	return &ResourceResponse{Contents: []ResourceContent{{URI: uri, Text: text, MimeType: mimeType}}}
}

// NewResourceResponseBlob returns a single binary document, base64 encoded
// on the wire.
func NewResourceResponseBlob(uri string, data []byte, mimeType string) *ResourceResponse {
	return &ResourceResponse{Contents: []ResourceContent{{
		URI:      uri,
		Blob:     base64.StdEncoding.EncodeToString(data),
		MimeType: mimeType,
	}}}
}
