package mcp

import "fmt"

// JSON-RPC error codes used by the server.
// See: https://www.jsonrpc.org/specification#error_object
const (
	// ErrorCodeParseError indicates invalid JSON was received by the server.
	ErrorCodeParseError = -32700

	// ErrorCodeInvalidRequest indicates the JSON sent is not a valid Request object.
	ErrorCodeInvalidRequest = -32600

	// ErrorCodeMethodNotFound indicates the method does not exist or is not available.
	ErrorCodeMethodNotFound = -32601

	// ErrorCodeInvalidParams indicates invalid method parameters, including
	// missing required tool arguments and unknown tools.
	ErrorCodeInvalidParams = -32602

	// ErrorCodeInternalError indicates an unexpected server-side failure.
	ErrorCodeInternalError = -32603

	// ErrorCodeCodec is returned by the codec tools when input cannot be
	// encoded or decoded. The error data carries the failure location.
	ErrorCodeCodec = -32001

	// ErrorCodeRateLimited is returned when the rate limit middleware
	// rejects a call.
	ErrorCodeRateLimited = -32029

	// The implementation-defined server error range.
	ErrorCodeImplementationErrorStart = -32000
	ErrorCodeImplementationErrorEnd   = -32099
)

// ToolError represents an MCP protocol error that can be returned from tool handlers.
// When returned from a ToolHandler, the error code, message and data are
// sent to the client in the JSON-RPC error response.
//
//	func myHandler(ctx context.Context, req *mcp.ToolRequest) (*mcp.ToolResponse, error) {
//	    name, err := req.String("name")
//	    if err != nil {
//	        return nil, mcp.NewToolErrorInvalidParams("name parameter is required")
//	    }
//	    // ...
//	}
type ToolError struct {
	Code    int
	Message string
	Data    any
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("MCP Error %d: %s", e.Code, e.Message)
}

// NewToolErrorInvalidParams creates an ErrorCodeInvalidParams error.
func NewToolErrorInvalidParams(message string) error {
	return &ToolError{
		Code:    ErrorCodeInvalidParams,
		Message: message,
	}
}

// NewToolErrorInternal creates an ErrorCodeInternalError error.
func NewToolErrorInternal(message string) error {
	return &ToolError{
		Code:    ErrorCodeInternalError,
		Message: message,
	}
}

// NewToolError creates an error with a specific code. Use codes in the
// range -32000 to -32099 for application-specific errors.
func NewToolError(code int, message string, data any) error {
	return &ToolError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}
