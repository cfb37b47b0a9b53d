package mcp

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Middleware wraps a ToolHandler.
type Middleware func(next ToolHandler) ToolHandler

// Chain composes middleware so that the first one is outermost.
func Chain(m ...Middleware) Middleware {
	return func(h ToolHandler) ToolHandler {
		for i := len(m) - 1; i >= 0; i-- {
			h = m[i](h)
		}
		return h
	}
}

// Logging logs each tool call with its duration and outcome.
func Logging(logger *slog.Logger) Middleware {
	return func(next ToolHandler) ToolHandler {
		return func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			attrs := []any{"tool", req.Name(), "duration", time.Since(start)}
			if err != nil {
				logger.WarnContext(ctx, "tool call failed", append(attrs, "error", err)...)
			} else {
				logger.InfoContext(ctx, "tool call", attrs...)
			}
			return resp, err
		}
	}
}

// RateLimit rejects calls with ErrorCodeRateLimited once the limiter's
// tokens are exhausted. One limiter is shared by all tools.
func RateLimit(limiter *rate.Limiter) Middleware {
	return func(next ToolHandler) ToolHandler {
		return func(ctx context.Context, req *ToolRequest) (*ToolResponse, error) {
			if !limiter.Allow() {
				return nil, NewToolError(ErrorCodeRateLimited, "rate limit exceeded", map[string]any{
					"limit": float64(limiter.Limit()),
					"burst": limiter.Burst(),
				})
			}
			return next(ctx, req)
		}
	}
}
