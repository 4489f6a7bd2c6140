package tools

import (
	"context"
	"encoding/json"
)

// ToolCallFunc is the function signature for tool execution.
// Middleware wraps this function to add behavior.
type ToolCallFunc func(ctx context.Context, args json.RawMessage) (any, error)

// Middleware wraps a ToolCallFunc to add behavior before and/or after execution.
type Middleware func(next ToolCallFunc) ToolCallFunc

// ToolContext describes the call in progress. The Executor stores one in
// the context of every attempt; read it with ToolContextFromContext.
type ToolContext struct {
	// ToolName is the name of the tool being called.
	ToolName string

	// CallID is the model-assigned call id, if any.
	CallID string

	// Attempt is the 1-based attempt number.
	Attempt int

	// Metadata allows middleware to share data with each other.
	Metadata map[string]any
}

type toolContextKey struct{}

// ContextWithToolContext adds ToolContext to a context.
func ContextWithToolContext(ctx context.Context, tc *ToolContext) context.Context {
	return context.WithValue(ctx, toolContextKey{}, tc)
}

// ToolContextFromContext retrieves ToolContext from a context.
// Returns nil if not present.
func ToolContextFromContext(ctx context.Context) *ToolContext {
	tc, _ := ctx.Value(toolContextKey{}).(*ToolContext)
	return tc
}

// Chain combines multiple middleware into a single middleware.
// Middleware are executed in the order provided (first middleware is outermost).
func Chain(middlewares ...Middleware) Middleware {
	return func(next ToolCallFunc) ToolCallFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

// ApplyMiddleware wraps a tool with middleware.
// Returns a new tool that executes middleware around the original.
func ApplyMiddleware(tool Tool, middlewares ...Middleware) Tool {
	if len(middlewares) == 0 {
		return tool
	}

	return &wrappedTool{
		tool:    tool,
		wrapped: Chain(middlewares...)(tool.Call),
	}
}

type wrappedTool struct {
	tool    Tool
	wrapped ToolCallFunc
}

func (w *wrappedTool) Name() string        { return w.tool.Name() }
func (w *wrappedTool) Description() string { return w.tool.Description() }
func (w *wrappedTool) Schema() ToolSchema  { return w.tool.Schema() }

// Idempotent forwards the wrapped tool's declaration; tools that declare
// nothing are idempotent.
func (w *wrappedTool) Idempotent() bool {
	if ir, ok := w.tool.(idempotenceReporter); ok {
		return ir.Idempotent()
	}
	return true
}

func (w *wrappedTool) Call(ctx context.Context, args json.RawMessage) (any, error) {
	tc := ToolContextFromContext(ctx)
	if tc == nil {
		tc = &ToolContext{
			ToolName: w.tool.Name(),
			Metadata: make(map[string]any),
		}
		ctx = ContextWithToolContext(ctx, tc)
	} else if tc.ToolName == "" {
		tc.ToolName = w.tool.Name()
	}

	return w.wrapped(ctx, args)
}

// ForTools applies middleware only to tools with the specified names.
func ForTools(toolNames []string, middleware Middleware) Middleware {
	nameSet := make(map[string]bool, len(toolNames))
	for _, name := range toolNames {
		nameSet[name] = true
	}

	return func(next ToolCallFunc) ToolCallFunc {
		wrapped := middleware(next)
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			if tc := ToolContextFromContext(ctx); tc != nil && nameSet[tc.ToolName] {
				return wrapped(ctx, args)
			}
			return next(ctx, args)
		}
	}
}

// ExceptTools applies middleware to all tools except those with the specified names.
func ExceptTools(toolNames []string, middleware Middleware) Middleware {
	nameSet := make(map[string]bool, len(toolNames))
	for _, name := range toolNames {
		nameSet[name] = true
	}

	return func(next ToolCallFunc) ToolCallFunc {
		wrapped := middleware(next)
		return func(ctx context.Context, args json.RawMessage) (any, error) {
			if tc := ToolContextFromContext(ctx); tc == nil || !nameSet[tc.ToolName] {
				return wrapped(ctx, args)
			}
			return next(ctx, args)
		}
	}
}
