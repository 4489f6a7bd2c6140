// Package mcptools bridges a tools.Registry and the Model Context Protocol.
//
// Import registers the tools of a remote MCP server so the executor can call
// them like local tools:
//
//	c, _ := client.NewStdioMCPClient("./weather-server", nil)
//	_ = c.Start(ctx)
//	_ = mcptools.Initialize(ctx, c)
//	names, err := mcptools.Import(ctx, c, registry, mcptools.WithPrefix("weather_"))
//
// NewServer goes the other way and exposes a registry to MCP clients.
package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/tools"
)

// MCPClient is the subset of *client.Client used to import tools.
type MCPClient interface {
	ListTools(ctx context.Context, request mcp.ListToolsRequest) (*mcp.ListToolsResult, error)
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// Initializer is implemented by clients that need the MCP handshake.
type Initializer interface {
	Initialize(ctx context.Context, request mcp.InitializeRequest) (*mcp.InitializeResult, error)
}

// Initialize performs the MCP handshake as a zai-go client.
func Initialize(ctx context.Context, c Initializer) error {
	_, err := c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "zai-go",
				Version: "1.0.0",
			},
		},
	})
	if err != nil {
		return fmt.Errorf("initialize MCP session: %w", err)
	}
	return nil
}

type importConfig struct {
	prefix string
	filter func(mcp.Tool) bool
	opts   []tools.RegisterOption
}

// ImportOption configures Import.
type ImportOption func(*importConfig)

// WithPrefix prepends prefix to every imported tool name.
func WithPrefix(prefix string) ImportOption {
	return func(c *importConfig) { c.prefix = prefix }
}

// WithFilter imports only the tools keep accepts.
func WithFilter(keep func(mcp.Tool) bool) ImportOption {
	return func(c *importConfig) { c.filter = keep }
}

// WithRegisterOptions applies opts to every imported tool.
func WithRegisterOptions(opts ...tools.RegisterOption) ImportOption {
	return func(c *importConfig) { c.opts = append(c.opts, opts...) }
}

// Import lists the server's tools, following pagination, and registers each
// as a proxy that forwards calls to the server. Tools whose annotations
// declare them non-idempotent are registered with tools.NonIdempotent.
// It returns the registered names. Registration stops at the first error.
func Import(ctx context.Context, c MCPClient, reg *tools.Registry, opts ...ImportOption) ([]string, error) {
	cfg := &importConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var (
		names  []string
		cursor mcp.Cursor
	)
	for {
		req := mcp.ListToolsRequest{}
		req.Params.Cursor = cursor
		result, err := c.ListTools(ctx, req)
		if err != nil {
			return names, fmt.Errorf("list MCP tools: %w", err)
		}

		for _, t := range result.Tools {
			if cfg.filter != nil && !cfg.filter(t) {
				continue
			}
			p := &proxy{client: c, remote: t.Name, name: cfg.prefix + t.Name, description: t.Description, schema: inputSchema(t)}
			regOpts := cfg.opts
			if h := t.Annotations.IdempotentHint; h != nil && !*h {
				regOpts = append(regOpts[:len(regOpts):len(regOpts)], tools.NonIdempotent())
			}
			if err := reg.Register(p, regOpts...); err != nil {
				return names, err
			}
			names = append(names, p.name)
		}

		if result.NextCursor == "" {
			return names, nil
		}
		cursor = result.NextCursor
	}
}

func inputSchema(t mcp.Tool) json.RawMessage {
	if len(t.RawInputSchema) > 0 {
		return t.RawInputSchema
	}
	data, err := json.Marshal(t.InputSchema)
	if err != nil {
		return nil
	}
	return data
}

// proxy forwards calls to a tool on an MCP server.
type proxy struct {
	client      MCPClient
	remote      string
	name        string
	description string
	schema      json.RawMessage
}

func (p *proxy) Name() string             { return p.name }
func (p *proxy) Description() string      { return p.description }
func (p *proxy) Schema() tools.ToolSchema { return tools.ToolSchema{JSONSchema: p.schema} }

// Call returns the joined text content as a string, or fails with
// core.ErrExecutionFailed when the server reports an error result.
func (p *proxy) Call(ctx context.Context, args json.RawMessage) (any, error) {
	var arguments map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &arguments); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrInvalidParameters, err)
		}
	}

	result, err := p.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: p.remote, Arguments: arguments},
	})
	if err != nil {
		return nil, fmt.Errorf("call MCP tool %s: %w", p.remote, err)
	}
	if result == nil {
		return nil, fmt.Errorf("%w: MCP tool %s returned no result", core.ErrExecutionFailed, p.remote)
	}

	text := resultText(result)
	if result.IsError {
		return nil, fmt.Errorf("%w: %s", core.ErrExecutionFailed, text)
	}
	return text, nil
}

func resultText(result *mcp.CallToolResult) string {
	var parts []string
	for _, c := range result.Content {
		switch content := c.(type) {
		case mcp.TextContent:
			parts = append(parts, content.Text)
		case *mcp.TextContent:
			parts = append(parts, content.Text)
		default:
			if data, err := json.Marshal(content); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	if len(parts) == 0 && result.StructuredContent != nil {
		if data, err := json.Marshal(result.StructuredContent); err == nil {
			parts = append(parts, string(data))
		}
	}
	return strings.Join(parts, "\n")
}

// NewServer exposes the enabled tools of reg as an MCP server. Calls run
// through ex, so timeouts and retries apply; failures are returned as MCP
// error results.
func NewServer(name, version string, ex *tools.Executor) *server.MCPServer {
	s := server.NewMCPServer(name, version, server.WithToolCapabilities(true))

	for _, meta := range ex.Registry().Metadata() {
		if !meta.Enabled {
			continue
		}
		tool := mcp.NewToolWithRawSchema(meta.Name, meta.Description, meta.Schema.Parameters())
		if meta.NonIdempotent {
			idempotent := false
			tool.Annotations.IdempotentHint = &idempotent
		}
		toolName := meta.Name
		s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			arguments := req.GetArguments()
			if arguments == nil {
				arguments = map[string]any{}
			}
			args, err := json.Marshal(arguments)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			res := ex.Execute(ctx, toolName, args)
			if !res.Success {
				if errors.Is(res.Err, context.Canceled) {
					return nil, res.Err
				}
				return mcp.NewToolResultError(res.Error), nil
			}
			return mcp.NewToolResultText(string(res.Result)), nil
		})
	}
	return s
}
