// Package mcpbridge publishes registered search tools as an MCP server so
// editors and other MCP clients can call the catalog directly.
package mcpbridge

import (
	"context"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cast"

	"github.com/universal-tool-calling-protocol/go-product-agent/src/repository"
	"github.com/universal-tool-calling-protocol/go-product-agent/src/tools"
)

// NewServer creates an MCP server exposing every tool in registry.
func NewServer(registry *repository.Registry, name, version string) *mcpserver.MCPServer {
	srv := mcpserver.NewMCPServer(name, version, mcpserver.WithToolCapabilities(false))
	for _, t := range registry.Tools() {
		srv.AddTool(Describe(t), Handler(t))
	}
	return srv
}

// Describe converts a tool's input schema into an MCP tool declaration.
// Properties are emitted in name order.
func Describe(t tools.Tool) mcp.Tool {
	schema := t.Inputs()
	required := map[string]bool{}
	for _, r := range schema.Required {
		required[r] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for n := range schema.Properties {
		names = append(names, n)
	}
	sort.Strings(names)

	opts := []mcp.ToolOption{mcp.WithDescription(t.Description())}
	for _, n := range names {
		prop, _ := schema.Properties[n].(map[string]interface{})
		var propOpts []mcp.PropertyOption
		if desc := cast.ToString(prop["description"]); desc != "" {
			propOpts = append(propOpts, mcp.Description(desc))
		}
		if required[n] {
			propOpts = append(propOpts, mcp.Required())
		}
		switch cast.ToString(prop["type"]) {
		case "boolean":
			opts = append(opts, mcp.WithBoolean(n, propOpts...))
		case "number", "integer":
			opts = append(opts, mcp.WithNumber(n, propOpts...))
		default:
			opts = append(opts, mcp.WithString(n, propOpts...))
		}
	}
	return mcp.NewTool(t.Name(), opts...)
}

// Handler adapts t to an MCP tool handler. Adapter failures are already
// folded into text; those starting with "Error" are flagged as tool errors.
func Handler(t tools.Tool) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		out := t.Call(ctx, args)
		if strings.HasPrefix(out, "Error") {
			return mcp.NewToolResultError(out), nil
		}
		return mcp.NewToolResultText(out), nil
	}
}
