package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type healthResult struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	CatalogFields int    `json:"catalog_fields"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
func RegisterHealthTool(s *server.MCPServer, deps *MappingToolDeps) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, version and catalog size"),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res := healthResult{Status: "ok", Version: deps.Version}
		if cat := deps.Service.Catalog(); cat != nil {
			res.CatalogFields = cat.Len()
		}
		return jsonResult(res)
	})
}

// RegisterStatsTool adds get_system_stats.
func RegisterStatsTool(s *server.MCPServer, deps *MappingToolDeps) {
	tool := mcp.NewTool(
		"get_system_stats",
		mcp.WithDescription(
			"Reports catalog size, corrections learned, override rate, pattern count, "+
				"vocabulary size and when the scoring snapshot was last rebuilt.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stats, err := deps.Service.Stats(ctx)
		if err != nil {
			return nil, fmt.Errorf("get_system_stats failed: %w", err)
		}
		return jsonResult(stats)
	})
}
