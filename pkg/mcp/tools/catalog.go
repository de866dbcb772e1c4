package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
)

const (
	defaultFieldSearchLimit = 20
	maxFieldSearchLimit     = 100
)

type fieldSearchResult struct {
	Query      string               `json:"query"`
	Fields     []models.TargetField `json:"fields"`
	TotalCount int                  `json:"total_count"`
}

// RegisterCatalogTools registers PI20 catalog browsing tools.
func RegisterCatalogTools(s *server.MCPServer, deps *MappingToolDeps) {
	tool := mcp.NewTool(
		"search_pi20_fields",
		mcp.WithDescription(
			"Searches the PI20 data model by substring over table names, column names, descriptions and aliases. "+
				"Use it to check a target before recording a correction. "+
				"Example: search_pi20_fields(query='npi') returns provider NPI fields.",
		),
		mcp.WithString(
			"query",
			mcp.Description("Search text; empty lists every field up to the limit"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Maximum number of fields to return (default 20, max 100)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := trimString(req.GetString("query", ""))

		limit := defaultFieldSearchLimit
		if limitVal, ok := arguments(req)["limit"]; ok {
			if limitFloat, ok := limitVal.(float64); ok {
				limit = int(limitFloat)
			}
		}
		if limit <= 0 {
			return NewErrorResult("invalid_parameters", "limit must be positive"), nil
		}
		limit = min(limit, maxFieldSearchLimit)

		fields := deps.Service.Catalog().Search(query, limit)
		if fields == nil {
			fields = []models.TargetField{}
		}
		return jsonResult(fieldSearchResult{Query: query, Fields: fields, TotalCount: len(fields)})
	})
}
