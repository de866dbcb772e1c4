// Package tools provides MCP tool implementations for crosswalk.
package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/jsonutil"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/services"
)

var sourceColumnSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"column_name":   map[string]any{"type": "string", "description": "Source column name as it appears in the file"},
		"sample_values": map[string]any{"type": "array", "description": "A few example values from the column"},
	},
	"required": []string{"column_name"},
}

type sourceColumnArg struct {
	ColumnName   string                   `json:"column_name"`
	SampleValues jsonutil.FlexibleStrings `json:"sample_values"`
}

func (a sourceColumnArg) input() models.SourceColumnInput {
	return models.SourceColumnInput{Name: a.ColumnName, SampleValues: a.SampleValues}
}

type suggestMappingsResult struct {
	Columns []services.ColumnSuggestions `json:"columns"`
	Total   int                          `json:"total"`
}

type correctionResult struct {
	Recorded   bool               `json:"recorded"`
	Correction *models.Correction `json:"correction"`
}

// RegisterMappingTools registers the suggestion and correction tools.
func RegisterMappingTools(s *server.MCPServer, deps *MappingToolDeps) {
	registerSuggestMappingsTool(s, deps)
	registerSuggestSingleMappingTool(s, deps)
	registerAddMappingCorrectionTool(s, deps)
}

func registerSuggestMappingsTool(s *server.MCPServer, deps *MappingToolDeps) {
	tool := mcp.NewTool(
		"suggest_mappings",
		mcp.WithDescription(
			"Suggests PI20 data model targets for a batch of source columns. "+
				"Each column gets up to top_k ranked suggestions with a confidence in [0,1] "+
				"and a reasoning string naming the lexical, semantic, pattern and prior-correction signals. "+
				"Include sample_values where possible; shapes such as NPI numbers and dates raise confidence.",
		),
		mcp.WithArray(
			"columns",
			mcp.Required(),
			mcp.Description("Source columns, each with column_name and optional sample_values"),
			mcp.Items(sourceColumnSchema),
		),
		mcp.WithNumber(
			"top_k",
			mcp.Description("Suggestions per column (default from server configuration; values below 1 return one)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := arguments(req)
		if _, ok := args["columns"]; !ok {
			return NewErrorResult("invalid_parameters", "'columns' is required"), nil
		}

		var cols []sourceColumnArg
		if err := decodeArgument(args, "columns", &cols); err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		topK, err := topKArgument(args, deps.DefaultTopK)
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		inputs := make([]models.SourceColumnInput, len(cols))
		for i, c := range cols {
			inputs[i] = c.input()
		}

		res, err := deps.Service.Suggest(ctx, inputs, topK)
		if err != nil {
			if result := AsServiceErrorResult(err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("suggest_mappings failed: %w", err)
		}
		return jsonResult(suggestMappingsResult{Columns: res, Total: len(res)})
	})
}

func registerSuggestSingleMappingTool(s *server.MCPServer, deps *MappingToolDeps) {
	tool := mcp.NewTool(
		"suggest_single_mapping",
		mcp.WithDescription(
			"Suggests PI20 targets for one source column. "+
				"Example: suggest_single_mapping(column_name='MBR_FIRST_NM', sample_values=['Ann','Bo']).",
		),
		mcp.WithString(
			"column_name",
			mcp.Required(),
			mcp.Description("Source column name"),
		),
		mcp.WithArray(
			"sample_values",
			mcp.Description("Example values from the column"),
		),
		mcp.WithNumber(
			"top_k",
			mcp.Description("Number of suggestions (default from server configuration)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("column_name")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		args := arguments(req)
		var samples jsonutil.FlexibleStrings
		if err := decodeArgument(args, "sample_values", &samples); err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		topK, err := topKArgument(args, deps.DefaultTopK)
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		res, err := deps.Service.Suggest(ctx, []models.SourceColumnInput{{Name: name, SampleValues: samples}}, topK)
		if err != nil {
			if result := AsServiceErrorResult(err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("suggest_single_mapping failed: %w", err)
		}
		return jsonResult(res[0])
	})
}

func registerAddMappingCorrectionTool(s *server.MCPServer, deps *MappingToolDeps) {
	tool := mcp.NewTool(
		"add_mapping_correction",
		mcp.WithDescription(
			"Records the PI20 target a person confirmed for a source column, so later suggestions for the same name rank it higher. "+
				"Use status 'custom_field' (with an empty or custom target) when the column has no PI20 home; "+
				"'under_review' and 'skipped' are also accepted. Only 'in_model' confirmations affect ranking.",
		),
		mcp.WithString("source_column", mcp.Required(), mcp.Description("Source column name")),
		mcp.WithString("confirmed_table", mcp.Description("PI20 table (required for in_model)")),
		mcp.WithString("confirmed_column", mcp.Description("PI20 column (required for in_model)")),
		mcp.WithString(
			"status",
			mcp.Description("Mapping status; legacy Y/N/U/N/A flags are accepted"),
			mcp.Enum("in_model", "custom_field", "under_review", "skipped", "Y", "N", "U", "N/A"),
		),
		mcp.WithObject(
			"prior_suggestion",
			mcp.Description("The top suggestion shown before the person decided, used to track overrides"),
			mcp.Properties(map[string]any{
				"target_table":  map[string]any{"type": "string"},
				"target_column": map[string]any{"type": "string"},
			}),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		source, err := req.RequireString("source_column")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		status, err := models.ParseMappingStatus(req.GetString("status", ""))
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		var prior *models.Suggestion
		if err := decodeArgument(arguments(req), "prior_suggestion", &prior); err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		c, err := deps.Service.RecordCorrection(ctx, services.CorrectionRequest{
			SourceColumn:       source,
			ConfirmedTable:     trimString(req.GetString("confirmed_table", "")),
			ConfirmedColumn:    trimString(req.GetString("confirmed_column", "")),
			Status:             status,
			PriorTopSuggestion: prior,
		})
		if err != nil {
			if result := AsServiceErrorResult(err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("add_mapping_correction failed: %w", err)
		}

		deps.Logger.Debug("Correction recorded via MCP",
			zap.String("source_column", c.SourceColumn),
			zap.String("status", string(c.Status)))
		return jsonResult(correctionResult{Recorded: true, Correction: c})
	})
}
