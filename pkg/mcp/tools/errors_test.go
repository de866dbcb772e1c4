package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/apperrors"
)

func errorPayload(t *testing.T, r *mcp.CallToolResult) ErrorResponse {
	t.Helper()
	require.NotNil(t, r)
	require.True(t, r.IsError)
	text, ok := r.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var e ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(text.Text), &e))
	return e
}

func TestNewErrorResult(t *testing.T) {
	e := errorPayload(t, NewErrorResult("invalid_parameters", "query cannot be empty"))
	assert.True(t, e.Error)
	assert.Equal(t, "invalid_parameters", e.Code)
	assert.Equal(t, "query cannot be empty", e.Message)
	assert.Nil(t, e.Details)
}

func TestNewErrorResultWithDetails(t *testing.T) {
	e := errorPayload(t, NewErrorResultWithDetails("unknown_target", "no such field",
		map[string]any{"did_you_mean": []string{"member.member_id"}}))
	assert.Equal(t, "unknown_target", e.Code)
	assert.Equal(t, map[string]any{"did_you_mean": []any{"member.member_id"}}, e.Details)
}

func TestAsServiceErrorResult(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("%w: blank", apperrors.ErrInvalidInput), "invalid_input"},
		{fmt.Errorf("%w: no target", apperrors.ErrValidation), "validation_failed"},
		{apperrors.ErrNotFound, "not_found"},
		{fmt.Errorf("%w: empty", apperrors.ErrCatalogUnavailable), "catalog_unavailable"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, errorPayload(t, AsServiceErrorResult(tt.err)).Code)
	}

	assert.Nil(t, AsServiceErrorResult(errors.New("connection refused")))
}
