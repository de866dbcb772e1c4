package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// This is used to return actionable error information to the agent
// as a successful tool result, so the details are visible rather than
// being swallowed by the MCP client.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for caller mistakes the agent can fix (blank column name,
// target not in the catalog). System failures such as an unreachable
// correction store should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
//
// Example:
//
//	return NewErrorResultWithDetails(
//	    "unknown_target",
//	    "member.shoe_size is not a PI20 field",
//	    map[string]any{"did_you_mean": []string{"member.member_id"}},
//	), nil
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// AsServiceErrorResult converts caller mistakes reported by the service into
// a structured result. It returns nil for anything else; the caller should
// then return the error itself.
func AsServiceErrorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return NewErrorResult("invalid_input", err.Error())
	case errors.Is(err, apperrors.ErrValidation):
		return NewErrorResult("validation_failed", err.Error())
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult("not_found", err.Error())
	case errors.Is(err, apperrors.ErrCatalogUnavailable):
		return NewErrorResult("catalog_unavailable", err.Error())
	}
	return nil
}
