package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/services"
)

// MappingToolDeps contains dependencies shared by the crosswalk tools.
type MappingToolDeps struct {
	Service     services.AutoMappingService
	DefaultTopK int
	Version     string
	Logger      *zap.Logger
}

// trimString removes leading and trailing whitespace from a string.
func trimString(s string) string {
	return strings.TrimSpace(s)
}

func arguments(req mcp.CallToolRequest) map[string]any {
	args, _ := req.Params.Arguments.(map[string]any)
	if args == nil {
		return map[string]any{}
	}
	return args
}

// decodeArgument re-decodes one argument into dst so that typed fields such
// as jsonutil.FlexibleStrings apply. A missing key leaves dst untouched.
func decodeArgument(args map[string]any, key string, dst any) error {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("'%s' could not be read: %w", key, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("'%s' has the wrong shape: %w", key, err)
	}
	return nil
}

// topKArgument returns the optional top_k or the configured default.
func topKArgument(args map[string]any, def int) (int, error) {
	raw, ok := args["top_k"]
	if !ok || raw == nil {
		return def, nil
	}
	f, ok := raw.(float64)
	if !ok || f != float64(int(f)) {
		return 0, fmt.Errorf("'top_k' must be an integer")
	}
	return int(f), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
