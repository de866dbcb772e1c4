package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/automap"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/catalog"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/patterns"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/repositories"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/services"
)

// ============================================================================
// Mock Implementations
// ============================================================================

type failingStatsService struct {
	services.AutoMappingService
	err error
}

func (f *failingStatsService) Stats(context.Context) (*services.MappingStats, error) {
	return nil, f.err
}

// ============================================================================
// Helpers
// ============================================================================

func testFields() []models.TargetField {
	return []models.TargetField{
		{TableName: "member", ColumnName: "member_id", DataType: "varchar", Description: "Unique member identifier", IsRequired: true},
		{TableName: "member", ColumnName: "member_first_name", DataType: "varchar", Description: "Member given name"},
		{TableName: "provider", ColumnName: "npi", DataType: "char(10)", Description: "National provider identifier", Aliases: []string{"provider_npi"}},
		{TableName: "claim", ColumnName: "service_date", DataType: "date", Description: "Date the service was rendered"},
	}
}

func newTestDeps(t *testing.T) *MappingToolDeps {
	t.Helper()
	svc, err := services.NewAutoMappingService(context.Background(),
		catalog.StaticLoader(testFields()),
		patterns.Default(patterns.DefaultThreshold, patterns.DefaultMaxSamples),
		repositories.NewMemoryCorrectionRepository(),
		automap.DefaultWeights(), zap.NewNop())
	require.NoError(t, err)
	return &MappingToolDeps{Service: svc, DefaultTopK: 3, Version: "test-version", Logger: zap.NewNop()}
}

func newTestServer(t *testing.T, deps *MappingToolDeps) *server.MCPServer {
	t.Helper()
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterAll(s, deps)
	return s
}

type toolResponse struct {
	Result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// callTool sends a tools/call JSON-RPC message and decodes the response.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) toolResponse {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	result := s.HandleMessage(context.Background(), msg)
	b, err := json.Marshal(result)
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(b, &resp))
	return resp
}

// decodeText unmarshals the first text content of a successful result.
func decodeText(t *testing.T, resp toolResponse, dst any) {
	t.Helper()
	require.Nil(t, resp.Error)
	require.NotEmpty(t, resp.Result.Content)
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), dst))
}
