package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
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

// mockAutoMappingService implements services.AutoMappingService for error paths.
type mockAutoMappingService struct {
	services.AutoMappingService
	suggestErr error
	statsErr   error
	reloadErr  error
	gotTopK    int
}

func (m *mockAutoMappingService) Suggest(ctx context.Context, columns []models.SourceColumnInput, topK int) ([]services.ColumnSuggestions, error) {
	m.gotTopK = topK
	if m.suggestErr != nil {
		return nil, m.suggestErr
	}
	return m.AutoMappingService.Suggest(ctx, columns, topK)
}

func (m *mockAutoMappingService) SuggestSingle(ctx context.Context, column models.SourceColumnInput, topK int) ([]models.Suggestion, error) {
	m.gotTopK = topK
	if m.suggestErr != nil {
		return nil, m.suggestErr
	}
	return m.AutoMappingService.SuggestSingle(ctx, column, topK)
}

func (m *mockAutoMappingService) Stats(ctx context.Context) (*services.MappingStats, error) {
	if m.statsErr != nil {
		return nil, m.statsErr
	}
	return m.AutoMappingService.Stats(ctx)
}

func (m *mockAutoMappingService) ReloadCatalog(ctx context.Context) error {
	if m.reloadErr != nil {
		return m.reloadErr
	}
	return m.AutoMappingService.ReloadCatalog(ctx)
}

// ============================================================================
// Helpers
// ============================================================================

func testCatalogFields() []models.TargetField {
	return []models.TargetField{
		{TableName: "member", ColumnName: "member_id", DataType: "varchar", Description: "Unique member identifier", IsRequired: true},
		{TableName: "member", ColumnName: "member_first_name", DataType: "varchar", Description: "Member given name", IsRequired: true},
		{TableName: "member", ColumnName: "member_last_name", DataType: "varchar", Description: "Member family name"},
		{TableName: "provider", ColumnName: "npi", DataType: "char(10)", Description: "National provider identifier", Aliases: []string{"provider_npi"}},
		{TableName: "claim", ColumnName: "service_date", DataType: "date", Description: "Date the service was rendered"},
	}
}

func newTestMappingService(t *testing.T) *mockAutoMappingService {
	t.Helper()
	svc, err := services.NewAutoMappingService(context.Background(),
		catalog.StaticLoader(testCatalogFields()),
		patterns.Default(patterns.DefaultThreshold, patterns.DefaultMaxSamples),
		repositories.NewMemoryCorrectionRepository(),
		automap.DefaultWeights(), zap.NewNop())
	require.NoError(t, err)
	return &mockAutoMappingService{AutoMappingService: svc}
}

func newTestMux(t *testing.T, svc services.AutoMappingService) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	NewAutoMappingHandler(svc, 3, 10, zap.NewNop()).RegisterRoutes(mux)
	NewCatalogHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func doJSON(t *testing.T, mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	require.True(t, envelope.Success)
	require.NoError(t, json.Unmarshal(envelope.Data, dst))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

// ============================================================================
// Tests
// ============================================================================

func TestAutoMappingHandler_Suggest(t *testing.T) {
	svc := newTestMappingService(t)
	mux := newTestMux(t, svc)

	rec := doJSON(t, mux, http.MethodPost, "/api/auto-mapping/suggest", `{
		"columns": [
			{"column_name": "MEMBER_FIRST_NAME", "sample_values": ["Ann", "Bo"]},
			{"column_name": "PROV_NPI", "sample_values": [1234567893, "1245319599"]}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SuggestResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 3, svc.gotTopK, "configured default applies when top_k is absent")
	require.Len(t, resp.Suggestions["MEMBER_FIRST_NAME"], 3)
	assert.Equal(t, "member_first_name", resp.Suggestions["MEMBER_FIRST_NAME"][0].TargetColumn)
	assert.Equal(t, "npi", resp.Suggestions["PROV_NPI"][0].TargetColumn)
	assert.Contains(t, resp.Suggestions["PROV_NPI"][0].Reasoning, "pattern:npi")
	assert.Equal(t, "PROV_NPI", resp.Columns[1].SourceColumn)
}

func TestAutoMappingHandler_Suggest_ExplicitTopK(t *testing.T) {
	svc := newTestMappingService(t)
	mux := newTestMux(t, svc)

	rec := doJSON(t, mux, http.MethodPost, "/api/auto-mapping/suggest", `{"columns":[{"column_name":"member_id"}],"top_k":0}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SuggestResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, 0, svc.gotTopK)
	assert.Len(t, resp.Suggestions["member_id"], 1)
}

func TestAutoMappingHandler_Suggest_BlankName(t *testing.T) {
	mux := newTestMux(t, newTestMappingService(t))

	rec := doJSON(t, mux, http.MethodPost, "/api/auto-mapping/suggest", `{"columns":[{"column_name":"  "}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_input", decodeError(t, rec)["error"])
}

func TestAutoMappingHandler_Suggest_BadBodies(t *testing.T) {
	mux := newTestMux(t, newTestMappingService(t))

	for name, body := range map[string]string{
		"empty":         ``,
		"malformed":     `{"columns":`,
		"unknown field": `{"cols":[]}`,
		"trailing data": `{"columns":[]} {"columns":[]}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := doJSON(t, mux, http.MethodPost, "/api/auto-mapping/suggest", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid_request", decodeError(t, rec)["error"])
		})
	}
}

func TestAutoMappingHandler_Suggest_StoreFailure(t *testing.T) {
	svc := newTestMappingService(t)
	svc.suggestErr = errors.New("redis: connection refused")
	mux := newTestMux(t, svc)

	rec := doJSON(t, mux, http.MethodPost, "/api/auto-mapping/suggest", `{"columns":[{"column_name":"x"}]}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "suggest_failed", body["error"])
	assert.NotContains(t, body["message"], "redis")
}

func TestAutoMappingHandler_SuggestSingle(t *testing.T) {
	mux := newTestMux(t, newTestMappingService(t))

	rec := doJSON(t, mux, http.MethodPost, "/api/auto-mapping/suggest-single",
		`{"column_name":" SVC_DT ","sample_values":["2024-01-15","2024-02-01"],"top_k":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SuggestSingleResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, "SVC_DT", resp.SourceColumn)
	require.Len(t, resp.Suggestions, 2)
	assert.Equal(t, "service_date", resp.Suggestions[0].TargetColumn)
}

func TestAutoMappingHandler_Correct(t *testing.T) {
	mux := newTestMux(t, newTestMappingService(t))

	for i := 0; i < 3; i++ {
		rec := doJSON(t, mux, http.MethodPost, "/api/auto-mapping/correct",
			`{"source_column":"MBR_NUM","confirmed_table":"member","confirmed_column":"member_id"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := doJSON(t, mux, http.MethodPost, "/api/auto-mapping/suggest-single", `{"column_name":"MBR_NUM"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp SuggestSingleResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, "member_id", resp.Suggestions[0].TargetColumn)
	assert.Contains(t, resp.Suggestions[0].Reasoning, "3 prior corrections")
}

func TestAutoMappingHandler_Correct_LegacyStatus(t *testing.T) {
	mux := newTestMux(t, newTestMappingService(t))

	rec := doJSON(t, mux, http.MethodPost, "/api/auto-mapping/correct",
		`{"source_column":"LOYALTY_TIER","confirmed_table":"","confirmed_column":"loyalty_tier","status":"N",
		  "prior_suggestion":{"target_table":"member","target_column":"member_id"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var c models.Correction
	decodeData(t, rec, &c)
	assert.Equal(t, models.MappingStatusCustomField, c.Status)
	assert.True(t, c.WasOverride)
}

func TestAutoMappingHandler_Correct_Validation(t *testing.T) {
	mux := newTestMux(t, newTestMappingService(t))

	rec := doJSON(t, mux, http.MethodPost, "/api/auto-mapping/correct", `{"source_column":"col","confirmed_table":"","confirmed_column":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", decodeError(t, rec)["error"])

	rec = doJSON(t, mux, http.MethodPost, "/api/auto-mapping/correct", `{"source_column":"col","status":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_status", decodeError(t, rec)["error"])
}

func TestAutoMappingHandler_Classify(t *testing.T) {
	mux := newTestMux(t, newTestMappingService(t))

	rec := doJSON(t, mux, http.MethodPost, "/api/auto-mapping/classify",
		`{"sample_values":["a@example.com","b@example.org","c@example.net"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ClassifyResponse
	decodeData(t, rec, &resp)
	require.NotEmpty(t, resp.Patterns)
	assert.Equal(t, "email", resp.Patterns[0].PatternName)
	assert.InDelta(t, 1.0, resp.Patterns[0].MatchFraction, 1e-9)

	rec = doJSON(t, mux, http.MethodPost, "/api/auto-mapping/classify", `{"sample_values":[]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"patterns":[]`)
}

func multipartRequest(t *testing.T, fields map[string]string, fileName, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/auto-mapping/ingest", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestAutoMappingHandler_Ingest_Delimited(t *testing.T) {
	mux := newTestMux(t, newTestMappingService(t))

	csv := "MBR_FIRST_NAME|RENDERING_NPI|SVC_DATE\nAnn|1234567893|2024-01-15\nBo|1245319599|2024-01-16\n"
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, multipartRequest(t, map[string]string{"top_k": "2"}, "claims.txt", csv))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp IngestResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, "claims.txt", resp.FileName)
	assert.Equal(t, "delimited", resp.Format)
	assert.Equal(t, "|", resp.Delimiter)
	assert.Equal(t, 2, resp.RowsScanned)
	require.Len(t, resp.Profiles, 3)
	assert.Equal(t, "date", resp.Profiles[2].InferredType)
	require.Len(t, resp.Columns, 3)
	assert.Len(t, resp.Columns[0].Suggestions, 2)
	assert.Equal(t, "npi", resp.Columns[1].Suggestions[0].TargetColumn)
}

func TestAutoMappingHandler_Ingest_SchemaList(t *testing.T) {
	mux := newTestMux(t, newTestMappingService(t))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, multipartRequest(t, map[string]string{"format": "schema"}, "cols.txt", "member_id\nmember_last_name\n"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp IngestResponse
	decodeData(t, rec, &resp)
	require.Len(t, resp.Columns, 2)
	assert.Equal(t, "member_last_name", resp.Columns[1].Suggestions[0].TargetColumn)
	assert.Empty(t, resp.Profiles)
}

func TestAutoMappingHandler_Ingest_Errors(t *testing.T) {
	mux := newTestMux(t, newTestMappingService(t))

	tests := []struct {
		name     string
		req      *http.Request
		wantCode string
	}{
		{"not multipart", httptest.NewRequest(http.MethodPost, "/api/auto-mapping/ingest", strings.NewReader("x")), "invalid_upload"},
		{"missing file", multipartRequest(t, map[string]string{"format": "schema"}, "", ""), "invalid_upload"},
		{"bad top_k", multipartRequest(t, map[string]string{"top_k": "five"}, "a.csv", "a\n1\n"), "invalid_top_k"},
		{"bad format", multipartRequest(t, map[string]string{"format": "xlsx"}, "a.csv", "a\n1\n"), "invalid_format"},
		{"empty file", multipartRequest(t, nil, "a.csv", "   "), "invalid_upload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec)["error"])
		})
	}
}

func TestAutoMappingHandler_StatsAndReload(t *testing.T) {
	svc := newTestMappingService(t)
	mux := newTestMux(t, svc)

	rec := doJSON(t, mux, http.MethodGet, "/api/auto-mapping/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var stats services.MappingStats
	decodeData(t, rec, &stats)
	assert.Equal(t, "ready", stats.Status)
	assert.Equal(t, 5, stats.CatalogFields)
	assert.Equal(t, 3, stats.CatalogTables)

	rec = doJSON(t, mux, http.MethodPost, "/api/auto-mapping/reload", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var reloaded map[string]int
	decodeData(t, rec, &reloaded)
	assert.Equal(t, 5, reloaded["catalog_fields"])

	svc.statsErr = errors.New("boom")
	rec = doJSON(t, mux, http.MethodGet, "/api/auto-mapping/stats", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAutoMappingHandler_MethodNotAllowed(t *testing.T) {
	mux := newTestMux(t, newTestMappingService(t))

	rec := doJSON(t, mux, http.MethodGet, "/api/auto-mapping/suggest", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
