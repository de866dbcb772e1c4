package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/ingest"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/jsonutil"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/services"
)

// maxUploadBytes bounds multipart ingest uploads.
const maxUploadBytes = 32 << 20

// ============================================================================
// Request/Response Types
// ============================================================================

// SourceColumnRequest is one source column in a request body.
type SourceColumnRequest struct {
	ColumnName   string                   `json:"column_name"`
	SampleValues jsonutil.FlexibleStrings `json:"sample_values,omitempty"`
}

func (r SourceColumnRequest) input() models.SourceColumnInput {
	return models.SourceColumnInput{Name: r.ColumnName, SampleValues: r.SampleValues}
}

// SuggestRequest for POST /api/auto-mapping/suggest
type SuggestRequest struct {
	Columns []SourceColumnRequest `json:"columns"`
	TopK    *int                  `json:"top_k,omitempty"`
}

// SuggestSingleRequest for POST /api/auto-mapping/suggest-single
type SuggestSingleRequest struct {
	SourceColumnRequest
	TopK *int `json:"top_k,omitempty"`
}

// SuggestResponse keys suggestions by source column name and also returns
// the per-column detail in request order.
type SuggestResponse struct {
	Suggestions map[string][]models.Suggestion `json:"suggestions"`
	Columns     []services.ColumnSuggestions   `json:"columns"`
	Total       int                            `json:"total"`
}

// SuggestSingleResponse for POST /api/auto-mapping/suggest-single
type SuggestSingleResponse struct {
	SourceColumn string              `json:"source_column"`
	Suggestions  []models.Suggestion `json:"suggestions"`
}

// CorrectionRequestBody for POST /api/auto-mapping/correct
type CorrectionRequestBody struct {
	SourceColumn    string             `json:"source_column"`
	ConfirmedTable  string             `json:"confirmed_table"`
	ConfirmedColumn string             `json:"confirmed_column"`
	Status          string             `json:"status,omitempty"`
	PriorSuggestion *models.Suggestion `json:"prior_suggestion,omitempty"`
}

// ClassifyRequest for POST /api/auto-mapping/classify
type ClassifyRequest struct {
	SampleValues jsonutil.FlexibleStrings `json:"sample_values"`
}

// ClassifyResponse for POST /api/auto-mapping/classify
type ClassifyResponse struct {
	Patterns []models.PatternMatch `json:"patterns"`
}

// IngestResponse for POST /api/auto-mapping/ingest
type IngestResponse struct {
	FileName    string                       `json:"file_name"`
	Format      string                       `json:"format"`
	Delimiter   string                       `json:"delimiter,omitempty"`
	RowsScanned int                          `json:"rows_scanned"`
	Profiles    []ingest.ColumnProfile       `json:"profiles,omitempty"`
	Columns     []services.ColumnSuggestions `json:"columns"`
}

// ============================================================================
// Handler
// ============================================================================

// AutoMappingHandler serves the auto-mapping API.
type AutoMappingHandler struct {
	service     services.AutoMappingService
	defaultTopK int
	maxSamples  int
	logger      *zap.Logger
}

// NewAutoMappingHandler creates a new auto-mapping handler.
func NewAutoMappingHandler(service services.AutoMappingService, defaultTopK, maxSamples int, logger *zap.Logger) *AutoMappingHandler {
	if defaultTopK <= 0 {
		defaultTopK = services.DefaultTopK
	}
	return &AutoMappingHandler{
		service:     service,
		defaultTopK: defaultTopK,
		maxSamples:  maxSamples,
		logger:      logger.Named("auto-mapping-handler"),
	}
}

// RegisterRoutes registers the auto-mapping routes on the given mux.
func (h *AutoMappingHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/auto-mapping"

	mux.HandleFunc("POST "+base+"/suggest", h.Suggest)
	mux.HandleFunc("POST "+base+"/suggest-single", h.SuggestSingle)
	mux.HandleFunc("POST "+base+"/correct", h.Correct)
	mux.HandleFunc("POST "+base+"/classify", h.Classify)
	mux.HandleFunc("POST "+base+"/ingest", h.Ingest)
	mux.HandleFunc("POST "+base+"/reload", h.Reload)
	mux.HandleFunc("GET "+base+"/stats", h.Stats)
}

// Suggest handles POST /api/auto-mapping/suggest
func (h *AutoMappingHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
	if !h.decode(w, r, &req) {
		return
	}

	inputs := make([]models.SourceColumnInput, len(req.Columns))
	for i, c := range req.Columns {
		inputs[i] = c.input()
	}

	res, err := h.service.Suggest(r.Context(), inputs, topKOrDefault(req.TopK, h.defaultTopK))
	if err != nil {
		writeServiceError(w, h.logger, err, "suggest_failed")
		return
	}
	writeOK(w, h.logger, newSuggestResponse(res))
}

// SuggestSingle handles POST /api/auto-mapping/suggest-single
func (h *AutoMappingHandler) SuggestSingle(w http.ResponseWriter, r *http.Request) {
	var req SuggestSingleRequest
	if !h.decode(w, r, &req) {
		return
	}

	got, err := h.service.SuggestSingle(r.Context(), req.input(), topKOrDefault(req.TopK, h.defaultTopK))
	if err != nil {
		writeServiceError(w, h.logger, err, "suggest_failed")
		return
	}
	writeOK(w, h.logger, SuggestSingleResponse{
		SourceColumn: strings.TrimSpace(req.ColumnName),
		Suggestions:  got,
	})
}

// Correct handles POST /api/auto-mapping/correct
func (h *AutoMappingHandler) Correct(w http.ResponseWriter, r *http.Request) {
	var req CorrectionRequestBody
	if !h.decode(w, r, &req) {
		return
	}

	status, err := models.ParseMappingStatus(req.Status)
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_status", err.Error())
		return
	}

	c, err := h.service.RecordCorrection(r.Context(), services.CorrectionRequest{
		SourceColumn:       req.SourceColumn,
		ConfirmedTable:     req.ConfirmedTable,
		ConfirmedColumn:    req.ConfirmedColumn,
		Status:             status,
		PriorTopSuggestion: req.PriorSuggestion,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "record_correction_failed")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, ApiResponse{Success: true, Data: c}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Classify handles POST /api/auto-mapping/classify
func (h *AutoMappingHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if !h.decode(w, r, &req) {
		return
	}

	patterns := h.service.Classify(req.SampleValues)
	if patterns == nil {
		patterns = []models.PatternMatch{}
	}
	writeOK(w, h.logger, ClassifyResponse{Patterns: patterns})
}

// Ingest handles POST /api/auto-mapping/ingest. The multipart form carries
// the upload in "file"; "format" is "delimited" (default) or "schema" for a
// plain list of column names; "top_k" is optional.
func (h *AutoMappingHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeBadRequest(w, h.logger, "invalid_upload", "Expected a multipart form with a file field")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeBadRequest(w, h.logger, "invalid_upload", "Missing file field")
		return
	}
	defer file.Close()

	topK := h.defaultTopK
	if raw := strings.TrimSpace(r.FormValue("top_k")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeBadRequest(w, h.logger, "invalid_top_k", "top_k must be an integer")
			return
		}
		topK = n
	}

	resp := IngestResponse{FileName: header.Filename, Format: strings.ToLower(strings.TrimSpace(r.FormValue("format")))}
	var inputs []models.SourceColumnInput
	switch resp.Format {
	case "", "delimited":
		resp.Format = "delimited"
		sample, err := ingest.SampleDelimited(file, ingest.Options{MaxSamples: h.maxSamples})
		if err != nil {
			writeBadRequest(w, h.logger, "invalid_upload", "Could not read delimited file: "+err.Error())
			return
		}
		resp.Delimiter = sample.Delimiter
		resp.RowsScanned = sample.RowsScanned
		resp.Profiles = sample.Columns
		inputs = sample.Inputs()
	case "schema":
		data, err := ingest.ReadAllUTF8(file)
		if err != nil {
			writeBadRequest(w, h.logger, "invalid_upload", "Could not decode file: "+err.Error())
			return
		}
		inputs = ingest.ParseSchemaList(string(data))
	default:
		writeBadRequest(w, h.logger, "invalid_format", `format must be "delimited" or "schema"`)
		return
	}

	h.logger.Info("Ingested source file",
		zap.String("file_name", header.Filename),
		zap.String("format", resp.Format),
		zap.Int("columns", len(inputs)))

	resp.Columns, err = h.service.Suggest(r.Context(), inputs, topK)
	if err != nil {
		writeServiceError(w, h.logger, err, "suggest_failed")
		return
	}
	writeOK(w, h.logger, resp)
}

// Reload handles POST /api/auto-mapping/reload
func (h *AutoMappingHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ReloadCatalog(r.Context()); err != nil {
		writeServiceError(w, h.logger, err, "reload_failed")
		return
	}
	writeOK(w, h.logger, map[string]int{"catalog_fields": h.service.Catalog().Len()})
}

// Stats handles GET /api/auto-mapping/stats
func (h *AutoMappingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "stats_failed")
		return
	}
	writeOK(w, h.logger, stats)
}

// decode reads a JSON body, rejecting unknown fields and trailing data.
func (h *AutoMappingHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		msg := "Invalid request body"
		if errors.Is(err, io.EOF) {
			msg = "Request body is empty"
		}
		writeBadRequest(w, h.logger, "invalid_request", msg)
		return false
	}
	if dec.More() {
		writeBadRequest(w, h.logger, "invalid_request", "Request body must contain a single JSON object")
		return false
	}
	return true
}

func newSuggestResponse(res []services.ColumnSuggestions) SuggestResponse {
	out := SuggestResponse{
		Suggestions: make(map[string][]models.Suggestion, len(res)),
		Columns:     res,
		Total:       len(res),
	}
	for _, c := range res {
		out.Suggestions[c.SourceColumn] = c.Suggestions
	}
	return out
}

