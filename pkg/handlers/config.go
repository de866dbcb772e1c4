package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/config"
)

// WeightsResponse mirrors automap.Weights for JSON clients.
type WeightsResponse struct {
	Lexical        float64 `json:"lexical"`
	Semantic       float64 `json:"semantic"`
	PatternBonus   float64 `json:"pattern_bonus"`
	CorrectionStep float64 `json:"correction_step"`
	CorrectionCap  float64 `json:"correction_cap"`
}

// ConfigResponse contains the non-secret mapper configuration.
type ConfigResponse struct {
	Version            string          `json:"version"`
	CatalogSource      string          `json:"catalog_source"`
	CorrectionsBackend string          `json:"corrections_backend"`
	DefaultTopK        int             `json:"default_top_k"`
	MaxSamples         int             `json:"max_samples"`
	PatternThreshold   float64         `json:"pattern_threshold"`
	Weights            WeightsResponse `json:"weights"`
	MCPEnabled         bool            `json:"mcp_enabled"`
}

// ConfigHandler handles configuration requests.
type ConfigHandler struct {
	config *config.Config
	logger *zap.Logger
}

// NewConfigHandler creates a new config handler.
func NewConfigHandler(cfg *config.Config, logger *zap.Logger) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
		logger: logger,
	}
}

// RegisterRoutes registers the config handler's routes on the given mux.
func (h *ConfigHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/config", h.Get)
}

// Get returns the scoring constants the server is running with, so a client
// can explain a confidence value. Connection settings are never included.
// GET /api/config
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	m := h.config.Mapper
	response := ConfigResponse{
		Version:            h.config.Version,
		CatalogSource:      h.config.Catalog.Source,
		CorrectionsBackend: h.config.Corrections.Backend,
		DefaultTopK:        m.DefaultTopK,
		MaxSamples:         m.MaxSamples,
		PatternThreshold:   m.PatternThreshold,
		Weights: WeightsResponse{
			Lexical:        m.Weights.Lexical,
			Semantic:       m.Weights.Semantic,
			PatternBonus:   m.Weights.PatternBonus,
			CorrectionStep: m.Weights.CorrectionStep,
			CorrectionCap:  m.Weights.CorrectionCap,
		},
		MCPEnabled: !h.config.MCP.Disabled,
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode config response", zap.Error(err))
	}
}
