package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/catalog"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/services"
)

// FieldListResponse for GET /api/data-model-fields
type FieldListResponse struct {
	Fields []models.TargetField `json:"fields"`
	Total  int                  `json:"total"`
	Search string               `json:"search,omitempty"`
}

// TableListResponse for GET /api/data-model-tables
type TableListResponse struct {
	Tables []catalog.TableSummary `json:"tables"`
	Total  int                    `json:"total"`
}

// CatalogHandler serves read-only browsing of the PI20 catalog.
type CatalogHandler struct {
	service services.AutoMappingService
	logger  *zap.Logger
}

func NewCatalogHandler(service services.AutoMappingService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{service: service, logger: logger.Named("catalog-handler")}
}

func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/data-model-fields", h.Fields)
	mux.HandleFunc("GET /api/data-model-tables", h.Tables)
}

// Fields handles GET /api/data-model-fields?search=&limit=
func (h *CatalogHandler) Fields(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r, "limit", defaultSearchLimit, maxSearchLimit)
	if !ok {
		writeBadRequest(w, h.logger, "invalid_limit", "limit must be a positive integer")
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	fields := h.service.Catalog().Search(search, limit)
	if fields == nil {
		fields = []models.TargetField{}
	}
	writeOK(w, h.logger, FieldListResponse{Fields: fields, Total: len(fields), Search: search})
}

// Tables handles GET /api/data-model-tables
func (h *CatalogHandler) Tables(w http.ResponseWriter, r *http.Request) {
	tables := h.service.Catalog().Tables()
	writeOK(w, h.logger, TableListResponse{Tables: tables, Total: len(tables)})
}
