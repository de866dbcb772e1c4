package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/apperrors"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/automap"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/catalog"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/patterns"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/repositories"
)

// DefaultTopK is used when a caller does not ask for a specific count.
const DefaultTopK = 5

// AutoMappingService suggests PI20 targets for source columns and learns from
// confirmed mappings.
type AutoMappingService interface {
	// Suggest ranks catalog fields for every column. A column whose name is
	// blank after trimming fails the whole call with ErrInvalidInput.
	Suggest(ctx context.Context, columns []models.SourceColumnInput, topK int) ([]ColumnSuggestions, error)

	// SuggestSingle is Suggest for one column.
	SuggestSingle(ctx context.Context, column models.SourceColumnInput, topK int) ([]models.Suggestion, error)

	// Classify reports the sample shapes that fire for a value set.
	Classify(samples []string) []models.PatternMatch

	// RecordCorrection validates and appends a confirmed mapping. The next
	// Suggest call sees it.
	RecordCorrection(ctx context.Context, req CorrectionRequest) (*models.Correction, error)

	// Stats summarises catalog, corrections and the scoring snapshot.
	Stats(ctx context.Context) (*MappingStats, error)

	// Catalog returns the catalog currently in use.
	Catalog() *catalog.Catalog

	// ReloadCatalog re-reads the catalog source. On failure the previous
	// catalog stays active.
	ReloadCatalog(ctx context.Context) error
}

// ColumnSuggestions is the ranked result for one source column.
type ColumnSuggestions struct {
	SourceColumn string                `json:"source_column"`
	Patterns     []models.PatternMatch `json:"patterns"`
	Suggestions  []models.Suggestion   `json:"suggestions"`
}

// CorrectionRequest reports a user's accepted or overridden mapping.
type CorrectionRequest struct {
	SourceColumn    string
	ConfirmedTable  string
	ConfirmedColumn string
	// Status defaults to in_model. Any other status is stored without
	// requiring a catalog target and never earns catalog bonuses.
	Status             models.MappingStatus
	PriorTopSuggestion *models.Suggestion
}

// MappingStats is a point-in-time summary.
type MappingStats struct {
	Status             string    `json:"status"`
	CatalogSource      string    `json:"catalog_source"`
	CatalogFields      int       `json:"catalog_fields"`
	CatalogTables      int       `json:"catalog_tables"`
	CorrectionsLearned int       `json:"corrections_learned"`
	InModelCorrections int       `json:"in_model_corrections"`
	Overrides          int       `json:"overrides"`
	OverrideRate       float64   `json:"override_rate"`
	PatternCount       int       `json:"pattern_count"`
	VocabularySize     int       `json:"vocabulary_size"`
	SnapshotBuiltAt    time.Time `json:"snapshot_built_at"`
}

type mappingSnapshot struct {
	catalog *catalog.Catalog
	engine  *automap.Engine
}

type autoMappingService struct {
	loader  catalog.Loader
	library *patterns.Library
	repo    repositories.CorrectionRepository
	weights automap.Weights
	logger  *zap.Logger

	current atomic.Pointer[mappingSnapshot]
	buildMu sync.Mutex
}

// NewAutoMappingService loads the catalog and correction history and builds
// the first scoring snapshot. A catalog that cannot be loaded is reported as
// ErrCatalogUnavailable and the service is not created.
func NewAutoMappingService(
	ctx context.Context,
	loader catalog.Loader,
	library *patterns.Library,
	repo repositories.CorrectionRepository,
	weights automap.Weights,
	logger *zap.Logger,
) (AutoMappingService, error) {
	if err := weights.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	s := &autoMappingService{
		loader:  loader,
		library: library,
		repo:    repo,
		weights: weights,
		logger:  logger.Named("auto-mapping-service"),
	}

	cat, err := catalog.Load(ctx, loader)
	if err != nil {
		return nil, err
	}
	if err := s.rebuild(ctx, cat); err != nil {
		return nil, fmt.Errorf("failed to build scoring snapshot: %w", err)
	}

	s.logger.Info("Auto-mapping ready",
		zap.String("catalog_source", loader.Source()),
		zap.Int("catalog_fields", cat.Len()),
		zap.Int("patterns", library.Len()),
		zap.Int("corrections", s.current.Load().engine.Corrections()))
	return s, nil
}

var _ AutoMappingService = (*autoMappingService)(nil)

func (s *autoMappingService) Catalog() *catalog.Catalog {
	return s.current.Load().catalog
}

func (s *autoMappingService) Suggest(ctx context.Context, columns []models.SourceColumnInput, topK int) ([]ColumnSuggestions, error) {
	cleaned := make([]models.SourceColumnInput, len(columns))
	for i, col := range columns {
		name := strings.TrimSpace(col.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: source column %d has an empty name", apperrors.ErrInvalidInput, i+1)
		}
		cleaned[i] = models.SourceColumnInput{Name: name, SampleValues: col.SampleValues}
	}

	snap := s.current.Load()
	out := make([]ColumnSuggestions, 0, len(cleaned))
	for _, col := range cleaned {
		freq, err := s.repo.FrequencyByKey(ctx, models.NormalizeSourceName(col.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to read correction history for %q: %w", col.Name, err)
		}
		out = append(out, ColumnSuggestions{
			SourceColumn: col.Name,
			Patterns:     snap.engine.Library().Classify(col.SampleValues),
			Suggestions:  snap.engine.Rank(col, freq, topK),
		})
	}

	s.logger.Debug("Ranked columns",
		zap.Int("columns", len(out)),
		zap.Int("top_k", topK),
		zap.Int("catalog_fields", snap.catalog.Len()))
	return out, nil
}

func (s *autoMappingService) SuggestSingle(ctx context.Context, column models.SourceColumnInput, topK int) ([]models.Suggestion, error) {
	res, err := s.Suggest(ctx, []models.SourceColumnInput{column}, topK)
	if err != nil {
		return nil, err
	}
	return res[0].Suggestions, nil
}

func (s *autoMappingService) Classify(samples []string) []models.PatternMatch {
	return s.library.Classify(samples)
}

func (s *autoMappingService) RecordCorrection(ctx context.Context, req CorrectionRequest) (*models.Correction, error) {
	source := strings.TrimSpace(req.SourceColumn)
	if source == "" {
		return nil, fmt.Errorf("%w: source_column is required", apperrors.ErrValidation)
	}

	status := req.Status
	if status == "" {
		status = models.MappingStatusInModel
	}
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown mapping status %q", apperrors.ErrValidation, status)
	}

	table := strings.TrimSpace(req.ConfirmedTable)
	column := strings.TrimSpace(req.ConfirmedColumn)
	if status.IsCatalogMapping() {
		if table == "" || column == "" {
			return nil, fmt.Errorf("%w: confirmed table and column are required unless the mapping is marked custom_field, under_review or skipped", apperrors.ErrValidation)
		}
		field, ok := s.Catalog().Lookup(table, column)
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s is not a PI20 field", apperrors.ErrValidation, table, column)
		}
		table, column = field.TableName, field.ColumnName
	}

	c := &models.Correction{
		ID:                   uuid.New(),
		SourceColumn:         source,
		NormalizedSourceName: models.NormalizeSourceName(source),
		TargetTable:          table,
		TargetColumn:         column,
		Status:               status,
		Timestamp:            time.Now().UTC(),
	}
	if p := req.PriorTopSuggestion; p != nil {
		confirmed := c.Target().Folded()
		c.WasOverride = !status.IsCatalogMapping() || p.Target().Folded() != confirmed
	}

	if err := s.repo.Append(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to record correction: %w", err)
	}

	s.logger.Info("Recorded mapping correction",
		zap.String("source_column", c.SourceColumn),
		zap.String("target", c.Target().String()),
		zap.String("status", string(c.Status)),
		zap.Bool("was_override", c.WasOverride))

	if err := s.rebuild(ctx, nil); err != nil {
		s.logger.Warn("Keeping previous scoring snapshot after rebuild failure", zap.Error(err))
	}
	return c, nil
}

func (s *autoMappingService) ReloadCatalog(ctx context.Context) error {
	cat, err := catalog.Load(ctx, s.loader)
	if err != nil {
		s.logger.Error("Catalog reload failed, keeping previous catalog",
			zap.String("catalog_source", s.loader.Source()),
			zap.Error(err))
		return err
	}
	if err := s.rebuild(ctx, cat); err != nil {
		return fmt.Errorf("failed to rebuild scoring snapshot: %w", err)
	}
	s.logger.Info("Catalog reloaded", zap.Int("catalog_fields", cat.Len()))
	return nil
}

func (s *autoMappingService) Stats(ctx context.Context) (*MappingStats, error) {
	snap := s.current.Load()
	corrections, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections: %w", err)
	}

	stats := &MappingStats{
		Status:             "ready",
		CatalogSource:      s.loader.Source(),
		CatalogFields:      snap.catalog.Len(),
		CatalogTables:      len(snap.catalog.Tables()),
		CorrectionsLearned: len(corrections),
		PatternCount:       s.library.Len(),
		VocabularySize:     snap.engine.VocabularySize(),
		SnapshotBuiltAt:    snap.engine.BuiltAt(),
	}
	for i := range corrections {
		if corrections[i].CountsTowardCatalog() {
			stats.InModelCorrections++
		}
		if corrections[i].WasOverride {
			stats.Overrides++
		}
	}
	if stats.CorrectionsLearned > 0 {
		stats.OverrideRate = float64(stats.Overrides) / float64(stats.CorrectionsLearned)
	}
	return stats, nil
}

// rebuild swaps in a fresh snapshot. A nil catalog keeps the current one.
// Readers keep using the previous snapshot until the swap.
func (s *autoMappingService) rebuild(ctx context.Context, cat *catalog.Catalog) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	if cat == nil {
		cat = s.current.Load().catalog
	}
	corrections, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list corrections: %w", err)
	}

	s.current.Store(&mappingSnapshot{
		catalog: cat,
		engine:  automap.NewEngine(cat.Fields(), s.library, corrections, s.weights),
	})
	return nil
}
