package catalog

import (
	"context"
	"fmt"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/apperrors"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
)

// Loader reads the persisted schema definition.
type Loader interface {
	Load(ctx context.Context) ([]models.TargetField, error)
	// Source names where fields come from, for logs.
	Source() string
}

// Load runs loader and builds a catalog. Any loader error, or a load that
// yields no fields, is reported as ErrCatalogUnavailable: running against an
// empty or partial catalog would look like "no good matches" without anyone
// noticing the load failed.
func Load(ctx context.Context, loader Loader) (*Catalog, error) {
	fields, err := loader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %w", apperrors.ErrCatalogUnavailable, loader.Source(), err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s contains no fields", apperrors.ErrCatalogUnavailable, loader.Source())
	}
	return New(fields)
}

// StaticLoader serves a fixed field list.
type StaticLoader []models.TargetField

func (s StaticLoader) Load(context.Context) ([]models.TargetField, error) {
	return []models.TargetField(s), nil
}

func (s StaticLoader) Source() string { return "static" }
