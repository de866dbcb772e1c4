package repositories

import (
	"context"
	"fmt"
	"sync"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
)

// CorrectionRepository is the append-only store of human-confirmed mappings.
// Implementations must never lose or corrupt a record under concurrent
// Append calls. Reads may lag an in-flight Append.
type CorrectionRepository interface {
	// Append stores one correction. Records are never updated or deleted.
	Append(ctx context.Context, c *models.Correction) error

	// FrequencyByKey counts in_model corrections per confirmed target for a
	// normalized source name. Other statuses are not counted.
	FrequencyByKey(ctx context.Context, normalizedSourceName string) (map[models.FieldRef]int, error)

	// List returns every correction in append order.
	List(ctx context.Context) ([]models.Correction, error)

	// Count returns the number of stored corrections.
	Count(ctx context.Context) (int, error)
}

type memoryCorrectionRepository struct {
	mu   sync.RWMutex
	log  []models.Correction
	freq map[string]map[models.FieldRef]int
}

// NewMemoryCorrectionRepository keeps corrections in process memory. It is the
// default backend for local runs and tests; contents are lost on restart.
func NewMemoryCorrectionRepository() CorrectionRepository {
	return &memoryCorrectionRepository{freq: make(map[string]map[models.FieldRef]int)}
}

var _ CorrectionRepository = (*memoryCorrectionRepository)(nil)

func (r *memoryCorrectionRepository) Append(_ context.Context, c *models.Correction) error {
	if c == nil {
		return fmt.Errorf("nil correction")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log = append(r.log, *c)
	if c.CountsTowardCatalog() {
		byTarget, ok := r.freq[c.NormalizedSourceName]
		if !ok {
			byTarget = make(map[models.FieldRef]int)
			r.freq[c.NormalizedSourceName] = byTarget
		}
		byTarget[c.Target()]++
	}
	return nil
}

func (r *memoryCorrectionRepository) FrequencyByKey(_ context.Context, key string) (map[models.FieldRef]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[models.FieldRef]int, len(r.freq[key]))
	for ref, n := range r.freq[key] {
		out[ref] = n
	}
	return out, nil
}

func (r *memoryCorrectionRepository) List(_ context.Context) ([]models.Correction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Correction, len(r.log))
	copy(out, r.log)
	return out, nil
}

func (r *memoryCorrectionRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.log), nil
}
