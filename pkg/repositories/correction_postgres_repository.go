package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/database"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/retry"
)

type postgresCorrectionRepository struct {
	db       *database.DB
	retryCfg *retry.Config
	logger   *zap.Logger
}

// NewPostgresCorrectionRepository stores corrections in mapping_corrections.
// Transient failures are retried; Append is idempotent on the correction id.
func NewPostgresCorrectionRepository(db *database.DB, logger *zap.Logger) CorrectionRepository {
	return &postgresCorrectionRepository{
		db:       db,
		retryCfg: retry.DefaultConfig(),
		logger:   logger.Named("corrections.postgres"),
	}
}

var _ CorrectionRepository = (*postgresCorrectionRepository)(nil)

func (r *postgresCorrectionRepository) Append(ctx context.Context, c *models.Correction) error {
	query := `
		INSERT INTO mapping_corrections (
			id, source_column, normalized_source_name, target_table, target_column,
			status, was_override, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`

	attempt := 0
	err := retry.DoIfRetryable(ctx, r.retryCfg, func() error {
		attempt++
		_, err := r.db.Exec(ctx, query,
			c.ID, c.SourceColumn, c.NormalizedSourceName, c.TargetTable, c.TargetColumn,
			string(c.Status), c.WasOverride, c.Timestamp,
		)
		if err != nil && attempt > 1 {
			r.logger.Warn("Correction insert failed again", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to append correction: %w", err)
	}
	return nil
}

func (r *postgresCorrectionRepository) FrequencyByKey(ctx context.Context, key string) (map[models.FieldRef]int, error) {
	query := `
		SELECT target_table, target_column, COUNT(*)
		FROM mapping_corrections
		WHERE normalized_source_name = $1 AND status = 'in_model'
		GROUP BY target_table, target_column`

	freq := make(map[models.FieldRef]int)
	err := retry.DoIfRetryable(ctx, r.retryCfg, func() error {
		clear(freq)
		rows, err := r.db.Query(ctx, query, key)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var (
				ref models.FieldRef
				n   int
			)
			if err := rows.Scan(&ref.Table, &ref.Column, &n); err != nil {
				return err
			}
			freq[ref] = n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count corrections: %w", err)
	}
	return freq, nil
}

func (r *postgresCorrectionRepository) List(ctx context.Context) ([]models.Correction, error) {
	query := `
		SELECT id, source_column, normalized_source_name, target_table, target_column,
		       status, was_override, created_at
		FROM mapping_corrections
		ORDER BY seq`

	var out []models.Correction
	err := retry.DoIfRetryable(ctx, r.retryCfg, func() error {
		rows, err := r.db.Query(ctx, query)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, scanCorrection)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections: %w", err)
	}
	return out, nil
}

func (r *postgresCorrectionRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := retry.DoIfRetryable(ctx, r.retryCfg, func() error {
		return r.db.QueryRow(ctx, `SELECT COUNT(*) FROM mapping_corrections`).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count corrections: %w", err)
	}
	return n, nil
}

func scanCorrection(row pgx.CollectableRow) (models.Correction, error) {
	var (
		c      models.Correction
		status string
	)
	err := row.Scan(&c.ID, &c.SourceColumn, &c.NormalizedSourceName, &c.TargetTable, &c.TargetColumn,
		&status, &c.WasOverride, &c.Timestamp)
	c.Status = models.MappingStatus(status)
	return c, err
}
