package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
)

const sqliteCorrectionSchema = `
CREATE TABLE IF NOT EXISTS mapping_corrections (
    seq                    INTEGER PRIMARY KEY AUTOINCREMENT,
    id                     TEXT    NOT NULL UNIQUE,
    source_column          TEXT    NOT NULL,
    normalized_source_name TEXT    NOT NULL,
    target_table           TEXT    NOT NULL DEFAULT '',
    target_column          TEXT    NOT NULL DEFAULT '',
    status                 TEXT    NOT NULL,
    was_override           INTEGER NOT NULL DEFAULT 0,
    created_at             TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_mapping_corrections_key
    ON mapping_corrections (normalized_source_name, status);
`

type sqliteCorrectionRepository struct {
	db *sql.DB
}

// NewSQLiteCorrectionRepository stores corrections in an embedded database,
// creating the table on first use.
func NewSQLiteCorrectionRepository(ctx context.Context, db *sql.DB) (CorrectionRepository, error) {
	if _, err := db.ExecContext(ctx, sqliteCorrectionSchema); err != nil {
		return nil, fmt.Errorf("failed to create correction schema: %w", err)
	}
	return &sqliteCorrectionRepository{db: db}, nil
}

var _ CorrectionRepository = (*sqliteCorrectionRepository)(nil)

func (r *sqliteCorrectionRepository) Append(ctx context.Context, c *models.Correction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mapping_corrections (
			id, source_column, normalized_source_name, target_table, target_column,
			status, was_override, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`,
		c.ID.String(), c.SourceColumn, c.NormalizedSourceName, c.TargetTable, c.TargetColumn,
		string(c.Status), c.WasOverride, c.Timestamp.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to append correction: %w", err)
	}
	return nil
}

func (r *sqliteCorrectionRepository) FrequencyByKey(ctx context.Context, key string) (map[models.FieldRef]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT target_table, target_column, COUNT(*)
		FROM mapping_corrections
		WHERE normalized_source_name = ? AND status = ?
		GROUP BY target_table, target_column`,
		key, string(models.MappingStatusInModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count corrections: %w", err)
	}
	defer rows.Close()

	freq := make(map[models.FieldRef]int)
	for rows.Next() {
		var (
			ref models.FieldRef
			n   int
		)
		if err := rows.Scan(&ref.Table, &ref.Column, &n); err != nil {
			return nil, fmt.Errorf("failed to scan correction count: %w", err)
		}
		freq[ref] = n
	}
	return freq, rows.Err()
}

func (r *sqliteCorrectionRepository) List(ctx context.Context) ([]models.Correction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_column, normalized_source_name, target_table, target_column,
		       status, was_override, created_at
		FROM mapping_corrections
		ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections: %w", err)
	}
	defer rows.Close()

	var out []models.Correction
	for rows.Next() {
		var (
			c              models.Correction
			id, status, ts string
		)
		if err := rows.Scan(&id, &c.SourceColumn, &c.NormalizedSourceName, &c.TargetTable, &c.TargetColumn,
			&status, &c.WasOverride, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		if c.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("correction id %q: %w", id, err)
		}
		if c.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("correction %s timestamp: %w", id, err)
		}
		c.Status = models.MappingStatus(status)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *sqliteCorrectionRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mapping_corrections`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count corrections: %w", err)
	}
	return n, nil
}
