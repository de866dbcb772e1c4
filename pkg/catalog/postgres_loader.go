package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
)

// Querier is the subset of pgxpool.Pool the loader needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresLoader reads the pi20_data_model table.
type PostgresLoader struct {
	DB Querier
}

func (l *PostgresLoader) Source() string { return "postgres:pi20_data_model" }

func (l *PostgresLoader) Load(ctx context.Context) ([]models.TargetField, error) {
	query := `
		SELECT table_name, column_name, column_type, column_comment, is_mandatory, aliases
		FROM pi20_data_model
		WHERE in_crosswalk
		ORDER BY table_name, column_name`

	rows, err := l.DB.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pi20_data_model: %w", err)
	}
	defer rows.Close()

	var fields []models.TargetField
	for rows.Next() {
		var (
			f       models.TargetField
			aliases string
		)
		if err := rows.Scan(&f.TableName, &f.ColumnName, &f.DataType, &f.Description, &f.IsRequired, &aliases); err != nil {
			return nil, fmt.Errorf("scan pi20_data_model: %w", err)
		}
		f.Aliases = splitAliases(strings.TrimSpace(aliases))
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pi20_data_model: %w", err)
	}
	return fields, nil
}
