package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/config"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/logging"
)

// Pool settings used when the database section leaves a limit at zero.
const (
	DefaultMaxConnections  int32 = 10
	DefaultMaxConnLifetime       = time.Hour
	DefaultMaxConnIdleTime       = 30 * time.Minute
)

// DB is the pool shared by the postgres catalog loader and the postgres
// correction store.
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens the pool described by cfg and pings it.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig) (*DB, error) {
	return Connect(ctx, cfg.URL(), cfg)
}

// Connect opens a pool at url, taking pool limits from cfg. Errors carry the
// sanitized URL only.
func Connect(ctx context.Context, url string, cfg *config.DatabaseConfig) (*DB, error) {
	poolConfig, err := poolConfig(url, cfg)
	if err != nil {
		return nil, err
	}

	safeURL := logging.SanitizeConnectionString(url)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool for %s: %w", safeURL, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database at %s: %w", safeURL, err)
	}

	return &DB{Pool: pool}, nil
}

func poolConfig(url string, cfg *config.DatabaseConfig) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(url)
	if err != nil {
		// pgconn errors may echo the DSN, so the cause is flattened after
		// sanitizing rather than wrapped.
		return nil, fmt.Errorf("failed to parse database URL %s: %s",
			logging.SanitizeConnectionString(url), logging.SanitizeError(err))
	}

	pc.MaxConns = DefaultMaxConnections
	pc.MaxConnLifetime = DefaultMaxConnLifetime
	pc.MaxConnIdleTime = DefaultMaxConnIdleTime
	if cfg == nil {
		return pc, nil
	}
	if cfg.MaxConnections > 0 {
		pc.MaxConns = cfg.MaxConnections
	}
	if cfg.MaxConnLifetime > 0 {
		pc.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	return pc, nil
}
