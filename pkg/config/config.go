package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/automap"
)

// DefaultPath is read when no explicit config file is given.
const DefaultPath = "config.yaml"

// Catalog sources.
const (
	CatalogSourceYAML     = "yaml"
	CatalogSourceCSV      = "csv"
	CatalogSourcePostgres = "postgres"
)

// Correction store backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

var (
	catalogSources     = []string{CatalogSourceYAML, CatalogSourceCSV, CatalogSourcePostgres}
	correctionBackends = []string{BackendMemory, BackendPostgres, BackendSQLite, BackendRedis}
	logLevels          = []string{"debug", "info", "warn", "error"}
)

// Config holds all configuration for crosswalk.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	Version  string `yaml:"-"` // Set at load time, not from config

	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Corrections CorrectionsConfig `yaml:"corrections"`
	Mapper      MapperConfig      `yaml:"mapper"`
	MCP         MCPConfig         `yaml:"mcp"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host            string        `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port            int           `yaml:"port" env:"PGPORT" env-default:"5432"`
	User            string        `yaml:"user" env:"PGUSER" env-default:"crosswalk"`
	Password        string        `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database        string        `yaml:"database" env:"PGDATABASE" env-default:"crosswalk"`
	MaxConnections  int32         `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"PGMAX_CONN_LIFETIME" env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"PGMAX_CONN_IDLE_TIME" env-default:"30m"`
	SSLMode         string        `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath  string        `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// RedisConfig holds Redis connection configuration. An empty host disables Redis.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// CatalogConfig selects where PI20 field definitions are read from.
type CatalogConfig struct {
	Source string `yaml:"source" env:"CATALOG_SOURCE" env-default:"yaml"`
	// Path is used by the yaml and csv sources.
	Path string `yaml:"path" env:"CATALOG_PATH" env-default:"data/pi20_catalog.yaml"`
}

// CorrectionsConfig selects the correction store.
type CorrectionsConfig struct {
	Backend        string `yaml:"backend" env:"CORRECTIONS_BACKEND" env-default:"memory"`
	SQLitePath     string `yaml:"sqlite_path" env:"CORRECTIONS_SQLITE_PATH" env-default:"data/corrections.db"`
	RedisKeyPrefix string `yaml:"redis_key_prefix" env:"CORRECTIONS_REDIS_PREFIX" env-default:"crosswalk"`
}

// MapperConfig holds the scoring constants.
type MapperConfig struct {
	Weights          automap.Weights `yaml:"weights"`
	PatternThreshold float64         `yaml:"pattern_threshold" env:"MAPPER_PATTERN_THRESHOLD" env-default:"0.6"`
	MaxSamples       int             `yaml:"max_samples" env:"MAPPER_MAX_SAMPLES" env-default:"10"`
	DefaultTopK      int             `yaml:"default_top_k" env:"MAPPER_DEFAULT_TOP_K" env-default:"5"`
	CustomPatterns   []PatternConfig `yaml:"custom_patterns"`
}

// PatternConfig declares an extra sample-value pattern. A value matches when
// any expression matches it.
type PatternConfig struct {
	Name        string   `yaml:"name"`
	Expressions []string `yaml:"expressions"`
	Keywords    []string `yaml:"keywords"`
}

// MCPConfig controls the /mcp endpoint. The endpoint is served unless
// disabled; a true default would override an explicit false from YAML.
type MCPConfig struct {
	Disabled bool `yaml:"disabled" env:"MCP_DISABLED" env-default:"false"`
}

// Load reads configuration from path with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// When path does not exist, configuration comes from the environment alone.
func Load(path, version string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects unknown sources and backends, out-of-range weights and
// incomplete custom patterns.
func (c *Config) Validate() error {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("log_level must be one of %s, got %q", strings.Join(logLevels, ", "), c.LogLevel)
	}

	c.Catalog.Source = strings.ToLower(strings.TrimSpace(c.Catalog.Source))
	if !slices.Contains(catalogSources, c.Catalog.Source) {
		return fmt.Errorf("catalog.source must be one of %s, got %q", strings.Join(catalogSources, ", "), c.Catalog.Source)
	}
	if c.Catalog.Source != CatalogSourcePostgres && c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required for source %q", c.Catalog.Source)
	}

	c.Corrections.Backend = strings.ToLower(strings.TrimSpace(c.Corrections.Backend))
	if !slices.Contains(correctionBackends, c.Corrections.Backend) {
		return fmt.Errorf("corrections.backend must be one of %s, got %q", strings.Join(correctionBackends, ", "), c.Corrections.Backend)
	}
	if c.Corrections.Backend == BackendRedis && c.Redis.Host == "" {
		return fmt.Errorf("corrections.backend redis requires redis.host")
	}

	if c.Database.MaxConnections < 0 || c.Database.MaxConnLifetime < 0 || c.Database.MaxConnIdleTime < 0 {
		return fmt.Errorf("database pool limits must not be negative")
	}

	if err := c.Mapper.Weights.Validate(); err != nil {
		return fmt.Errorf("mapper.weights: %w", err)
	}
	if c.Mapper.PatternThreshold < 0 || c.Mapper.PatternThreshold >= 1 {
		return fmt.Errorf("mapper.pattern_threshold must be within [0,1), got %v", c.Mapper.PatternThreshold)
	}
	if c.Mapper.MaxSamples <= 0 {
		return fmt.Errorf("mapper.max_samples must be positive, got %d", c.Mapper.MaxSamples)
	}
	if c.Mapper.DefaultTopK <= 0 {
		return fmt.Errorf("mapper.default_top_k must be positive, got %d", c.Mapper.DefaultTopK)
	}
	for i, p := range c.Mapper.CustomPatterns {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("mapper.custom_patterns[%d]: name is required", i)
		}
		if len(p.Expressions) == 0 {
			return fmt.Errorf("mapper.custom_patterns[%d] (%s): at least one expression is required", i, p.Name)
		}
	}
	return nil
}

// UsesPostgres reports whether any component needs the PostgreSQL pool.
func (c *Config) UsesPostgres() bool {
	return c.Catalog.Source == CatalogSourcePostgres || c.Corrections.Backend == BackendPostgres
}

// ListenAddr is the HTTP listen address.
func (c *Config) ListenAddr() string {
	return c.BindAddr + ":" + c.Port
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		ResolveHostForDocker(c.Host), c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the connection string in URL form, as golang-migrate expects.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, ResolveHostForDocker(c.Host), c.Port, c.Database, c.SSLMode)
}

// Addr returns host:port for the Redis client.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", ResolveHostForDocker(c.Host), c.Port)
}
