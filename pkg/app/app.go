// Package app assembles the crosswalk service from configuration: catalog
// loader, correction store, pattern library, HTTP routes and the MCP endpoint.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/catalog"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/config"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/database"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/handlers"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/logging"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/mcp"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/mcp/tools"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/middleware"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/patterns"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/repositories"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/services"
)

const shutdownTimeout = 10 * time.Second

// App is a fully wired crosswalk server.
type App struct {
	Config  *config.Config
	Service services.AutoMappingService
	Handler http.Handler

	logger  *zap.Logger
	closers []func()
}

// New builds the mapping service and its HTTP surface. The caller must Close
// the returned App.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, logger: logger}

	svc, err := a.buildService(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Service = svc

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, svc, logger).RegisterRoutes(mux)
	handlers.NewConfigHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewAutoMappingHandler(svc, cfg.Mapper.DefaultTopK, cfg.Mapper.MaxSamples, logger).RegisterRoutes(mux)
	handlers.NewCatalogHandler(svc, logger).RegisterRoutes(mux)

	if !cfg.MCP.Disabled {
		mcpServer := mcp.NewServer("crosswalk", cfg.Version, logger)
		mcpServer.RegisterTools(&tools.MappingToolDeps{
			Service:     svc,
			DefaultTopK: cfg.Mapper.DefaultTopK,
			Version:     cfg.Version,
		})
		handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux)
	}

	a.Handler = middleware.RequestLogger(logger)(mux)
	return a, nil
}

// BuildService wires only the mapping service, for command-line use.
// The returned function releases database and cache connections.
func BuildService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.AutoMappingService, func(), error) {
	a := &App{Config: cfg, logger: logger}
	svc, err := a.buildService(ctx)
	if err != nil {
		a.Close()
		return nil, func() {}, err
	}
	return svc, a.Close, nil
}

func (a *App) buildService(ctx context.Context) (services.AutoMappingService, error) {
	cfg := a.Config

	var db *database.DB
	if cfg.UsesPostgres() {
		a.logger.Info("Connecting to PostgreSQL",
			zap.String("host", cfg.Database.Host),
			zap.Int("port", cfg.Database.Port),
			zap.String("database", cfg.Database.Database))

		if err := database.MigrateURL(cfg.Database.URL(), cfg.Database.MigrationsPath, a.logger); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %s", logging.SanitizeError(err))
		}

		var err error
		db, err = database.NewConnection(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %s", logging.SanitizeError(err))
		}
		a.closers = append(a.closers, db.Close)
	}

	library, err := BuildPatternLibrary(&cfg.Mapper)
	if err != nil {
		return nil, err
	}

	repo, err := a.buildCorrectionRepository(ctx, db)
	if err != nil {
		return nil, err
	}

	svc, err := services.NewAutoMappingService(ctx, catalogLoader(cfg, db), library, repo, cfg.Mapper.Weights, a.logger)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// BuildPatternLibrary returns the built-in patterns plus any configured ones.
func BuildPatternLibrary(cfg *config.MapperConfig) (*patterns.Library, error) {
	library := patterns.Default(cfg.PatternThreshold, cfg.MaxSamples)
	for _, p := range cfg.CustomPatterns {
		if err := library.Register(p.Name, p.Expressions, p.Keywords); err != nil {
			return nil, fmt.Errorf("failed to register pattern %q: %w", p.Name, err)
		}
	}
	return library, nil
}

func catalogLoader(cfg *config.Config, db *database.DB) catalog.Loader {
	switch cfg.Catalog.Source {
	case config.CatalogSourceCSV:
		return &catalog.CSVLoader{Path: cfg.Catalog.Path}
	case config.CatalogSourcePostgres:
		return &catalog.PostgresLoader{DB: db}
	default:
		return &catalog.YAMLLoader{Path: cfg.Catalog.Path}
	}
}

func (a *App) buildCorrectionRepository(ctx context.Context, db *database.DB) (repositories.CorrectionRepository, error) {
	cfg := a.Config
	switch cfg.Corrections.Backend {
	case config.BackendPostgres:
		return repositories.NewPostgresCorrectionRepository(db, a.logger), nil

	case config.BackendSQLite:
		sqlDB, err := database.OpenSQLite(ctx, cfg.Corrections.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = sqlDB.Close() })
		return repositories.NewSQLiteCorrectionRepository(ctx, sqlDB)

	case config.BackendRedis:
		client, err := database.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		return repositories.NewRedisCorrectionRepository(client, cfg.Corrections.RedisKeyPrefix), nil

	default:
		a.logger.Warn("Corrections are kept in memory and will be lost on restart")
		return repositories.NewMemoryCorrectionRepository(), nil
	}
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests.
func (a *App) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.ListenAddr(),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting crosswalk",
			zap.String("addr", srv.Addr),
			zap.String("version", a.Config.Version),
			zap.Bool("mcp", !a.Config.MCP.Disabled))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return nil
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
