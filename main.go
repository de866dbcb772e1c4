package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/app"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/apperrors"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/config"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/logging"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	configPath := os.Getenv("CROSSWALK_CONFIG")

	// Load configuration
	cfg, err := config.Load(configPath, Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("catalog_source", cfg.Catalog.Source),
		zap.String("corrections_backend", cfg.Corrections.Backend),
		zap.Bool("mcp", !cfg.MCP.Disabled))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		if errors.Is(err, apperrors.ErrCatalogUnavailable) {
			logger.Fatal("Refusing to start without a complete field catalog", zap.Error(err))
		}
		logger.Fatal("Failed to start", zap.String("error", logging.SanitizeError(err)))
	}
	defer a.Close()

	if err := a.ListenAndServe(ctx); err != nil {
		logger.Error("Server stopped", zap.Error(err))
	}
}
