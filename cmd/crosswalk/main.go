// Command crosswalk runs the mapping engine from the command line against the
// same configuration, catalog and correction store as the server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/app"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/config"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/logging"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/services"
)

var version = "dev"

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "crosswalk",
		Usage:   "Suggest PI20 data model mappings for source columns",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultPath,
				Usage:   "Path to configuration file",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   outputTable,
				Usage:   "Output format: table or json",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "suggest",
				Usage:     "Suggest targets for every column of a source file",
				ArgsUsage: "FILE",
				Action:    suggestFile,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Value: "delimited",
						Usage: "delimited (header row plus data) or schema (one column name per line)",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Suggestions per column (default from configuration)",
					},
					&cli.BoolFlag{
						Name:  "no-progress",
						Usage: "Do not draw a progress bar",
					},
				},
			},
			{
				Name:      "classify",
				Usage:     "Report which value patterns a set of samples fits",
				ArgsUsage: "VALUE...",
				Action:    classifyValues,
			},
			{
				Name:  "catalog",
				Usage: "Browse the PI20 field catalog",
				Subcommands: []*cli.Command{
					{
						Name:      "search",
						Usage:     "Search fields by table, column, description or alias",
						ArgsUsage: "[TERM]",
						Action:    searchCatalog,
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "limit", Value: 50, Usage: "Maximum fields to list"},
						},
					},
					{
						Name:   "tables",
						Usage:  "List catalog tables with field counts",
						Action: listTables,
					},
				},
			},
			{
				Name:   "record",
				Usage:  "Record a confirmed mapping",
				Action: recordCorrection,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "source", Required: true, Usage: "Source column name"},
					&cli.StringFlag{Name: "table", Usage: "Confirmed PI20 table"},
					&cli.StringFlag{Name: "column", Usage: "Confirmed PI20 column"},
					&cli.StringFlag{Name: "status", Usage: "in_model, custom_field, under_review or skipped (legacy Y/N/U/N/A accepted)"},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show catalog and learning statistics",
				Action: showStats,
			},
		},
	}
}

// withService loads configuration, wires the mapping service and runs fn.
// SIGINT and SIGTERM cancel the context passed to fn.
func withService(c *cli.Context, fn func(ctx context.Context, cfg *config.Config, svc services.AutoMappingService) error) error {
	cfg, err := config.Load(c.String("config"), version)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.String("output") != outputTable && c.String("output") != outputJSON {
		return fmt.Errorf("unknown output format %q", c.String("output"))
	}

	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, closeFn, err := app.BuildService(ctx, cfg, logger.Named("cli"))
	if err != nil {
		logger.Debug("Service construction failed", zap.Error(err))
		return fmt.Errorf("failed to start mapping service: %s", logging.SanitizeError(err))
	}
	defer closeFn()

	err = fn(ctx, cfg, svc)
	if errors.Is(err, context.Canceled) {
		return errors.New("interrupted")
	}
	return err
}
