package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v2"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/config"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/ingest"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/services"
)

func suggestFile(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("suggest takes exactly one FILE argument")
	}
	path := c.Args().First()

	return withService(c, func(ctx context.Context, cfg *config.Config, svc services.AutoMappingService) error {
		inputs, err := readSourceColumns(path, c.String("format"), cfg.Mapper.MaxSamples)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			return fmt.Errorf("%s contains no columns", path)
		}

		topK := cfg.Mapper.DefaultTopK
		if c.IsSet("top-k") {
			topK = c.Int("top-k")
		}

		var bar *progressbar.ProgressBar
		if !c.Bool("no-progress") {
			bar = progressbar.NewOptions(
				len(inputs),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionSetDescription("Mapping"),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(40),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionSetItsString("columns"),
				progressbar.OptionClearOnFinish(),
			)
		}

		results := make([]services.ColumnSuggestions, 0, len(inputs))
		for _, in := range inputs {
			res, err := svc.Suggest(ctx, []models.SourceColumnInput{in}, topK)
			if err != nil {
				return fmt.Errorf("failed to map %q: %w", in.Name, err)
			}
			results = append(results, res...)
			if bar != nil {
				_ = bar.Add(1)
			}
		}
		if bar != nil {
			_ = bar.Finish()
		}

		return render(c, results, func(t *table) {
			t.header("SOURCE", "RANK", "TARGET", "CONFIDENCE", "REASONING")
			for _, r := range results {
				if len(r.Suggestions) == 0 {
					t.row(r.SourceColumn, "-", "-", "-", "-")
				}
				for i, s := range r.Suggestions {
					t.row(r.SourceColumn, fmt.Sprint(i+1), s.TargetTable+"."+s.TargetColumn,
						fmt.Sprintf("%.2f", s.Confidence), s.Reasoning)
				}
			}
		})
	})
}

func readSourceColumns(path, format string, maxSamples int) ([]models.SourceColumnInput, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	switch format {
	case "delimited":
		sample, err := ingest.SampleDelimited(f, ingest.Options{MaxSamples: maxSamples})
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return sample.Inputs(), nil
	case "schema":
		data, err := ingest.ReadAllUTF8(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		return ingest.ParseSchemaList(string(data)), nil
	default:
		return nil, fmt.Errorf("unknown format %q (want delimited or schema)", format)
	}
}

func classifyValues(c *cli.Context) error {
	samples := c.Args().Slice()
	if len(samples) == 0 {
		return fmt.Errorf("classify needs at least one VALUE")
	}

	return withService(c, func(ctx context.Context, cfg *config.Config, svc services.AutoMappingService) error {
		matches := svc.Classify(samples)
		if matches == nil {
			matches = []models.PatternMatch{}
		}
		return render(c, matches, func(t *table) {
			t.header("PATTERN", "MATCHED")
			for _, m := range matches {
				t.row(m.PatternName, fmt.Sprintf("%.0f%%", m.MatchFraction*100))
			}
		})
	})
}

func searchCatalog(c *cli.Context) error {
	term := strings.Join(c.Args().Slice(), " ")
	if c.Int("limit") <= 0 {
		return fmt.Errorf("limit must be positive")
	}

	return withService(c, func(ctx context.Context, cfg *config.Config, svc services.AutoMappingService) error {
		fields := svc.Catalog().Search(term, c.Int("limit"))
		if fields == nil {
			fields = []models.TargetField{}
		}
		return render(c, fields, func(t *table) {
			t.header("TABLE", "COLUMN", "TYPE", "REQUIRED", "DESCRIPTION")
			for _, f := range fields {
				t.row(f.TableName, f.ColumnName, f.DataType, yesNo(f.IsRequired), f.Description)
			}
		})
	})
}

func listTables(c *cli.Context) error {
	return withService(c, func(ctx context.Context, cfg *config.Config, svc services.AutoMappingService) error {
		tables := svc.Catalog().Tables()
		return render(c, tables, func(t *table) {
			t.header("TABLE", "FIELDS", "REQUIRED")
			for _, s := range tables {
				t.row(s.Name, fmt.Sprint(s.FieldCount), fmt.Sprint(s.RequiredCount))
			}
		})
	})
}

func recordCorrection(c *cli.Context) error {
	status, err := models.ParseMappingStatus(c.String("status"))
	if err != nil {
		return err
	}

	return withService(c, func(ctx context.Context, cfg *config.Config, svc services.AutoMappingService) error {
		corr, err := svc.RecordCorrection(ctx, services.CorrectionRequest{
			SourceColumn:    c.String("source"),
			ConfirmedTable:  c.String("table"),
			ConfirmedColumn: c.String("column"),
			Status:          status,
		})
		if err != nil {
			return err
		}
		return render(c, corr, func(t *table) {
			t.header("ID", "SOURCE", "TARGET", "STATUS")
			t.row(corr.ID.String(), corr.SourceColumn, corr.TargetTable+"."+corr.TargetColumn, string(corr.Status))
		})
	})
}

func showStats(c *cli.Context) error {
	return withService(c, func(ctx context.Context, cfg *config.Config, svc services.AutoMappingService) error {
		stats, err := svc.Stats(ctx)
		if err != nil {
			return err
		}
		return render(c, stats, func(t *table) {
			t.header("METRIC", "VALUE")
			t.row("status", stats.Status)
			t.row("catalog source", stats.CatalogSource)
			t.row("catalog fields", fmt.Sprint(stats.CatalogFields))
			t.row("catalog tables", fmt.Sprint(stats.CatalogTables))
			t.row("corrections learned", fmt.Sprint(stats.CorrectionsLearned))
			t.row("in-model corrections", fmt.Sprint(stats.InModelCorrections))
			t.row("override rate", fmt.Sprintf("%.2f", stats.OverrideRate))
			t.row("patterns", fmt.Sprint(stats.PatternCount))
			t.row("vocabulary size", fmt.Sprint(stats.VocabularySize))
			t.row("snapshot built", stats.SnapshotBuiltAt.Format(time.RFC3339))
		})
	})
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
