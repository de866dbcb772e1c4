package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/catalog"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/services"
)

// writeTestConfig points the catalog at the repository's YAML catalog and the
// correction store at a fresh SQLite file.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	catalogPath, err := filepath.Abs(filepath.Join("..", "..", "data", "pi20_catalog.yaml"))
	require.NoError(t, err)

	content := fmt.Sprintf(`
env: test
log_level: error
catalog:
  source: yaml
  path: %q
corrections:
  backend: sqlite
  sqlite_path: %q
`, catalogPath, filepath.Join(dir, "corrections.db"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp()
	a.Writer = &out
	a.ErrWriter = &out
	err := a.Run(append([]string{"crosswalk"}, args...))
	return out.String(), err
}

func TestCatalogTables(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, "-c", cfg, "-o", "json", "catalog", "tables")
	require.NoError(t, err)

	var tables []catalog.TableSummary
	require.NoError(t, json.Unmarshal([]byte(out), &tables))
	require.NotEmpty(t, tables)

	var names []string
	for _, tbl := range tables {
		names = append(names, tbl.Name)
	}
	assert.Contains(t, names, "member")
}

func TestCatalogSearch_Table(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, "-c", cfg, "catalog", "search", "--limit", "5", "member")
	require.NoError(t, err)
	assert.Contains(t, out, "TABLE")
	assert.Contains(t, out, "member_id")
}

func TestClassify(t *testing.T) {
	cfg := writeTestConfig(t)

	out, err := run(t, "-c", cfg, "-o", "json", "classify", "1234567893", "1245319599")
	require.NoError(t, err)

	var matches []models.PatternMatch
	require.NoError(t, json.Unmarshal([]byte(out), &matches))
	var names []string
	for _, m := range matches {
		names = append(names, m.PatternName)
	}
	assert.Contains(t, names, "npi")
}

func TestClassify_NoValues(t *testing.T) {
	_, err := run(t, "-c", writeTestConfig(t), "classify")
	assert.Error(t, err)
}

func TestRecordThenStats(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := run(t, "-c", cfg, "record", "--source", "MBR_NUM", "--table", "member", "--column", "member_id")
	require.NoError(t, err)
	_, err = run(t, "-c", cfg, "record", "--source", "LOYALTY_TIER", "--status", "N")
	require.NoError(t, err)

	out, err := run(t, "-c", cfg, "-o", "json", "stats")
	require.NoError(t, err)

	var stats services.MappingStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, 2, stats.CorrectionsLearned)
	assert.Equal(t, 1, stats.InModelCorrections)
}

func TestRecord_UnknownTarget(t *testing.T) {
	cfg := writeTestConfig(t)

	_, err := run(t, "-c", cfg, "record", "--source", "X", "--table", "member", "--column", "shoe_size")
	assert.Error(t, err)
}

func TestSuggest_DelimitedFile(t *testing.T) {
	cfg := writeTestConfig(t)
	src := filepath.Join(t.TempDir(), "claims.csv")
	require.NoError(t, os.WriteFile(src, []byte("MBR_ID,RENDERING_NPI\nA100,1234567893\nA200,1245319599\n"), 0o644))

	out, err := run(t, "-c", cfg, "-o", "json", "suggest", "--no-progress", "--top-k", "2", src)
	require.NoError(t, err)

	var results []services.ColumnSuggestions
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.Equal(t, "MBR_ID", results[0].SourceColumn)
	assert.Len(t, results[0].Suggestions, 2)
	assert.Equal(t, "RENDERING_NPI", results[1].SourceColumn)
	assert.Contains(t, results[1].Suggestions[0].Reasoning, "pattern:npi")
}

func TestSuggest_SchemaList(t *testing.T) {
	cfg := writeTestConfig(t)
	src := filepath.Join(t.TempDir(), "columns.txt")
	require.NoError(t, os.WriteFile(src, []byte("MBR_ID\nSVC_DT\n"), 0o644))

	out, err := run(t, "-c", cfg, "suggest", "--no-progress", "--format", "schema", src)
	require.NoError(t, err)
	assert.Contains(t, out, "SOURCE")
	assert.Contains(t, out, "SVC_DT")
}

func TestSuggest_Errors(t *testing.T) {
	cfg := writeTestConfig(t)
	src := filepath.Join(t.TempDir(), "columns.txt")
	require.NoError(t, os.WriteFile(src, []byte("MBR_ID\n"), 0o644))

	_, err := run(t, "-c", cfg, "suggest")
	assert.Error(t, err, "missing file argument")

	_, err = run(t, "-c", cfg, "suggest", "--format", "parquet", src)
	assert.Error(t, err)

	_, err = run(t, "-c", cfg, "-o", "yaml", "suggest", src)
	assert.Error(t, err)
}

func TestRenderTo_Table(t *testing.T) {
	var out bytes.Buffer
	err := renderTo(&out, outputTable, nil, func(tb *table) {
		tb.header("A", "LONGER")
		tb.row("1", "2")
	})
	require.NoError(t, err)
	assert.Equal(t, "A  LONGER\n1  2\n", out.String())
}
