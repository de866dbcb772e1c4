package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/ingest"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
)

// CSV headers of the PI20 data model export. Matching ignores case.
const (
	colTableName   = "table_name"
	colColumnName  = "column_name"
	colColumnType  = "column_type"
	colComment     = "column_comment"
	colIsMandatory = "is_mandatory"
	colAliases     = "aliases"
)

// CSVLoader reads a PI20 data model export.
type CSVLoader struct {
	Path string
}

func (l *CSVLoader) Source() string { return "csv:" + l.Path }

func (l *CSVLoader) Load(_ context.Context) ([]models.TargetField, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV decodes a data model export. TABLE_NAME and COLUMN_NAME are
// required columns; the rest are optional. Aliases are separated by ';' or
// '|'. The delimiter and text encoding are detected.
func ParseCSV(r io.Reader) ([]models.TargetField, error) {
	data, err := ingest.ReadAllUTF8(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = ingest.SniffDelimiter(strings.SplitN(string(data), "\n", 2)[0])
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{colTableName, colColumnName} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing %s column", strings.ToUpper(required))
		}
	}

	cell := func(rec []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var fields []models.TargetField
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		table, column := cell(rec, colTableName), cell(rec, colColumnName)
		if table == "" && column == "" {
			continue
		}
		fields = append(fields, models.TargetField{
			TableName:   table,
			ColumnName:  column,
			DataType:    cell(rec, colColumnType),
			Description: cell(rec, colComment),
			IsRequired:  parseFlag(cell(rec, colIsMandatory)),
			Aliases:     splitAliases(cell(rec, colAliases)),
		})
	}
	return fields, nil
}

func parseFlag(v string) bool {
	switch strings.ToLower(v) {
	case "y", "yes", "true", "1", "t":
		return true
	}
	return false
}

func splitAliases(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, a := range strings.FieldsFunc(v, func(r rune) bool { return r == ';' || r == '|' }) {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
