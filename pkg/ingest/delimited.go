package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
)

const (
	// DefaultMaxSamples is how many non-null values are kept per column.
	DefaultMaxSamples = 10
	// DefaultMaxRows bounds how many data rows are scanned.
	DefaultMaxRows = 1000
)

// candidateDelimiters are tried in order; the first wins a tie.
var candidateDelimiters = []rune{',', '\t', '|', ';'}

// nullTokens are cell values treated as missing.
var nullTokens = map[string]struct{}{
	"":     {},
	"null": {},
	"nil":  {},
	"none": {},
	"na":   {},
	"n/a":  {},
	"nan":  {},
}

// Options controls sampling.
type Options struct {
	MaxSamples int
	MaxRows    int
}

// ColumnProfile describes one column of a sampled file.
type ColumnProfile struct {
	Name         string   `json:"column_name"`
	SampleValues []string `json:"sample_values"`
	InferredType string   `json:"inferred_type"`
	NullCount    int      `json:"null_count"`
}

// Input converts the profile for the mapping engine.
func (c ColumnProfile) Input() models.SourceColumnInput {
	return models.SourceColumnInput{Name: c.Name, SampleValues: c.SampleValues}
}

// Sample is the result of reading a delimited file.
type Sample struct {
	Delimiter   string          `json:"delimiter"`
	RowsScanned int             `json:"rows_scanned"`
	Columns     []ColumnProfile `json:"columns"`
}

// Inputs returns the columns as engine inputs in header order.
func (s *Sample) Inputs() []models.SourceColumnInput {
	out := make([]models.SourceColumnInput, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Input()
	}
	return out
}

// SampleDelimited reads a header row and up to MaxRows data rows. The
// delimiter is sniffed from the header line.
func SampleDelimited(r io.Reader, opts Options) (*Sample, error) {
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = DefaultMaxSamples
	}
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}

	data, err := ReadAllUTF8(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("file is empty")
	}

	delim := SniffDelimiter(firstLine(data))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	sample := &Sample{Delimiter: string(delim)}
	used := make(map[string]struct{}, len(header))
	for i, h := range header {
		base := strings.TrimSpace(h)
		if base == "" {
			base = fmt.Sprintf("column_%d", i+1)
		}
		// Suffix until unused: "a,a,a_2" must not yield two a_2 columns.
		name := base
		for n := 2; ; n++ {
			if _, taken := used[name]; !taken {
				break
			}
			name = fmt.Sprintf("%s_%d", base, n)
		}
		used[name] = struct{}{}
		sample.Columns = append(sample.Columns, ColumnProfile{Name: name})
	}

	values := make([][]string, len(sample.Columns))
	for sample.RowsScanned < opts.MaxRows {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", sample.RowsScanned+2, err)
		}
		sample.RowsScanned++

		for i := range sample.Columns {
			var cell string
			if i < len(rec) {
				cell = strings.TrimSpace(rec[i])
			}
			if isNull(cell) {
				sample.Columns[i].NullCount++
				continue
			}
			values[i] = append(values[i], cell)
		}
	}

	for i := range sample.Columns {
		sample.Columns[i].InferredType = InferType(values[i])
		sampled := values[i]
		if len(sampled) > opts.MaxSamples {
			sampled = sampled[:opts.MaxSamples]
		}
		sample.Columns[i].SampleValues = append([]string{}, sampled...)
	}
	return sample, nil
}

// SniffDelimiter picks the candidate that occurs most often outside quotes.
func SniffDelimiter(line string) rune {
	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		count := 0
		quoted := false
		for _, r := range line {
			switch {
			case r == '"':
				quoted = !quoted
			case r == d && !quoted:
				count++
			}
		}
		if count > bestCount {
			best, bestCount = d, count
		}
	}
	return best
}

// ParseSchemaList reads one column name per line, skipping blank lines.
func ParseSchemaList(text string) []models.SourceColumnInput {
	var out []models.SourceColumnInput
	for _, line := range strings.Split(text, "\n") {
		name := strings.TrimSpace(line)
		if name == "" {
			continue
		}
		out = append(out, models.SourceColumnInput{Name: name})
	}
	return out
}

func firstLine(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return strings.TrimRight(string(data[:i]), "\r")
	}
	return string(data)
}

func isNull(cell string) bool {
	_, ok := nullTokens[strings.ToLower(cell)]
	return ok
}
