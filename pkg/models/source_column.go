package models

import "strings"

// SourceColumnInput is one column of an uploaded or hand-entered source
// schema. It lives only for the duration of a suggestion call.
type SourceColumnInput struct {
	Name         string   `json:"column_name"`
	SampleValues []string `json:"sample_values,omitempty"`
}

// PatternMatch records how many of a column's samples fit a named shape.
type PatternMatch struct {
	PatternName   string  `json:"pattern_name"`
	MatchFraction float64 `json:"match_fraction"`
}

// NormalizeSourceName produces the correction-store key for a source column:
// lower-cased, trimmed, internal whitespace collapsed to single spaces.
func NormalizeSourceName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
