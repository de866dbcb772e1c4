// Package automap ranks catalog fields for a source column.
//
// An Engine is an immutable scoring snapshot: catalog fields, the pattern
// library, the TF-IDF corpus built from descriptions and confirmed
// corrections, and the blend weights. Callers swap in a fresh Engine when the
// catalog or correction history changes; Rank never mutates anything.
package automap

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/patterns"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/similarity"
)

// Engine scores source columns against a fixed catalog.
type Engine struct {
	fields      []models.TargetField
	library     *patterns.Library
	corpus      *similarity.Corpus
	weights     Weights
	corrections int
	builtAt     time.Time
}

// NewEngine builds a snapshot. fields are used in the given order; ties in
// Rank are broken by (table, column) regardless.
func NewEngine(fields []models.TargetField, library *patterns.Library, corrections []models.Correction, weights Weights) *Engine {
	if library == nil {
		library = patterns.NewLibrary(0, 0)
	}
	return &Engine{
		fields:      fields,
		library:     library,
		corpus:      similarity.NewCorpus(fields, corrections),
		weights:     weights,
		corrections: len(corrections),
		builtAt:     time.Now(),
	}
}

// Fields returns the catalog the snapshot was built over.
func (e *Engine) Fields() []models.TargetField { return e.fields }

// Library returns the pattern library.
func (e *Engine) Library() *patterns.Library { return e.library }

// Weights returns the blend weights.
func (e *Engine) Weights() Weights { return e.weights }

// VocabularySize is the number of distinct terms in the semantic corpus.
func (e *Engine) VocabularySize() int { return e.corpus.VocabularySize() }

// Corrections is the number of correction records the corpus was built from.
func (e *Engine) Corrections() int { return e.corrections }

// BuiltAt is when the snapshot was created.
func (e *Engine) BuiltAt() time.Time { return e.builtAt }

// Breakdown is the per-component score of one candidate.
type Breakdown struct {
	Field       models.TargetField
	Lexical     similarity.LexicalMatch
	Semantic    float64
	Patterns    []models.PatternMatch
	Corrections int
	Confidence  float64
}

// Rank scores every catalog field for col and returns the best topK,
// confidence descending with ties ordered by table then column. freq holds
// prior in_model correction counts for col's normalised name; entries for
// fields not in the catalog are ignored. topK <= 0 is treated as 1.
func (e *Engine) Rank(col models.SourceColumnInput, freq map[models.FieldRef]int, topK int) []models.Suggestion {
	scored := e.Score(col, freq)
	if topK <= 0 {
		topK = 1
	}
	if len(scored) > topK {
		scored = scored[:topK]
	}

	out := make([]models.Suggestion, len(scored))
	for i, b := range scored {
		out[i] = models.Suggestion{
			SourceColumn: col.Name,
			TargetTable:  b.Field.TableName,
			TargetColumn: b.Field.ColumnName,
			DataType:     b.Field.DataType,
			Confidence:   b.Confidence,
			Reasoning:    b.Reasoning(),
		}
	}
	return out
}

// Score returns the sorted breakdown for every catalog field.
func (e *Engine) Score(col models.SourceColumnInput, freq map[models.FieldRef]int) []Breakdown {
	if len(e.fields) == 0 {
		return nil
	}

	folded := make(map[models.FieldRef]int, len(freq))
	for ref, n := range freq {
		folded[ref.Folded()] += n
	}

	query := similarity.NewQuery(col.Name)
	qvec := e.corpus.EmbedQuery(query)
	fired := e.library.Classify(col.SampleValues)

	scored := make([]Breakdown, len(e.fields))
	for i, f := range e.fields {
		b := Breakdown{
			Field:       f,
			Lexical:     query.Lexical(f),
			Semantic:    e.corpus.Similarity(qvec, f.Ref()),
			Corrections: folded[f.Ref().Folded()],
		}
		for _, m := range fired {
			if e.library.Corroborates(m.PatternName, f) {
				b.Patterns = append(b.Patterns, m)
			}
		}

		confidence := e.weights.Lexical*b.Lexical.Score + e.weights.Semantic*b.Semantic
		if len(b.Patterns) > 0 {
			confidence += e.weights.PatternBonus
		}
		confidence += e.weights.correctionBonus(b.Corrections)
		b.Confidence = clamp01(confidence)
		scored[i] = b
	}

	sort.SliceStable(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		return a.Field.Ref().Less(b.Field.Ref())
	})
	return scored
}

// Reasoning renders the contributing components, for example
// "lexical 0.57 (token overlap: first, name), semantic 0.50, pattern:npi 1.00, 3 prior corrections".
func (b Breakdown) Reasoning() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "lexical %.2f", b.Lexical.Score)
	if len(b.Lexical.Overlap) > 0 {
		fmt.Fprintf(&sb, " (token overlap: %s)", strings.Join(b.Lexical.Overlap, ", "))
	}
	fmt.Fprintf(&sb, ", semantic %.2f", b.Semantic)
	for _, m := range b.Patterns {
		fmt.Fprintf(&sb, ", pattern:%s %.2f", m.PatternName, m.MatchFraction)
	}
	switch {
	case b.Corrections == 1:
		sb.WriteString(", 1 prior correction")
	case b.Corrections > 1:
		fmt.Fprintf(&sb, ", %d prior corrections", b.Corrections)
	}
	return sb.String()
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
