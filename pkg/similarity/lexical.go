package similarity

import (
	"strings"

	lev "github.com/texttheater/golang-levenshtein/levenshtein"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
)

// LexicalMatch is the best lexical comparison of a source name against a
// field's column name and aliases.
type LexicalMatch struct {
	Score float64
	// Overlap lists the shared tokens of the best-scoring candidate name,
	// in source order.
	Overlap []string
	// MatchedName is the column name or alias that produced Score.
	MatchedName string
}

// LexicalScore compares source against the field's column name and each
// alias and keeps the best result.
func LexicalScore(source string, field models.TargetField) LexicalMatch {
	return lexicalScoreTokens(source, Tokenize(source), field)
}

func lexicalScoreTokens(source string, sourceTokens []string, field models.TargetField) LexicalMatch {
	best := compareNames(source, sourceTokens, field.ColumnName)
	for _, alias := range field.Aliases {
		m := compareNames(source, sourceTokens, alias)
		if m.Score > best.Score {
			best = m
		}
	}
	return best
}

// compareNames blends token-set Jaccard with a Levenshtein ratio over the
// normalised strings. Identical normalised forms score exactly 1.
func compareNames(source string, sourceTokens []string, candidate string) LexicalMatch {
	m := LexicalMatch{MatchedName: candidate}
	if strings.TrimSpace(source) != "" && models.NormalizeSourceName(source) == models.NormalizeSourceName(candidate) {
		m.Score = 1.0
		m.Overlap = tokenSet(sourceTokens)
		return m
	}

	candTokens := Tokenize(candidate)
	if len(sourceTokens) == 0 || len(candTokens) == 0 {
		return m
	}

	src := tokenSet(sourceTokens)
	cand := make(map[string]struct{}, len(candTokens))
	for _, t := range candTokens {
		cand[t] = struct{}{}
	}
	for _, t := range src {
		if _, ok := cand[t]; ok {
			m.Overlap = append(m.Overlap, t)
		}
	}

	srcJoined := strings.Join(sourceTokens, "")
	candJoined := strings.Join(candTokens, "")
	if srcJoined == candJoined {
		m.Score = 1.0
		return m
	}

	union := len(src) + len(cand) - len(m.Overlap)
	jaccard := float64(len(m.Overlap)) / float64(union)
	ratio := lev.RatioForStrings([]rune(srcJoined), []rune(candJoined), lev.DefaultOptions)

	m.Score = clamp01(0.5*jaccard + 0.5*ratio)
	return m
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

// Query is a tokenised source name reused across every catalog field.
type Query struct {
	Name   string
	Tokens []string
}

// NewQuery tokenises name once.
func NewQuery(name string) Query {
	return Query{Name: name, Tokens: Tokenize(name)}
}

// Lexical scores the query against one field.
func (q Query) Lexical(field models.TargetField) LexicalMatch {
	return lexicalScoreTokens(q.Name, q.Tokens, field)
}
