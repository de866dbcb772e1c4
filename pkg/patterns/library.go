// Package patterns classifies sample values into named shapes such as NPI,
// date or currency, and knows which catalog field names each shape
// corroborates.
package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
	"github.com/dee-ah-nuh/crosswalk-ai/pkg/similarity"
)

const (
	// DefaultThreshold is the match fraction a pattern must exceed to fire.
	DefaultThreshold = 0.6
	// DefaultMaxSamples caps how many non-blank samples are inspected.
	DefaultMaxSamples = 10
)

// Matcher reports whether a single trimmed, non-empty value has the shape.
type Matcher func(value string) bool

// Pattern is a named detector plus the field-name keywords it corroborates.
type Pattern struct {
	Name     string
	Keywords []string
	match    Matcher
	keyParts []string
	// supersedes names broader shapes that are dropped from Classify when
	// this pattern fires at least as strongly.
	supersedes []string
}

// Library is a set of patterns. Registration happens during startup; after
// that the library is only read and is safe for concurrent Classify calls.
type Library struct {
	threshold  float64
	maxSamples int
	patterns   []*Pattern
}

// NewLibrary returns an empty library. Non-positive arguments fall back to
// the defaults.
func NewLibrary(threshold float64, maxSamples int) *Library {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &Library{threshold: threshold, maxSamples: maxSamples}
}

// Register compiles expressions into a pattern that matches when any of them
// matches. A bad expression or duplicate name is a configuration error.
func (l *Library) Register(name string, expressions []string, keywords []string) error {
	if len(expressions) == 0 {
		return fmt.Errorf("pattern %q: no expressions", name)
	}
	compiled := make([]*regexp.Regexp, 0, len(expressions))
	for _, expr := range expressions {
		re, err := regexp.Compile(expr)
		if err != nil {
			return fmt.Errorf("pattern %q: compile %q: %w", name, expr, err)
		}
		compiled = append(compiled, re)
	}
	return l.RegisterFunc(name, anyOf(compiled), keywords)
}

// RegisterFunc adds a rule-based pattern.
func (l *Library) RegisterFunc(name string, m Matcher, keywords []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("pattern name is required")
	}
	if m == nil {
		return fmt.Errorf("pattern %q: nil matcher", name)
	}
	if l.Lookup(name) != nil {
		return fmt.Errorf("pattern %q already registered", name)
	}

	p := &Pattern{Name: name, Keywords: keywords, match: m}
	for _, kw := range keywords {
		if key := boundaryKey(kw); key != "" {
			p.keyParts = append(p.keyParts, key)
		}
	}

	l.patterns = append(l.patterns, p)
	sort.Slice(l.patterns, func(i, j int) bool { return l.patterns[i].Name < l.patterns[j].Name })
	return nil
}

// Supersede marks generic as broader shapes of specific: when specific fires,
// Classify drops each generic match whose fraction is not higher.
func (l *Library) Supersede(specific string, generic ...string) error {
	p := l.Lookup(specific)
	if p == nil {
		return fmt.Errorf("pattern %q is not registered", specific)
	}
	for _, g := range generic {
		if g == specific {
			return fmt.Errorf("pattern %q cannot supersede itself", g)
		}
		if l.Lookup(g) == nil {
			return fmt.Errorf("pattern %q is not registered", g)
		}
		p.supersedes = append(p.supersedes, g)
	}
	return nil
}

// Lookup returns the named pattern or nil.
func (l *Library) Lookup(name string) *Pattern {
	for _, p := range l.patterns {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// Names lists registered pattern names in order.
func (l *Library) Names() []string {
	names := make([]string, len(l.patterns))
	for i, p := range l.patterns {
		names[i] = p.Name
	}
	return names
}

// Len is the number of registered patterns.
func (l *Library) Len() int { return len(l.patterns) }

// Threshold is the fraction a pattern must exceed to fire.
func (l *Library) Threshold() float64 { return l.threshold }

// Classify returns every pattern whose match fraction over the inspected
// samples exceeds the threshold, ordered by pattern name. Blank samples are
// skipped and only the first maxSamples non-blank ones count. A pattern is
// left out when a more specific one that supersedes it fired with an equal or
// higher fraction.
func (l *Library) Classify(samples []string) []models.PatternMatch {
	values := l.inspected(samples)
	if len(values) == 0 {
		return nil
	}

	var matches []models.PatternMatch
	for _, p := range l.patterns {
		hits := 0
		for _, v := range values {
			if p.match(v) {
				hits++
			}
		}
		fraction := float64(hits) / float64(len(values))
		if fraction > l.threshold {
			matches = append(matches, models.PatternMatch{PatternName: p.Name, MatchFraction: fraction})
		}
	}
	return l.dropSuperseded(matches)
}

func (l *Library) dropSuperseded(matches []models.PatternMatch) []models.PatternMatch {
	if len(matches) < 2 {
		return matches
	}
	fractions := make(map[string]float64, len(matches))
	for _, m := range matches {
		fractions[m.PatternName] = m.MatchFraction
	}

	kept := matches[:0]
	for _, m := range matches {
		if !l.superseded(m, fractions) {
			kept = append(kept, m)
		}
	}
	return kept
}

func (l *Library) superseded(m models.PatternMatch, fractions map[string]float64) bool {
	for _, p := range l.patterns {
		f, fired := fractions[p.Name]
		if !fired || f < m.MatchFraction {
			continue
		}
		for _, g := range p.supersedes {
			if g == m.PatternName {
				return true
			}
		}
	}
	return false
}

// Corroborates reports whether the named pattern supports mapping to field.
// A keyword matches when it appears on token boundaries of the field's
// column name or one of its aliases.
func (l *Library) Corroborates(patternName string, field models.TargetField) bool {
	p := l.Lookup(patternName)
	if p == nil || len(p.keyParts) == 0 {
		return false
	}
	names := append([]string{field.ColumnName}, field.Aliases...)
	for _, name := range names {
		key := boundaryKey(name)
		if key == "" {
			continue
		}
		for _, kw := range p.keyParts {
			if strings.Contains(key, kw) {
				return true
			}
		}
	}
	return false
}

func (l *Library) inspected(samples []string) []string {
	values := make([]string, 0, min(len(samples), l.maxSamples))
	for _, s := range samples {
		v := strings.TrimSpace(s)
		if v == "" {
			continue
		}
		values = append(values, v)
		if len(values) == l.maxSamples {
			break
		}
	}
	return values
}

// boundaryKey renders a name as "_tok1_tok2_" so substring checks only match
// whole tokens.
func boundaryKey(name string) string {
	toks := similarity.Tokenize(name)
	if len(toks) == 0 {
		return ""
	}
	return "_" + strings.Join(toks, "_") + "_"
}

func anyOf(res []*regexp.Regexp) Matcher {
	return func(v string) bool {
		for _, re := range res {
			if re.MatchString(v) {
				return true
			}
		}
		return false
	}
}
