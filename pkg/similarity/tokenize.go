// Package similarity scores source column names against catalog fields.
//
// Two independent signals are produced: a lexical score comparing names
// token-by-token and character-by-character, and a semantic score from a
// TF-IDF vector space built over field descriptions, aliases and the source
// names of confirmed corrections. Both are deterministic.
package similarity

import (
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stopwords carry no mapping signal in descriptions.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "by": {}, "for": {},
	"from": {}, "in": {}, "is": {}, "of": {}, "on": {}, "or": {}, "the": {},
	"this": {}, "to": {}, "with": {},
}

// Tokenize splits text into lower-case word tokens.
//
// Diacritics are folded, words are split on any non-alphanumeric rune and on
// camelCase and letter/digit boundaries, tokens longer than three characters
// are singularised, and stopwords and single letters are dropped. Digit runs
// are kept so numbered siblings such as address_line_1 and address_line_2
// stay distinct. "MemberIDs" and "member_id" both yield [member id].
func Tokenize(text string) []string {
	folded := foldDiacritics(text)

	var tokens []string
	for _, word := range strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		for _, part := range splitCamel(word) {
			tok := strings.ToLower(part)
			if rs := []rune(tok); len(rs) < 2 && !unicode.IsDigit(rs[0]) {
				continue
			}
			if _, stop := stopwords[tok]; stop {
				continue
			}
			if len(tok) > 3 && !unicode.IsDigit([]rune(tok)[0]) {
				tok = inflection.Singular(tok)
			}
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Normalize returns the canonical comparison form of a name: its tokens
// joined without separators.
func Normalize(text string) string {
	return strings.Join(Tokenize(text), "")
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// splitCamel breaks "patientFirstName" into [patient First Name],
// "NPIProvider" into [NPI Provider] and "address2" into [address 2].
func splitCamel(word string) []string {
	rs := []rune(word)
	if len(rs) == 0 {
		return nil
	}

	var parts []string
	start := 0
	for i := 1; i < len(rs); i++ {
		prev, cur := rs[i-1], rs[i]
		boundary := false
		switch {
		case unicode.IsLower(prev) && unicode.IsUpper(cur):
			boundary = true
		case unicode.IsUpper(prev) && unicode.IsUpper(cur) && i+1 < len(rs) && unicode.IsLower(rs[i+1]):
			boundary = true
		case unicode.IsDigit(prev) != unicode.IsDigit(cur):
			boundary = true
		}
		if boundary {
			parts = append(parts, string(rs[start:i]))
			start = i
		}
	}
	return append(parts, string(rs[start:]))
}

// tokenSet returns the distinct tokens of a slice in first-seen order.
func tokenSet(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
