package similarity

import (
	"math"
	"sort"
	"strings"

	"github.com/dee-ah-nuh/crosswalk-ai/pkg/models"
)

// Vector is a sparse L2-normalised TF-IDF vector ordered by term index.
// Keeping a fixed order makes dot products bit-for-bit reproducible.
type Vector []Term

// Term is one non-zero component of a Vector.
type Term struct {
	Index  int
	Weight float64
}

// Corpus is an immutable TF-IDF space with one document per catalog field.
//
// A field's document is its description, its aliases and the source names of
// every in_model correction confirmed against it. Fields with an empty
// document have a zero vector and always score 0.
type Corpus struct {
	vocab map[string]int
	idf   []float64
	docs  map[models.FieldRef]Vector
	size  int
}

// NewCorpus builds the vector space. Corrections whose status is not in_model
// are ignored.
func NewCorpus(fields []models.TargetField, corrections []models.Correction) *Corpus {
	history := make(map[models.FieldRef][]string)
	for i := range corrections {
		c := &corrections[i]
		if !c.CountsTowardCatalog() {
			continue
		}
		key := c.Target().Folded()
		history[key] = append(history[key], c.SourceColumn)
	}

	docTokens := make(map[models.FieldRef][]string, len(fields))
	df := make(map[string]int)
	for _, f := range fields {
		var sb strings.Builder
		sb.WriteString(f.Description)
		for _, a := range f.Aliases {
			sb.WriteByte(' ')
			sb.WriteString(a)
		}
		for _, src := range history[f.Ref().Folded()] {
			sb.WriteByte(' ')
			sb.WriteString(src)
		}
		toks := Tokenize(sb.String())
		docTokens[f.Ref()] = toks
		for _, t := range tokenSet(toks) {
			df[t]++
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	c := &Corpus{
		vocab: make(map[string]int, len(terms)),
		idf:   make([]float64, len(terms)),
		docs:  make(map[models.FieldRef]Vector, len(fields)),
	}
	for _, toks := range docTokens {
		if len(toks) > 0 {
			c.size++
		}
	}
	n := float64(c.size)
	for i, t := range terms {
		c.vocab[t] = i
		c.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	for ref, toks := range docTokens {
		c.docs[ref] = c.vectorize(toks)
	}
	return c
}

// VocabularySize is the number of distinct terms across all documents.
func (c *Corpus) VocabularySize() int { return len(c.idf) }

// Documents is the number of fields with a non-empty document.
func (c *Corpus) Documents() int { return c.size }

// Embed projects a source name into the space. Terms outside the vocabulary
// are discarded.
func (c *Corpus) Embed(source string) Vector {
	return c.vectorize(Tokenize(source))
}

// Similarity is the cosine between q and the field's document vector, or 0
// when either is empty.
func (c *Corpus) Similarity(q Vector, ref models.FieldRef) float64 {
	doc := c.docs[ref]
	if len(q) == 0 || len(doc) == 0 {
		return 0
	}
	return clamp01(dot(q, doc))
}

// SemanticScore embeds source and compares it to the field's document.
func (c *Corpus) SemanticScore(source string, ref models.FieldRef) float64 {
	return c.Similarity(c.Embed(source), ref)
}

func (c *Corpus) vectorize(tokens []string) Vector {
	counts := make(map[int]int)
	for _, t := range tokens {
		if idx, ok := c.vocab[t]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	v := make(Vector, 0, len(counts))
	for idx, n := range counts {
		v = append(v, Term{Index: idx, Weight: float64(n) * c.idf[idx]})
	}
	sort.Slice(v, func(i, j int) bool { return v[i].Index < v[j].Index })

	var sum float64
	for _, t := range v {
		sum += t.Weight * t.Weight
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i].Weight /= norm
	}
	return v
}

// dot merges two index-ordered sparse vectors.
func dot(a, b Vector) float64 {
	var s float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].Index == b[j].Index:
			s += a[i].Weight * b[j].Weight
			i++
			j++
		case a[i].Index < b[j].Index:
			i++
		default:
			j++
		}
	}
	return s
}

// EmbedQuery projects an already tokenised query.
func (c *Corpus) EmbedQuery(q Query) Vector {
	return c.vectorize(q.Tokens)
}
