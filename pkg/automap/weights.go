package automap

import "fmt"

// Weights are the tunable constants of the confidence blend.
type Weights struct {
	Lexical        float64 `yaml:"lexical" env:"MAPPER_WEIGHT_LEXICAL" env-default:"0.6"`
	Semantic       float64 `yaml:"semantic" env:"MAPPER_WEIGHT_SEMANTIC" env-default:"0.4"`
	PatternBonus   float64 `yaml:"pattern_bonus" env:"MAPPER_PATTERN_BONUS" env-default:"0.2"`
	CorrectionStep float64 `yaml:"correction_step" env:"MAPPER_CORRECTION_STEP" env-default:"0.15"`
	CorrectionCap  float64 `yaml:"correction_cap" env:"MAPPER_CORRECTION_CAP" env-default:"1.0"`
}

// DefaultWeights returns the standard blend: 0.6 lexical, 0.4 semantic,
// a flat 0.2 pattern bonus and 0.15 per prior correction capped at 1.
func DefaultWeights() Weights {
	return Weights{
		Lexical:        0.6,
		Semantic:       0.4,
		PatternBonus:   0.2,
		CorrectionStep: 0.15,
		CorrectionCap:  1.0,
	}
}

// Validate rejects weights outside [0,1] and a blend with no base signal.
func (w Weights) Validate() error {
	for _, c := range []struct {
		name string
		v    float64
	}{
		{"lexical", w.Lexical},
		{"semantic", w.Semantic},
		{"pattern_bonus", w.PatternBonus},
		{"correction_step", w.CorrectionStep},
		{"correction_cap", w.CorrectionCap},
	} {
		if c.v < 0 || c.v > 1 {
			return fmt.Errorf("weight %s must be within [0,1], got %v", c.name, c.v)
		}
	}
	if w.Lexical+w.Semantic == 0 {
		return fmt.Errorf("lexical and semantic weights cannot both be zero")
	}
	if w.Lexical+w.Semantic > 1 {
		return fmt.Errorf("lexical + semantic weights must not exceed 1, got %v", w.Lexical+w.Semantic)
	}
	return nil
}

// correctionBonus is min(cap, step * n).
func (w Weights) correctionBonus(n int) float64 {
	if n <= 0 {
		return 0
	}
	return min(w.CorrectionCap, w.CorrectionStep*float64(n))
}
