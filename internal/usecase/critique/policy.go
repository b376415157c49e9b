package critique

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/genesis/internal/domain"
)

// Weights are the additive score adjustments. Penalties are positive magnitudes.
type Weights struct {
	ScopeReward      float64
	ScopePenalty     float64
	ShortPenalty     float64
	LongPenalty      float64
	LengthReward     float64
	TechnicalReward  float64
	TechnicalPenalty float64
	StructureReward  float64
	ContextReward    float64
	ContextPenalty   float64
	SimilarityBonus  float64
}

// Policy is the scoring policy. Every value is required.
type Policy struct {
	BaseScore                float64
	MinScore                 float64
	MaxScore                 float64
	CapabilityScore          float64
	MinLength                int // runes
	MaxLength                int // runes
	MinTechnicalTerms        int
	SignificantTokenLength   int
	ContextMatchRatio        float64
	HighConfidenceSimilarity float64
	Weights                  Weights
	TechnicalTerms           []string
	StructureMarkers         []string
	OutOfScopeMarkers        []string
}

// Validate checks ranges and required lists.
func (p Policy) Validate() error {
	var errs []error
	if !(p.MinScore >= 0 && p.MinScore < p.MaxScore && p.MaxScore <= 1) {
		errs = append(errs, fmt.Errorf("scores must satisfy 0 <= min(%v) < max(%v) <= 1", p.MinScore, p.MaxScore))
	}
	if p.BaseScore < p.MinScore || p.BaseScore > p.MaxScore {
		errs = append(errs, fmt.Errorf("base_score %v outside [min, max]", p.BaseScore))
	}
	if p.CapabilityScore < p.MinScore || p.CapabilityScore > p.MaxScore {
		errs = append(errs, fmt.Errorf("capability_score %v outside [min, max]", p.CapabilityScore))
	}
	if p.MinLength < 1 || p.MaxLength <= p.MinLength {
		errs = append(errs, fmt.Errorf("lengths must satisfy 1 <= min(%d) < max(%d)", p.MinLength, p.MaxLength))
	}
	if p.MinTechnicalTerms < 1 {
		errs = append(errs, errors.New("min_technical_terms must be >= 1"))
	}
	if p.SignificantTokenLength < 1 {
		errs = append(errs, errors.New("significant_token_length must be >= 1"))
	}
	if p.ContextMatchRatio <= 0 || p.ContextMatchRatio > 1 {
		errs = append(errs, fmt.Errorf("context_match_ratio must be in (0,1], got %v", p.ContextMatchRatio))
	}
	if p.HighConfidenceSimilarity <= 0 || p.HighConfidenceSimilarity > 1 {
		errs = append(errs, fmt.Errorf("high_confidence_similarity must be in (0,1], got %v", p.HighConfidenceSimilarity))
	}
	if err := p.Weights.validate(); err != nil {
		errs = append(errs, err)
	}
	if len(p.TechnicalTerms) == 0 {
		errs = append(errs, errors.New("technical_terms must not be empty"))
	}
	if len(p.StructureMarkers) == 0 {
		errs = append(errs, errors.New("structure_markers must not be empty"))
	}
	if len(p.OutOfScopeMarkers) == 0 {
		errs = append(errs, errors.New("out_of_scope_markers must not be empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("critique policy: %w: %w", domain.ErrConfiguration, err)
	}
	return nil
}

// validate requires every weight to be a positive magnitude.
func (w Weights) validate() error {
	var errs []error
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"scope_reward", w.ScopeReward},
		{"scope_penalty", w.ScopePenalty},
		{"short_penalty", w.ShortPenalty},
		{"long_penalty", w.LongPenalty},
		{"length_reward", w.LengthReward},
		{"technical_reward", w.TechnicalReward},
		{"technical_penalty", w.TechnicalPenalty},
		{"structure_reward", w.StructureReward},
		{"context_reward", w.ContextReward},
		{"context_penalty", w.ContextPenalty},
		{"similarity_bonus", w.SimilarityBonus},
	} {
		if f.value <= 0 {
			errs = append(errs, fmt.Errorf("weights.%s must be > 0, got %v", f.name, f.value))
		}
	}
	return errors.Join(errs...)
}
