package retrieval

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/genesis/internal/domain"
)

// Tiers are the inclusive lower bounds of each relevance level.
type Tiers struct {
	Low    float64
	Medium float64
	High   float64
}

// Policy holds the relevance thresholds. Every value is required.
type Policy struct {
	TopK                int
	SimilarityFloor     float64 // results with similarity <= floor are dropped
	RelevanceThreshold  float64 // is_relevant = max_similarity > threshold
	AcceptanceThreshold float64 // secondary bar for in-domain keyword queries
	Tiers               Tiers
}

// Validate checks that the thresholds are present and ordered:
// 0 < floor < acceptance < relevance <= 1 and 0 < low <= medium <= high <= 1.
func (p Policy) Validate() error {
	var errs []error
	if p.TopK < 1 {
		errs = append(errs, fmt.Errorf("top_k must be >= 1, got %d", p.TopK))
	}
	if !(p.SimilarityFloor > 0 &&
		p.SimilarityFloor < p.AcceptanceThreshold &&
		p.AcceptanceThreshold < p.RelevanceThreshold &&
		p.RelevanceThreshold <= 1) {
		errs = append(errs, fmt.Errorf(
			"thresholds must satisfy 0 < floor(%v) < acceptance(%v) < relevance(%v) <= 1",
			p.SimilarityFloor, p.AcceptanceThreshold, p.RelevanceThreshold))
	}
	t := p.Tiers
	if !(t.Low > 0 && t.Low <= t.Medium && t.Medium <= t.High && t.High <= 1) {
		errs = append(errs, fmt.Errorf(
			"tiers must satisfy 0 < low(%v) <= medium(%v) <= high(%v) <= 1", t.Low, t.Medium, t.High))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("retrieval policy: %w: %w", domain.ErrConfiguration, err)
	}
	return nil
}

// Level buckets a similarity into a relevance tier.
func (p Policy) Level(similarity float64) domain.RelevanceLevel {
	switch {
	case similarity >= p.Tiers.High:
		return domain.RelevanceHigh
	case similarity >= p.Tiers.Medium:
		return domain.RelevanceMedium
	case similarity >= p.Tiers.Low:
		return domain.RelevanceLow
	default:
		return domain.RelevanceNone
	}
}

// Similarity maps a squared L2 distance onto (0,1].
func Similarity(distance float64) float64 {
	return 1 / (1 + distance)
}
