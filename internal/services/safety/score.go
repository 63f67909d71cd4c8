// Package safety computes the fundamental safety score from beta, leverage
// and analyst consensus.
package safety

import (
	"math"

	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/models"
)

// Neutral values substituted for missing inputs.
const (
	DefaultBeta          = 1.0
	DefaultDebtToEquity  = 1.0
	DefaultAnalystRating = 2.5
)

// Input names used in SafetyScore.Defaulted and report sources.
const (
	InputBeta          = "beta"
	InputDebtToEquity  = "debt_to_equity"
	InputAnalystRating = "analyst_rating"
)

// DefaultWeights are the component weights used when none are configured.
var DefaultWeights = common.SafetyWeights{Beta: 0.4, Debt: 0.3, Analyst: 0.3}

// Compute turns possibly incomplete inputs into a score in [0,100]. It never fails:
// each missing input is replaced by its neutral default and listed in Defaulted.
func Compute(inputs models.SafetyScoreInputs, weights common.SafetyWeights) models.SafetyScore {
	var defaulted []string

	beta := valueOr(inputs.Beta, DefaultBeta, InputBeta, &defaulted)
	debt := valueOr(inputs.DebtToEquity, DefaultDebtToEquity, InputDebtToEquity, &defaulted)
	rating := valueOr(inputs.AnalystRating, DefaultAnalystRating, InputAnalystRating, &defaulted)

	components := models.SafetyComponents{
		BetaScore:    clamp(100-beta*20, 0, 100),
		DebtScore:    100 - clamp(debt*10, 0, 100),
		AnalystScore: clamp(rating, 0, 5) * 20,
	}

	value := weights.Beta*components.BetaScore +
		weights.Debt*components.DebtScore +
		weights.Analyst*components.AnalystScore

	return models.SafetyScore{
		Value:      clamp(value, 0, 100),
		Components: components,
		Defaulted:  defaulted,
	}
}

func valueOr(v *float64, fallback float64, name string, defaulted *[]string) float64 {
	if v == nil || math.IsNaN(*v) {
		*defaulted = append(*defaulted, name)
		return fallback
	}
	return *v
}

func clamp(v, lo, hi float64) float64 {
	switch {
	case math.IsNaN(v):
		return lo
	case v < lo:
		return lo
	case v > hi:
		return hi
	default:
		return v
	}
}
