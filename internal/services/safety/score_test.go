package safety

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/tickerscope/internal/models"
)

func ptr(v float64) *float64 { return &v }

func TestCompute_AllDefaults(t *testing.T) {
	score := Compute(models.SafetyScoreInputs{}, DefaultWeights)

	assert.InDelta(t, 74, score.Value, 1e-9)
	assert.InDelta(t, 80, score.Components.BetaScore, 1e-9)
	assert.InDelta(t, 90, score.Components.DebtScore, 1e-9)
	assert.InDelta(t, 50, score.Components.AnalystScore, 1e-9)
	assert.Equal(t, []string{InputBeta, InputDebtToEquity, InputAnalystRating}, score.Defaulted)
	assert.False(t, score.Complete())
}

func TestCompute_ExplicitNeutralInputsMatchDefaults(t *testing.T) {
	score := Compute(models.SafetyScoreInputs{Beta: ptr(1), DebtToEquity: ptr(1), AnalystRating: ptr(2.5)}, DefaultWeights)

	assert.InDelta(t, 74, score.Value, 1e-9)
	assert.True(t, score.Complete())
}

func TestCompute_HighBetaNoDebtTopRating(t *testing.T) {
	score := Compute(models.SafetyScoreInputs{Beta: ptr(2), DebtToEquity: ptr(0), AnalystRating: ptr(5)}, DefaultWeights)

	assert.InDelta(t, 60, score.Components.BetaScore, 1e-9)
	assert.InDelta(t, 100, score.Components.DebtScore, 1e-9)
	assert.InDelta(t, 100, score.Components.AnalystScore, 1e-9)
	assert.InDelta(t, 84, score.Value, 1e-9)
}

func TestCompute_ClampsExtremes(t *testing.T) {
	tests := []struct {
		name   string
		inputs models.SafetyScoreInputs
	}{
		{"huge beta", models.SafetyScoreInputs{Beta: ptr(40)}},
		{"negative beta", models.SafetyScoreInputs{Beta: ptr(-3)}},
		{"huge leverage", models.SafetyScoreInputs{DebtToEquity: ptr(500)}},
		{"negative leverage", models.SafetyScoreInputs{DebtToEquity: ptr(-2)}},
		{"rating above scale", models.SafetyScoreInputs{AnalystRating: ptr(9)}},
		{"NaN beta", models.SafetyScoreInputs{Beta: ptr(math.NaN())}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Compute(tt.inputs, DefaultWeights)
			assert.GreaterOrEqual(t, score.Value, 0.0)
			assert.LessOrEqual(t, score.Value, 100.0)
			for _, c := range []float64{score.Components.BetaScore, score.Components.DebtScore, score.Components.AnalystScore} {
				assert.GreaterOrEqual(t, c, 0.0)
				assert.LessOrEqual(t, c, 100.0)
			}
		})
	}
}

func TestCompute_NaNIsDefaulted(t *testing.T) {
	score := Compute(models.SafetyScoreInputs{Beta: ptr(math.NaN())}, DefaultWeights)

	assert.Contains(t, score.Defaulted, InputBeta)
	assert.InDelta(t, 80, score.Components.BetaScore, 1e-9)
}
