package sentiment

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/tickerscope/internal/models"
)

func TestSummarize_Empty(t *testing.T) {
	summary := Summarize("AAPL", nil)

	assert.Equal(t, 0.0, summary.AverageCompound)
	assert.Equal(t, 50.0, summary.SafetyScore)
	assert.NotNil(t, summary.Records)
}

func TestSummarize_OpposingHeadlinesCancel(t *testing.T) {
	summary := Summarize("AAPL", []models.SentimentRecord{
		{Headline: "Record quarter", Compound: 1.0},
		{Headline: "Recall announced", Compound: -1.0},
	})

	assert.InDelta(t, 0, summary.AverageCompound, 1e-12)
	assert.InDelta(t, 50, summary.SafetyScore, 1e-9)
}

func TestSummarize_Range(t *testing.T) {
	tests := []struct {
		name       string
		compounds  []float64
		wantAvg    float64
		wantSafety float64
	}{
		{"all positive", []float64{1, 1}, 1, 100},
		{"all negative", []float64{-1, -1, -1}, -1, 0},
		{"mixed", []float64{0.5, 0.1, -0.3}, 0.1, 55},
		{"out of range clamped", []float64{3, 1}, 1, 100},
		{"NaN ignored", []float64{math.NaN(), 0.4}, 0.4, 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := make([]models.SentimentRecord, 0, len(tt.compounds))
			for _, c := range tt.compounds {
				records = append(records, models.SentimentRecord{Compound: c})
			}

			summary := Summarize("MSFT", records)

			assert.InDelta(t, tt.wantAvg, summary.AverageCompound, 1e-9)
			assert.InDelta(t, tt.wantSafety, summary.SafetyScore, 1e-9)
			assert.GreaterOrEqual(t, summary.SafetyScore, 0.0)
			assert.LessOrEqual(t, summary.SafetyScore, 100.0)
		})
	}
}
