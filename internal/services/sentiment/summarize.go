// Package sentiment scores the tone of recent headlines for a ticker and
// reduces the scores to a single news-tone safety figure.
package sentiment

import (
	"math"

	"github.com/ternarybob/tickerscope/internal/models"
)

// Summarize averages the compound scores. An empty list is neutral: average 0, safety 50.
// The safety figure maps [-1,1] linearly onto [0,100] and is unrelated to the
// fundamental safety score.
func Summarize(ticker string, records []models.SentimentRecord) models.SentimentSummary {
	summary := models.SentimentSummary{
		Ticker:  ticker,
		Records: records,
	}
	if summary.Records == nil {
		summary.Records = []models.SentimentRecord{}
	}

	var sum float64
	var n int
	for _, r := range records {
		if math.IsNaN(r.Compound) {
			continue
		}
		sum += clampCompound(r.Compound)
		n++
	}

	if n > 0 {
		summary.AverageCompound = clampCompound(sum / float64(n))
	}
	summary.SafetyScore = (summary.AverageCompound + 1) / 2 * 100
	return summary
}

func clampCompound(v float64) float64 {
	return math.Max(-1, math.Min(1, v))
}
