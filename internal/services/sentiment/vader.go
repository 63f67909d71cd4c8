package sentiment

import (
	"context"

	"github.com/jonreiter/govader"
)

// VaderScorer scores headlines locally with the VADER lexicon and rules. It needs
// no credentials and makes no network calls.
type VaderScorer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderScorer loads the embedded VADER lexicon.
func NewVaderScorer() *VaderScorer {
	return &VaderScorer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

func (s *VaderScorer) Name() string { return "vader" }

// Score returns the VADER compound score of each headline.
func (s *VaderScorer) Score(ctx context.Context, headlines []string) ([]float64, error) {
	scores := make([]float64, len(headlines))
	for i, headline := range headlines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scores[i] = clampCompound(s.analyzer.PolarityScores(headline).Compound)
	}
	return scores, nil
}
