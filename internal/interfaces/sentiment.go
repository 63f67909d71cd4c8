package interfaces

import (
	"context"
	"errors"

	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/models"
)

// ErrNoHeadlines is returned by a HeadlineSource that found nothing for the ticker.
var ErrNoHeadlines = errors.New("no headlines found")

// ErrScorerUnavailable is returned when no sentiment scorer is configured.
var ErrScorerUnavailable = errors.New("sentiment scorer unavailable")

// HeadlineSource collects recent news headlines for a ticker.
type HeadlineSource interface {
	Name() string
	Headlines(ctx context.Context, ticker common.Ticker, limit int) ([]models.Headline, error)
}

// SentimentScorer returns one compound score in [-1,1] per headline, in input order.
type SentimentScorer interface {
	Name() string
	Score(ctx context.Context, headlines []string) ([]float64, error)
}

// SentimentService scores recent headlines for a ticker.
type SentimentService interface {
	Analyze(ctx context.Context, ticker common.Ticker) (*models.SentimentReport, error)
}
