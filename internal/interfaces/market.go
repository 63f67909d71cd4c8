package interfaces

import (
	"context"
	"time"

	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/models"
)

// MarketService provides market-wide mood indicators and price series.
type MarketService interface {
	// Mood never fails as a whole; failed indicators are listed in MarketMood.Errors.
	Mood(ctx context.Context) *models.MarketMood
	Series(ctx context.Context, ticker common.Ticker, from, to time.Time) (*models.PriceSeries, error)
}
