package handlers

import (
	"context"

	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
	"github.com/ternarybob/tickerscope/internal/services/watchlist"
)

// OwnershipReader is the ownership service plus its resolution history.
type OwnershipReader interface {
	interfaces.OwnershipService
	History(ctx context.Context, ticker common.Ticker, limit int) ([]models.ResolutionRecord, error)
}

// ChainInspector reports the resolver chain state for health checks.
type ChainInspector interface {
	Sources() []models.OwnershipSource
	Disabled() map[models.OwnershipSource]string
}

// WatchlistController exposes the cache warmer.
type WatchlistController interface {
	Status() watchlist.Status
	RunOnce(ctx context.Context) (*watchlist.Result, error)
}

// ReportBuilder assembles a full ticker report.
type ReportBuilder interface {
	Build(ctx context.Context, ticker common.Ticker) (*models.TickerReport, error)
}
