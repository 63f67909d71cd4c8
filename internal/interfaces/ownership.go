package interfaces

import (
	"context"

	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/models"
)

// OwnershipService resolves institutional ownership through the cache and resolver chain.
type OwnershipService interface {
	// Get returns a report for one ticker. An unresolved ticker is a report with
	// Available=false, not an error. Errors are only returned for caller cancellation.
	Get(ctx context.Context, ticker common.Ticker) (*models.OwnershipReport, error)

	// Analyze resolves a batch sequentially and groups the tickers by ownership band.
	Analyze(ctx context.Context, tickers []string) (*models.OwnershipAnalysis, error)
}

// HoldingsProvider reports the number of shares held by institutions.
type HoldingsProvider interface {
	InstitutionalShares(ctx context.Context, ticker common.Ticker) (float64, error)
}

// ResolutionLog persists chain outcomes for later inspection.
type ResolutionLog interface {
	Record(ctx context.Context, record *models.ResolutionRecord) error
	List(ctx context.Context, ticker string, limit int) ([]models.ResolutionRecord, error)
}
