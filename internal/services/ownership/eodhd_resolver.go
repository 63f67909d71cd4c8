package ownership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/eodhd"
	"github.com/ternarybob/tickerscope/internal/models"
)

// FundamentalsClient is the part of the EODHD client the ownership package reads.
type FundamentalsClient interface {
	HasAPIKey() bool
	GetFundamentals(ctx context.Context, symbol string) (*eodhd.FundamentalsResponse, error)
}

// EODHDResolver is the backup resolver. It reads the vendor's own
// institutional percentage from fundamentals and has no further fallback.
type EODHDResolver struct {
	client  FundamentalsClient
	timeout time.Duration
	logger  arbor.ILogger
}

// NewEODHDResolver creates the backup resolver.
func NewEODHDResolver(client FundamentalsClient, timeout time.Duration, logger arbor.ILogger) *EODHDResolver {
	return &EODHDResolver{
		client:  client,
		timeout: timeout,
		logger:  logger,
	}
}

func (r *EODHDResolver) Source() models.OwnershipSource { return models.SourceBackupAPI }

func (r *EODHDResolver) Timeout() time.Duration { return r.timeout }

// Resolve reads SharesStats.PercentInstitutions.
func (r *EODHDResolver) Resolve(ctx context.Context, ticker common.Ticker) Outcome {
	if !r.client.HasAPIKey() {
		return Unrecoverable(r.Source(), eodhd.ErrMissingAPIKey)
	}

	fundamentals, err := r.client.GetFundamentals(ctx, ticker.EODHDSymbol())
	if err != nil {
		switch {
		case eodhd.IsAuthError(err):
			return Unrecoverable(r.Source(), err)
		case errors.Is(err, context.DeadlineExceeded):
			return TimedOut(r.Source(), err)
		default:
			return NoData(r.Source(), err)
		}
	}

	if fundamentals.SharesStats == nil || fundamentals.SharesStats.PercentInstitutions <= 0 {
		return NoData(r.Source(), fmt.Errorf("no institutional percentage for %s", ticker.EODHDSymbol()))
	}

	percent := fundamentals.SharesStats.PercentInstitutions
	r.logger.Debug().
		Str("ticker", ticker.String()).
		Float64("percent", percent).
		Msg("EODHD ownership resolved")

	return Success(r.Source(), percent)
}

// EODHDHoldings reports institutional share counts from EODHD holder lists.
type EODHDHoldings struct {
	client FundamentalsClient
}

// NewEODHDHoldings creates a HoldingsProvider backed by EODHD fundamentals.
func NewEODHDHoldings(client FundamentalsClient) *EODHDHoldings {
	return &EODHDHoldings{client: client}
}

// InstitutionalShares sums current shares across listed institutions.
func (h *EODHDHoldings) InstitutionalShares(ctx context.Context, ticker common.Ticker) (float64, error) {
	fundamentals, err := h.client.GetFundamentals(ctx, ticker.EODHDSymbol())
	if err != nil {
		return 0, err
	}
	return float64(fundamentals.Holders.InstitutionalShares()), nil
}
