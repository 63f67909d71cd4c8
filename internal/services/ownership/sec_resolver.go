package ownership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
	"github.com/ternarybob/tickerscope/internal/sec"
)

// FilingsClient is the part of the SEC client the primary resolver needs.
type FilingsClient interface {
	LookupCIK(ctx context.Context, ticker common.Ticker) (string, error)
	SharesOutstanding(ctx context.Context, cik string) (sec.FactValue, error)
}

// SECResolver is the primary resolver. It divides institutional holdings by the
// shares outstanding reported in SEC filings.
type SECResolver struct {
	filings  FilingsClient
	holdings interfaces.HoldingsProvider
	timeout  time.Duration
	logger   arbor.ILogger
}

// NewSECResolver creates the primary resolver.
func NewSECResolver(filings FilingsClient, holdings interfaces.HoldingsProvider, timeout time.Duration, logger arbor.ILogger) *SECResolver {
	return &SECResolver{
		filings:  filings,
		holdings: holdings,
		timeout:  timeout,
		logger:   logger,
	}
}

func (r *SECResolver) Source() models.OwnershipSource { return models.SourcePrimaryAPI }

func (r *SECResolver) Timeout() time.Duration { return r.timeout }

// Resolve derives the CIK, reads shares outstanding, and computes the institutional percentage.
func (r *SECResolver) Resolve(ctx context.Context, ticker common.Ticker) Outcome {
	cik, err := r.filings.LookupCIK(ctx, ticker)
	if err != nil {
		return r.classify(err)
	}

	shares, err := r.filings.SharesOutstanding(ctx, cik)
	if err != nil {
		return r.classify(err)
	}

	held, err := r.holdings.InstitutionalShares(ctx, ticker)
	if err != nil {
		return r.classify(fmt.Errorf("institutional holdings: %w", err))
	}
	if held <= 0 {
		return NoData(r.Source(), errors.New("no institutional holdings reported"))
	}

	percent := held / shares.Value * 100
	if !validPercent(percent) {
		return NoData(r.Source(), fmt.Errorf("inconsistent filings: %.0f held of %.0f outstanding", held, shares.Value))
	}

	r.logger.Debug().
		Str("ticker", ticker.String()).
		Str("cik", cik).
		Float64("percent", percent).
		Str("period_end", shares.End.Format("2006-01-02")).
		Msg("SEC ownership resolved")

	return Success(r.Source(), percent)
}

// classify maps a failure to an outcome. Only SEC's own refusal disables the source;
// a holdings provider rejecting its credentials is NoData here.
func (r *SECResolver) classify(err error) Outcome {
	switch {
	case sec.IsAuthError(err):
		return Unrecoverable(r.Source(), err)
	case errors.Is(err, context.DeadlineExceeded):
		return TimedOut(r.Source(), err)
	default:
		return NoData(r.Source(), err)
	}
}
