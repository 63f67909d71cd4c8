package ownership

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
	"github.com/ternarybob/tickerscope/internal/services/cache"
)

// ErrHistoryUnavailable is returned by History when no resolution log is configured.
var ErrHistoryUnavailable = errors.New("resolution history requires badger storage")

// guidanceURL is where a user can read institutional ownership by hand.
const guidanceURL = "https://www.nasdaq.com/market-activity/stocks/%s/institutional-holdings"

// Service resolves ownership through the cache and the resolver chain.
type Service struct {
	chain   *Chain
	store   interfaces.CacheStore
	history interfaces.ResolutionLog // optional
	ttl     time.Duration
	bands   common.OwnershipBands
	logger  arbor.ILogger

	mu        sync.RWMutex
	observers []func(models.ResolutionRecord)
}

// NewService creates the ownership service. history may be nil.
func NewService(chain *Chain, store interfaces.CacheStore, history interfaces.ResolutionLog, config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		chain:   chain,
		store:   store,
		history: history,
		ttl:     config.Cache.OwnershipTTL.Duration,
		bands:   config.Scoring.OwnershipBands,
		logger:  logger,
	}
}

// Get returns the ownership report for one ticker, from cache when fresh.
func (s *Service) Get(ctx context.Context, ticker common.Ticker) (*models.OwnershipReport, error) {
	key := ticker.CacheKey("ownership")

	if cached, ok := cache.GetJSON[models.OwnershipResult](s.store, key); ok {
		s.logger.Debug().Str("ticker", ticker.String()).Msg("Ownership served from cache")
		return &models.OwnershipReport{
			Ticker:    ticker.String(),
			Available: true,
			Result:    &cached,
			Band:      Classify(cached.Percent, s.bands),
			Cached:    true,
		}, nil
	}

	res := s.chain.ResolveDetailed(ctx, ticker)
	s.record(ctx, ticker, res)

	summaries := make([]models.AttemptSummary, 0, len(res.Attempts))
	for _, a := range res.Attempts {
		summaries = append(summaries, a.Summary())
	}

	if res.Err != nil {
		var failure *ResolutionFailure
		if errors.As(res.Err, &failure) && failure.Cause != nil {
			return nil, failure
		}

		s.logger.Warn().
			Str("ticker", ticker.String()).
			Int("attempts", len(res.Attempts)).
			Msg("Ownership unavailable from every source")

		return &models.OwnershipReport{
			Ticker:   ticker.String(),
			Guidance: Guidance(ticker),
			Attempts: summaries,
		}, nil
	}

	cache.SetJSON(s.store, key, res.Result, s.ttl)

	s.logger.Info().
		Str("ticker", ticker.String()).
		Str("source", string(res.Result.Source)).
		Float64("percent", res.Result.Percent).
		Bool("degraded", res.Result.Degraded).
		Msg("Ownership resolved")

	return &models.OwnershipReport{
		Ticker:    ticker.String(),
		Available: true,
		Result:    res.Result,
		Band:      Classify(res.Result.Percent, s.bands),
		Attempts:  summaries,
	}, nil
}

// Analyze resolves tickers one after another and groups them by band.
// Duplicate symbols are resolved once. On caller cancellation the partial
// analysis is returned with the error.
func (s *Service) Analyze(ctx context.Context, tickers []string) (*models.OwnershipAnalysis, error) {
	analysis := &models.OwnershipAnalysis{}
	seen := make(map[string]bool, len(tickers))

	for _, raw := range tickers {
		ticker, err := common.ParseTicker(raw)
		if err != nil {
			analysis.Invalid = append(analysis.Invalid, raw)
			continue
		}
		if seen[ticker.String()] {
			continue
		}
		seen[ticker.String()] = true

		report, err := s.Get(ctx, ticker)
		if err != nil {
			return analysis, err
		}

		if !report.Available {
			analysis.Unavailable = append(analysis.Unavailable, *report)
			continue
		}
		switch report.Band {
		case models.BandHigh:
			analysis.High = append(analysis.High, *report)
		case models.BandLow:
			analysis.Low = append(analysis.Low, *report)
		default:
			analysis.Medium = append(analysis.Medium, *report)
		}
	}

	return analysis, nil
}

// History lists persisted resolutions for a ticker, newest first.
func (s *Service) History(ctx context.Context, ticker common.Ticker, limit int) ([]models.ResolutionRecord, error) {
	if s.history == nil {
		return nil, ErrHistoryUnavailable
	}
	return s.history.List(ctx, ticker.String(), limit)
}

// Chain exposes the resolver chain for health reporting.
func (s *Service) Chain() *Chain {
	return s.chain
}

// Guidance returns the manual lookup hint shown when ownership is unavailable.
func Guidance(ticker common.Ticker) string {
	return fmt.Sprintf("Institutional ownership could not be retrieved automatically. Check "+guidanceURL+" manually.",
		ticker.URLSymbol())
}

// OnResolution registers fn to receive every chain resolution, cached hits excluded.
func (s *Service) OnResolution(fn func(models.ResolutionRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Service) record(ctx context.Context, ticker common.Ticker, res Resolution) {
	rec := &models.ResolutionRecord{
		Ticker:     ticker.String(),
		Success:    res.Result != nil,
		ResolvedAt: time.Now().UTC(),
	}
	for _, a := range res.Attempts {
		rec.Attempts = append(rec.Attempts, a.Summary())
	}
	if res.Result != nil {
		rec.Percent = res.Result.Percent
		rec.Source = res.Result.Source
		rec.Degraded = res.Result.Degraded
		rec.ResolvedAt = res.Result.ResolvedAt
	}

	if s.history != nil {
		if err := s.history.Record(context.WithoutCancel(ctx), rec); err != nil {
			s.logger.Warn().Err(err).Str("ticker", ticker.String()).Msg("Failed to record ownership resolution")
		}
	}

	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()
	for _, fn := range observers {
		fn(*rec)
	}
}
