package safety

import (
	"context"
	"errors"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
	"github.com/ternarybob/tickerscope/internal/services/cache"
)

// errNoInputs marks a report built purely from defaults. Such reports are returned
// but not cached, so the next request tries the providers again.
var errNoInputs = errors.New("no safety inputs from any provider")

// Service builds safety reports from an ordered list of input providers.
// Earlier providers win; later ones only fill fields still missing.
type Service struct {
	providers []interfaces.SafetyInputsProvider
	ratios    interfaces.RatiosProvider
	store     interfaces.CacheStore
	weights   common.SafetyWeights
	ttl       time.Duration
	ratiosTTL time.Duration
	logger    arbor.ILogger
}

// NewService creates the safety service. ratios may be nil.
func NewService(providers []interfaces.SafetyInputsProvider, ratios interfaces.RatiosProvider, store interfaces.CacheStore, config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		providers: providers,
		ratios:    ratios,
		store:     store,
		weights:   config.Scoring.Weights,
		ttl:       config.Cache.SafetyTTL.Duration,
		ratiosTTL: config.Cache.RatiosTTL.Duration,
		logger:    logger,
	}
}

// Report returns the safety report for ticker. Missing inputs are defaulted, never fatal.
// The only error is caller cancellation.
func (s *Service) Report(ctx context.Context, ticker common.Ticker) (*models.SafetyReport, error) {
	key := ticker.CacheKey("safety")
	if cached, ok := cache.GetJSON[models.SafetyReport](s.store, key); ok {
		return &cached, nil
	}

	report, err := s.build(ctx, ticker)
	switch {
	case errors.Is(err, errNoInputs):
		s.logger.Warn().Str("ticker", ticker.String()).Msg("No safety inputs available, score uses defaults only")
	case err != nil:
		return nil, err
	default:
		cache.SetJSON(s.store, key, report, s.ttl)
	}

	s.logger.Debug().
		Str("ticker", ticker.String()).
		Float64("score", report.Score.Value).
		Strs("defaulted", report.Score.Defaulted).
		Msg("Safety report computed")

	return &report, nil
}

func (s *Service) build(ctx context.Context, ticker common.Ticker) (models.SafetyReport, error) {
	var inputs models.SafetyScoreInputs
	sources := make(map[string]string)

	for _, p := range s.providers {
		if complete(inputs) {
			break
		}
		if err := ctx.Err(); err != nil {
			return models.SafetyReport{}, err
		}

		got, err := p.SafetyInputs(ctx, ticker)
		if err != nil {
			if !errors.Is(err, ErrProviderUnavailable) {
				s.logger.Warn().
					Str("ticker", ticker.String()).
					Str("provider", p.Name()).
					Err(err).
					Msg("Safety inputs provider failed")
			}
			continue
		}

		fill(&inputs.Beta, got.Beta, InputBeta, p.Name(), sources)
		fill(&inputs.DebtToEquity, got.DebtToEquity, InputDebtToEquity, p.Name(), sources)
		fill(&inputs.AnalystRating, got.AnalystRating, InputAnalystRating, p.Name(), sources)
	}

	report := models.SafetyReport{
		Ticker:  ticker.String(),
		Inputs:  inputs,
		Score:   Compute(inputs, s.weights),
		Sources: sources,
	}
	if len(sources) == 0 {
		return report, errNoInputs
	}
	return report, nil
}

// Ratios returns cached headline ratios for ticker.
func (s *Service) Ratios(ctx context.Context, ticker common.Ticker) (*models.FinancialRatios, error) {
	if s.ratios == nil {
		return nil, ErrNoRatios
	}
	ratios, _, err := cache.Remember(s.store, ticker.CacheKey("ratios"), s.ratiosTTL, func() (*models.FinancialRatios, error) {
		return s.ratios.Ratios(ctx, ticker)
	})
	return ratios, err
}

func complete(in models.SafetyScoreInputs) bool {
	return in.Beta != nil && in.DebtToEquity != nil && in.AnalystRating != nil
}

func fill(dst **float64, v *float64, name, provider string, sources map[string]string) {
	if *dst != nil || v == nil {
		return
	}
	value := *v
	*dst = &value
	sources[name] = provider
}
