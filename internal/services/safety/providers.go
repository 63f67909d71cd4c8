package safety

import (
	"context"
	"errors"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/eodhd"
	"github.com/ternarybob/tickerscope/internal/fmp"
	"github.com/ternarybob/tickerscope/internal/models"
)

// ErrProviderUnavailable is returned by providers that have no credentials.
var ErrProviderUnavailable = errors.New("provider not configured")

// FMPClient is the part of the FMP client the safety providers use.
type FMPClient interface {
	HasAPIKey() bool
	GetProfile(ctx context.Context, symbol string) (*fmp.Profile, error)
	GetRatios(ctx context.Context, symbol string) (*fmp.Ratios, error)
	GetRating(ctx context.Context, symbol string) (*fmp.Rating, error)
}

// FundamentalsClient is the part of the EODHD client the safety providers use.
type FundamentalsClient interface {
	HasAPIKey() bool
	GetFundamentals(ctx context.Context, symbol string) (*eodhd.FundamentalsResponse, error)
}

// FMPProvider reads beta from the profile, debt/equity from ratios and the
// analyst rating from FMP's rating score.
type FMPProvider struct {
	client FMPClient
	logger arbor.ILogger
}

// NewFMPProvider creates the FMP safety inputs provider.
func NewFMPProvider(client FMPClient, logger arbor.ILogger) *FMPProvider {
	return &FMPProvider{client: client, logger: logger}
}

func (p *FMPProvider) Name() string { return "fmp" }

// SafetyInputs returns what FMP has. Individual endpoint failures leave the field nil;
// an error is only returned when nothing could be read.
func (p *FMPProvider) SafetyInputs(ctx context.Context, ticker common.Ticker) (models.SafetyScoreInputs, error) {
	var inputs models.SafetyScoreInputs
	if !p.client.HasAPIKey() {
		return inputs, ErrProviderUnavailable
	}

	symbol := FMPSymbol(ticker)
	var errs []error

	if profile, err := p.client.GetProfile(ctx, symbol); err != nil {
		errs = append(errs, err)
	} else {
		inputs.Beta = profile.Beta
	}

	if ratios, err := p.client.GetRatios(ctx, symbol); err != nil {
		errs = append(errs, err)
	} else {
		inputs.DebtToEquity = ratios.DebtEquityRatio
	}

	if rating, err := p.client.GetRating(ctx, symbol); err != nil {
		errs = append(errs, err)
	} else {
		inputs.AnalystRating = rating.RatingScore
	}

	if len(errs) == 3 {
		return inputs, errors.Join(errs...)
	}
	if len(errs) > 0 {
		p.logger.Debug().
			Str("ticker", ticker.String()).
			Err(errors.Join(errs...)).
			Msg("FMP safety inputs partially available")
	}
	return inputs, nil
}

// EODHDProvider reads beta and the analyst consensus from EODHD fundamentals.
// EODHD does not report debt/equity, so that field is always left nil.
type EODHDProvider struct {
	client FundamentalsClient
}

// NewEODHDProvider creates the EODHD safety inputs provider.
func NewEODHDProvider(client FundamentalsClient) *EODHDProvider {
	return &EODHDProvider{client: client}
}

func (p *EODHDProvider) Name() string { return "eodhd" }

// SafetyInputs reads Technicals.Beta and AnalystRatings.Rating. Zero means absent.
func (p *EODHDProvider) SafetyInputs(ctx context.Context, ticker common.Ticker) (models.SafetyScoreInputs, error) {
	var inputs models.SafetyScoreInputs
	if !p.client.HasAPIKey() {
		return inputs, ErrProviderUnavailable
	}

	fundamentals, err := p.client.GetFundamentals(ctx, ticker.EODHDSymbol())
	if err != nil {
		return inputs, err
	}

	if t := fundamentals.Technicals; t != nil && t.Beta != 0 {
		beta := t.Beta
		inputs.Beta = &beta
	}
	if a := fundamentals.AnalystRatings; a != nil && a.Rating > 0 {
		rating := a.Rating
		inputs.AnalystRating = &rating
	}
	return inputs, nil
}

// FMPSymbol converts a ticker to FMP's format, which uses "-" for share classes.
func FMPSymbol(ticker common.Ticker) string {
	return strings.ReplaceAll(ticker.Code, ".", "-")
}
