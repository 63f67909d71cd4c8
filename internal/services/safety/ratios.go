package safety

import (
	"context"
	"errors"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/models"
)

// ErrNoRatios is returned when neither FMP nor EODHD had any ratio for the ticker.
var ErrNoRatios = errors.New("no financial ratios available")

// RatiosSource reads headline ratios from FMP and fills gaps from EODHD highlights.
type RatiosSource struct {
	fmp    FMPClient
	eodhd  FundamentalsClient
	logger arbor.ILogger
}

// NewRatiosSource creates the ratios provider. Either client may be nil.
func NewRatiosSource(fmpClient FMPClient, eodhdClient FundamentalsClient, logger arbor.ILogger) *RatiosSource {
	return &RatiosSource{fmp: fmpClient, eodhd: eodhdClient, logger: logger}
}

// Ratios returns P/E, ROE, debt/equity and EPS. Each is optional.
func (s *RatiosSource) Ratios(ctx context.Context, ticker common.Ticker) (*models.FinancialRatios, error) {
	ratios := &models.FinancialRatios{Ticker: ticker.String()}
	var errs []error

	if s.fmp != nil && s.fmp.HasAPIKey() {
		row, err := s.fmp.GetRatios(ctx, FMPSymbol(ticker))
		if err != nil {
			errs = append(errs, err)
		} else {
			ratios.PERatio = row.PriceEarningsRatio
			ratios.ROE = row.ReturnOnEquity
			ratios.DebtToEquity = row.DebtEquityRatio
			ratios.EPS = row.EPS()
			ratios.Source = "fmp"
		}
	}

	if s.needsFill(ratios) && s.eodhd != nil && s.eodhd.HasAPIKey() {
		fundamentals, err := s.eodhd.GetFundamentals(ctx, ticker.EODHDSymbol())
		if err != nil {
			errs = append(errs, err)
		} else if h := fundamentals.Highlights; h != nil {
			filled := fillFloat(&ratios.PERatio, h.PERatio)
			filled = fillFloat(&ratios.ROE, h.ReturnOnEquityTTM) || filled
			filled = fillFloat(&ratios.EPS, h.EarningsShare) || filled
			if filled {
				if ratios.Source == "" {
					ratios.Source = "eodhd"
				} else {
					ratios.Source += "+eodhd"
				}
			}
		}
	}

	if ratios.Source == "" {
		if len(errs) > 0 {
			return nil, errors.Join(append([]error{ErrNoRatios}, errs...)...)
		}
		return nil, ErrNoRatios
	}

	if len(errs) > 0 {
		s.logger.Debug().Str("ticker", ticker.String()).Err(errors.Join(errs...)).Msg("Ratios partially available")
	}
	return ratios, nil
}

func (s *RatiosSource) needsFill(r *models.FinancialRatios) bool {
	return r.PERatio == nil || r.ROE == nil || r.EPS == nil
}

// fillFloat sets *dst to v when *dst is nil and v is non-zero.
func fillFloat(dst **float64, v float64) bool {
	if *dst != nil || v == 0 {
		return false
	}
	*dst = &v
	return true
}
