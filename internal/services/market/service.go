package market

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/eodhd"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
	"github.com/ternarybob/tickerscope/internal/services/cache"
)

// ErrInvalidRange is returned when a series is requested with from after to.
var ErrInvalidRange = errors.New("invalid date range")

// defaultSeriesSpan is used when a series request has no start date.
const defaultSeriesSpan = 365 * 24 * time.Hour

// PriceClient is the part of the EODHD client the market service reads.
type PriceClient interface {
	HasAPIKey() bool
	GetEOD(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.EODResponse, error)
}

// FearGreedSource returns the current Fear & Greed reading.
type FearGreedSource interface {
	Latest(ctx context.Context) (*models.FearGreedReading, error)
}

// Service assembles market mood and serves cached price series.
type Service struct {
	prices    PriceClient
	fearGreed FearGreedSource
	store     interfaces.CacheStore
	vixSymbol string
	bands     common.VIXBands
	timeout   time.Duration
	moodTTL   time.Duration
	seriesTTL time.Duration
	now       func() time.Time
	logger    arbor.ILogger
}

// NewService creates the market service.
func NewService(prices PriceClient, fearGreed FearGreedSource, store interfaces.CacheStore, config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		prices:    prices,
		fearGreed: fearGreed,
		store:     store,
		vixSymbol: config.Market.VIXSymbol,
		bands:     config.Market.VIXBands,
		timeout:   config.Market.Timeout.Duration,
		moodTTL:   config.Cache.MoodTTL.Duration,
		seriesTTL: config.Cache.SeriesTTL.Duration,
		now:       time.Now,
		logger:    logger,
	}
}

// Mood returns the VIX band and the Fear & Greed index. Each indicator is cached
// on its own, and a failed one is reported in Errors instead of failing the whole.
func (s *Service) Mood(ctx context.Context) *models.MarketMood {
	mood := &models.MarketMood{}

	vix, _, err := cache.Remember(s.store, "market:vix", s.moodTTL, func() (*models.VIXReading, error) {
		return s.latestVIX(ctx)
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("VIX unavailable")
		mood.Errors = append(mood.Errors, "vix: "+err.Error())
	} else {
		mood.VIX = vix
	}

	fng, _, err := cache.Remember(s.store, "market:fear_greed", s.moodTTL, func() (*models.FearGreedReading, error) {
		fgCtx, cancel := s.bounded(ctx)
		defer cancel()
		return s.fearGreed.Latest(fgCtx)
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("Fear and Greed index unavailable")
		mood.Errors = append(mood.Errors, "fear_greed: "+err.Error())
	} else {
		mood.FearGreed = fng
	}

	return mood
}

func (s *Service) latestVIX(ctx context.Context) (*models.VIXReading, error) {
	if !s.prices.HasAPIKey() {
		return nil, eodhd.ErrMissingAPIKey
	}

	vixCtx, cancel := s.bounded(ctx)
	defer cancel()

	to := s.now().UTC()
	bars, err := s.prices.GetEOD(vixCtx, s.vixSymbol, eodhd.WithDateRange(to.AddDate(0, 0, -10), to))
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no %s bars in the last 10 days", s.vixSymbol)
	}

	last := bars[len(bars)-1]
	return &models.VIXReading{
		Value: last.Close,
		Band:  ClassifyVIX(last.Close, s.bands),
		Date:  last.Date,
	}, nil
}

// Series returns daily bars for ticker between from and to inclusive.
// A zero to means today; a zero from means one year before to.
func (s *Service) Series(ctx context.Context, ticker common.Ticker, from, to time.Time) (*models.PriceSeries, error) {
	if to.IsZero() {
		to = s.now().UTC()
	}
	if from.IsZero() {
		from = to.Add(-defaultSeriesSpan)
	}
	from, to = truncateDay(from), truncateDay(to)
	if from.After(to) {
		return nil, fmt.Errorf("%w: %s after %s", ErrInvalidRange, from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	key := fmt.Sprintf("%s:%s:%s", ticker.CacheKey("series"), from.Format("20060102"), to.Format("20060102"))
	series, cached, err := cache.Remember(s.store, key, s.seriesTTL, func() (*models.PriceSeries, error) {
		if !s.prices.HasAPIKey() {
			return nil, eodhd.ErrMissingAPIKey
		}

		bars, err := s.prices.GetEOD(ctx, ticker.EODHDSymbol(), eodhd.WithDateRange(from, to), eodhd.WithPeriod("d"), eodhd.WithOrder("a"))
		if err != nil {
			return nil, err
		}

		series := &models.PriceSeries{Ticker: ticker.String(), From: from, To: to, Bars: make([]models.PriceBar, 0, len(bars))}
		for _, b := range bars {
			series.Bars = append(series.Bars, models.PriceBar{
				Date:          b.Date,
				Open:          b.Open,
				High:          b.High,
				Low:           b.Low,
				Close:         b.Close,
				AdjustedClose: b.AdjustedClose,
				Volume:        b.Volume,
			})
		}
		return series, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("ticker", ticker.String()).
		Int("bars", len(series.Bars)).
		Bool("cached", cached).
		Msg("Price series")
	return series, nil
}

func (s *Service) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
