package sentiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
	"github.com/ternarybob/tickerscope/internal/services/cache"
)

const guidanceNoScorer = "Headline sentiment needs a scorer. Set GEMINI_API_KEY or ANTHROPIC_API_KEY."

// Service fetches headlines and scores their tone.
type Service struct {
	headlines    interfaces.HeadlineSource
	scorer       interfaces.SentimentScorer // nil when no credentials are configured
	store        interfaces.CacheStore
	limit        int
	timeout      time.Duration
	headlinesTTL time.Duration
	sentimentTTL time.Duration
	logger       arbor.ILogger
}

// NewService creates the sentiment service. scorer may be nil.
func NewService(headlines interfaces.HeadlineSource, scorer interfaces.SentimentScorer, store interfaces.CacheStore, config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		headlines:    headlines,
		scorer:       scorer,
		store:        store,
		limit:        config.News.MaxHeadlines,
		timeout:      config.Sentiment.Timeout.Duration,
		headlinesTTL: config.Cache.HeadlinesTTL.Duration,
		sentimentTTL: config.Cache.SentimentTTL.Duration,
		logger:       logger,
	}
}

// Analyze scores the current headlines for ticker. A missing scorer or failing
// headline source yields Available=false with guidance. No headlines is a
// neutral summary. Errors are only returned for caller cancellation.
func (s *Service) Analyze(ctx context.Context, ticker common.Ticker) (*models.SentimentReport, error) {
	report := &models.SentimentReport{Ticker: ticker.String()}

	if s.scorer == nil {
		report.Guidance = guidanceNoScorer
		return report, nil
	}
	report.Scorer = s.scorer.Name()

	headlines, err := s.Headlines(ctx, ticker)
	switch {
	case errors.Is(err, interfaces.ErrNoHeadlines):
		headlines = nil
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn().Str("ticker", ticker.String()).Err(err).Msg("Headline collection failed")
		report.Guidance = fmt.Sprintf("Headlines for %s could not be collected: %v", ticker.String(), err)
		return report, nil
	}

	summary, err := s.score(ctx, ticker, headlines)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn().Str("ticker", ticker.String()).Str("scorer", s.scorer.Name()).Err(err).Msg("Headline scoring failed")
		report.Guidance = fmt.Sprintf("Headline sentiment could not be scored: %v", err)
		return report, nil
	}

	report.Available = true
	report.Summary = &summary
	return report, nil
}

// Headlines returns recent headlines for ticker, cached per ticker.
func (s *Service) Headlines(ctx context.Context, ticker common.Ticker) ([]models.Headline, error) {
	headlines, _, err := cache.Remember(s.store, ticker.CacheKey("headlines"), s.headlinesTTL, func() ([]models.Headline, error) {
		return s.headlines.Headlines(ctx, ticker, s.limit)
	})
	return headlines, err
}

// score is cached per distinct headline set, so a new headline forces a rescore.
func (s *Service) score(ctx context.Context, ticker common.Ticker, headlines []models.Headline) (models.SentimentSummary, error) {
	titles := make([]string, 0, len(headlines))
	for _, h := range headlines {
		titles = append(titles, h.Title)
	}
	if len(titles) == 0 {
		return Summarize(ticker.String(), nil), nil
	}

	key := ticker.CacheKey("sentiment") + ":" + headlineSetHash(titles)
	summary, cached, err := cache.Remember(s.store, key, s.sentimentTTL, func() (models.SentimentSummary, error) {
		scoreCtx := ctx
		if s.timeout > 0 {
			var cancel context.CancelFunc
			scoreCtx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		scores, err := s.scorer.Score(scoreCtx, titles)
		if err != nil {
			return models.SentimentSummary{}, err
		}
		if len(scores) != len(titles) {
			return models.SentimentSummary{}, fmt.Errorf("scorer returned %d scores for %d headlines", len(scores), len(titles))
		}

		records := make([]models.SentimentRecord, len(titles))
		for i, title := range titles {
			records[i] = models.SentimentRecord{Headline: title, Compound: clampCompound(scores[i])}
		}
		return Summarize(ticker.String(), records), nil
	})
	if err == nil {
		s.logger.Debug().
			Str("ticker", ticker.String()).
			Int("headlines", len(titles)).
			Bool("cached", cached).
			Float64("average", summary.AverageCompound).
			Msg("Headline sentiment scored")
	}
	return summary, err
}

func headlineSetHash(titles []string) string {
	sum := sha256.Sum256([]byte(strings.Join(titles, "\n")))
	return hex.EncodeToString(sum[:8])
}
