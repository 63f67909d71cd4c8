package news

import (
	"context"
	"errors"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
)

// FallbackSource tries each source in order and returns the first non-empty result.
type FallbackSource struct {
	sources []interfaces.HeadlineSource
	logger  arbor.ILogger
}

// NewFallbackSource creates a source over sources in priority order.
func NewFallbackSource(logger arbor.ILogger, sources ...interfaces.HeadlineSource) *FallbackSource {
	return &FallbackSource{sources: sources, logger: logger}
}

func (s *FallbackSource) Name() string { return "auto" }

// Headlines returns ErrNoHeadlines only when every source found nothing.
// Otherwise the last real failure is returned.
func (s *FallbackSource) Headlines(ctx context.Context, ticker common.Ticker, limit int) ([]models.Headline, error) {
	var errs []error
	allEmpty := true

	for _, source := range s.sources {
		headlines, err := source.Headlines(ctx, ticker, limit)
		if err == nil && len(headlines) > 0 {
			return headlines, nil
		}
		if err == nil {
			err = interfaces.ErrNoHeadlines
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil && !errors.Is(err, interfaces.ErrNoHeadlines) {
			allEmpty = false
		}

		s.logger.Debug().
			Str("ticker", ticker.String()).
			Str("source", source.Name()).
			Err(err).
			Msg("Headline source yielded nothing, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", source.Name(), err))
	}

	if allEmpty {
		return nil, fmt.Errorf("%w for %s", interfaces.ErrNoHeadlines, ticker.String())
	}
	return nil, errors.Join(errs...)
}

// NewSource builds the configured headline source.
func NewSource(config *common.NewsConfig, fetcher PageFetcher, client NewsClient, logger arbor.ILogger) interfaces.HeadlineSource {
	google := NewGoogleSource(fetcher, config, logger)
	eodhdSource := NewEODHDSource(client)

	switch config.Source {
	case "google":
		return google
	case "eodhd":
		return eodhdSource
	default:
		return NewFallbackSource(logger, google, eodhdSource)
	}
}
