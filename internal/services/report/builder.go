// Package report assembles the per-ticker analysis and renders it as markdown,
// HTML or PDF.
package report

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
)

// Builder collects the sections of a ticker report. Any service may be nil.
type Builder struct {
	Ownership interfaces.OwnershipService
	Safety    interfaces.SafetyService
	Ratios    interfaces.RatiosProvider
	Sentiment interfaces.SentimentService
	Market    interfaces.MarketService
	Logger    arbor.ILogger

	now func() time.Time
}

// Build runs each section in turn. Section failures are recorded on the report;
// only caller cancellation is returned as an error.
func (b *Builder) Build(ctx context.Context, ticker common.Ticker) (*models.TickerReport, error) {
	now := time.Now
	if b.now != nil {
		now = b.now
	}

	rep := &models.TickerReport{
		Ticker:      ticker.String(),
		GeneratedAt: now().UTC(),
	}
	fail := func(section string, err error) {
		if rep.Errors == nil {
			rep.Errors = make(map[string]string)
		}
		rep.Errors[section] = err.Error()
		if b.Logger != nil {
			b.Logger.Warn().Str("ticker", ticker.String()).Str("section", section).Err(err).Msg("Report section failed")
		}
	}

	if b.Ownership != nil {
		ownership, err := b.Ownership.Get(ctx, ticker)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			fail("ownership", err)
		}
		rep.Ownership = ownership
	}

	if b.Safety != nil {
		safety, err := b.Safety.Report(ctx, ticker)
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			fail("safety", err)
		default:
			rep.Safety = safety
		}
	}

	if b.Ratios != nil {
		ratios, err := b.Ratios.Ratios(ctx, ticker)
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			fail("ratios", err)
		default:
			rep.Ratios = ratios
		}
	}

	if b.Sentiment != nil {
		sentiment, err := b.Sentiment.Analyze(ctx, ticker)
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			fail("sentiment", err)
		default:
			rep.Sentiment = sentiment
		}
	}

	if b.Market != nil {
		rep.Mood = b.Market.Mood(ctx)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	return rep, nil
}
