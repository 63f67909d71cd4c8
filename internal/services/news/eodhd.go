package news

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/eodhd"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
)

// NewsClient is the part of the EODHD client the news source reads.
type NewsClient interface {
	HasAPIKey() bool
	GetNews(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.NewsResponse, error)
}

// EODHDSource reads headlines from the EODHD news feed.
type EODHDSource struct {
	client NewsClient
}

// NewEODHDSource creates the EODHD headline source.
func NewEODHDSource(client NewsClient) *EODHDSource {
	return &EODHDSource{client: client}
}

func (s *EODHDSource) Name() string { return "eodhd" }

// Headlines returns the most recent headlines, newest first as EODHD orders them.
func (s *EODHDSource) Headlines(ctx context.Context, ticker common.Ticker, limit int) ([]models.Headline, error) {
	if !s.client.HasAPIKey() {
		return nil, eodhd.ErrMissingAPIKey
	}

	items, err := s.client.GetNews(ctx, ticker.EODHDSymbol(), eodhd.WithLimit(limit))
	if err != nil {
		return nil, err
	}

	headlines := make([]models.Headline, 0, len(items))
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		headlines = append(headlines, models.Headline{
			Title:       title,
			URL:         item.Link,
			PublishedAt: item.Date,
			Source:      s.Name(),
		})
		if limit > 0 && len(headlines) == limit {
			break
		}
	}

	if len(headlines) == 0 {
		return nil, fmt.Errorf("%w: EODHD has no news for %s", interfaces.ErrNoHeadlines, ticker.EODHDSymbol())
	}
	return headlines, nil
}
