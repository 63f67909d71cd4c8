// Package news collects recent headlines for a ticker from Google News search
// results or the EODHD news feed.
package news

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
)

// PageFetcher fetches a page body.
type PageFetcher interface {
	Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error)
}

// GoogleSource scrapes headline text from a Google News search results page.
type GoogleSource struct {
	fetcher   PageFetcher
	searchURL string // fmt template, %s is the escaped query
	selector  string
	logger    arbor.ILogger
}

// NewGoogleSource creates the Google News headline source.
func NewGoogleSource(fetcher PageFetcher, config *common.NewsConfig, logger arbor.ILogger) *GoogleSource {
	return &GoogleSource{
		fetcher:   fetcher,
		searchURL: config.SearchURL,
		selector:  config.Selector,
		logger:    logger,
	}
}

func (s *GoogleSource) Name() string { return "google" }

// Headlines returns up to limit distinct headlines in page order.
func (s *GoogleSource) Headlines(ctx context.Context, ticker common.Ticker, limit int) ([]models.Headline, error) {
	pageURL := fmt.Sprintf(s.searchURL, url.QueryEscape(ticker.Code))

	body, err := s.fetcher.Get(ctx, pageURL, map[string]string{
		"Accept":          "text/html",
		"Accept-Language": "en-US,en;q=0.9",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch news page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse news page: %w", err)
	}

	headlines := s.extract(doc, limit)
	s.logger.Debug().
		Str("ticker", ticker.String()).
		Int("found", len(headlines)).
		Msg("Google News headlines extracted")

	if len(headlines) == 0 {
		return nil, fmt.Errorf("%w: selector %q matched nothing for %s", interfaces.ErrNoHeadlines, s.selector, ticker.String())
	}
	return headlines, nil
}

func (s *GoogleSource) extract(doc *goquery.Document, limit int) []models.Headline {
	var headlines []models.Headline
	seen := make(map[string]bool)

	doc.Find(s.selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title := strings.Join(strings.Fields(sel.Text()), " ")
		if title == "" || seen[title] {
			return true
		}
		seen[title] = true

		h := models.Headline{Title: title, Source: s.Name()}
		if href, ok := sel.Closest("a").Attr("href"); ok {
			h.URL = resultLink(href)
		}
		headlines = append(headlines, h)
		return limit <= 0 || len(headlines) < limit
	})
	return headlines
}

// resultLink unwraps Google's "/url?q=<target>&..." redirect links.
func resultLink(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if u.Path == "/url" {
		if target := u.Query().Get("q"); target != "" {
			return target
		}
	}
	return href
}
