package sec

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/services/cache"
	"golang.org/x/time/rate"
)

// deiSharesPath is the cover-page share count, reported by filers that omit the us-gaap series.
const deiSharesPath = `$.facts.dei.EntityCommonStockSharesOutstanding.units.shares`

const tickerMapCacheKey = "sec:ticker-map"

// Client reads the SEC ticker map and XBRL company facts.
type Client struct {
	baseURL      string
	tickerMapURL string
	userAgent    string
	sharesPaths  []string
	httpClient   *http.Client
	limiter      *rate.Limiter
	logger       arbor.ILogger
	cache        interfaces.CacheStore
	tickerMapTTL time.Duration
}

// NewClient creates a SEC client from config. The cache holds the ticker map.
func NewClient(config *common.SECConfig, store interfaces.CacheStore, tickerMapTTL time.Duration, logger arbor.ILogger) *Client {
	timeout := config.Timeout.Duration
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	rps := config.RateLimit
	if rps <= 0 {
		rps = 10
	}

	paths := []string{}
	if config.SharesPath != "" {
		paths = append(paths, config.SharesPath)
	}
	if config.SharesPath != deiSharesPath {
		paths = append(paths, deiSharesPath)
	}

	return &Client{
		baseURL:      strings.TrimRight(config.BaseURL, "/"),
		tickerMapURL: config.TickerMapURL,
		userAgent:    strings.TrimSpace(config.UserAgent),
		sharesPaths:  paths,
		httpClient:   &http.Client{Timeout: timeout},
		limiter:      rate.NewLimiter(rate.Limit(rps), rps),
		logger:       logger,
		cache:        store,
		tickerMapTTL: tickerMapTTL,
	}
}

// limiterError reports a refused limiter wait as a deadline when ctx carries one, since
// the limiter refuses early when the next slot lies past the deadline.
func limiterError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("rate limiter: %w", ctxErr)
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("rate limiter: %v: %w", err, context.DeadlineExceeded)
	}
	return fmt.Errorf("rate limiter: %w", err)
}

// get performs an identified GET and returns the body.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	if c.userAgent == "" {
		return nil, ErrMissingUserAgent
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, limiterError(ctx, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", reqURL).Msg("SEC API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg, Endpoint: reqURL}
	}
	return body, nil
}

// LookupCIK returns the zero-padded 10-digit CIK for a ticker.
func (c *Client) LookupCIK(ctx context.Context, ticker common.Ticker) (string, error) {
	tickers, _, err := cache.Remember(c.cache, tickerMapCacheKey, c.tickerMapTTL, func() (map[string]int64, error) {
		return c.fetchTickerMap(ctx)
	})
	if err != nil {
		return "", err
	}

	symbol := strings.ReplaceAll(ticker.Code, ".", "-")
	cik, ok := tickers[symbol]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrCIKNotFound, ticker.Code)
	}
	return fmt.Sprintf("%010d", cik), nil
}

func (c *Client) fetchTickerMap(ctx context.Context) (map[string]int64, error) {
	body, err := c.get(ctx, c.tickerMapURL)
	if err != nil {
		return nil, err
	}

	var rows map[string]tickerEntry
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode ticker map: %w", err)
	}

	tickers := make(map[string]int64, len(rows))
	for _, row := range rows {
		tickers[strings.ToUpper(row.Ticker)] = row.CIK
	}

	c.logger.Debug().Int("tickers", len(tickers)).Msg("SEC ticker map loaded")
	return tickers, nil
}

// CompanyFacts fetches the companyfacts document as generic JSON.
func (c *Client) CompanyFacts(ctx context.Context, cik string) (any, error) {
	body, err := c.get(ctx, fmt.Sprintf("%s/api/xbrl/companyfacts/CIK%s.json", c.baseURL, cik))
	if err != nil {
		return nil, err
	}

	var facts any
	if err := json.Unmarshal(body, &facts); err != nil {
		return nil, fmt.Errorf("failed to decode company facts: %w", err)
	}
	return facts, nil
}

// SharesOutstanding returns the most recent shares-outstanding value for a CIK.
// The configured JSONPath is tried first, then the cover-page dei series.
func (c *Client) SharesOutstanding(ctx context.Context, cik string) (FactValue, error) {
	facts, err := c.CompanyFacts(ctx, cik)
	if err != nil {
		return FactValue{}, err
	}

	for _, path := range c.sharesPaths {
		value, err := LatestFact(facts, path)
		if err == nil {
			return value, nil
		}
		c.logger.Debug().Str("cik", cik).Str("path", path).Err(err).Msg("Shares series not usable")
	}
	return FactValue{}, fmt.Errorf("%w: shares outstanding for CIK%s", ErrFactNotFound, cik)
}

// LatestFact evaluates path against decoded companyfacts JSON and returns the
// entry with the latest period end. The path must select an array of fact objects.
func LatestFact(facts any, path string) (FactValue, error) {
	selected, err := jsonpath.Get(path, facts)
	if err != nil {
		return FactValue{}, fmt.Errorf("%w: %s: %v", ErrFactNotFound, path, err)
	}

	entries := flattenFacts(selected)
	if len(entries) == 0 {
		return FactValue{}, fmt.Errorf("%w: %s selected no entries", ErrFactNotFound, path)
	}

	var latest FactValue
	found := false
	for _, raw := range entries {
		obj, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		val, ok := obj["val"].(float64)
		if !ok || val <= 0 {
			continue
		}
		endStr, _ := obj["end"].(string)
		end, err := time.Parse("2006-01-02", endStr)
		if err != nil {
			continue
		}
		if !found || end.After(latest.End) {
			form, _ := obj["form"].(string)
			filed, _ := obj["filed"].(string)
			latest = FactValue{End: end, Value: val, Form: form, Filed: filed}
			found = true
		}
	}

	if !found {
		return FactValue{}, fmt.Errorf("%w: %s has no dated values", ErrFactNotFound, path)
	}
	return latest, nil
}

// flattenFacts unwraps the list-of-lists that wildcard paths produce.
func flattenFacts(v any) []any {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []any
	for _, item := range list {
		if nested, ok := item.([]any); ok {
			out = append(out, nested...)
			continue
		}
		out = append(out, item)
	}
	return out
}
