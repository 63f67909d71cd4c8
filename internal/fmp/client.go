package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"golang.org/x/time/rate"
)

// Client is a Financial Modeling Prep API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     arbor.ILogger
}

// NewClient creates an FMP client from config.
func NewClient(config *common.FMPConfig, logger arbor.ILogger) *Client {
	timeout := config.Timeout.Duration
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := config.RateLimit
	if rps <= 0 {
		rps = 5
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), rps),
		logger:     logger,
	}
}

// HasAPIKey reports whether the client was configured with credentials.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// getFirst fetches a list endpoint and decodes its first element into result.
func (c *Client) getFirst(ctx context.Context, path string, params url.Values, result interface{}) error {
	if c.apiKey == "" {
		return ErrMissingAPIKey
	}

	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("rate limiter: %w", ctxErr)
		}
		if _, ok := ctx.Deadline(); ok {
			return fmt.Errorf("rate limiter: %v: %w", err, context.DeadlineExceeded)
		}
		return fmt.Errorf("rate limiter: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", common.UserAgent())

	c.logger.Debug().Str("url", c.baseURL+path).Msg("FMP API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := string(body)
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg, Endpoint: path}
	}

	// FMP reports bad keys as 200 with {"Error Message": "..."}
	var errBody struct {
		ErrorMessage string `json:"Error Message"`
	}
	if json.Unmarshal(body, &errBody) == nil && errBody.ErrorMessage != "" {
		return &APIError{StatusCode: http.StatusUnauthorized, Message: errBody.ErrorMessage, Endpoint: path}
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s", ErrNoData, path)
	}
	if err := json.Unmarshal(rows[0], result); err != nil {
		return fmt.Errorf("failed to decode row: %w", err)
	}
	return nil
}

// GetProfile fetches the company profile.
func (c *Client) GetProfile(ctx context.Context, symbol string) (*Profile, error) {
	var profile Profile
	if err := c.getFirst(ctx, "/profile/"+symbol, nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetRatios fetches the most recent annual ratios row.
func (c *Client) GetRatios(ctx context.Context, symbol string) (*Ratios, error) {
	params := url.Values{}
	params.Set("limit", "1")

	var ratios Ratios
	if err := c.getFirst(ctx, "/ratios/"+symbol, params, &ratios); err != nil {
		return nil, err
	}
	return &ratios, nil
}

// GetRating fetches the current FMP rating.
func (c *Client) GetRating(ctx context.Context, symbol string) (*Rating, error) {
	var rating Rating
	if err := c.getFirst(ctx, "/rating/"+symbol, nil, &rating); err != nil {
		return nil, err
	}
	return &rating, nil
}
