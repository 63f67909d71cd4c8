// Package httpclient provides the paced, retrying HTTP fetcher used for
// scraped pages and keyless JSON endpoints.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 8 << 20

// NewDefaultHTTPClient creates a simple HTTP client with a timeout
func NewDefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Fetcher performs GET requests with a per-host delay and retry on transient failures.
type Fetcher struct {
	client    *http.Client
	limiter   *HostLimiter
	retry     *RetryPolicy
	userAgent string
	logger    arbor.ILogger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the underlying client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = client }
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithHostDelay sets the minimum delay between requests to the same host.
func WithHostDelay(delay time.Duration) FetcherOption {
	return func(f *Fetcher) { f.limiter = NewHostLimiter(delay) }
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(policy *RetryPolicy) FetcherOption {
	return func(f *Fetcher) { f.retry = policy }
}

// NewFetcher creates a fetcher with the given request timeout.
func NewFetcher(timeout time.Duration, logger arbor.ILogger, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:  NewDefaultHTTPClient(timeout),
		limiter: NewHostLimiter(0),
		retry:   NewRetryPolicy(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Get fetches rawURL and returns the body of a 200 response.
func (f *Fetcher) Get(ctx context.Context, rawURL string, headers map[string]string) ([]byte, error) {
	var body []byte

	_, err := f.retry.ExecuteWithRetry(ctx, f.logger, func() (int, error) {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			return 0, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return 0, fmt.Errorf("failed to create request: %w", err)
		}
		if f.userAgent != "" {
			req.Header.Set("User-Agent", f.userAgent)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			return 0, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, URL: rawURL}
		}

		body, err = io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
		}
		return resp.StatusCode, nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
