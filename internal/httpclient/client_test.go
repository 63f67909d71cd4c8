package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func fastRetry() *RetryPolicy {
	p := NewRetryPolicy()
	p.InitialBackoff = time.Millisecond
	p.MaxBackoff = 5 * time.Millisecond
	return p
}

func TestFetcher_RetriesTransientStatus(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "tickerscope-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "en-US", r.Header.Get("Accept-Language"))
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	f := NewFetcher(time.Second, arbor.NewLogger(), WithRetryPolicy(fastRetry()), WithUserAgent("tickerscope-test"))
	body, err := f.Get(context.Background(), server.URL, map[string]string{"Accept-Language": "en-US"})

	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetcher_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(time.Second, arbor.NewLogger(), WithRetryPolicy(fastRetry()))
	_, err := f.Get(context.Background(), server.URL, nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetcher_GivesUpAfterMaxAttempts(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	f := NewFetcher(time.Second, arbor.NewLogger(), WithRetryPolicy(fastRetry()))
	_, err := f.Get(context.Background(), server.URL, nil)

	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetcher_NoRetryWithCustomClient(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewFetcher(time.Second, arbor.NewLogger(), WithRetryPolicy(NoRetry()), WithHTTPClient(server.Client()))
	_, err := f.Get(context.Background(), server.URL, nil)

	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHostLimiter_SpacesRequests(t *testing.T) {
	l := NewHostLimiter(30 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	require.NoError(t, l.Wait(ctx, "https://news.example.com/a"))
	require.NoError(t, l.Wait(ctx, "https://news.example.com/b"))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	// Other hosts are independent
	start = time.Now()
	require.NoError(t, l.Wait(ctx, "https://other.example.com/"))
	assert.Less(t, time.Since(start), 30*time.Millisecond)
}

func TestHostLimiter_HonoursContext(t *testing.T) {
	l := NewHostLimiter(time.Hour)
	require.NoError(t, l.Wait(context.Background(), "https://news.example.com/"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, l.Wait(ctx, "https://news.example.com/"), context.DeadlineExceeded)
}

func TestHostLimiter_SetHostDelay(t *testing.T) {
	l := NewHostLimiter(time.Second)
	assert.Equal(t, time.Second, l.HostDelay("a.example.com"))

	l.SetHostDelay("a.example.com", 2*time.Second)
	assert.Equal(t, 2*time.Second, l.HostDelay("a.example.com"))
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := &RetryPolicy{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond, BackoffMultiplier: 2}

	first := p.CalculateBackoff(0)
	assert.GreaterOrEqual(t, first, 75*time.Millisecond)
	assert.LessOrEqual(t, first, 125*time.Millisecond)

	capped := p.CalculateBackoff(10)
	assert.LessOrEqual(t, capped, 375*time.Millisecond)
}
