package sec

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/services/cache"
)

const tickerMapJSON = `{
	"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
	"1": {"cik_str": 1067983, "ticker": "BRK-B", "title": "Berkshire Hathaway Inc"}
}`

const companyFactsJSON = `{
	"cik": 320193,
	"facts": {
		"us-gaap": {
			"CommonStockSharesOutstanding": {
				"units": {
					"shares": [
						{"end": "2024-09-28", "val": 15116786000, "form": "10-K", "filed": "2024-11-01"},
						{"end": "2025-06-28", "val": 14935826000, "form": "10-Q", "filed": "2025-08-01"},
						{"end": "2023-09-30", "val": 15550061000, "form": "10-K", "filed": "2023-11-03"}
					]
				}
			}
		}
	}
}`

type secFixture struct {
	server    *httptest.Server
	mapHits   int32
	userAgent atomic.Value
}

func newSECFixture(t *testing.T, facts string) *secFixture {
	f := &secFixture{}
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&f.mapHits, 1)
		f.userAgent.Store(r.Header.Get("User-Agent"))
		w.Write([]byte(tickerMapJSON))
	})
	mux.HandleFunc("/api/xbrl/companyfacts/CIK0000320193.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(facts))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func newTestClient(f *secFixture, userAgent string) *Client {
	config := common.NewDefaultConfig().SEC
	config.BaseURL = f.server.URL
	config.TickerMapURL = f.server.URL + "/files/company_tickers.json"
	config.UserAgent = userAgent
	return NewClient(&config, cache.NewMemoryStore(), time.Hour, arbor.NewLogger())
}

func TestLookupCIK(t *testing.T) {
	f := newSECFixture(t, companyFactsJSON)
	client := newTestClient(f, "TickerScope test@example.com")
	ctx := context.Background()

	cik, err := client.LookupCIK(ctx, common.MustParseTicker("aapl"))
	require.NoError(t, err)
	assert.Equal(t, "0000320193", cik)
	assert.Equal(t, "TickerScope test@example.com", f.userAgent.Load())

	cik, err = client.LookupCIK(ctx, common.MustParseTicker("BRK.B"))
	require.NoError(t, err)
	assert.Equal(t, "0001067983", cik)

	_, err = client.LookupCIK(ctx, common.MustParseTicker("ZZZZ"))
	assert.ErrorIs(t, err, ErrCIKNotFound)

	// Ticker map is fetched once and served from cache afterwards
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.mapHits))
}

func TestLookupCIK_MissingUserAgent(t *testing.T) {
	f := newSECFixture(t, companyFactsJSON)
	client := newTestClient(f, "  ")

	_, err := client.LookupCIK(context.Background(), common.MustParseTicker("AAPL"))
	require.ErrorIs(t, err, ErrMissingUserAgent)
	assert.True(t, IsAuthError(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&f.mapHits))
}

func TestSharesOutstanding_LatestByPeriodEnd(t *testing.T) {
	f := newSECFixture(t, companyFactsJSON)
	client := newTestClient(f, "TickerScope test@example.com")

	value, err := client.SharesOutstanding(context.Background(), "0000320193")
	require.NoError(t, err)
	assert.Equal(t, 14935826000.0, value.Value)
	assert.Equal(t, "10-Q", value.Form)
	assert.Equal(t, time.Date(2025, 6, 28, 0, 0, 0, 0, time.UTC), value.End)
}

func TestSharesOutstanding_FallsBackToCoverPage(t *testing.T) {
	facts := `{"facts": {"dei": {"EntityCommonStockSharesOutstanding": {"units": {"shares": [
		{"end": "2025-07-18", "val": 14840390000, "form": "10-Q"}
	]}}}}}`
	f := newSECFixture(t, facts)
	client := newTestClient(f, "TickerScope test@example.com")

	value, err := client.SharesOutstanding(context.Background(), "0000320193")
	require.NoError(t, err)
	assert.Equal(t, 14840390000.0, value.Value)
}

func TestSharesOutstanding_Missing(t *testing.T) {
	f := newSECFixture(t, `{"facts": {"us-gaap": {}}}`)
	client := newTestClient(f, "TickerScope test@example.com")

	_, err := client.SharesOutstanding(context.Background(), "0000320193")
	assert.ErrorIs(t, err, ErrFactNotFound)
}

func TestCompanyFacts_Forbidden(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	config := common.NewDefaultConfig().SEC
	config.BaseURL = server.URL
	config.UserAgent = "TickerScope test@example.com"
	client := NewClient(&config, cache.NewMemoryStore(), time.Hour, arbor.NewLogger())

	_, err := client.CompanyFacts(context.Background(), "0000320193")
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
}

func TestLatestFact_IgnoresBadEntries(t *testing.T) {
	var facts any
	require.NoError(t, json.Unmarshal([]byte(`{"s": [
		{"end": "not-a-date", "val": 5},
		{"end": "2024-01-01", "val": 0},
		{"end": "2023-01-01", "val": 7},
		"junk"
	]}`), &facts))

	value, err := LatestFact(facts, "$.s")
	require.NoError(t, err)
	assert.Equal(t, 7.0, value.Value)

	_, err = LatestFact(facts, "$.missing")
	assert.ErrorIs(t, err, ErrFactNotFound)
}

func TestGet_LimiterPastDeadlineIsDeadlineExceeded(t *testing.T) {
	f := newSECFixture(t, companyFactsJSON)
	config := common.NewDefaultConfig().SEC
	config.BaseURL = f.server.URL
	config.TickerMapURL = f.server.URL + "/files/company_tickers.json"
	config.UserAgent = "Tickerscope test@example.com"
	config.RateLimit = 1
	client := NewClient(&config, cache.NewMemoryStore(), time.Hour, arbor.NewLogger())

	_, err := client.get(context.Background(), config.TickerMapURL)
	require.NoError(t, err)

	// The next slot is a second away, past this deadline
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = client.get(ctx, config.TickerMapURL)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
