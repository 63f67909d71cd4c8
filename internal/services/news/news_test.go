package news

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/eodhd"
	"github.com/ternarybob/tickerscope/internal/httpclient"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
)

var (
	_ interfaces.HeadlineSource = (*GoogleSource)(nil)
	_ interfaces.HeadlineSource = (*EODHDSource)(nil)
	_ interfaces.HeadlineSource = (*FallbackSource)(nil)
	_ PageFetcher               = (*httpclient.Fetcher)(nil)
	_ NewsClient                = (*eodhd.Client)(nil)
)

const resultsPage = `<html><body>
<a href="/url?q=https://news.example.com/a&amp;sa=U"><div class="BNeawe vvjwJb AP7Wnd">Apple shares  climb on record iPhone sales</div></a>
<a href="https://news.example.com/b"><div class="BNeawe vvjwJb AP7Wnd">Apple faces EU probe</div></a>
<a href="https://news.example.com/c"><div class="BNeawe vvjwJb AP7Wnd">Apple faces EU probe</div></a>
<div class="BNeawe vvjwJb AP7Wnd">   </div>
<a href="https://news.example.com/d"><div class="BNeawe vvjwJb AP7Wnd">Analysts lift Apple target</div></a>
</body></html>`

func googleConfig(searchURL string) *common.NewsConfig {
	config := common.NewDefaultConfig().News
	config.SearchURL = searchURL
	return &config
}

func TestGoogleSource_ExtractsHeadlines(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer server.Close()

	fetcher := httpclient.NewFetcher(time.Second, arbor.NewLogger())
	source := NewGoogleSource(fetcher, googleConfig(server.URL+"/search?q=%s+stock&tbm=nws"), arbor.NewLogger())

	headlines, err := source.Headlines(context.Background(), common.MustParseTicker("AAPL"), 10)

	require.NoError(t, err)
	assert.Equal(t, "AAPL stock", gotQuery)
	require.Len(t, headlines, 3)
	assert.Equal(t, "Apple shares climb on record iPhone sales", headlines[0].Title)
	assert.Equal(t, "https://news.example.com/a", headlines[0].URL)
	assert.Equal(t, "Apple faces EU probe", headlines[1].Title)
	assert.Equal(t, "google", headlines[2].Source)
}

func TestGoogleSource_RespectsLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(resultsPage))
	}))
	defer server.Close()

	fetcher := httpclient.NewFetcher(time.Second, arbor.NewLogger())
	source := NewGoogleSource(fetcher, googleConfig(server.URL+"/search?q=%s"), arbor.NewLogger())

	headlines, err := source.Headlines(context.Background(), common.MustParseTicker("AAPL"), 1)

	require.NoError(t, err)
	assert.Len(t, headlines, 1)
}

func TestGoogleSource_NoMatches(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>consent wall</p></body></html>"))
	}))
	defer server.Close()

	fetcher := httpclient.NewFetcher(time.Second, arbor.NewLogger())
	source := NewGoogleSource(fetcher, googleConfig(server.URL+"/search?q=%s"), arbor.NewLogger())

	_, err := source.Headlines(context.Background(), common.MustParseTicker("AAPL"), 10)

	assert.ErrorIs(t, err, interfaces.ErrNoHeadlines)
}

type stubNews struct {
	hasKey bool
	items  eodhd.NewsResponse
	err    error
}

func (s *stubNews) HasAPIKey() bool { return s.hasKey }

func (s *stubNews) GetNews(context.Context, string, ...eodhd.QueryOption) (eodhd.NewsResponse, error) {
	return s.items, s.err
}

func TestEODHDSource(t *testing.T) {
	published := time.Date(2025, 2, 3, 14, 0, 0, 0, time.UTC)
	client := &stubNews{hasKey: true, items: eodhd.NewsResponse{
		{Title: " Microsoft expands AI deal ", Link: "https://news.example.com/m", Date: published},
		{Title: ""},
		{Title: "Microsoft cloud growth slows"},
	}}

	headlines, err := NewEODHDSource(client).Headlines(context.Background(), common.MustParseTicker("MSFT"), 5)

	require.NoError(t, err)
	require.Len(t, headlines, 2)
	assert.Equal(t, "Microsoft expands AI deal", headlines[0].Title)
	assert.Equal(t, published, headlines[0].PublishedAt)
	assert.Equal(t, "eodhd", headlines[0].Source)
}

func TestEODHDSource_MissingKey(t *testing.T) {
	_, err := NewEODHDSource(&stubNews{}).Headlines(context.Background(), common.MustParseTicker("MSFT"), 5)
	assert.ErrorIs(t, err, eodhd.ErrMissingAPIKey)
}

type stubSource struct {
	name      string
	headlines []models.Headline
	err       error
	calls     int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Headlines(context.Context, common.Ticker, int) ([]models.Headline, error) {
	s.calls++
	return s.headlines, s.err
}

func TestFallbackSource(t *testing.T) {
	ticker := common.MustParseTicker("AAPL")

	t.Run("first source wins", func(t *testing.T) {
		first := &stubSource{name: "google", headlines: []models.Headline{{Title: "A"}}}
		second := &stubSource{name: "eodhd", headlines: []models.Headline{{Title: "B"}}}

		got, err := NewFallbackSource(arbor.NewLogger(), first, second).Headlines(context.Background(), ticker, 10)

		require.NoError(t, err)
		assert.Equal(t, "A", got[0].Title)
		assert.Equal(t, 0, second.calls)
	})

	t.Run("falls back on failure", func(t *testing.T) {
		first := &stubSource{name: "google", err: errors.New("blocked")}
		second := &stubSource{name: "eodhd", headlines: []models.Headline{{Title: "B"}}}

		got, err := NewFallbackSource(arbor.NewLogger(), first, second).Headlines(context.Background(), ticker, 10)

		require.NoError(t, err)
		assert.Equal(t, "B", got[0].Title)
	})

	t.Run("all empty", func(t *testing.T) {
		first := &stubSource{name: "google", err: interfaces.ErrNoHeadlines}
		second := &stubSource{name: "eodhd"}

		_, err := NewFallbackSource(arbor.NewLogger(), first, second).Headlines(context.Background(), ticker, 10)

		assert.ErrorIs(t, err, interfaces.ErrNoHeadlines)
	})

	t.Run("real failure surfaces", func(t *testing.T) {
		first := &stubSource{name: "google", err: errors.New("blocked")}
		second := &stubSource{name: "eodhd", err: interfaces.ErrNoHeadlines}

		_, err := NewFallbackSource(arbor.NewLogger(), first, second).Headlines(context.Background(), ticker, 10)

		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "blocked"))
	})
}

func TestNewSource_SelectsByConfig(t *testing.T) {
	config := common.NewDefaultConfig().News
	fetcher := httpclient.NewFetcher(time.Second, arbor.NewLogger())
	client := &stubNews{}

	config.Source = "google"
	assert.Equal(t, "google", NewSource(&config, fetcher, client, arbor.NewLogger()).Name())
	config.Source = "eodhd"
	assert.Equal(t, "eodhd", NewSource(&config, fetcher, client, arbor.NewLogger()).Name())
	config.Source = "auto"
	assert.Equal(t, "auto", NewSource(&config, fetcher, client, arbor.NewLogger()).Name())
}
