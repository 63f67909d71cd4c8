package ownership

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
	"github.com/ternarybob/tickerscope/internal/services/cache"
)

var _ interfaces.OwnershipService = (*Service)(nil)

type memoryHistory struct {
	mu      sync.Mutex
	records []models.ResolutionRecord
}

func (h *memoryHistory) Record(_ context.Context, record *models.ResolutionRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, *record)
	return nil
}

func (h *memoryHistory) List(_ context.Context, ticker string, limit int) ([]models.ResolutionRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []models.ResolutionRecord
	for i := len(h.records) - 1; i >= 0 && len(out) < limit; i-- {
		if h.records[i].Ticker == ticker {
			out = append(out, h.records[i])
		}
	}
	return out, nil
}

type serviceClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *serviceClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *serviceClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestService(t *testing.T, history interfaces.ResolutionLog, resolvers ...Resolver) (*Service, *serviceClock) {
	t.Helper()
	clock := &serviceClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := cache.NewMemoryStoreWithClock(clock.Now)
	config := common.NewDefaultConfig()
	chain := NewChain(arbor.NewLogger(), NoPacing, resolvers...)
	return NewService(chain, store, history, config, arbor.NewLogger()), clock
}

func TestService_CachesWithinTTL(t *testing.T) {
	primary := succeeding(models.SourcePrimaryAPI, 72.5)
	svc, clock := newTestService(t, nil, primary)
	ticker := common.MustParseTicker("AAPL")

	first, err := svc.Get(context.Background(), ticker)
	require.NoError(t, err)
	require.True(t, first.Available)
	assert.False(t, first.Cached)
	assert.Equal(t, models.BandHigh, first.Band)

	clock.Advance(30 * time.Minute)

	second, err := svc.Get(context.Background(), ticker)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Result.Percent, second.Result.Percent)
	assert.Equal(t, first.Result.Source, second.Result.Source)
	assert.Equal(t, int32(1), primary.calls.Load(), "second call inside the TTL never reaches the chain")
}

func TestService_ResolvesAgainAfterExpiry(t *testing.T) {
	primary := succeeding(models.SourcePrimaryAPI, 40)
	svc, clock := newTestService(t, nil, primary)
	ticker := common.MustParseTicker("AAPL")

	_, err := svc.Get(context.Background(), ticker)
	require.NoError(t, err)

	clock.Advance(time.Hour)

	report, err := svc.Get(context.Background(), ticker)
	require.NoError(t, err)
	assert.False(t, report.Cached)
	assert.Equal(t, int32(2), primary.calls.Load())
}

func TestService_UnavailableIsNotAnError(t *testing.T) {
	primary := returning(models.SourcePrimaryAPI, OutcomeNoData)
	history := &memoryHistory{}
	svc, _ := newTestService(t, history, primary)
	ticker := common.MustParseTicker("ZZZZ")

	report, err := svc.Get(context.Background(), ticker)

	require.NoError(t, err)
	assert.False(t, report.Available)
	assert.Nil(t, report.Result)
	assert.Contains(t, report.Guidance, "zzzz")
	require.Len(t, report.Attempts, 1)
	assert.Equal(t, "no_data", report.Attempts[0].Outcome)

	// Failures are not cached
	_, err = svc.Get(context.Background(), ticker)
	require.NoError(t, err)
	assert.Equal(t, int32(2), primary.calls.Load())

	records, err := svc.History(context.Background(), ticker, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.False(t, records[0].Success)
}

func TestService_CallerCancellationIsAnError(t *testing.T) {
	svc, _ := newTestService(t, nil, succeeding(models.SourcePrimaryAPI, 50))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := svc.Get(ctx, common.MustParseTicker("AAPL"))

	assert.Nil(t, report)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestService_Analyze(t *testing.T) {
	percents := map[string]float64{"HIGH": 85, "MID": 50, "LOW": 12}
	primary := &fakeResolver{
		source:  models.SourcePrimaryAPI,
		timeout: time.Second,
		resolve: func(_ context.Context, ticker common.Ticker) Outcome {
			if p, ok := percents[ticker.Code]; ok {
				return Success(models.SourcePrimaryAPI, p)
			}
			return NoData(models.SourcePrimaryAPI, nil)
		},
	}
	svc, _ := newTestService(t, nil, primary)

	analysis, err := svc.Analyze(context.Background(), []string{"high", "mid", "low", "none", "b@d", "HIGH"})

	require.NoError(t, err)
	require.Len(t, analysis.High, 1)
	assert.Equal(t, "HIGH", analysis.High[0].Ticker)
	require.Len(t, analysis.Medium, 1)
	assert.Equal(t, "MID", analysis.Medium[0].Ticker)
	require.Len(t, analysis.Low, 1)
	assert.Equal(t, "LOW", analysis.Low[0].Ticker)
	require.Len(t, analysis.Unavailable, 1)
	assert.Equal(t, "NONE", analysis.Unavailable[0].Ticker)
	assert.Equal(t, []string{"b@d"}, analysis.Invalid)
	assert.Equal(t, int32(4), primary.calls.Load(), "duplicates are resolved once")
}

func TestService_HistoryWithoutLog(t *testing.T) {
	svc, _ := newTestService(t, nil)

	_, err := svc.History(context.Background(), common.MustParseTicker("AAPL"), 5)

	assert.ErrorIs(t, err, ErrHistoryUnavailable)
}

func TestClassify(t *testing.T) {
	bands := common.OwnershipBands{High: 70, Low: 30}

	assert.Equal(t, models.BandHigh, Classify(70, bands))
	assert.Equal(t, models.BandHigh, Classify(99.9, bands))
	assert.Equal(t, models.BandMedium, Classify(69.99, bands))
	assert.Equal(t, models.BandMedium, Classify(30, bands))
	assert.Equal(t, models.BandLow, Classify(29.99, bands))
	assert.Equal(t, models.BandLow, Classify(0, bands))
}

func TestService_NotifiesObserversWithoutHistory(t *testing.T) {
	primary := succeeding(models.SourcePrimaryAPI, 55)
	svc, _ := newTestService(t, nil, primary)
	ticker := common.MustParseTicker("MSFT")

	var seen []models.ResolutionRecord
	svc.OnResolution(func(rec models.ResolutionRecord) { seen = append(seen, rec) })

	_, err := svc.Get(context.Background(), ticker)
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), ticker)
	require.NoError(t, err)

	require.Len(t, seen, 1, "cache hits are not announced")
	assert.Equal(t, "MSFT", seen[0].Ticker)
	assert.True(t, seen[0].Success)
	assert.Equal(t, models.SourcePrimaryAPI, seen[0].Source)
}
