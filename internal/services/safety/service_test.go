package safety

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/eodhd"
	"github.com/ternarybob/tickerscope/internal/fmp"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
	"github.com/ternarybob/tickerscope/internal/services/cache"
)

var (
	_ interfaces.SafetyService        = (*Service)(nil)
	_ interfaces.SafetyInputsProvider = (*FMPProvider)(nil)
	_ interfaces.SafetyInputsProvider = (*EODHDProvider)(nil)
	_ interfaces.RatiosProvider       = (*RatiosSource)(nil)
	_ FMPClient                       = (*fmp.Client)(nil)
	_ FundamentalsClient              = (*eodhd.Client)(nil)
)

type stubProvider struct {
	name   string
	inputs models.SafetyScoreInputs
	err    error
	calls  atomic.Int32
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) SafetyInputs(context.Context, common.Ticker) (models.SafetyScoreInputs, error) {
	p.calls.Add(1)
	return p.inputs, p.err
}

type stubFMP struct {
	hasKey  bool
	profile *fmp.Profile
	ratios  *fmp.Ratios
	rating  *fmp.Rating
	symbols []string
}

func (c *stubFMP) HasAPIKey() bool { return c.hasKey }

func (c *stubFMP) GetProfile(_ context.Context, symbol string) (*fmp.Profile, error) {
	c.symbols = append(c.symbols, symbol)
	if c.profile == nil {
		return nil, fmp.ErrNoData
	}
	return c.profile, nil
}

func (c *stubFMP) GetRatios(_ context.Context, symbol string) (*fmp.Ratios, error) {
	if c.ratios == nil {
		return nil, fmp.ErrNoData
	}
	return c.ratios, nil
}

func (c *stubFMP) GetRating(_ context.Context, symbol string) (*fmp.Rating, error) {
	if c.rating == nil {
		return nil, fmp.ErrNoData
	}
	return c.rating, nil
}

type stubFundamentals struct {
	hasKey   bool
	response *eodhd.FundamentalsResponse
	err      error
}

func (c *stubFundamentals) HasAPIKey() bool { return c.hasKey }

func (c *stubFundamentals) GetFundamentals(context.Context, string) (*eodhd.FundamentalsResponse, error) {
	return c.response, c.err
}

func newTestService(providers []interfaces.SafetyInputsProvider, ratios interfaces.RatiosProvider) *Service {
	return NewService(providers, ratios, cache.NewMemoryStore(), common.NewDefaultConfig(), arbor.NewLogger())
}

func TestService_FillsGapsInProviderOrder(t *testing.T) {
	first := &stubProvider{name: "fmp", inputs: models.SafetyScoreInputs{Beta: ptr(2), DebtToEquity: ptr(0)}}
	second := &stubProvider{name: "eodhd", inputs: models.SafetyScoreInputs{Beta: ptr(0.5), AnalystRating: ptr(5)}}
	svc := newTestService([]interfaces.SafetyInputsProvider{first, second}, nil)

	report, err := svc.Report(context.Background(), common.MustParseTicker("AAPL"))

	require.NoError(t, err)
	assert.Equal(t, 2.0, *report.Inputs.Beta, "earlier provider wins")
	assert.Equal(t, 5.0, *report.Inputs.AnalystRating)
	assert.InDelta(t, 84, report.Score.Value, 1e-9)
	assert.Empty(t, report.Score.Defaulted)
	assert.Equal(t, map[string]string{
		InputBeta:          "fmp",
		InputDebtToEquity:  "fmp",
		InputAnalystRating: "eodhd",
	}, report.Sources)
}

func TestService_StopsOnceComplete(t *testing.T) {
	first := &stubProvider{name: "fmp", inputs: models.SafetyScoreInputs{Beta: ptr(1), DebtToEquity: ptr(1), AnalystRating: ptr(2.5)}}
	second := &stubProvider{name: "eodhd"}
	svc := newTestService([]interfaces.SafetyInputsProvider{first, second}, nil)

	_, err := svc.Report(context.Background(), common.MustParseTicker("AAPL"))

	require.NoError(t, err)
	assert.Equal(t, int32(0), second.calls.Load())
}

func TestService_CachesReport(t *testing.T) {
	provider := &stubProvider{name: "fmp", inputs: models.SafetyScoreInputs{Beta: ptr(1.2)}}
	svc := newTestService([]interfaces.SafetyInputsProvider{provider}, nil)
	ticker := common.MustParseTicker("MSFT")

	first, err := svc.Report(context.Background(), ticker)
	require.NoError(t, err)
	second, err := svc.Report(context.Background(), ticker)
	require.NoError(t, err)

	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestService_AllProvidersFailGivesDefaultsUncached(t *testing.T) {
	provider := &stubProvider{name: "fmp", err: errors.New("upstream down")}
	svc := newTestService([]interfaces.SafetyInputsProvider{provider}, nil)
	ticker := common.MustParseTicker("MSFT")

	report, err := svc.Report(context.Background(), ticker)

	require.NoError(t, err)
	assert.InDelta(t, 74, report.Score.Value, 1e-9)
	assert.Len(t, report.Score.Defaulted, 3)

	_, err = svc.Report(context.Background(), ticker)
	require.NoError(t, err)
	assert.Equal(t, int32(2), provider.calls.Load(), "defaults-only reports are not cached")
}

func TestService_Cancelled(t *testing.T) {
	svc := newTestService([]interfaces.SafetyInputsProvider{&stubProvider{name: "fmp"}}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Report(ctx, common.MustParseTicker("AAPL"))

	assert.ErrorIs(t, err, context.Canceled)
}

func TestFMPProvider(t *testing.T) {
	client := &stubFMP{
		hasKey:  true,
		profile: &fmp.Profile{Beta: ptr(1.3)},
		rating:  &fmp.Rating{RatingScore: ptr(4)},
	}
	provider := NewFMPProvider(client, arbor.NewLogger())

	inputs, err := provider.SafetyInputs(context.Background(), common.MustParseTicker("BRK.B"))

	require.NoError(t, err)
	assert.Equal(t, 1.3, *inputs.Beta)
	assert.Nil(t, inputs.DebtToEquity)
	assert.Equal(t, 4.0, *inputs.AnalystRating)
	assert.Equal(t, []string{"BRK-B"}, client.symbols)
}

func TestFMPProvider_NothingAvailable(t *testing.T) {
	provider := NewFMPProvider(&stubFMP{hasKey: true}, arbor.NewLogger())
	_, err := provider.SafetyInputs(context.Background(), common.MustParseTicker("AAPL"))
	assert.ErrorIs(t, err, fmp.ErrNoData)

	provider = NewFMPProvider(&stubFMP{}, arbor.NewLogger())
	_, err = provider.SafetyInputs(context.Background(), common.MustParseTicker("AAPL"))
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestEODHDProvider(t *testing.T) {
	client := &stubFundamentals{hasKey: true, response: &eodhd.FundamentalsResponse{
		Technicals:     &eodhd.Technicals{Beta: 0.9},
		AnalystRatings: &eodhd.AnalystRatings{Rating: 4.2},
	}}

	inputs, err := NewEODHDProvider(client).SafetyInputs(context.Background(), common.MustParseTicker("AAPL"))

	require.NoError(t, err)
	assert.Equal(t, 0.9, *inputs.Beta)
	assert.Equal(t, 4.2, *inputs.AnalystRating)
	assert.Nil(t, inputs.DebtToEquity)
}

func TestRatiosSource_FillsFromEODHD(t *testing.T) {
	fmpClient := &stubFMP{hasKey: true, ratios: &fmp.Ratios{
		PriceEarningsRatio: ptr(28.1),
		DebtEquityRatio:    ptr(1.7),
		NetIncomePerShare:  ptr(6.1),
	}}
	eodhdClient := &stubFundamentals{hasKey: true, response: &eodhd.FundamentalsResponse{
		Highlights: &eodhd.Highlights{PERatio: 30, ReturnOnEquityTTM: 1.47, EarningsShare: 6.2},
	}}

	svc := newTestService(nil, NewRatiosSource(fmpClient, eodhdClient, arbor.NewLogger()))
	ratios, err := svc.Ratios(context.Background(), common.MustParseTicker("AAPL"))

	require.NoError(t, err)
	assert.Equal(t, 28.1, *ratios.PERatio, "FMP value is kept")
	assert.Equal(t, 1.47, *ratios.ROE)
	assert.Equal(t, 6.1, *ratios.EPS)
	assert.Equal(t, 1.7, *ratios.DebtToEquity)
	assert.Equal(t, "fmp+eodhd", ratios.Source)
}

func TestRatiosSource_NothingConfigured(t *testing.T) {
	svc := newTestService(nil, NewRatiosSource(&stubFMP{}, &stubFundamentals{}, arbor.NewLogger()))

	_, err := svc.Ratios(context.Background(), common.MustParseTicker("AAPL"))

	assert.ErrorIs(t, err, ErrNoRatios)
}
