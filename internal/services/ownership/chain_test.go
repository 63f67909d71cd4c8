package ownership

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/models"
)

type fakeResolver struct {
	source  models.OwnershipSource
	timeout time.Duration
	calls   atomic.Int32
	resolve func(ctx context.Context, ticker common.Ticker) Outcome
}

func (f *fakeResolver) Source() models.OwnershipSource { return f.source }
func (f *fakeResolver) Timeout() time.Duration         { return f.timeout }

func (f *fakeResolver) Resolve(ctx context.Context, ticker common.Ticker) Outcome {
	f.calls.Add(1)
	return f.resolve(ctx, ticker)
}

func succeeding(source models.OwnershipSource, percent float64) *fakeResolver {
	return &fakeResolver{source: source, timeout: time.Second, resolve: func(context.Context, common.Ticker) Outcome {
		return Success(source, percent)
	}}
}

func returning(source models.OwnershipSource, kind OutcomeKind) *fakeResolver {
	return &fakeResolver{source: source, timeout: time.Second, resolve: func(context.Context, common.Ticker) Outcome {
		return Outcome{Kind: kind, Source: source, Err: errors.New(kind.String())}
	}}
}

type countingPacer struct {
	calls atomic.Int32
}

func (p *countingPacer) Pause(ctx context.Context) error {
	p.calls.Add(1)
	return ctx.Err()
}

func newTestChain(pacer Pacer, resolvers ...Resolver) *Chain {
	return NewChain(arbor.NewLogger(), pacer, resolvers...)
}

func TestChain_PrimarySuccessStopsChain(t *testing.T) {
	primary := succeeding(models.SourcePrimaryAPI, 61.5)
	browserR := succeeding(models.SourceBrowser, 10)
	backup := succeeding(models.SourceBackupAPI, 20)
	pacer := &countingPacer{}

	chain := newTestChain(pacer, primary, browserR, backup)
	result, err := chain.Resolve(context.Background(), common.MustParseTicker("AAPL"))

	require.NoError(t, err)
	assert.Equal(t, models.SourcePrimaryAPI, result.Source)
	assert.Equal(t, 61.5, result.Percent)
	assert.Equal(t, "AAPL", result.Ticker)
	assert.False(t, result.Degraded)
	assert.Equal(t, int32(0), browserR.calls.Load())
	assert.Equal(t, int32(0), backup.calls.Load())
	assert.Equal(t, int32(0), pacer.calls.Load(), "no pause before the first attempt")
}

func TestChain_FallsThroughNoData(t *testing.T) {
	primary := returning(models.SourcePrimaryAPI, OutcomeNoData)
	browserR := succeeding(models.SourceBrowser, 42.3)
	backup := succeeding(models.SourceBackupAPI, 20)
	pacer := &countingPacer{}

	chain := newTestChain(pacer, primary, browserR, backup)
	result, err := chain.Resolve(context.Background(), common.MustParseTicker("MSFT"))

	require.NoError(t, err)
	assert.Equal(t, models.SourceBrowser, result.Source)
	assert.Equal(t, 42.3, result.Percent)
	assert.False(t, result.Degraded, "no data from a source is not a degradation")
	assert.Equal(t, int32(0), backup.calls.Load())
	assert.Equal(t, int32(1), pacer.calls.Load())
}

func TestChain_AllFail(t *testing.T) {
	pacer := &countingPacer{}
	chain := newTestChain(pacer,
		returning(models.SourcePrimaryAPI, OutcomeNoData),
		returning(models.SourceBrowser, OutcomeNoData),
		returning(models.SourceBackupAPI, OutcomeNoData),
	)

	result, err := chain.Resolve(context.Background(), common.MustParseTicker("ZZZZ"))

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, ErrResolutionFailed))

	var failure *ResolutionFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, "ZZZZ", failure.Ticker)
	require.Len(t, failure.Attempts, 3)
	assert.Nil(t, failure.Cause)
	assert.Contains(t, err.Error(), "BACKUP_API=no_data")

	// Pauses only between attempts, never after the last
	assert.Equal(t, int32(2), pacer.calls.Load())
}

func TestChain_UnrecoverableDisablesSource(t *testing.T) {
	primary := returning(models.SourcePrimaryAPI, OutcomeUnrecoverable)
	browserR := returning(models.SourceBrowser, OutcomeNoData)
	backup := succeeding(models.SourceBackupAPI, 33)

	chain := newTestChain(NoPacing, primary, browserR, backup)
	ticker := common.MustParseTicker("IBM")

	first, err := chain.Resolve(context.Background(), ticker)
	require.NoError(t, err)
	assert.True(t, first.Degraded)
	assert.Equal(t, models.SourceBackupAPI, first.Source)

	res := chain.ResolveDetailed(context.Background(), ticker)
	require.NoError(t, res.Err)
	assert.Equal(t, int32(1), primary.calls.Load(), "disabled source is not invoked again")
	assert.Equal(t, int32(2), browserR.calls.Load())
	assert.True(t, res.Result.Degraded)

	require.NotEmpty(t, res.Attempts)
	assert.True(t, res.Attempts[0].Skipped)
	assert.Equal(t, "disabled", res.Attempts[0].Summary().Outcome)

	disabled := chain.Disabled()
	assert.Contains(t, disabled, models.SourcePrimaryAPI)
	assert.NotContains(t, disabled, models.SourceBrowser)
}

func TestChain_TimeoutMarksDegraded(t *testing.T) {
	slow := &fakeResolver{
		source:  models.SourcePrimaryAPI,
		timeout: 20 * time.Millisecond,
		resolve: func(ctx context.Context, _ common.Ticker) Outcome {
			<-ctx.Done()
			return NoData(models.SourcePrimaryAPI, ctx.Err())
		},
	}
	backup := succeeding(models.SourceBackupAPI, 55)

	chain := newTestChain(NoPacing, slow, backup)
	res := chain.ResolveDetailed(context.Background(), common.MustParseTicker("AAPL"))

	require.NoError(t, res.Err)
	assert.True(t, res.Result.Degraded)
	assert.Equal(t, OutcomeTimeout, res.Attempts[0].Kind)
	assert.Empty(t, chain.Disabled(), "timeouts do not disable a source")
}

func TestChain_StopsWaitingAtDeadline(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	stuck := &fakeResolver{
		source:  models.SourceBrowser,
		timeout: 30 * time.Millisecond,
		resolve: func(context.Context, common.Ticker) Outcome {
			<-release
			return Success(models.SourceBrowser, 99)
		},
	}
	backup := succeeding(models.SourceBackupAPI, 12)

	chain := newTestChain(NoPacing, stuck, backup)

	start := time.Now()
	result, err := chain.Resolve(context.Background(), common.MustParseTicker("AAPL"))

	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, models.SourceBackupAPI, result.Source)
	assert.True(t, result.Degraded)
}

func TestChain_PanicIsUnrecoverable(t *testing.T) {
	panicky := &fakeResolver{
		source:  models.SourcePrimaryAPI,
		timeout: time.Second,
		resolve: func(context.Context, common.Ticker) Outcome {
			panic("boom")
		},
	}
	backup := succeeding(models.SourceBackupAPI, 48)

	chain := newTestChain(NoPacing, panicky, backup)
	res := chain.ResolveDetailed(context.Background(), common.MustParseTicker("AAPL"))

	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeUnrecoverable, res.Attempts[0].Kind)

	var pe *common.PanicError
	require.True(t, errors.As(res.Attempts[0].Err, &pe))
	assert.Equal(t, "boom", pe.Value)
	assert.Contains(t, chain.Disabled(), models.SourcePrimaryAPI)
}

func TestChain_CancelledBeforeStart(t *testing.T) {
	primary := succeeding(models.SourcePrimaryAPI, 50)
	chain := newTestChain(NoPacing, primary)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := chain.Resolve(ctx, common.MustParseTicker("AAPL"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResolutionFailed))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(0), primary.calls.Load())
}

func TestChain_CancelDoesNotInterruptInFlightAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sawCancel atomic.Bool
	primary := &fakeResolver{
		source:  models.SourcePrimaryAPI,
		timeout: time.Second,
		resolve: func(attemptCtx context.Context, _ common.Ticker) Outcome {
			cancel()
			time.Sleep(20 * time.Millisecond)
			sawCancel.Store(attemptCtx.Err() != nil)
			return NoData(models.SourcePrimaryAPI, nil)
		},
	}
	backup := succeeding(models.SourceBackupAPI, 50)

	chain := newTestChain(NoPacing, primary, backup)
	res := chain.ResolveDetailed(ctx, common.MustParseTicker("AAPL"))

	require.Error(t, res.Err)
	assert.True(t, errors.Is(res.Err, context.Canceled))
	assert.False(t, sawCancel.Load(), "in-flight attempt keeps running after caller cancel")
	assert.Len(t, res.Attempts, 1)
	assert.Equal(t, int32(0), backup.calls.Load())
}

func TestChain_SkipsSourceConsultedByFallback(t *testing.T) {
	backup := returning(models.SourceBackupAPI, OutcomeNoData)
	browserR := &fakeResolver{
		source:  models.SourceBrowser,
		timeout: time.Second,
		resolve: func(ctx context.Context, ticker common.Ticker) Outcome {
			fb := backup.Resolve(ctx, ticker)
			out := NoData(models.SourceBrowser, errors.New("wait timed out"))
			out.Fallback = &fb
			return out
		},
	}

	chain := newTestChain(NoPacing, browserR, backup)
	res := chain.ResolveDetailed(context.Background(), common.MustParseTicker("AAPL"))

	require.Error(t, res.Err)
	assert.Equal(t, int32(1), backup.calls.Load(), "backup consulted exactly once")
	assert.Len(t, res.Attempts, 1)
}

func TestChain_FallbackSuccessIsDegraded(t *testing.T) {
	browserR := &fakeResolver{
		source:  models.SourceBrowser,
		timeout: time.Second,
		resolve: func(context.Context, common.Ticker) Outcome {
			fb := Success(models.SourceBackupAPI, 71)
			out := Success(models.SourceBackupAPI, 71)
			out.Fallback = &fb
			return out
		},
	}

	chain := newTestChain(NoPacing, browserR)
	result, err := chain.Resolve(context.Background(), common.MustParseTicker("AAPL"))

	require.NoError(t, err)
	assert.Equal(t, models.SourceBackupAPI, result.Source)
	assert.True(t, result.Degraded)
}

func TestChain_OutOfRangeSuccessIsNoData(t *testing.T) {
	chain := newTestChain(NoPacing,
		succeeding(models.SourcePrimaryAPI, 140),
		succeeding(models.SourceBackupAPI, 40),
	)

	res := chain.ResolveDetailed(context.Background(), common.MustParseTicker("AAPL"))

	require.NoError(t, res.Err)
	assert.Equal(t, models.SourceBackupAPI, res.Result.Source)
	assert.Equal(t, OutcomeNoData, res.Attempts[0].Kind)
}

func TestRandomPacer_Bounds(t *testing.T) {
	p := NewRandomPacer(10*time.Millisecond, 20*time.Millisecond)
	for i := 0; i < 200; i++ {
		d := p.Next()
		assert.GreaterOrEqual(t, d, 10*time.Millisecond)
		assert.LessOrEqual(t, d, 20*time.Millisecond)
	}

	inverted := NewRandomPacer(5*time.Millisecond, time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, inverted.Next())
}

func TestRandomPacer_PauseHonoursContext(t *testing.T) {
	p := NewRandomPacer(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Pause(ctx), context.Canceled)
}
