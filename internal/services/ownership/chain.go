package ownership

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/models"
)

// DefaultResolverTimeout bounds resolvers that report no timeout of their own.
const DefaultResolverTimeout = 30 * time.Second

// Resolver obtains ownership from one source.
// Resolve must honour ctx and report its result as an Outcome instead of panicking or erroring.
type Resolver interface {
	Source() models.OwnershipSource
	Timeout() time.Duration
	Resolve(ctx context.Context, ticker common.Ticker) Outcome
}

// Resolution is the full record of one chain run.
type Resolution struct {
	Result   *models.OwnershipResult
	Attempts []Attempt
	Err      error // *ResolutionFailure when Result is nil
}

// Chain tries resolvers in a fixed order and returns the first success.
// A resolver that reports Unrecoverable is disabled for the lifetime of the Chain.
type Chain struct {
	resolvers []Resolver
	pacer     Pacer
	logger    arbor.ILogger
	now       func() time.Time

	mu       sync.Mutex
	disabled map[models.OwnershipSource]error
}

// NewChain creates a chain over resolvers in priority order.
func NewChain(logger arbor.ILogger, pacer Pacer, resolvers ...Resolver) *Chain {
	if pacer == nil {
		pacer = NoPacing
	}
	return &Chain{
		resolvers: resolvers,
		pacer:     pacer,
		logger:    logger,
		now:       time.Now,
		disabled:  make(map[models.OwnershipSource]error),
	}
}

// Resolve returns the first successful ownership value, or a *ResolutionFailure.
func (c *Chain) Resolve(ctx context.Context, ticker common.Ticker) (*models.OwnershipResult, error) {
	res := c.ResolveDetailed(ctx, ticker)
	return res.Result, res.Err
}

// ResolveDetailed runs the chain and keeps the per-attempt record.
func (c *Chain) ResolveDetailed(ctx context.Context, ticker common.Ticker) Resolution {
	var attempts []Attempt
	attempted := make(map[models.OwnershipSource]bool)
	degraded := false
	invoked := 0

	fail := func(cause error) Resolution {
		return Resolution{
			Attempts: attempts,
			Err:      &ResolutionFailure{Ticker: ticker.String(), Attempts: attempts, Cause: cause},
		}
	}

	for _, r := range c.resolvers {
		source := r.Source()
		if attempted[source] {
			continue
		}

		if reason := c.disabledReason(source); reason != nil {
			degraded = true
			attempts = append(attempts, Attempt{Source: source, Kind: OutcomeUnrecoverable, Skipped: true, Err: reason})
			continue
		}

		// Caller abort stops further attempts but never interrupts one in flight
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if invoked > 0 {
			if err := c.pacer.Pause(ctx); err != nil {
				return fail(err)
			}
		}
		invoked++

		start := time.Now()
		outcome := c.attempt(ctx, r, ticker)
		attempts = append(attempts, Attempt{
			Source:   source,
			Kind:     outcome.Kind,
			Err:      outcome.Err,
			Duration: time.Since(start),
		})
		attempted[source] = true

		event := c.logger.Debug().
			Str("ticker", ticker.String()).
			Str("source", string(source)).
			Str("outcome", outcome.Kind.String()).
			Dur("elapsed", time.Since(start))
		if outcome.Err != nil {
			event = event.Err(outcome.Err)
		}
		event.Msg("Ownership resolver attempt")

		switch outcome.Kind {
		case OutcomeTimeout:
			degraded = true
		case OutcomeUnrecoverable:
			degraded = true
			c.disable(source, outcome.Err)
		}

		if fb := outcome.Fallback; fb != nil {
			// The delegated source was consulted within this attempt
			degraded = true
			attempted[fb.Source] = true
			if fb.Kind == OutcomeUnrecoverable {
				c.disable(fb.Source, fb.Err)
			}
		}

		if outcome.OK() {
			return Resolution{
				Result: &models.OwnershipResult{
					Ticker:     ticker.String(),
					Percent:    outcome.Percent,
					Source:     outcome.Source,
					ResolvedAt: c.now().UTC(),
					Degraded:   degraded,
				},
				Attempts: attempts,
			}
		}
		if outcome.Kind == OutcomeSuccess {
			attempts[len(attempts)-1].Kind = OutcomeNoData
			attempts[len(attempts)-1].Err = fmt.Errorf("percent %.4f outside [0,100]", outcome.Percent)
		}
	}

	return fail(nil)
}

// attempt runs one resolver in its own goroutine, bounded by the resolver's timeout.
// The attempt context is detached from caller cancellation.
func (c *Chain) attempt(ctx context.Context, r Resolver, ticker common.Ticker) Outcome {
	source := r.Source()
	timeout := r.Timeout()
	if timeout <= 0 {
		timeout = DefaultResolverTimeout
	}

	attemptCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	attemptCtx = context.WithValue(attemptCtx, disabledCheckKey{}, c.disabledReason)

	results := common.GoResult(c.logger, "ownership:"+string(source),
		func() Outcome { return r.Resolve(attemptCtx, ticker) },
		func(pe *common.PanicError) Outcome { return Unrecoverable(source, pe) },
	)

	select {
	case outcome := <-results:
		if outcome.Source == "" {
			outcome.Source = source
		}
		if outcome.Kind == OutcomeNoData && errors.Is(outcome.Err, context.DeadlineExceeded) {
			outcome.Kind = OutcomeTimeout
		}
		return outcome
	case <-attemptCtx.Done():
		return TimedOut(source, fmt.Errorf("%s resolver exceeded %s: %w", source, timeout, attemptCtx.Err()))
	}
}

type disabledCheckKey struct{}

// disabledInAttempt reports why source is disabled for the chain running the current
// attempt. It returns nil outside a chain attempt.
func disabledInAttempt(ctx context.Context, source models.OwnershipSource) error {
	check, ok := ctx.Value(disabledCheckKey{}).(func(models.OwnershipSource) error)
	if !ok {
		return nil
	}
	return check(source)
}

func (c *Chain) disable(source models.OwnershipSource, reason error) {
	if reason == nil {
		reason = errors.New("unrecoverable")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, already := c.disabled[source]; !already {
		c.logger.Warn().Str("source", string(source)).Err(reason).Msg("Ownership source disabled for this session")
	}
	c.disabled[source] = reason
}

func (c *Chain) disabledReason(source models.OwnershipSource) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disabled[source]
}

// Disabled returns the sources disabled for this session and why.
func (c *Chain) Disabled() map[models.OwnershipSource]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[models.OwnershipSource]string, len(c.disabled))
	for source, reason := range c.disabled {
		out[source] = reason.Error()
	}
	return out
}

// Sources lists the configured sources in priority order.
func (c *Chain) Sources() []models.OwnershipSource {
	out := make([]models.OwnershipSource, 0, len(c.resolvers))
	for _, r := range c.resolvers {
		out = append(out, r.Source())
	}
	return out
}
