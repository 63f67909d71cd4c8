package ownership

import (
	"context"
	"math/rand/v2"
	"time"
)

// Pacer delays between resolver attempts so upstream sources are not hammered.
type Pacer interface {
	Pause(ctx context.Context) error
}

// RandomPacer sleeps for a uniformly random duration in [Min, Max].
type RandomPacer struct {
	Min time.Duration
	Max time.Duration
}

// NewRandomPacer creates a pacer. Max below Min is raised to Min.
func NewRandomPacer(min, max time.Duration) *RandomPacer {
	if max < min {
		max = min
	}
	return &RandomPacer{Min: min, Max: max}
}

// Next returns the next delay.
func (p *RandomPacer) Next() time.Duration {
	spread := p.Max - p.Min
	if spread <= 0 {
		return p.Min
	}
	return p.Min + time.Duration(rand.Int64N(int64(spread)+1))
}

// Pause waits for the next delay or until ctx is done.
func (p *RandomPacer) Pause(ctx context.Context) error {
	d := p.Next()
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// PacerFunc adapts a function to Pacer.
type PacerFunc func(ctx context.Context) error

// Pause calls f.
func (f PacerFunc) Pause(ctx context.Context) error {
	return f(ctx)
}

// NoPacing never waits.
var NoPacing Pacer = PacerFunc(func(ctx context.Context) error { return ctx.Err() })
