package httpclient

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// HostLimiter enforces a minimum delay between requests to the same host.
type HostLimiter struct {
	hosts        map[string]*hostState
	mu           sync.Mutex
	defaultDelay time.Duration
}

type hostState struct {
	lastRequest time.Time
	mu          sync.Mutex
	delay       time.Duration
}

// NewHostLimiter creates a limiter with the default per-host delay.
func NewHostLimiter(defaultDelay time.Duration) *HostLimiter {
	return &HostLimiter{
		hosts:        make(map[string]*hostState),
		defaultDelay: defaultDelay,
	}
}

// Wait blocks until a request to rawURL's host is allowed or ctx is done.
func (l *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	host := hostOf(rawURL)
	if host == "" {
		return nil
	}

	state := l.state(host)
	state.mu.Lock()
	defer state.mu.Unlock()

	if wait := time.Until(state.lastRequest.Add(state.delay)); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	state.lastRequest = time.Now()
	return nil
}

// SetHostDelay overrides the delay for one host.
func (l *HostLimiter) SetHostDelay(host string, delay time.Duration) {
	state := l.state(host)
	state.mu.Lock()
	state.delay = delay
	state.mu.Unlock()
}

// HostDelay returns the delay in force for host.
func (l *HostLimiter) HostDelay(host string) time.Duration {
	l.mu.Lock()
	state, ok := l.hosts[host]
	l.mu.Unlock()
	if !ok {
		return l.defaultDelay
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.delay
}

func (l *HostLimiter) state(host string) *hostState {
	l.mu.Lock()
	defer l.mu.Unlock()

	state, ok := l.hosts[host]
	if !ok {
		state = &hostState{delay: l.defaultDelay}
		l.hosts[host] = state
	}
	return state
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
