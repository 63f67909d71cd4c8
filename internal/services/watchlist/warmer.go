// Package watchlist keeps the caches warm for a configured list of tickers.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
)

// ErrAlreadyRunning is returned by RunOnce while a warm pass is in progress.
var ErrAlreadyRunning = errors.New("watchlist warm already running")

// ErrStopped is returned by RunOnce after Stop.
var ErrStopped = errors.New("watchlist warmer stopped")

// Result summarises one warm pass.
type Result struct {
	Tickers     int           `json:"tickers"`
	Resolved    int           `json:"resolved"`
	Unavailable int           `json:"unavailable"`
	Failed      int           `json:"failed"`
	Duration    time.Duration `json:"duration_ns"`
}

// Status describes the warmer for health reporting.
type Status struct {
	Enabled   bool       `json:"enabled"`
	Schedule  string     `json:"schedule"`
	Tickers   []string   `json:"tickers"`
	Running   bool       `json:"running"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Last      *Result    `json:"last_result,omitempty"`
}

// Warmer resolves ownership and safety for each watchlist ticker on a cron schedule.
type Warmer struct {
	ownership interfaces.OwnershipService
	safety    interfaces.SafetyService
	tickers   []common.Ticker
	schedule  string
	cron      *cron.Cron
	entryID   cron.EntryID
	logger    arbor.ILogger

	ctx    context.Context
	cancel context.CancelFunc

	passes sync.WaitGroup // every RunOnce in flight, added under mu

	mu        sync.Mutex
	isRunning bool
	started   bool
	stopped   bool
	lastRun   *time.Time
	lastError string
	last      *Result
	listeners []func(Result)
}

// NewWarmer creates a warmer. Invalid tickers are logged and skipped.
func NewWarmer(ownership interfaces.OwnershipService, safety interfaces.SafetyService, config *common.WatchlistConfig, logger arbor.ILogger) *Warmer {
	var tickers []common.Ticker
	for _, raw := range config.Tickers {
		t, err := common.ParseTicker(raw)
		if err != nil {
			logger.Warn().Str("ticker", raw).Err(err).Msg("Skipping invalid watchlist ticker")
			continue
		}
		tickers = append(tickers, t)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Warmer{
		ownership: ownership,
		safety:    safety,
		tickers:   tickers,
		schedule:  config.Schedule,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// OnComplete registers fn to receive the result of every finished pass.
func (w *Warmer) OnComplete(fn func(Result)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Start registers the schedule and runs one warm pass in the background.
func (w *Warmer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return fmt.Errorf("watchlist warmer already started")
	}
	if w.stopped {
		return ErrStopped
	}

	id, err := w.cron.AddFunc(w.schedule, w.runScheduled)
	if err != nil {
		return fmt.Errorf("invalid watchlist schedule %q: %w", w.schedule, err)
	}
	w.entryID = id
	w.cron.Start()
	w.started = true

	w.logger.Info().
		Str("schedule", w.schedule).
		Int("tickers", len(w.tickers)).
		Msg("Watchlist warmer started")

	common.SafeGo(w.logger, "watchlistInitialWarm", w.runScheduled)
	return nil
}

// Stop halts the schedule, cancels an in-flight pass, and waits for every pass to return,
// including the initial and manually triggered ones.
func (w *Warmer) Stop() {
	w.mu.Lock()
	started := w.started
	w.started = false
	w.stopped = true
	w.mu.Unlock()

	w.cancel()
	if started {
		<-w.cron.Stop().Done()
	}
	w.passes.Wait()

	if started {
		w.logger.Info().Msg("Watchlist warmer stopped")
	}
}

func (w *Warmer) runScheduled() {
	if _, err := w.RunOnce(w.ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) && !errors.Is(err, ErrStopped) {
		w.logger.Warn().Err(err).Msg("Watchlist warm pass ended early")
	}
}

// RunOnce warms every ticker sequentially. Unavailable ownership is counted, not failed.
func (w *Warmer) RunOnce(ctx context.Context) (*Result, error) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil, ErrStopped
	}
	if w.isRunning {
		w.mu.Unlock()
		return nil, ErrAlreadyRunning
	}
	w.isRunning = true
	w.passes.Add(1)
	w.mu.Unlock()
	defer w.passes.Done()

	// Stop cancels manual passes too
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer context.AfterFunc(w.ctx, cancel)()

	start := time.Now()
	result := &Result{Tickers: len(w.tickers)}
	var runErr error

	for _, ticker := range w.tickers {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		report, err := w.ownership.Get(ctx, ticker)
		switch {
		case err != nil:
			result.Failed++
			w.logger.Warn().Str("ticker", ticker.String()).Err(err).Msg("Watchlist ownership warm failed")
		case report.Available:
			result.Resolved++
		default:
			result.Unavailable++
		}

		if w.safety != nil {
			if _, err := w.safety.Report(ctx, ticker); err != nil {
				w.logger.Warn().Str("ticker", ticker.String()).Err(err).Msg("Watchlist safety warm failed")
			}
		}
	}
	result.Duration = time.Since(start)

	now := time.Now()
	w.mu.Lock()
	w.isRunning = false
	w.lastRun = &now
	w.last = result
	w.lastError = ""
	if runErr != nil {
		w.lastError = runErr.Error()
	}
	listeners := w.listeners
	w.mu.Unlock()

	for _, fn := range listeners {
		fn(*result)
	}

	w.logger.Info().
		Int("tickers", result.Tickers).
		Int("resolved", result.Resolved).
		Int("unavailable", result.Unavailable).
		Int("failed", result.Failed).
		Dur("duration", result.Duration).
		Msg("Watchlist warm pass complete")

	return result, runErr
}

// Status reports the warmer state.
func (w *Warmer) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()

	status := Status{
		Enabled:   w.started,
		Schedule:  w.schedule,
		Running:   w.isRunning,
		LastRun:   w.lastRun,
		LastError: w.lastError,
		Last:      w.last,
	}
	for _, t := range w.tickers {
		status.Tickers = append(status.Tickers, t.String())
	}
	if w.started {
		if next := w.cron.Entry(w.entryID).Next; !next.IsZero() {
			status.NextRun = &next
		}
	}
	return status
}
