package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
)

// ChromeLauncher starts a fresh Chrome process per session so that one stuck
// page can never affect another request.
type ChromeLauncher struct {
	config common.BrowserConfig
	logger arbor.ILogger
}

// NewChromeLauncher creates a launcher from config.
func NewChromeLauncher(config *common.BrowserConfig, logger arbor.ILogger) *ChromeLauncher {
	return &ChromeLauncher{
		config: *config,
		logger: logger,
	}
}

// Launch starts Chrome and returns a session bound to it.
// The process lives until Close; ctx only bounds the startup.
func (l *ChromeLauncher) Launch(ctx context.Context) (Session, error) {
	startTime := time.Now()

	allocatorOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.config.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", l.config.NoSandbox),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
		chromedp.UserAgent(l.config.UserAgent),
	)
	if l.config.ExecPath != "" {
		allocatorOpts = append(allocatorOpts, chromedp.ExecPath(l.config.ExecPath))
	}

	// Not derived from ctx: cancelling the first Run's context would kill the browser
	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(context.Background(), allocatorOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)

	session := &chromeSession{
		ctx:             browserCtx,
		browserCancel:   browserCancel,
		allocatorCancel: allocatorCancel,
		logger:          l.logger,
	}

	started := make(chan error, 1)
	go func() {
		started <- chromedp.Run(browserCtx,
			network.Enable(),
			network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": "en-US,en;q=0.9"}),
		)
	}()

	select {
	case err := <-started:
		if err != nil {
			session.Close()
			return nil, fmt.Errorf("%w: %v", ErrLaunchFailed, err)
		}
	case <-ctx.Done():
		session.Close()
		return nil, fmt.Errorf("browser startup: %w", ctx.Err())
	}

	l.logger.Debug().
		Dur("startup_time", time.Since(startTime)).
		Bool("headless", l.config.Headless).
		Msg("Browser session started")

	return session, nil
}

type chromeSession struct {
	ctx             context.Context
	browserCancel   context.CancelFunc
	allocatorCancel context.CancelFunc
	logger          arbor.ILogger
	closeOnce       sync.Once
}

// run executes actions on the session, stopping at ctx's deadline or cancellation.
func (s *chromeSession) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: navigating to %s: %w", ErrWaitTimeout, url, err)
		}
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

func (s *chromeSession) WaitText(ctx context.Context, selector string) (string, error) {
	var text string
	err := s.run(ctx,
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		chromedp.Text(selector, &text, chromedp.ByQuery, chromedp.NodeVisible),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s: %w", ErrWaitTimeout, selector, err)
		}
		return "", fmt.Errorf("read %s: %w", selector, err)
	}
	return strings.TrimSpace(text), nil
}

// Close shuts the browser down and reaps the process. Safe to call repeatedly.
func (s *chromeSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		closeCtx, cancel := context.WithTimeout(s.ctx, 5*time.Second)
		defer cancel()
		if cerr := chromedp.Cancel(closeCtx); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = cerr
		}
		s.browserCancel()
		s.allocatorCancel()
		s.logger.Debug().Msg("Browser session closed")
	})
	return err
}
