package ownership

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/models"
	"github.com/ternarybob/tickerscope/internal/services/browser"
)

// BrowserResolver reads ownership from a client-rendered page in a headless browser.
// When the element does not appear in time it tears the session down and hands the
// request to its fallback resolver, once.
type BrowserResolver struct {
	launcher    browser.Launcher
	urlTemplate string
	selector    string
	waitTimeout time.Duration
	timeout     time.Duration
	fallback    Resolver
	logger      arbor.ILogger
}

// BrowserResolverConfig holds the page contract for the browser resolver.
type BrowserResolverConfig struct {
	URLTemplate string // fmt template with one %s for the lower-case ticker
	Selector    string
	WaitTimeout time.Duration
	Timeout     time.Duration
}

// NewBrowserResolver creates the browser resolver. fallback may be nil.
func NewBrowserResolver(launcher browser.Launcher, config BrowserResolverConfig, fallback Resolver, logger arbor.ILogger) *BrowserResolver {
	waitTimeout := config.WaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = 15 * time.Second
	}
	return &BrowserResolver{
		launcher:    launcher,
		urlTemplate: config.URLTemplate,
		selector:    config.Selector,
		waitTimeout: waitTimeout,
		timeout:     config.Timeout,
		fallback:    fallback,
		logger:      logger,
	}
}

func (r *BrowserResolver) Source() models.OwnershipSource { return models.SourceBrowser }

func (r *BrowserResolver) Timeout() time.Duration { return r.timeout }

// Resolve loads the ownership page and parses the percentage element.
func (r *BrowserResolver) Resolve(ctx context.Context, ticker common.Ticker) Outcome {
	session, err := r.launcher.Launch(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return TimedOut(r.Source(), err)
		}
		return Unrecoverable(r.Source(), err)
	}

	var closeOnce bool
	closeSession := func() {
		if closeOnce {
			return
		}
		closeOnce = true
		if err := session.Close(); err != nil {
			r.logger.Warn().Err(err).Str("ticker", ticker.String()).Msg("Browser session close failed")
		}
	}
	defer closeSession()

	pageURL := fmt.Sprintf(r.urlTemplate, ticker.URLSymbol())

	waitCtx, cancel := context.WithTimeout(ctx, r.waitTimeout)
	defer cancel()

	text, err := r.readElement(waitCtx, session, pageURL)
	if err != nil {
		if isWaitTimeout(err) {
			closeSession()
			return r.viaFallback(ctx, ticker, err)
		}
		return NoData(r.Source(), err)
	}

	percent, err := ParsePercent(text)
	if err != nil {
		return NoData(r.Source(), err)
	}

	r.logger.Debug().
		Str("ticker", ticker.String()).
		Str("text", text).
		Float64("percent", percent).
		Msg("Browser ownership resolved")

	return Success(r.Source(), percent)
}

func (r *BrowserResolver) readElement(ctx context.Context, session browser.Session, pageURL string) (string, error) {
	if err := session.Navigate(ctx, pageURL); err != nil {
		return "", err
	}
	return session.WaitText(ctx, r.selector)
}

func (r *BrowserResolver) viaFallback(ctx context.Context, ticker common.Ticker, waitErr error) Outcome {
	if r.fallback == nil {
		return TimedOut(r.Source(), waitErr)
	}
	if reason := disabledInAttempt(ctx, r.fallback.Source()); reason != nil {
		r.logger.Debug().
			Str("ticker", ticker.String()).
			Str("fallback", string(r.fallback.Source())).
			Msg("Fallback disabled for this session, not consulted")
		return TimedOut(r.Source(), fmt.Errorf("%w; fallback %s disabled: %v", waitErr, r.fallback.Source(), reason))
	}

	r.logger.Info().
		Str("ticker", ticker.String()).
		Str("fallback", string(r.fallback.Source())).
		Msg("Ownership element did not appear, using fallback")

	fbCtx := ctx
	if t := r.fallback.Timeout(); t > 0 {
		var cancel context.CancelFunc
		fbCtx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	fb := r.fallback.Resolve(fbCtx, ticker)
	if fb.Source == "" {
		fb.Source = r.fallback.Source()
	}

	if fb.OK() {
		out := Success(fb.Source, fb.Percent)
		out.Fallback = &fb
		return out
	}

	out := NoData(r.Source(), fmt.Errorf("%v; fallback %s: %s", waitErr, fb.Source, describe(fb)))
	out.Fallback = &fb
	return out
}

func isWaitTimeout(err error) bool {
	return errors.Is(err, browser.ErrWaitTimeout) || errors.Is(err, context.DeadlineExceeded)
}

func describe(o Outcome) string {
	if o.Err != nil {
		return o.Kind.String() + ": " + o.Err.Error()
	}
	return o.Kind.String()
}

// ParsePercent converts element text such as "42.3%" or " 61.07 % " into a number.
func ParsePercent(text string) (float64, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimSuffix(cleaned, "%")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("empty percentage text %q", text)
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable percentage %q: %w", text, err)
	}
	if !validPercent(value) {
		return 0, fmt.Errorf("percentage %q outside [0,100]", text)
	}
	return value, nil
}
