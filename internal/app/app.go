package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/eodhd"
	"github.com/ternarybob/tickerscope/internal/fmp"
	"github.com/ternarybob/tickerscope/internal/handlers"
	"github.com/ternarybob/tickerscope/internal/httpclient"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/sec"
	"github.com/ternarybob/tickerscope/internal/services/browser"
	"github.com/ternarybob/tickerscope/internal/services/market"
	"github.com/ternarybob/tickerscope/internal/services/news"
	"github.com/ternarybob/tickerscope/internal/services/ownership"
	"github.com/ternarybob/tickerscope/internal/services/report"
	"github.com/ternarybob/tickerscope/internal/services/safety"
	"github.com/ternarybob/tickerscope/internal/services/sentiment"
	"github.com/ternarybob/tickerscope/internal/services/watchlist"
	"github.com/ternarybob/tickerscope/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config    *common.Config
	Logger    arbor.ILogger
	ctx       context.Context
	cancelCtx context.CancelFunc
	Stores    *storage.Stores

	// Upstream clients
	EODHD   *eodhd.Client
	SEC     *sec.Client
	FMP     *fmp.Client
	Fetcher *httpclient.Fetcher

	// Analysis services
	Chain            *ownership.Chain
	OwnershipService *ownership.Service
	SafetyService    *safety.Service
	SentimentService *sentiment.Service
	MarketService    *market.Service
	Reports          *report.Builder
	Scorer           interfaces.SentimentScorer // nil when no LLM credentials are configured

	// Watchlist warmer (nil unless enabled)
	Warmer *watchlist.Warmer

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	OwnershipHandler *handlers.OwnershipHandler
	AnalysisHandler  *handlers.AnalysisHandler
	MarketHandler    *handlers.MarketHandler
	ReportHandler    *handlers.ReportHandler
	WatchlistHandler *handlers.WatchlistHandler
	WSHandler        *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}
	app.ctx, app.cancelCtx = context.WithCancel(context.Background())

	common.SetDefaultExchange(cfg.EODHD.Exchange)

	if err := app.initStorage(); err != nil {
		app.cancelCtx()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if cfg.IsProduction() && !cfg.Storage.Badger.Enabled {
		logger.Warn().Msg("Running in production without badger - cache is lost on restart and resolution history is disabled")
	}

	app.initClients()

	if err := app.initServices(); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	logger.Info().
		Str("cache_backend", cfg.Cache.Backend).
		Bool("history", app.Stores.ResolutionLog != nil).
		Int("resolvers", len(app.Chain.Sources())).
		Bool("sentiment", app.Scorer != nil).
		Bool("watchlist", app.Warmer != nil).
		Msg("Application initialized")

	return app, nil
}

func (a *App) initStorage() error {
	stores, err := storage.NewStores(a.Logger, a.Config)
	if err != nil {
		return err
	}
	a.Stores = stores
	return nil
}

func (a *App) initClients() {
	cfg := a.Config

	a.EODHD = eodhd.NewClient(cfg.EODHD.APIKey,
		eodhd.WithBaseURL(cfg.EODHD.BaseURL),
		eodhd.WithTimeout(cfg.EODHD.Timeout.Duration),
		eodhd.WithRateLimit(cfg.EODHD.RateLimit),
		eodhd.WithLogger(a.Logger),
		eodhd.WithFundamentalsCache(a.Stores.Cache, cfg.Cache.RatiosTTL.Duration),
	)
	a.SEC = sec.NewClient(&cfg.SEC, a.Stores.Cache, cfg.Cache.TickerMapTTL.Duration, a.Logger)
	a.FMP = fmp.NewClient(&cfg.FMP, a.Logger)
	a.Fetcher = httpclient.NewFetcher(cfg.News.Timeout.Duration, a.Logger,
		httpclient.WithUserAgent(cfg.News.UserAgent),
		httpclient.WithHostDelay(cfg.Chain.PaceMin.Duration),
	)

	if !a.EODHD.HasAPIKey() {
		a.Logger.Warn().Msg("EODHD API key not configured - backup ownership, series and VIX are unavailable")
	}
	if !a.FMP.HasAPIKey() {
		a.Logger.Warn().Msg("FMP API key not configured - safety inputs fall back to EODHD")
	}
}

// buildChain orders the resolvers PRIMARY_API, BROWSER, BACKUP_API. The browser
// resolver consults the backup API itself when the page never renders.
func (a *App) buildChain() *ownership.Chain {
	cfg := a.Config
	backup := ownership.NewEODHDResolver(a.EODHD, cfg.EODHD.Timeout.Duration, a.Logger)

	var resolvers []ownership.Resolver
	if cfg.SEC.Enabled {
		holdings := ownership.NewEODHDHoldings(a.EODHD)
		resolvers = append(resolvers, ownership.NewSECResolver(a.SEC, holdings, cfg.SEC.Timeout.Duration, a.Logger))
	}
	if cfg.Browser.Enabled {
		launcher := browser.NewChromeLauncher(&cfg.Browser, a.Logger)
		resolvers = append(resolvers, ownership.NewBrowserResolver(launcher, ownership.BrowserResolverConfig{
			URLTemplate: cfg.Browser.URLTemplate,
			Selector:    cfg.Browser.Selector,
			WaitTimeout: cfg.Browser.WaitTimeout.Duration,
			Timeout:     cfg.Browser.Timeout.Duration,
		}, backup, a.Logger))
	}
	resolvers = append(resolvers, backup)

	pacer := ownership.NewRandomPacer(cfg.Chain.PaceMin.Duration, cfg.Chain.PaceMax.Duration)
	return ownership.NewChain(a.Logger, pacer, resolvers...)
}

func (a *App) initServices() error {
	cfg := a.Config
	store := a.Stores.Cache

	// 1. Ownership
	a.Chain = a.buildChain()
	a.OwnershipService = ownership.NewService(a.Chain, store, a.Stores.ResolutionLog, cfg, a.Logger)

	// 2. Safety and ratios
	providers := []interfaces.SafetyInputsProvider{
		safety.NewFMPProvider(a.FMP, a.Logger),
		safety.NewEODHDProvider(a.EODHD),
	}
	ratios := safety.NewRatiosSource(a.FMP, a.EODHD, a.Logger)
	a.SafetyService = safety.NewService(providers, ratios, store, cfg, a.Logger)

	// 3. Sentiment (scorer is optional)
	scorer, err := sentiment.NewScorer(a.ctx, &cfg.Sentiment, a.Logger)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Sentiment scoring disabled")
		scorer = nil
	}
	a.Scorer = scorer
	headlines := news.NewSource(&cfg.News, a.Fetcher, a.EODHD, a.Logger)
	a.SentimentService = sentiment.NewService(headlines, scorer, store, cfg, a.Logger)

	// 4. Market
	fearGreed := market.NewFearGreedClient(a.Fetcher, cfg.Market.FearGreedURL)
	a.MarketService = market.NewService(a.EODHD, fearGreed, store, cfg, a.Logger)

	// 5. Reports
	a.Reports = &report.Builder{
		Ownership: a.OwnershipService,
		Safety:    a.SafetyService,
		Ratios:    a.SafetyService,
		Sentiment: a.SentimentService,
		Market:    a.MarketService,
		Logger:    a.Logger,
	}

	// 6. Watchlist
	if cfg.Watchlist.Enabled {
		a.Warmer = watchlist.NewWarmer(a.OwnershipService, a.SafetyService, &cfg.Watchlist, a.Logger)
	}

	return nil
}

func (a *App) initHandlers() {
	// The warmer is passed as an interface only when it exists
	var warmer handlers.WatchlistController
	if a.Warmer != nil {
		warmer = a.Warmer
	}
	scorerName := ""
	if a.Scorer != nil {
		scorerName = a.Scorer.Name()
	}

	a.APIHandler = handlers.NewAPIHandler(a.Config, a.Chain, warmer, scorerName, a.Stores.ResolutionLog != nil, a.Logger)
	a.OwnershipHandler = handlers.NewOwnershipHandler(a.OwnershipService, a.Config.ChainBudget(), a.Logger)
	a.AnalysisHandler = handlers.NewAnalysisHandler(a.SafetyService, a.SafetyService, a.SentimentService, a.Logger)
	a.MarketHandler = handlers.NewMarketHandler(a.MarketService, a.Logger)
	a.ReportHandler = handlers.NewReportHandler(a.Reports, a.Logger)
	a.WatchlistHandler = handlers.NewWatchlistHandler(warmer, a.Logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.Logger)

	a.OwnershipService.OnResolution(a.WSHandler.BroadcastResolution)
	if a.Warmer != nil {
		a.Warmer.OnComplete(a.WSHandler.BroadcastWatchlist)
	}
}

// Start launches background work. Only the server calls this; the CLI runs
// one-shot analyses without the warmer.
func (a *App) Start() error {
	if a.Warmer == nil {
		return nil
	}
	return a.Warmer.Start()
}

// Close stops background work and releases storage
func (a *App) Close() error {
	if a.cancelCtx != nil {
		a.cancelCtx()
	}
	if a.Warmer != nil {
		a.Warmer.Stop()
	}

	if a.Stores != nil {
		if err := a.Stores.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("Failed to close storage")
			return err
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
