package common

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Logging     LoggingConfig   `toml:"logging"`
	Storage     StorageConfig   `toml:"storage"`
	Cache       CacheConfig     `toml:"cache"`
	Chain       ChainConfig     `toml:"chain"`
	SEC         SECConfig       `toml:"sec"`
	Browser     BrowserConfig   `toml:"browser"`
	EODHD       EODHDConfig     `toml:"eodhd"`
	FMP         FMPConfig       `toml:"fmp"`
	News        NewsConfig      `toml:"news"`
	Sentiment   SentimentConfig `toml:"sentiment"`
	Market      MarketConfig    `toml:"market"`
	Scoring     ScoringConfig   `toml:"scoring"`
	Watchlist   WatchlistConfig `toml:"watchlist"`
}

// Duration wraps time.Duration so TOML files can use strings like "15s" or "1h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Dur is shorthand for building a Duration.
func Dur(d time.Duration) Duration {
	return Duration{Duration: d}
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gte=0,lte=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`                                       // "stdout", "file"
	TimeFormat string   `toml:"time_format"`                                  // default "15:04:05"
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Enabled        bool   `toml:"enabled"`          // Persist cache entries and resolution history
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

// CacheConfig holds per-metric time-to-live values. Volatile metrics get short TTLs,
// raw market series a longer one.
type CacheConfig struct {
	Backend      string   `toml:"backend" validate:"oneof=memory badger"`
	OwnershipTTL Duration `toml:"ownership_ttl"`
	RatiosTTL    Duration `toml:"ratios_ttl"`
	SafetyTTL    Duration `toml:"safety_ttl"`
	TickerMapTTL Duration `toml:"ticker_map_ttl"`
	SeriesTTL    Duration `toml:"series_ttl"`
	MoodTTL      Duration `toml:"mood_ttl"`
	HeadlinesTTL Duration `toml:"headlines_ttl"`
	SentimentTTL Duration `toml:"sentiment_ttl"`
}

// ChainConfig controls pacing between ownership resolver attempts.
type ChainConfig struct {
	PaceMin Duration `toml:"pace_min"`
	PaceMax Duration `toml:"pace_max"`
}

// SECConfig configures the SEC EDGAR primary ownership resolver.
type SECConfig struct {
	Enabled      bool     `toml:"enabled"`
	BaseURL      string   `toml:"base_url" validate:"required,url"`
	TickerMapURL string   `toml:"ticker_map_url" validate:"required,url"`
	UserAgent    string   `toml:"user_agent"`  // SEC requires "Company Name contact@example.com"
	SharesPath   string   `toml:"shares_path"` // JSONPath to the shares-outstanding series
	Timeout      Duration `toml:"timeout"`
	RateLimit    int      `toml:"rate_limit" validate:"gte=1"` // Requests per second
}

// BrowserConfig configures the headless browser ownership resolver.
type BrowserConfig struct {
	Enabled     bool     `toml:"enabled"`
	URLTemplate string   `toml:"url_template" validate:"required,contains=%s"` // e.g. https://www.morningstar.com/stocks/xnas/%s/ownership
	Selector    string   `toml:"selector" validate:"required"`
	WaitTimeout Duration `toml:"wait_timeout"` // Max wait for the selector to appear
	Timeout     Duration `toml:"timeout"`      // Whole resolver budget including the fallback path
	Headless    bool     `toml:"headless"`
	NoSandbox   bool     `toml:"no_sandbox"`
	ExecPath    string   `toml:"exec_path"` // Optional Chrome binary path
	UserAgent   string   `toml:"user_agent"`
}

// EODHDConfig configures the EODHD market-data API.
type EODHDConfig struct {
	APIKey    string   `toml:"api_key"`
	BaseURL   string   `toml:"base_url" validate:"required,url"`
	Exchange  string   `toml:"exchange"` // Default exchange suffix for bare tickers (US)
	Timeout   Duration `toml:"timeout"`
	RateLimit int      `toml:"rate_limit" validate:"gte=1"`
}

// FMPConfig configures the Financial Modeling Prep API.
type FMPConfig struct {
	APIKey    string   `toml:"api_key"`
	BaseURL   string   `toml:"base_url" validate:"required,url"`
	Timeout   Duration `toml:"timeout"`
	RateLimit int      `toml:"rate_limit" validate:"gte=1"`
}

// NewsConfig configures headline collection.
type NewsConfig struct {
	Source       string   `toml:"source" validate:"oneof=google eodhd auto"` // auto = google, then eodhd
	SearchURL    string   `toml:"search_url" validate:"required,contains=%s"`
	Selector     string   `toml:"selector" validate:"required"`
	UserAgent    string   `toml:"user_agent"`
	Timeout      Duration `toml:"timeout"`
	MaxHeadlines int      `toml:"max_headlines" validate:"gte=1,lte=100"`
}

// SentimentConfig selects the headline scoring provider.
type SentimentConfig struct {
	Provider string       `toml:"provider" validate:"oneof=gemini claude vader none"`
	Timeout  Duration     `toml:"timeout"`
	Gemini   GeminiConfig `toml:"gemini"`
	Claude   ClaudeConfig `toml:"claude"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`
	MaxTokens int    `toml:"max_tokens"`
}

// MarketConfig configures market mood indicators.
type MarketConfig struct {
	VIXSymbol    string   `toml:"vix_symbol"`
	FearGreedURL string   `toml:"fear_greed_url" validate:"required,url"`
	Timeout      Duration `toml:"timeout"`
	VIXBands     VIXBands `toml:"vix_bands"`
}

// VIXBands are the lower bounds of each fear band. Values below Greed are extreme greed.
type VIXBands struct {
	ExtremeFear float64 `toml:"extreme_fear"` // > this
	Fear        float64 `toml:"fear"`         // >= this
	Neutral     float64 `toml:"neutral"`      // >= this
	Greed       float64 `toml:"greed"`        // >= this
}

// ScoringConfig holds the empirical constants used by the aggregators.
type ScoringConfig struct {
	Weights        SafetyWeights  `toml:"weights"`
	OwnershipBands OwnershipBands `toml:"ownership_bands"`
}

// SafetyWeights are the component weights of the fundamental safety score.
type SafetyWeights struct {
	Beta    float64 `toml:"beta" validate:"gte=0,lte=1"`
	Debt    float64 `toml:"debt" validate:"gte=0,lte=1"`
	Analyst float64 `toml:"analyst" validate:"gte=0,lte=1"`
}

// OwnershipBands split institutional ownership into high/medium/low.
type OwnershipBands struct {
	High float64 `toml:"high" validate:"gte=0,lte=100"` // >= High is high ownership
	Low  float64 `toml:"low" validate:"gte=0,lte=100"`  // < Low is low ownership
}

// WatchlistConfig configures scheduled cache warming.
type WatchlistConfig struct {
	Enabled  bool     `toml:"enabled"`
	Schedule string   `toml:"schedule"` // Cron expression with seconds field
	Tickers  []string `toml:"tickers"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Enabled: false,
				Path:    "./data",
			},
		},
		Cache: CacheConfig{
			Backend:      "memory",
			OwnershipTTL: Dur(time.Hour),
			RatiosTTL:    Dur(time.Hour),
			SafetyTTL:    Dur(time.Hour),
			TickerMapTTL: Dur(24 * time.Hour),
			SeriesTTL:    Dur(6 * time.Hour),
			MoodTTL:      Dur(time.Hour),
			HeadlinesTTL: Dur(time.Hour),
			SentimentTTL: Dur(time.Hour),
		},
		Chain: ChainConfig{
			PaceMin: Dur(1500 * time.Millisecond),
			PaceMax: Dur(3500 * time.Millisecond),
		},
		SEC: SECConfig{
			Enabled:      true,
			BaseURL:      "https://data.sec.gov",
			TickerMapURL: "https://www.sec.gov/files/company_tickers.json",
			UserAgent:    "", // User must provide "Company contact@email" per SEC fair access policy
			SharesPath:   `$.facts["us-gaap"].CommonStockSharesOutstanding.units.shares`,
			Timeout:      Dur(20 * time.Second),
			RateLimit:    10, // SEC fair access limit
		},
		Browser: BrowserConfig{
			Enabled:     true,
			URLTemplate: "https://www.morningstar.com/stocks/xnas/%s/ownership",
			Selector:    "div.ownership-percent",
			WaitTimeout: Dur(15 * time.Second),
			Timeout:     Dur(60 * time.Second),
			Headless:    true,
			NoSandbox:   false,
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		},
		EODHD: EODHDConfig{
			APIKey:    "",
			BaseURL:   "https://eodhd.com/api",
			Exchange:  "US",
			Timeout:   Dur(30 * time.Second),
			RateLimit: 10,
		},
		FMP: FMPConfig{
			APIKey:    "",
			BaseURL:   "https://financialmodelingprep.com/api/v3",
			Timeout:   Dur(15 * time.Second),
			RateLimit: 5,
		},
		News: NewsConfig{
			Source:       "auto",
			SearchURL:    "https://www.google.com/search?q=%s+stock+news&tbm=nws",
			Selector:     "div.BNeawe.vvjwJb.AP7Wnd",
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
			Timeout:      Dur(10 * time.Second),
			MaxHeadlines: 10,
		},
		Sentiment: SentimentConfig{
			Provider: "gemini",
			Timeout:  Dur(30 * time.Second),
			Gemini: GeminiConfig{
				Model: "gemini-3-flash-preview",
			},
			Claude: ClaudeConfig{
				Model:     "claude-haiku-4-5",
				MaxTokens: 64,
			},
		},
		Market: MarketConfig{
			VIXSymbol:    "VIX.INDX",
			FearGreedURL: "https://api.alternative.me/fng/?limit=1",
			Timeout:      Dur(10 * time.Second),
			VIXBands: VIXBands{
				ExtremeFear: 30,
				Fear:        20,
				Neutral:     15,
				Greed:       10,
			},
		},
		Scoring: ScoringConfig{
			Weights: SafetyWeights{
				Beta:    0.4,
				Debt:    0.3,
				Analyst: 0.3,
			},
			OwnershipBands: OwnershipBands{
				High: 70,
				Low:  30,
			},
		},
		Watchlist: WatchlistConfig{
			Enabled:  false,
			Schedule: "0 0 */1 * * *", // Hourly, matching the ownership TTL
			Tickers:  []string{"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA"},
		},
	}
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TICKERSCOPE_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("TICKERSCOPE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("TICKERSCOPE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("TICKERSCOPE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("TICKERSCOPE_LOG_OUTPUT"); output != "" {
		if outputs := splitList(output); len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage and cache
	if badgerPath := os.Getenv("TICKERSCOPE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
		config.Storage.Badger.Enabled = true
	}
	if backend := os.Getenv("TICKERSCOPE_CACHE_BACKEND"); backend != "" {
		config.Cache.Backend = backend
	}

	// Source credentials
	if ua := os.Getenv("TICKERSCOPE_SEC_USER_AGENT"); ua != "" {
		config.SEC.UserAgent = ua
	}
	if key := firstEnv("TICKERSCOPE_EODHD_API_KEY", "EODHD_API_KEY"); key != "" {
		config.EODHD.APIKey = key
	}
	if key := firstEnv("TICKERSCOPE_FMP_API_KEY", "FMP_API_KEY"); key != "" {
		config.FMP.APIKey = key
	}
	if key := firstEnv("TICKERSCOPE_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"); key != "" {
		config.Sentiment.Gemini.APIKey = key
	}
	if key := firstEnv("TICKERSCOPE_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"); key != "" {
		config.Sentiment.Claude.APIKey = key
	}
	if provider := os.Getenv("TICKERSCOPE_SENTIMENT_PROVIDER"); provider != "" {
		config.Sentiment.Provider = provider
	}

	// Browser
	if enabled := os.Getenv("TICKERSCOPE_BROWSER_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Browser.Enabled = b
		}
	}
	if execPath := os.Getenv("TICKERSCOPE_BROWSER_EXEC_PATH"); execPath != "" {
		config.Browser.ExecPath = execPath
	}

	// Watchlist
	if tickers := os.Getenv("TICKERSCOPE_WATCHLIST"); tickers != "" {
		if list := splitList(tickers); len(list) > 0 {
			config.Watchlist.Tickers = list
			config.Watchlist.Enabled = true
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks struct constraints and the cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	w := c.Scoring.Weights
	if sum := w.Beta + w.Debt + w.Analyst; math.Abs(sum-1.0) > 1e-6 {
		return fmt.Errorf("invalid configuration: scoring weights must sum to 1.0, got %.4f", sum)
	}
	if c.Scoring.OwnershipBands.Low > c.Scoring.OwnershipBands.High {
		return fmt.Errorf("invalid configuration: ownership band low (%.1f) exceeds high (%.1f)",
			c.Scoring.OwnershipBands.Low, c.Scoring.OwnershipBands.High)
	}
	if c.Chain.PaceMax.Duration < c.Chain.PaceMin.Duration {
		return fmt.Errorf("invalid configuration: chain pace_max (%s) below pace_min (%s)",
			c.Chain.PaceMax.Duration, c.Chain.PaceMin.Duration)
	}
	b := c.Market.VIXBands
	if !(b.ExtremeFear >= b.Fear && b.Fear >= b.Neutral && b.Neutral >= b.Greed) {
		return fmt.Errorf("invalid configuration: vix bands must be descending")
	}
	return nil
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Environment)
	return env == "production" || env == "prod"
}

// ChainBudget is the longest one ownership resolution can take: every resolver
// timeout plus the pauses between attempts.
func (c *Config) ChainBudget() time.Duration {
	return c.SEC.Timeout.Duration + c.Browser.Timeout.Duration + c.EODHD.Timeout.Duration +
		2*c.Chain.PaceMax.Duration
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
