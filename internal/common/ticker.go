// Package common provides shared utilities across the application.
package common

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTicker is returned when a ticker symbol cannot be parsed.
var ErrInvalidTicker = errors.New("invalid ticker")

// Ticker represents a normalized stock symbol with an optional exchange qualifier.
// Format: CODE or EXCHANGE:CODE (e.g., "AAPL", "NASDAQ:AAPL")
type Ticker struct {
	// Exchange is the exchange code (e.g., "NYSE", "NASDAQ"). Defaults to DefaultExchange.
	Exchange string
	// Code is the upper-cased symbol (e.g., "AAPL", "BRK.B")
	Code string
	// Raw is the original input
	Raw string
}

// ExchangeToSuffix maps exchange codes to EODHD API suffixes.
var ExchangeToSuffix = map[string]string{
	"US":     ".US",
	"NYSE":   ".US",
	"NASDAQ": ".US",
	"AMEX":   ".US",
	"ASX":    ".AU",
	"LSE":    ".LSE",
	"TSX":    ".TO",
	"XETRA":  ".XETRA",
	"INDX":   ".INDX",
}

// DefaultExchange is used for tickers without an exchange prefix.
var DefaultExchange = "US"

// SetDefaultExchange sets the default exchange for parsing tickers.
// Called during app initialization from config.
func SetDefaultExchange(exchange string) {
	if exchange != "" {
		DefaultExchange = strings.ToUpper(exchange)
	}
}

const maxTickerLen = 12

// ParseTicker trims and upper-cases a ticker symbol.
// Supports formats:
//   - "aapl" -> Exchange=DefaultExchange, Code="AAPL"
//   - "NASDAQ:AAPL" -> Exchange="NASDAQ", Code="AAPL"
//   - "BRK.B" and "BRK-B" are kept as-is (class shares)
func ParseTicker(raw string) (Ticker, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Ticker{}, fmt.Errorf("%w: empty symbol", ErrInvalidTicker)
	}

	exchange := DefaultExchange
	code := s
	if idx := strings.Index(s, ":"); idx >= 0 {
		exchange = strings.ToUpper(strings.TrimSpace(s[:idx]))
		code = strings.TrimSpace(s[idx+1:])
		if exchange == "" {
			return Ticker{}, fmt.Errorf("%w: %q has empty exchange", ErrInvalidTicker, raw)
		}
	}

	code = strings.ToUpper(code)
	if code == "" || len(code) > maxTickerLen {
		return Ticker{}, fmt.Errorf("%w: %q", ErrInvalidTicker, raw)
	}
	for _, r := range code {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
		default:
			return Ticker{}, fmt.Errorf("%w: %q contains %q", ErrInvalidTicker, raw, r)
		}
	}
	if code[0] == '.' || code[0] == '-' {
		return Ticker{}, fmt.Errorf("%w: %q", ErrInvalidTicker, raw)
	}

	return Ticker{Exchange: exchange, Code: code, Raw: raw}, nil
}

// MustParseTicker is ParseTicker for constants and tests.
func MustParseTicker(raw string) Ticker {
	t, err := ParseTicker(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the bare symbol. The exchange is only shown when it differs from the default.
func (t Ticker) String() string {
	if t.Exchange == "" || t.Exchange == DefaultExchange {
		return t.Code
	}
	return t.Exchange + ":" + t.Code
}

// EODHDSymbol returns the EODHD API symbol format.
// Example: "AAPL" -> "AAPL.US", "BRK.B" -> "BRK-B.US"
func (t Ticker) EODHDSymbol() string {
	if t.Code == "" {
		return ""
	}
	suffix, ok := ExchangeToSuffix[t.Exchange]
	if !ok {
		suffix = "." + t.Exchange
	}
	return strings.ReplaceAll(t.Code, ".", "-") + suffix
}

// URLSymbol returns the lower-cased symbol used in web page paths.
func (t Ticker) URLSymbol() string {
	return strings.ToLower(t.Code)
}

// CacheKey builds a cache key for a metric of this ticker, e.g. "ownership:AAPL".
func (t Ticker) CacheKey(metric string) string {
	return metric + ":" + t.String()
}
