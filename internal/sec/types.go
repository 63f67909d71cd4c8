// Package sec provides a client for SEC EDGAR company data.
package sec

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrMissingUserAgent is returned when no identifying User-Agent is configured.
	// SEC fair access policy rejects anonymous clients.
	ErrMissingUserAgent = errors.New("SEC user agent not configured")

	// ErrCIKNotFound is returned when the ticker is not in the SEC ticker map.
	ErrCIKNotFound = errors.New("CIK not found for ticker")

	// ErrFactNotFound is returned when companyfacts lacks the requested series.
	ErrFactNotFound = errors.New("fact not found in company facts")
)

// APIError represents a non-200 response from SEC EDGAR.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("SEC API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsAuthError reports whether SEC refused the client's identity.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrMissingUserAgent) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether EDGAR has no document for the CIK.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// tickerEntry is one row of company_tickers.json.
type tickerEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// FactValue is one reported value of an XBRL fact.
type FactValue struct {
	End   time.Time `json:"end"`
	Value float64   `json:"val"`
	Form  string    `json:"form"`
	Filed string    `json:"filed"`
}
