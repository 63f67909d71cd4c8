// Package fmp provides a client for the Financial Modeling Prep API.
package fmp

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrMissingAPIKey is returned by every call when the client has no API key.
	ErrMissingAPIKey = errors.New("FMP API key not configured")

	// ErrNoData is returned when an endpoint answers with an empty list.
	ErrNoData = errors.New("FMP returned no data")
)

// APIError represents an error from the FMP API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("FMP API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsAuthError reports whether err means the credentials are missing or rejected.
func IsAuthError(err error) bool {
	if errors.Is(err, ErrMissingAPIKey) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusUnauthorized || apiErr.StatusCode == http.StatusForbidden
	}
	return false
}

// Profile is the subset of /profile used here.
type Profile struct {
	Symbol      string   `json:"symbol"`
	CompanyName string   `json:"companyName"`
	Beta        *float64 `json:"beta"`
	Price       *float64 `json:"price"`
	Sector      string   `json:"sector"`
}

// Ratios is one period row of /ratios. Fields are nil when FMP omits them.
type Ratios struct {
	Symbol                string   `json:"symbol"`
	Date                  string   `json:"date"`
	PriceEarningsRatio    *float64 `json:"priceEarningsRatio"`
	ReturnOnEquity        *float64 `json:"returnOnEquity"`
	DebtEquityRatio       *float64 `json:"debtEquityRatio"`
	NetIncomePerShare     *float64 `json:"netIncomePerShare"`
	EarningsPerShare      *float64 `json:"earningsPerShare"`
	DividendYield         *float64 `json:"dividendYield"`
	CurrentRatio          *float64 `json:"currentRatio"`
	PriceToBookRatio      *float64 `json:"priceToBookRatio"`
	OperatingProfitMargin *float64 `json:"operatingProfitMargin"`
}

// EPS returns earningsPerShare, falling back to netIncomePerShare.
func (r *Ratios) EPS() *float64 {
	if r.EarningsPerShare != nil {
		return r.EarningsPerShare
	}
	return r.NetIncomePerShare
}

// Rating is the latest row of /rating. RatingScore is 1..5.
type Rating struct {
	Symbol               string   `json:"symbol"`
	Date                 string   `json:"date"`
	Rating               string   `json:"rating"`
	RatingScore          *float64 `json:"ratingScore"`
	RatingRecommendation string   `json:"ratingRecommendation"`
}
