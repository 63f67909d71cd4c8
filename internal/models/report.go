package models

import "time"

// TickerReport gathers every analysis for one ticker. Sections are nil when the
// corresponding service is not configured; Errors holds per-section failures.
type TickerReport struct {
	Ticker      string            `json:"ticker"`
	GeneratedAt time.Time         `json:"generated_at"`
	Ownership   *OwnershipReport  `json:"ownership,omitempty"`
	Safety      *SafetyReport     `json:"safety,omitempty"`
	Ratios      *FinancialRatios  `json:"ratios,omitempty"`
	Sentiment   *SentimentReport  `json:"sentiment,omitempty"`
	Mood        *MarketMood       `json:"market_mood,omitempty"`
	Errors      map[string]string `json:"errors,omitempty"`
}
