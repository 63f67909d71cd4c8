package models

import "time"

// OwnershipSource identifies which resolver produced an ownership value.
type OwnershipSource string

const (
	SourcePrimaryAPI OwnershipSource = "PRIMARY_API" // SEC EDGAR filings
	SourceBrowser    OwnershipSource = "BROWSER"     // Headless browser on the ownership page
	SourceBackupAPI  OwnershipSource = "BACKUP_API"  // EODHD fundamentals
)

// OwnershipResult is the institutional ownership percentage for a ticker.
// Produced by exactly one resolver and never modified afterwards.
type OwnershipResult struct {
	Ticker     string          `json:"ticker"`
	Percent    float64         `json:"percent"` // 0..100
	Source     OwnershipSource `json:"source"`
	ResolvedAt time.Time       `json:"resolved_at"`
	// Degraded is set when a higher-priority resolver timed out or was disabled
	Degraded bool `json:"degraded,omitempty"`
}

// OwnershipBand classifies an ownership percentage.
type OwnershipBand string

const (
	BandHigh   OwnershipBand = "HIGH"
	BandMedium OwnershipBand = "MEDIUM"
	BandLow    OwnershipBand = "LOW"
)

// OwnershipReport is the presentation shape for one ticker. When Available is false
// Guidance tells the user where to look the value up manually.
type OwnershipReport struct {
	Ticker    string           `json:"ticker"`
	Available bool             `json:"available"`
	Result    *OwnershipResult `json:"result,omitempty"`
	Band      OwnershipBand    `json:"band,omitempty"`
	Cached    bool             `json:"cached"`
	Guidance  string           `json:"guidance,omitempty"`
	Attempts  []AttemptSummary `json:"attempts,omitempty"`
}

// AttemptSummary describes one resolver attempt within a resolution.
type AttemptSummary struct {
	Source   OwnershipSource `json:"source"`
	Outcome  string          `json:"outcome"`
	Detail   string          `json:"detail,omitempty"`
	Duration time.Duration   `json:"duration_ns"`
}

// OwnershipAnalysis groups a batch of tickers by ownership band.
type OwnershipAnalysis struct {
	High        []OwnershipReport `json:"high"`
	Medium      []OwnershipReport `json:"medium"`
	Low         []OwnershipReport `json:"low"`
	Unavailable []OwnershipReport `json:"unavailable"`
	Invalid     []string          `json:"invalid,omitempty"`
}

// ResolutionRecord is a persisted outcome of one chain resolution.
type ResolutionRecord struct {
	ID         string           `json:"id"`
	Ticker     string           `json:"ticker" badgerholdIndex:"Ticker"`
	Success    bool             `json:"success"`
	Percent    float64          `json:"percent,omitempty"`
	Source     OwnershipSource  `json:"source,omitempty"`
	Degraded   bool             `json:"degraded,omitempty"`
	Attempts   []AttemptSummary `json:"attempts"`
	ResolvedAt time.Time        `json:"resolved_at"`
}
