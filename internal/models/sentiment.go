package models

import "time"

// Headline is a single news headline for a ticker.
type Headline struct {
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Source      string    `json:"source"`
}

// SentimentRecord is the tone score of one headline. Compound is in [-1,1].
type SentimentRecord struct {
	Headline string  `json:"headline"`
	Compound float64 `json:"compound"`
}

// SentimentSummary is the news-tone summary for a ticker.
// SafetyScore here is the tone-based score, unrelated to the fundamental SafetyScore.
type SentimentSummary struct {
	Ticker          string            `json:"ticker"`
	AverageCompound float64           `json:"average_compound"`
	SafetyScore     float64           `json:"safety_score"`
	Records         []SentimentRecord `json:"records"`
}

// SentimentReport is the presentation shape for headline sentiment.
type SentimentReport struct {
	Ticker    string            `json:"ticker"`
	Available bool              `json:"available"`
	Summary   *SentimentSummary `json:"summary,omitempty"`
	Scorer    string            `json:"scorer,omitempty"`
	Guidance  string            `json:"guidance,omitempty"`
}
