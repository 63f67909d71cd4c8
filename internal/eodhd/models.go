package eodhd

import (
	"encoding/json"
	"fmt"
	"time"
)

// EODData represents a single day's end-of-day price data.
type EODData struct {
	Date          time.Time `json:"-"`
	DateStr       string    `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

// EODResponse is a slice of EODData.
type EODResponse []EODData

// NewsItem represents a single news article.
type NewsItem struct {
	Date      time.Time      `json:"-"`
	DateStr   string         `json:"date"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Link      string         `json:"link"`
	Symbols   []string       `json:"symbols"`
	Tags      []string       `json:"tags"`
	Sentiment *NewsSentiment `json:"sentiment,omitempty"`
}

// NewsSentiment represents sentiment analysis data for news.
type NewsSentiment struct {
	Polarity float64 `json:"polarity"`
	Neg      float64 `json:"neg"`
	Neu      float64 `json:"neu"`
	Pos      float64 `json:"pos"`
}

// NewsResponse is a slice of NewsItem.
type NewsResponse []NewsItem

// FundamentalsResponse holds the parts of the fundamentals payload this application reads.
type FundamentalsResponse struct {
	General        *GeneralInfo    `json:"General"`
	Highlights     *Highlights     `json:"Highlights"`
	Technicals     *Technicals     `json:"Technicals"`
	SharesStats    *SharesStats    `json:"SharesStats"`
	AnalystRatings *AnalystRatings `json:"AnalystRatings"`
	Holders        *Holders        `json:"Holders"`
}

// GeneralInfo contains general company information.
type GeneralInfo struct {
	Code     string `json:"Code"`
	Type     string `json:"Type"`
	Name     string `json:"Name"`
	Exchange string `json:"Exchange"`
	CIK      string `json:"CIK"`
	Sector   string `json:"Sector"`
	Industry string `json:"Industry"`
}

// Highlights contains key financial highlights.
type Highlights struct {
	MarketCapitalization float64 `json:"MarketCapitalization"`
	PERatio              float64 `json:"PERatio"`
	EarningsShare        float64 `json:"EarningsShare"`
	ReturnOnEquityTTM    float64 `json:"ReturnOnEquityTTM"`
}

// Technicals contains technical analysis data.
type Technicals struct {
	Beta             float64 `json:"Beta"`
	FiftyTwoWeekHigh float64 `json:"52WeekHigh"`
	FiftyTwoWeekLow  float64 `json:"52WeekLow"`
}

// SharesStats holds share counts and holder percentages.
// Percentages are expressed 0..100.
type SharesStats struct {
	SharesOutstanding   float64 `json:"SharesOutstanding"`
	SharesFloat         float64 `json:"SharesFloat"`
	PercentInsiders     float64 `json:"PercentInsiders"`
	PercentInstitutions float64 `json:"PercentInstitutions"`
}

// AnalystRatings contains analyst ratings data. Rating is on a 1..5 scale, 5 = strong buy.
type AnalystRatings struct {
	Rating      float64 `json:"Rating"`
	TargetPrice float64 `json:"TargetPrice"`
	StrongBuy   int     `json:"StrongBuy"`
	Buy         int     `json:"Buy"`
	Hold        int     `json:"Hold"`
	Sell        int     `json:"Sell"`
	StrongSell  int     `json:"StrongSell"`
}

// Holders contains shareholder information.
// Uses custom unmarshaler to handle EODHD API returning empty object {} instead of empty array [].
type Holders struct {
	Institutions []InstitutionHolder `json:"Institutions"`
	Funds        []InstitutionHolder `json:"Funds"`
}

// UnmarshalJSON tolerates {} or keyed objects where an array is expected.
func (h *Holders) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal Holders: %w", err)
	}

	h.Institutions = decodeHolderList(raw["Institutions"])
	h.Funds = decodeHolderList(raw["Funds"])
	return nil
}

// decodeHolderList accepts either an array or an object keyed by position ("0", "1", ...).
func decodeHolderList(data json.RawMessage) []InstitutionHolder {
	if len(data) == 0 {
		return nil
	}

	var list []InstitutionHolder
	if err := json.Unmarshal(data, &list); err == nil {
		return list
	}

	var keyed map[string]InstitutionHolder
	if err := json.Unmarshal(data, &keyed); err == nil {
		for _, holder := range keyed {
			list = append(list, holder)
		}
	}
	return list
}

// InstitutionHolder represents an institutional or fund holder.
type InstitutionHolder struct {
	Name          string  `json:"name"`
	Date          string  `json:"date"`
	TotalShares   float64 `json:"totalShares"` // percent of shares outstanding
	TotalAssets   float64 `json:"totalAssets"`
	CurrentShares int64   `json:"currentShares"`
	Change        int64   `json:"change"`
	ChangePercent float64 `json:"change_p"`
}

// InstitutionalShares sums the current shares held by listed institutions.
func (h *Holders) InstitutionalShares() int64 {
	if h == nil {
		return 0
	}
	var total int64
	for _, inst := range h.Institutions {
		total += inst.CurrentShares
	}
	return total
}
