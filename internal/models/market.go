package models

import "time"

// VIXBand labels the market fear level implied by the VIX.
type VIXBand string

const (
	VIXExtremeFear  VIXBand = "EXTREME_FEAR"
	VIXFear         VIXBand = "FEAR"
	VIXNeutral      VIXBand = "NEUTRAL"
	VIXGreed        VIXBand = "GREED"
	VIXExtremeGreed VIXBand = "EXTREME_GREED"
)

// VIXReading is the latest VIX close and its band.
type VIXReading struct {
	Value float64   `json:"value"`
	Band  VIXBand   `json:"band"`
	Date  time.Time `json:"date"`
}

// FearGreedReading is the crypto Fear & Greed index from alternative.me.
type FearGreedReading struct {
	Value          int       `json:"value"` // 0..100
	Classification string    `json:"classification"`
	Timestamp      time.Time `json:"timestamp"`
}

// MarketMood combines the market-wide indicators. Either part may be missing.
type MarketMood struct {
	VIX       *VIXReading       `json:"vix,omitempty"`
	FearGreed *FearGreedReading `json:"fear_greed,omitempty"`
	Errors    []string          `json:"errors,omitempty"`
}

// PriceBar is one daily OHLCV bar.
type PriceBar struct {
	Date          time.Time `json:"date"`
	Open          float64   `json:"open"`
	High          float64   `json:"high"`
	Low           float64   `json:"low"`
	Close         float64   `json:"close"`
	AdjustedClose float64   `json:"adjusted_close"`
	Volume        int64     `json:"volume"`
}

// PriceSeries is a daily price series for a ticker.
type PriceSeries struct {
	Ticker string     `json:"ticker"`
	From   time.Time  `json:"from"`
	To     time.Time  `json:"to"`
	Bars   []PriceBar `json:"bars"`
}
