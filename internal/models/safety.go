package models

// SafetyScoreInputs are the fundamental inputs to the safety score.
// Each field is optional; nil means the value could not be obtained.
type SafetyScoreInputs struct {
	Beta          *float64 `json:"beta,omitempty"`
	DebtToEquity  *float64 `json:"debt_to_equity,omitempty"`
	AnalystRating *float64 `json:"analyst_rating,omitempty"` // 0..5
}

// SafetyComponents are the per-input sub-scores, each in [0,100].
type SafetyComponents struct {
	BetaScore    float64 `json:"beta_score"`
	DebtScore    float64 `json:"debt_score"`
	AnalystScore float64 `json:"analyst_score"`
}

// SafetyScore is the fundamental (volatility, leverage, analyst) safety score.
// Defaulted lists the inputs that were missing and replaced by neutral defaults.
type SafetyScore struct {
	Value      float64          `json:"value"`
	Components SafetyComponents `json:"components"`
	Defaulted  []string         `json:"defaulted,omitempty"`
}

// Complete reports whether every input was present.
func (s SafetyScore) Complete() bool {
	return len(s.Defaulted) == 0
}

// SafetyReport is the presentation shape for the fundamental safety score.
type SafetyReport struct {
	Ticker  string            `json:"ticker"`
	Inputs  SafetyScoreInputs `json:"inputs"`
	Score   SafetyScore       `json:"score"`
	Sources map[string]string `json:"sources,omitempty"` // input name -> provider
}

// FinancialRatios are headline valuation ratios. Each is optional.
type FinancialRatios struct {
	Ticker       string   `json:"ticker"`
	PERatio      *float64 `json:"pe_ratio,omitempty"`
	ROE          *float64 `json:"roe,omitempty"`
	DebtToEquity *float64 `json:"debt_to_equity,omitempty"`
	EPS          *float64 `json:"eps,omitempty"`
	Source       string   `json:"source"`
}
