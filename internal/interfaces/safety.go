package interfaces

import (
	"context"

	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/models"
)

// SafetyService builds the fundamental safety report for a ticker.
type SafetyService interface {
	Report(ctx context.Context, ticker common.Ticker) (*models.SafetyReport, error)
}

// SafetyInputsProvider fetches whatever safety inputs a data source has.
// Fields the source lacks are left nil.
type SafetyInputsProvider interface {
	Name() string
	SafetyInputs(ctx context.Context, ticker common.Ticker) (models.SafetyScoreInputs, error)
}

// RatiosProvider fetches headline financial ratios.
type RatiosProvider interface {
	Ratios(ctx context.Context, ticker common.Ticker) (*models.FinancialRatios, error)
}
