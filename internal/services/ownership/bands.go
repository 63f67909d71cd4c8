package ownership

import (
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/models"
)

// Classify places a percentage in an ownership band.
// HIGH is at or above bands.High, LOW is strictly below bands.Low.
func Classify(percent float64, bands common.OwnershipBands) models.OwnershipBand {
	switch {
	case percent >= bands.High:
		return models.BandHigh
	case percent < bands.Low:
		return models.BandLow
	default:
		return models.BandMedium
	}
}
