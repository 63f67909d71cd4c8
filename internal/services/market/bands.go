// Package market reports market-wide mood indicators and daily price series.
package market

import (
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/models"
)

// ClassifyVIX places a VIX level in a fear band. Higher VIX means more fear.
func ClassifyVIX(value float64, bands common.VIXBands) models.VIXBand {
	switch {
	case value > bands.ExtremeFear:
		return models.VIXExtremeFear
	case value >= bands.Fear:
		return models.VIXFear
	case value >= bands.Neutral:
		return models.VIXNeutral
	case value >= bands.Greed:
		return models.VIXGreed
	default:
		return models.VIXExtremeGreed
	}
}
