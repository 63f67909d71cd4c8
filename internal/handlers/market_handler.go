package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/eodhd"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/services/market"
)

const dateLayout = "2006-01-02"

// MarketHandler serves market mood and price series.
type MarketHandler struct {
	service interfaces.MarketService
	logger  arbor.ILogger
}

// NewMarketHandler creates a new MarketHandler
func NewMarketHandler(service interfaces.MarketService, logger arbor.ILogger) *MarketHandler {
	return &MarketHandler{
		service: service,
		logger:  logger,
	}
}

// MoodHandler handles GET /api/market/mood
func (h *MarketHandler) MoodHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, h.service.Mood(r.Context()))
}

// SeriesHandler handles GET /api/market/series/{ticker}?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *MarketHandler) SeriesHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := TickerFromPath(w, r, "/api/market/series/")
	if !ok {
		return
	}

	var from, to time.Time
	var err error
	if s := r.URL.Query().Get("from"); s != "" {
		if from, err = time.Parse(dateLayout, s); err != nil {
			WriteError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
			return
		}
	}
	if s := r.URL.Query().Get("to"); s != "" {
		if to, err = time.Parse(dateLayout, s); err != nil {
			WriteError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
			return
		}
	}

	series, err := h.service.Series(r.Context(), ticker, from, to)
	switch {
	case errors.Is(err, market.ErrInvalidRange):
		WriteError(w, http.StatusBadRequest, err.Error())
	case eodhd.IsAuthError(err):
		WriteError(w, http.StatusServiceUnavailable, "price series require an EODHD API key")
	case err != nil:
		h.logger.Warn().Str("ticker", ticker.String()).Err(err).Msg("Price series lookup failed")
		WriteServiceError(w, err)
	default:
		WriteJSON(w, http.StatusOK, series)
	}
}
