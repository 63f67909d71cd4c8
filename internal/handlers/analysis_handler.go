package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/services/safety"
)

// AnalysisHandler serves the per-ticker safety, ratios and sentiment endpoints.
type AnalysisHandler struct {
	safety    interfaces.SafetyService
	ratios    interfaces.RatiosProvider
	sentiment interfaces.SentimentService
	logger    arbor.ILogger
}

// NewAnalysisHandler creates a new AnalysisHandler
func NewAnalysisHandler(safetySvc interfaces.SafetyService, ratios interfaces.RatiosProvider, sentiment interfaces.SentimentService, logger arbor.ILogger) *AnalysisHandler {
	return &AnalysisHandler{
		safety:    safetySvc,
		ratios:    ratios,
		sentiment: sentiment,
		logger:    logger,
	}
}

// SafetyHandler handles GET /api/safety/{ticker}
func (h *AnalysisHandler) SafetyHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := TickerFromPath(w, r, "/api/safety/")
	if !ok {
		return
	}

	report, err := h.safety.Report(r.Context(), ticker)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// RatiosHandler handles GET /api/ratios/{ticker}
func (h *AnalysisHandler) RatiosHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := TickerFromPath(w, r, "/api/ratios/")
	if !ok {
		return
	}

	ratios, err := h.ratios.Ratios(r.Context(), ticker)
	if err != nil {
		if errors.Is(err, safety.ErrNoRatios) {
			WriteError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Warn().Str("ticker", ticker.String()).Err(err).Msg("Ratios lookup failed")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ratios)
}

// SentimentHandler handles GET /api/sentiment/{ticker}
func (h *AnalysisHandler) SentimentHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := TickerFromPath(w, r, "/api/sentiment/")
	if !ok {
		return
	}

	report, err := h.sentiment.Analyze(r.Context(), ticker)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}
