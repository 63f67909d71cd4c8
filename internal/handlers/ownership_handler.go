package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/services/ownership"
)

const maxBatchTickers = 50

// OwnershipHandler serves institutional ownership lookups and resolution history.
type OwnershipHandler struct {
	service      OwnershipReader
	tickerBudget time.Duration
	logger       arbor.ILogger
}

// NewOwnershipHandler creates a new OwnershipHandler.
// tickerBudget is the longest one ticker may take to resolve; batch requests extend
// their write deadline by it for every ticker.
func NewOwnershipHandler(service OwnershipReader, tickerBudget time.Duration, logger arbor.ILogger) *OwnershipHandler {
	return &OwnershipHandler{
		service:      service,
		tickerBudget: tickerBudget,
		logger:       logger,
	}
}

// GetHandler handles GET /api/ownership/{ticker}
func (h *OwnershipHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := TickerFromPath(w, r, "/api/ownership/")
	if !ok {
		return
	}

	report, err := h.service.Get(r.Context(), ticker)
	if err != nil {
		h.logger.Warn().Str("ticker", ticker.String()).Err(err).Msg("Ownership lookup failed")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// AnalyzeHandler handles GET /api/ownership?tickers=AAPL,MSFT
func (h *OwnershipHandler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var tickers []string
	for _, part := range strings.Split(r.URL.Query().Get("tickers"), ",") {
		if part = strings.TrimSpace(part); part != "" {
			tickers = append(tickers, part)
		}
	}
	if len(tickers) == 0 {
		WriteError(w, http.StatusBadRequest, "tickers query parameter is required")
		return
	}
	if len(tickers) > maxBatchTickers {
		WriteError(w, http.StatusBadRequest, "too many tickers in one request")
		return
	}

	h.extendWriteDeadline(w, len(tickers))

	analysis, err := h.service.Analyze(r.Context(), tickers)
	if err != nil {
		h.logger.Warn().Int("tickers", len(tickers)).Err(err).Msg("Ownership analysis interrupted")
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, analysis)
}

// extendWriteDeadline lifts the server-wide write timeout for a batch that resolves
// tickers one after another.
func (h *OwnershipHandler) extendWriteDeadline(w http.ResponseWriter, tickers int) {
	if h.tickerBudget <= 0 {
		return
	}
	deadline := time.Now().Add(h.tickerBudget*time.Duration(tickers) + 15*time.Second)
	if err := http.NewResponseController(w).SetWriteDeadline(deadline); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn().Err(err).Int("tickers", tickers).Msg("Failed to extend batch write deadline")
	}
}

// HistoryHandler handles GET /api/history/{ticker}?limit=N
func (h *OwnershipHandler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := TickerFromPath(w, r, "/api/history/")
	if !ok {
		return
	}

	records, err := h.service.History(r.Context(), ticker, GetLimitParam(r, 20, 200))
	if err != nil {
		if errors.Is(err, ownership.ErrHistoryUnavailable) {
			WriteError(w, http.StatusNotImplemented, err.Error())
			return
		}
		h.logger.Error().Str("ticker", ticker.String()).Err(err).Msg("Failed to list resolution history")
		WriteError(w, http.StatusInternalServerError, "failed to list resolution history")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  ticker.String(),
		"records": records,
	})
}
