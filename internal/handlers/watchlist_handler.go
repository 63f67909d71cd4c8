package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/services/watchlist"
)

// WatchlistHandler reports and triggers the watchlist cache warmer.
type WatchlistHandler struct {
	warmer WatchlistController
	logger arbor.ILogger
}

// NewWatchlistHandler creates a new WatchlistHandler. warmer may be nil when the
// watchlist is disabled.
func NewWatchlistHandler(warmer WatchlistController, logger arbor.ILogger) *WatchlistHandler {
	return &WatchlistHandler{
		warmer: warmer,
		logger: logger,
	}
}

// StatusHandler handles GET /api/watchlist
func (h *WatchlistHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if h.warmer == nil {
		WriteJSON(w, http.StatusOK, watchlist.Status{})
		return
	}
	WriteJSON(w, http.StatusOK, h.warmer.Status())
}

// RunHandler handles POST /api/watchlist/run. The pass runs in the background.
func (h *WatchlistHandler) RunHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if h.warmer == nil {
		WriteError(w, http.StatusNotFound, "watchlist is not enabled")
		return
	}
	if h.warmer.Status().Running {
		WriteError(w, http.StatusConflict, watchlist.ErrAlreadyRunning.Error())
		return
	}

	common.SafeGo(h.logger, "watchlistManualWarm", func() {
		if _, err := h.warmer.RunOnce(context.Background()); err != nil && !errors.Is(err, watchlist.ErrAlreadyRunning) {
			h.logger.Warn().Err(err).Msg("Manual watchlist warm failed")
		}
	})

	WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Watchlist warm pass started",
	})
}
