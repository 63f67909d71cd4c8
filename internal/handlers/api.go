package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/models"
	"github.com/ternarybob/tickerscope/internal/services/watchlist"
)

// HealthStatus is the body of GET /api/health.
type HealthStatus struct {
	Status          string                            `json:"status"`
	Version         string                            `json:"version"`
	CacheBackend    string                            `json:"cache_backend"`
	History         bool                              `json:"history"`
	Sources         []models.OwnershipSource          `json:"sources"`
	DisabledSources map[models.OwnershipSource]string `json:"disabled_sources,omitempty"`
	SentimentScorer string                            `json:"sentiment_scorer,omitempty"`
	Watchlist       *watchlist.Status                 `json:"watchlist,omitempty"`
}

type APIHandler struct {
	config  *common.Config
	chain   ChainInspector
	warmer  WatchlistController
	scorer  string
	history bool
	logger  arbor.ILogger
}

// NewAPIHandler creates the system handler. warmer may be nil.
func NewAPIHandler(config *common.Config, chain ChainInspector, warmer WatchlistController, scorer string, history bool, logger arbor.ILogger) *APIHandler {
	return &APIHandler{
		config:  config,
		chain:   chain,
		warmer:  warmer,
		scorer:  scorer,
		history: history,
		logger:  logger,
	}
}

// VersionHandler returns version information
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, common.GetBuildInfo())
}

// HealthHandler reports the resolver chain and warmer state. A chain with every
// source disabled is reported as degraded.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status := HealthStatus{
		Status:          "ok",
		Version:         common.GetVersion(),
		CacheBackend:    h.config.Cache.Backend,
		History:         h.history,
		Sources:         h.chain.Sources(),
		DisabledSources: h.chain.Disabled(),
		SentimentScorer: h.scorer,
	}
	if len(status.Sources) == 0 || len(status.DisabledSources) >= len(status.Sources) {
		status.Status = "degraded"
	}
	if h.warmer != nil {
		ws := h.warmer.Status()
		status.Watchlist = &ws
	}

	WriteJSON(w, http.StatusOK, status)
}

// NotFoundHandler handles 404 errors with JSON response
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, map[string]interface{}{
		"error":   "Not Found",
		"path":    r.URL.Path,
		"message": "The requested endpoint does not exist",
	})
}
