package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Ownership
	mux.HandleFunc("/api/ownership", s.app.OwnershipHandler.AnalyzeHandler) // GET ?tickers=A,B
	mux.HandleFunc("/api/ownership/", s.app.OwnershipHandler.GetHandler)    // GET /{ticker}
	mux.HandleFunc("/api/history/", s.app.OwnershipHandler.HistoryHandler)  // GET /{ticker}?limit=

	// API routes - Fundamentals and sentiment
	mux.HandleFunc("/api/safety/", s.app.AnalysisHandler.SafetyHandler)
	mux.HandleFunc("/api/ratios/", s.app.AnalysisHandler.RatiosHandler)
	mux.HandleFunc("/api/sentiment/", s.app.AnalysisHandler.SentimentHandler)

	// API routes - Market
	mux.HandleFunc("/api/market/mood", s.app.MarketHandler.MoodHandler)
	mux.HandleFunc("/api/market/series/", s.app.MarketHandler.SeriesHandler) // GET /{ticker}?from=&to=

	// API routes - Reports
	mux.HandleFunc("/api/report/", s.app.ReportHandler.ReportHandler) // GET /{ticker}?format=

	// API routes - Watchlist
	mux.HandleFunc("/api/watchlist", s.handleWatchlistRoute)
	mux.HandleFunc("/api/watchlist/run", s.app.WatchlistHandler.RunHandler) // POST

	// System routes
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)
	mux.HandleFunc("/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleWatchlistRoute serves the warmer status; triggering a pass lives under /run
func (s *Server) handleWatchlistRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		http.MethodGet: s.app.WatchlistHandler.StatusHandler,
	})
}
