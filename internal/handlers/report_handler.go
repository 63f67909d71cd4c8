package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/services/report"
)

// ReportHandler renders the combined ticker report.
type ReportHandler struct {
	builder ReportBuilder
	logger  arbor.ILogger
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(builder ReportBuilder, logger arbor.ILogger) *ReportHandler {
	return &ReportHandler{
		builder: builder,
		logger:  logger,
	}
}

// ReportHandler handles GET /api/report/{ticker}?format=json|markdown|html|pdf
func (h *ReportHandler) ReportHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker, ok := TickerFromPath(w, r, "/api/report/")
	if !ok {
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "json", "markdown", "html", "pdf":
	default:
		WriteError(w, http.StatusBadRequest, "format must be one of json, markdown, html, pdf")
		return
	}

	rep, err := h.builder.Build(r.Context(), ticker)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if format == "" || format == "json" {
		WriteJSON(w, http.StatusOK, rep)
		return
	}

	md := report.Markdown(rep)
	title := rep.Ticker + " report"

	var (
		body        []byte
		contentType string
	)
	switch format {
	case "markdown":
		body, contentType = []byte(md), "text/markdown; charset=utf-8"
	case "html":
		body, err = report.HTML(md, title)
		contentType = "text/html; charset=utf-8"
	case "pdf":
		body, err = report.PDF(md, title)
		contentType = "application/pdf"
		w.Header().Set("Content-Disposition", `inline; filename="`+rep.Ticker+`.pdf"`)
	}
	if err != nil {
		h.logger.Error().Str("ticker", rep.Ticker).Str("format", format).Err(err).Msg("Failed to render report")
		WriteError(w, http.StatusInternalServerError, "failed to render report")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}
