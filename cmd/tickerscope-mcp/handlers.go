package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/interfaces"
	"github.com/ternarybob/tickerscope/internal/models"
	"github.com/ternarybob/tickerscope/internal/services/report"
)

const maxBatchTickers = 50

// ReportBuilder assembles a full ticker report.
type ReportBuilder interface {
	Build(ctx context.Context, ticker common.Ticker) (*models.TickerReport, error)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

// tickerHandler parses the ticker argument and renders whatever section fn fills in
func tickerHandler(logger arbor.ILogger, tool string, fn func(ctx context.Context, ticker common.Ticker, rep *models.TickerReport) error) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := request.RequireString("ticker")
		if err != nil || raw == "" {
			return textResult("Error: ticker parameter is required"), nil
		}
		ticker, err := common.ParseTicker(raw)
		if err != nil {
			return textResult(fmt.Sprintf("Error: %v", err)), nil
		}

		rep := &models.TickerReport{Ticker: ticker.String(), GeneratedAt: time.Now()}
		if err := fn(ctx, ticker, rep); err != nil {
			logger.Error().Err(err).Str("tool", tool).Str("ticker", ticker.String()).Msg("Tool failed")
			return textResult(fmt.Sprintf("Error: %s failed for %s: %v", tool, ticker, err)), nil
		}
		return textResult(report.Markdown(rep)), nil
	}
}

// handleGetOwnership implements the get_ownership tool
func handleGetOwnership(service interfaces.OwnershipService, logger arbor.ILogger) server.ToolHandlerFunc {
	return tickerHandler(logger, "get_ownership", func(ctx context.Context, ticker common.Ticker, rep *models.TickerReport) (err error) {
		rep.Ownership, err = service.Get(ctx, ticker)
		return err
	})
}

// handleAnalyzeOwnership implements the analyze_ownership tool. A single
// comma-separated string is accepted as well as an array.
func handleAnalyzeOwnership(service interfaces.OwnershipService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tickers := request.GetStringSlice("tickers", nil)
		if len(tickers) == 0 {
			if joined := request.GetString("tickers", ""); joined != "" {
				tickers = strings.Split(joined, ",")
			}
		}
		if len(tickers) == 0 {
			return textResult("Error: tickers parameter is required"), nil
		}
		if len(tickers) > maxBatchTickers {
			return textResult(fmt.Sprintf("Error: at most %d tickers per request", maxBatchTickers)), nil
		}

		analysis, err := service.Analyze(ctx, tickers)
		if err != nil {
			logger.Error().Err(err).Int("tickers", len(tickers)).Msg("Ownership analysis failed")
			return textResult(fmt.Sprintf("Error: analysis failed: %v", err)), nil
		}
		return textResult(report.Analysis(analysis)), nil
	}
}

// handleGetSafetyScore implements the get_safety_score tool
func handleGetSafetyScore(service interfaces.SafetyService, logger arbor.ILogger) server.ToolHandlerFunc {
	return tickerHandler(logger, "get_safety_score", func(ctx context.Context, ticker common.Ticker, rep *models.TickerReport) (err error) {
		rep.Safety, err = service.Report(ctx, ticker)
		return err
	})
}

// handleGetRatios implements the get_ratios tool
func handleGetRatios(provider interfaces.RatiosProvider, logger arbor.ILogger) server.ToolHandlerFunc {
	return tickerHandler(logger, "get_ratios", func(ctx context.Context, ticker common.Ticker, rep *models.TickerReport) (err error) {
		rep.Ratios, err = provider.Ratios(ctx, ticker)
		return err
	})
}

// handleGetSentiment implements the get_sentiment tool
func handleGetSentiment(service interfaces.SentimentService, logger arbor.ILogger) server.ToolHandlerFunc {
	return tickerHandler(logger, "get_sentiment", func(ctx context.Context, ticker common.Ticker, rep *models.TickerReport) (err error) {
		rep.Sentiment, err = service.Analyze(ctx, ticker)
		return err
	})
}

// handleGetMarketMood implements the get_market_mood tool
func handleGetMarketMood(service interfaces.MarketService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rep := &models.TickerReport{
			Ticker:      "Market",
			GeneratedAt: time.Now(),
			Mood:        service.Mood(ctx),
		}
		if rep.Mood != nil && len(rep.Mood.Errors) > 0 {
			logger.Debug().Int("failed_indicators", len(rep.Mood.Errors)).Msg("Market mood partially unavailable")
		}
		return textResult(report.Markdown(rep)), nil
	}
}

// handleGetReport implements the get_report tool
func handleGetReport(builder ReportBuilder, logger arbor.ILogger) server.ToolHandlerFunc {
	return tickerHandler(logger, "get_report", func(ctx context.Context, ticker common.Ticker, rep *models.TickerReport) error {
		full, err := builder.Build(ctx, ticker)
		if err != nil {
			return err
		}
		*rep = *full
		return nil
	})
}
