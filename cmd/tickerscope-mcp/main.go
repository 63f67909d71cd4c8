package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/tickerscope/internal/app"
	"github.com/ternarybob/tickerscope/internal/common"
)

func main() {
	// Load configuration; a missing default file just means defaults plus env
	var paths []string
	if configPath := os.Getenv("TICKERSCOPE_CONFIG"); configPath != "" {
		paths = append(paths, configPath)
	} else if _, err := os.Stat("tickerscope.toml"); err == nil {
		paths = append(paths, "tickerscope.toml")
	}

	config, err := common.LoadFromFiles(paths...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Minimal logging to avoid cluttering MCP stdio
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
	}
	defer application.Close()

	mcpServer := server.NewMCPServer(
		"tickerscope",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Ownership tools
	mcpServer.AddTool(createGetOwnershipTool(), handleGetOwnership(application.OwnershipService, logger))
	mcpServer.AddTool(createAnalyzeOwnershipTool(), handleAnalyzeOwnership(application.OwnershipService, logger))

	// Fundamentals and sentiment tools
	mcpServer.AddTool(createGetSafetyScoreTool(), handleGetSafetyScore(application.SafetyService, logger))
	mcpServer.AddTool(createGetRatiosTool(), handleGetRatios(application.SafetyService, logger))
	mcpServer.AddTool(createGetSentimentTool(), handleGetSentiment(application.SentimentService, logger))

	// Market and report tools
	mcpServer.AddTool(createGetMarketMoodTool(), handleGetMarketMood(application.MarketService, logger))
	mcpServer.AddTool(createGetReportTool(), handleGetReport(application.Reports, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
