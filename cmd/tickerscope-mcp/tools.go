package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func tickerParam() mcp.ToolOption {
	return mcp.WithString("ticker",
		mcp.Required(),
		mcp.Description("Ticker symbol, optionally with exchange suffix (AAPL, BHP.AU)"),
	)
}

// createGetOwnershipTool returns the get_ownership tool definition
func createGetOwnershipTool() mcp.Tool {
	return mcp.NewTool("get_ownership",
		mcp.WithDescription("Institutional ownership percentage for one ticker, with the source that answered and every attempt made"),
		tickerParam(),
	)
}

// createAnalyzeOwnershipTool returns the analyze_ownership tool definition
func createAnalyzeOwnershipTool() mcp.Tool {
	return mcp.NewTool("analyze_ownership",
		mcp.WithDescription("Resolve institutional ownership for several tickers and group them into high, medium and low bands"),
		mcp.WithArray("tickers",
			mcp.Required(),
			mcp.WithStringItems(),
			mcp.Description("Ticker symbols (max 50)"),
		),
	)
}

// createGetSafetyScoreTool returns the get_safety_score tool definition
func createGetSafetyScoreTool() mcp.Tool {
	return mcp.NewTool("get_safety_score",
		mcp.WithDescription("Fundamental safety score (0-100) from beta, debt/equity and analyst rating"),
		tickerParam(),
	)
}

// createGetRatiosTool returns the get_ratios tool definition
func createGetRatiosTool() mcp.Tool {
	return mcp.NewTool("get_ratios",
		mcp.WithDescription("Headline financial ratios: P/E, ROE, debt/equity and EPS"),
		tickerParam(),
	)
}

// createGetSentimentTool returns the get_sentiment tool definition
func createGetSentimentTool() mcp.Tool {
	return mcp.NewTool("get_sentiment",
		mcp.WithDescription("Score recent news headlines for a ticker and summarize the overall sentiment"),
		tickerParam(),
	)
}

// createGetMarketMoodTool returns the get_market_mood tool definition
func createGetMarketMoodTool() mcp.Tool {
	return mcp.NewTool("get_market_mood",
		mcp.WithDescription("Market-wide mood from the VIX level and the Fear & Greed index"),
	)
}

// createGetReportTool returns the get_report tool definition
func createGetReportTool() mcp.Tool {
	return mcp.NewTool("get_report",
		mcp.WithDescription("Full markdown report for one ticker: ownership, safety, ratios, sentiment and market mood"),
		tickerParam(),
	)
}
