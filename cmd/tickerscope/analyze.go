package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/tickerscope/internal/app"
	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/services/report"
)

// cliApp loads config and builds the application for a one-shot command.
// Logging stays at warn so stdout carries only the report unless -verbose is set.
func cliApp(fs *flag.FlagSet, args []string) (*app.App, context.Context, context.CancelFunc, int) {
	paths := commonFlags(fs)
	verbose := fs.Bool("verbose", false, "Log at the configured level instead of warn")
	_ = fs.Parse(args)

	config, err := loadConfig(*paths, 0, "")
	if err != nil {
		return nil, nil, nil, fatalStartup(*paths, err)
	}
	if !*verbose {
		config.Logging.Level = "warn"
	}

	logger := common.InitLogger(config)
	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return nil, nil, nil, 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return application, ctx, cancel, 0
}

func runAnalyze(args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	asJSON := fs.Bool("json", false, "Print the analysis as JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tickerscope analyze [flags] TICKER [TICKER...]")
		fs.PrintDefaults()
	}

	application, ctx, cancel, code := cliApp(fs, args)
	if application == nil {
		return code
	}
	defer application.Close()
	defer cancel()

	tickers := splitTickers(fs.Args())
	if len(tickers) == 0 {
		fs.Usage()
		return 2
	}

	analysis, err := application.OwnershipService.Analyze(ctx, tickers)
	if err != nil {
		application.Logger.Error().Err(err).Msg("Analysis failed")
		return 1
	}

	if *asJSON {
		return printJSON(application.Logger, analysis)
	}
	fmt.Print(report.Analysis(analysis))
	return 0
}

// splitTickers accepts both "AAPL MSFT" and "AAPL,MSFT"
func splitTickers(args []string) []string {
	var tickers []string
	for _, arg := range args {
		for _, t := range strings.Split(arg, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tickers = append(tickers, t)
			}
		}
	}
	return tickers
}

func printJSON(logger arbor.ILogger, v interface{}) int {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Error().Err(err).Msg("Failed to encode output")
		return 1
	}
	return 0
}
