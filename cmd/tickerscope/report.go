package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/tickerscope/internal/common"
	"github.com/ternarybob/tickerscope/internal/services/report"
)

func runReport(args []string) int {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	format := fs.String("format", "markdown", "Output format: markdown, json, html or pdf")
	out := fs.String("o", "", "Write to this file instead of stdout (required for pdf)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: tickerscope report [flags] TICKER")
		fs.PrintDefaults()
	}

	application, ctx, cancel, code := cliApp(fs, args)
	if application == nil {
		return code
	}
	defer application.Close()
	defer cancel()

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	ticker, err := common.ParseTicker(fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if *format == "pdf" && *out == "" {
		fmt.Fprintln(os.Stderr, "pdf output requires -o")
		return 2
	}

	rep, err := application.Reports.Build(ctx, ticker)
	if err != nil {
		application.Logger.Error().Err(err).Str("ticker", ticker.String()).Msg("Report failed")
		return 1
	}

	md := report.Markdown(rep)
	var body []byte
	switch *format {
	case "markdown", "md":
		body = []byte(md)
	case "json":
		body, err = json.MarshalIndent(rep, "", "  ")
	case "html":
		body, err = report.HTML(md, ticker.String())
	case "pdf":
		body, err = report.PDF(md, ticker.String())
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q\n", *format)
		return 2
	}
	if err != nil {
		application.Logger.Error().Err(err).Str("format", *format).Msg("Render failed")
		return 1
	}

	if *out == "" {
		_, _ = os.Stdout.Write(body)
		return 0
	}
	if err := os.WriteFile(*out, body, 0644); err != nil {
		application.Logger.Error().Err(err).Str("path", *out).Msg("Failed to write report")
		return 1
	}
	application.Logger.Info().Str("path", *out).Msg("Report written")
	return 0
}
