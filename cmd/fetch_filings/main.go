// Command fetch_filings downloads 10-K complete submission files from EDGAR
// into the filings root.
//
//	fetch_filings [-root DIR] [-from YYYY-MM-DD] [-to YYYY-MM-DD] TICKER...
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finbot/pkg/config"
	"finbot/pkg/core/ingest"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fetch_filings: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	root := flag.String("root", cfg.FilingsRoot, "download directory")
	fromFlag := flag.String("from", "", "earliest filing date (YYYY-MM-DD)")
	toFlag := flag.String("to", "", "latest filing date (YYYY-MM-DD)")
	flag.Parse()
	if flag.NArg() == 0 {
		return errors.New("at least one ticker is required")
	}

	from, err := parseDate(*fromFlag)
	if err != nil {
		return fmt.Errorf("invalid -from: %w", err)
	}
	to, err := parseDate(*toFlag)
	if err != nil {
		return fmt.Errorf("invalid -to: %w", err)
	}

	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := ingest.NewEDGARClient(
		ingest.WithUserAgent(cfg.SEC.UserAgent),
		ingest.WithRateLimit(cfg.SEC.RequestsPerSecond),
	)
	retriever := ingest.NewRetriever(client, *root, logger)

	failed := 0
	for _, ticker := range flag.Args() {
		paths, err := retriever.Download(ctx, ticker, from, to)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("download failed", "ticker", ticker, "error", err)
			failed++
			continue
		}
		fmt.Printf("%s: %d new filings\n", ticker, len(paths))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d tickers failed", failed, flag.NArg())
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
