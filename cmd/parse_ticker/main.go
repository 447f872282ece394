// Command parse_ticker extracts the Items of every downloaded 10-K of one
// ticker and stores them.
//
//	parse_ticker [-root DIR] TICKER
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"finbot/pkg/config"
	"finbot/pkg/core/batch"
	"finbot/pkg/core/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "parse_ticker: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	root := flag.String("root", cfg.FilingsRoot, "directory holding <TICKER>/10-K/ folders")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: parse_ticker [-root DIR] TICKER\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		return errors.New("exactly one ticker is required")
	}
	ticker := strings.ToUpper(strings.TrimSpace(flag.Arg(0)))

	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn, err := cfg.DSN()
	if err != nil {
		return err
	}
	db, err := store.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("%w: %w", batch.ErrDatabaseUnavailable, err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	repo := store.NewFilingsRepo(db)
	seen, err := repo.HasTicker(ctx, ticker)
	if err != nil {
		return fmt.Errorf("%w: %w", batch.ErrDatabaseUnavailable, err)
	}
	if seen {
		fmt.Printf("%s already has stored filings; duplicates will be skipped\n", ticker)
	}

	driver := batch.NewDriver(*root, repo, nil, logger)
	result, err := driver.ProcessTicker(ctx, ticker)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d filings, %d inserted, %d duplicates, %d empty, %d failed\n",
		result.Ticker, result.Files, result.Inserted, result.Duplicates, result.Empty, result.Failed)
	if total, err := repo.Count(ctx); err == nil {
		fmt.Printf("%d filings stored in total\n", total)
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d of %d filings failed", result.Failed, result.Files)
	}
	return nil
}
