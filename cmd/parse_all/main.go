// Command parse_all processes every downloaded ticker that has no stored
// filing yet, after asking for confirmation.
//
//	parse_all [-root DIR] [-yes]
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"finbot/pkg/config"
	"finbot/pkg/core/batch"
	"finbot/pkg/core/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "parse_all: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	root := flag.String("root", cfg.FilingsRoot, "directory holding <TICKER>/10-K/ folders")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	// SIGINT stops the run at the next filing boundary.
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
	driver := batch.NewDriver(*root, repo, nil, logger)
	pending, err := driver.PendingTickers(ctx)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("Nothing to do: every ticker under", *root, "is already parsed.")
		return nil
	}

	fmt.Printf("%d tickers to process: %s\n", len(pending), strings.Join(pending, ", "))
	if !*yes && !confirm(os.Stdin, os.Stdout) {
		fmt.Println("Aborted.")
		return nil
	}

	summary, err := driver.Run(ctx, pending)
	printSummary(os.Stdout, summary)
	if total, countErr := repo.Count(context.WithoutCancel(ctx)); countErr == nil {
		fmt.Printf("%d filings stored in total\n", total)
	}
	if err != nil {
		return err
	}
	if failed := summary.Totals().Failed; failed > 0 {
		return fmt.Errorf("%d filings failed", failed)
	}
	return nil
}

func confirm(in io.Reader, out io.Writer) bool {
	fmt.Fprint(out, "Proceed? [y/N] ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

func printSummary(w io.Writer, s batch.RunSummary) {
	for _, r := range s.Tickers {
		fmt.Fprintf(w, "  %-8s %3d filings  %3d inserted  %3d duplicates  %3d empty  %3d failed\n",
			r.Ticker, r.Files, r.Inserted, r.Duplicates, r.Empty, r.Failed)
	}
	for _, t := range s.Skipped {
		fmt.Fprintf(w, "  %-8s skipped (no filings)\n", t)
	}
	total := s.Totals()
	fmt.Fprintf(w, "run %s: %d tickers, %d filings, %d inserted, %d failed in %s\n",
		s.RunID, len(s.Tickers), total.Files, total.Inserted, total.Failed, s.Duration.Round(time.Millisecond))
}
