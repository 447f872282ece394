// Command summarize writes LLM summaries of stored filings.
//
//	summarize [-id N | -limit N]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"finbot/pkg/config"
	"finbot/pkg/core/llm"
	"finbot/pkg/core/store"
	"finbot/pkg/core/summary"
	"finbot/pkg/core/tenk"
	"finbot/pkg/core/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "summarize: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	id := flag.Int64("id", 0, "summarize only this filing id")
	limit := flag.Int("limit", 0, "summarize at most N pending filings (0 = all)")
	flag.Parse()
	if *id != 0 && *limit != 0 {
		return errors.New("-id and -limit are mutually exclusive")
	}

	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	provider, err := llm.New(cfg.LLM.Provider, cfg.APIKey(), cfg.LLM.Model)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dsn, err := cfg.DSN()
	if err != nil {
		return err
	}
	db, err := store.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}

	summaries := store.NewSummaryRepo(db)
	s := summary.NewSummarizer(store.NewFilingsRepo(db), summaries, provider, cfg.LLM.Concurrency, logger)

	if *id != 0 {
		written, err := s.SummarizeFiling(ctx, *id)
		if err != nil {
			return err
		}
		if written {
			fmt.Printf("filing %d summarized\n", *id)
		} else {
			fmt.Printf("filing %d already summarized\n", *id)
		}

		row, err := summaries.Get(ctx, *id)
		if err != nil {
			return err
		}
		printSummary(os.Stdout, row)
		return nil
	}

	n, err := s.SummarizePending(ctx, *limit)
	fmt.Printf("%d filings summarized\n", n)
	return err
}

// printSummary writes each stored Item summary as plain text, in document
// order.
func printSummary(w io.Writer, row *store.SummaryRow) {
	fmt.Fprintf(w, "\n%s (filing %d)\n", row.Ticker, row.FilingID)
	for _, key := range tenk.RecordKeys() {
		text, ok := row.Items.Get(key)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\n[%s]\n%s\n", key, utils.MarkdownToText(text))
	}
}
