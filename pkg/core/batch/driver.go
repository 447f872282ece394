package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"finbot/pkg/core/store"
	"finbot/pkg/core/tenk"
)

// FilingStore is the persistence the driver needs.
type FilingStore interface {
	Save(ctx context.Context, row *store.FilingRow) (bool, error)
	ProcessedTickers(ctx context.Context) (map[string]bool, error)
	Ping(ctx context.Context) error
}

// FileOutcome is what happened to one filing.
type FileOutcome int

const (
	OutcomeInserted FileOutcome = iota
	OutcomeDuplicate
	OutcomeEmpty
)

func (o FileOutcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeEmpty:
		return "empty"
	}
	return "unknown"
}

// TickerResult counts the outcomes for one ticker.
type TickerResult struct {
	Ticker     string
	Files      int
	Inserted   int
	Duplicates int
	Empty      int
	Failed     int
}

// Succeeded is the number of filings that are now stored.
func (r TickerResult) Succeeded() int {
	return r.Inserted + r.Duplicates
}

// RunSummary aggregates a batch run.
type RunSummary struct {
	RunID    string
	Tickers  []TickerResult
	Skipped  []string // tickers with nothing to process
	Duration time.Duration
}

// Totals sums the per-ticker results.
func (s RunSummary) Totals() TickerResult {
	var total TickerResult
	for _, r := range s.Tickers {
		total.Files += r.Files
		total.Inserted += r.Inserted
		total.Duplicates += r.Duplicates
		total.Empty += r.Empty
		total.Failed += r.Failed
	}
	return total
}

// =============================================================================
// DRIVER
// =============================================================================

// Driver runs Clean -> Locate -> Extract -> Save for each filing under root.
// It is not safe for concurrent use; one driver holds one connection.
type Driver struct {
	root   string
	parser *tenk.Parser
	repo   FilingStore
	runID  string
	logger *slog.Logger
}

// NewDriver creates a driver. A nil logger means slog.Default().
func NewDriver(root string, repo FilingStore, parser *tenk.Parser, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	if parser == nil {
		parser = tenk.NewParser(logger)
	}
	return &Driver{
		root:   root,
		parser: parser,
		repo:   repo,
		runID:  runID,
		logger: logger,
	}
}

// RunID identifies this driver's run in logs.
func (d *Driver) RunID() string {
	return d.runID
}

// PendingTickers returns the discovered tickers that have no stored filing.
func (d *Driver) PendingTickers(ctx context.Context) ([]string, error) {
	discovered, err := DiscoverTickers(d.root)
	if err != nil {
		return nil, err
	}

	processed, err := d.repo.ProcessedTickers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseUnavailable, err)
	}

	pending := make([]string, 0, len(discovered))
	for _, ticker := range discovered {
		if processed[ticker] {
			d.logger.Debug("ticker already processed", "ticker", ticker)
			continue
		}
		pending = append(pending, ticker)
	}
	return pending, nil
}

// Run processes tickers in order. Input-absent tickers are skipped; an
// unreachable database or a cancelled context stops the run at the next
// filing boundary.
func (d *Driver) Run(ctx context.Context, tickers []string) (RunSummary, error) {
	start := time.Now()
	summary := RunSummary{RunID: d.runID}

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		result, err := d.ProcessTicker(ctx, ticker)
		if err != nil && IsInputAbsent(err) {
			d.logger.Warn("skipping ticker", "ticker", ticker, "error", err)
			summary.Skipped = append(summary.Skipped, ticker)
			continue
		}
		summary.Tickers = append(summary.Tickers, result)
		if err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
	}

	summary.Duration = time.Since(start)
	totals := summary.Totals()
	d.logger.Info("batch complete",
		"tickers", len(summary.Tickers),
		"skipped", len(summary.Skipped),
		"files", totals.Files,
		"inserted", totals.Inserted,
		"duplicates", totals.Duplicates,
		"failed", totals.Failed,
		"duration", summary.Duration.Round(time.Millisecond).String(),
	)
	return summary, nil
}

// ProcessTicker runs every filing of ticker. Unreadable files and failed
// saves are counted and skipped as long as the database still answers.
func (d *Driver) ProcessTicker(ctx context.Context, ticker string) (TickerResult, error) {
	result := TickerResult{Ticker: ticker}

	files, err := ListFilings(d.root, ticker)
	if err != nil {
		return result, err
	}
	result.Files = len(files)

	logger := d.logger.With("ticker", ticker)
	logger.Info("processing ticker", "filings", len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome, err := d.ProcessFile(ctx, ticker, path)
		if err != nil {
			result.Failed++
			if errors.Is(err, ErrUnreadableFiling) {
				logger.Error("skipping unreadable filing", "file", path, "error", err)
				continue
			}

			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			logger.Error("failed to save filing", "file", path, "error", err)
			if pingErr := d.repo.Ping(ctx); pingErr != nil {
				return result, fmt.Errorf("%w: %w", ErrDatabaseUnavailable, pingErr)
			}
			continue
		}

		switch outcome {
		case OutcomeInserted:
			result.Inserted++
		case OutcomeDuplicate:
			result.Duplicates++
		case OutcomeEmpty:
			result.Empty++
		}
	}

	logger.Info("ticker complete",
		"succeeded", result.Succeeded(),
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"failed", result.Failed,
	)
	return result, nil
}

// ProcessFile parses one filing and saves it.
func (d *Driver) ProcessFile(ctx context.Context, ticker, path string) (FileOutcome, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrUnreadableFiling, err)
	}

	name := filepath.Base(path)
	logger := d.logger.With("ticker", ticker, "file", name)

	pf := d.parser.Parse(raw)
	if _, ok := pf.Items.Get(tenk.Item1); !ok {
		logger.Warn("item_1 not found")
	}

	if pf.Items.Present() == 0 && pf.Header == (tenk.Header{}) {
		logger.Warn("nothing extracted and no header metadata, not saving")
		return OutcomeEmpty, nil
	}

	row := buildRow(ticker, name, raw, pf)
	inserted, err := d.repo.Save(ctx, row)
	if err != nil {
		return 0, fmt.Errorf("failed to save %s: %w", name, err)
	}

	if !inserted {
		logger.Info("filing already stored", "content_hash", row.ContentHash)
		return OutcomeDuplicate, nil
	}
	logger.Info("filing stored",
		"document_number", row.DocumentNumber,
		"report_date", row.ReportDate,
		"items", pf.Items.Present(),
	)
	return OutcomeInserted, nil
}

func buildRow(ticker, fileName string, raw []byte, pf *tenk.ParsedFiling) *store.FilingRow {
	h := pf.Header
	return &store.FilingRow{
		FileName:       fileName,
		DocumentNumber: h.AccessionNumber,
		Ticker:         ticker,
		CIK:            h.CIK,
		ReportDate:     h.ReportDate,
		FiledDate:      h.FiledDate,
		ContentHash:    store.Fingerprint(h.AccessionNumber, h.ReportDate, raw),
		Items:          pf.Items,
	}
}
