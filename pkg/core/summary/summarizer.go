// Package summary asks an LLM to condense each stored 10-K Item and writes
// the result to ten_k_filings_summary.
package summary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"finbot/pkg/core/llm"
	"finbot/pkg/core/store"
	"finbot/pkg/core/tenk"
	"finbot/pkg/core/utils"
)

const (
	DefaultConcurrency = 3
	// MaxPromptBytes caps the Item text sent in one request.
	MaxPromptBytes = 60000
)

// ErrNoSummaries is returned when a filing has Items but none could be
// summarized. No row is written so the filing is retried on the next run.
var ErrNoSummaries = errors.New("no item could be summarized")

// Answer is the JSON object the model is asked to return.
type Answer struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// Markdown renders the answer as stored in the summary table.
func (a Answer) Markdown() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(a.Summary))
	if len(a.KeyPoints) > 0 {
		b.WriteString("\n\n")
		for _, p := range a.KeyPoints {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			b.WriteString("- ")
			b.WriteString(p)
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String())
}

// Summarizer produces per-Item summaries of stored filings.
type Summarizer struct {
	filings     *store.FilingsRepo
	summaries   *store.SummaryRepo
	provider    llm.Provider
	concurrency int
	logger      *slog.Logger
}

// NewSummarizer builds a Summarizer. concurrency < 1 selects
// DefaultConcurrency; a nil logger means slog.Default().
func NewSummarizer(filings *store.FilingsRepo, summaries *store.SummaryRepo, provider llm.Provider, concurrency int, logger *slog.Logger) *Summarizer {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{
		filings:     filings,
		summaries:   summaries,
		provider:    provider,
		concurrency: concurrency,
		logger:      logger.With("provider", provider.Name()),
	}
}

// SummarizeFiling summarizes every present Item of filing filingID and stores
// one summary row. It reports false when the filing was already summarized.
// An Item whose request fails is left NULL.
func (s *Summarizer) SummarizeFiling(ctx context.Context, filingID int64) (bool, error) {
	done, err := s.summaries.Exists(ctx, filingID)
	if err != nil {
		return false, err
	}
	if done {
		s.logger.Debug("filing already summarized", "filing_id", filingID)
		return false, nil
	}

	filing, err := s.filings.Get(ctx, filingID)
	if err != nil {
		return false, err
	}
	logger := s.logger.With("filing_id", filingID, "ticker", filing.Ticker)

	var (
		mu      sync.Mutex
		results = make(tenk.ItemRecord)
		failed  int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for _, key := range tenk.RecordKeys() {
		text, ok := filing.Items.Get(key)
		if !ok {
			continue
		}
		g.Go(func() error {
			out, err := s.summarizeItem(gctx, filing.Ticker, key, text)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("item summary failed", "item", key, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			mu.Lock()
			results[key] = out
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return false, err
	}

	if len(results) == 0 && failed > 0 {
		return false, fmt.Errorf("filing %d: %w", filingID, ErrNoSummaries)
	}

	row := &store.SummaryRow{FilingID: filingID, Ticker: filing.Ticker, Items: results}
	if err := s.summaries.Save(ctx, row); err != nil {
		return false, err
	}

	logger.Info("filing summarized", "items", len(results), "failed", failed)
	return true, nil
}

// SummarizePending summarizes up to limit filings without a summary row
// (all of them when limit <= 0) and returns how many were written. A filing
// that cannot be summarized is logged and skipped.
func (s *Summarizer) SummarizePending(ctx context.Context, limit int) (int, error) {
	ids, err := s.filings.ListUnsummarized(ctx, limit)
	if err != nil {
		return 0, err
	}
	s.logger.Info("pending filings", "count", len(ids))

	written := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		ok, err := s.SummarizeFiling(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return written, ctx.Err()
			}
			s.logger.Error("failed to summarize filing", "filing_id", id, "error", err)
			continue
		}
		if ok {
			written++
		}
	}
	return written, nil
}

func (s *Summarizer) summarizeItem(ctx context.Context, ticker string, key tenk.ItemKey, text string) (string, error) {
	answer, err := s.provider.GenerateResponse(ctx, buildPrompt(ticker, key, text), systemPrompt, map[string]interface{}{
		"temperature":     0.2,
		"max_tokens":      1024,
		"response_format": map[string]interface{}{"type": "json_object"},
	})
	if err != nil {
		return "", err
	}
	return parseAnswer(answer)
}

// parseAnswer accepts the JSON object asked for, or falls back to the answer
// as markdown when the model ignored the format.
func parseAnswer(raw string) (string, error) {
	var a Answer
	if _, err := utils.SmartParse(raw, &a); err == nil && strings.TrimSpace(a.Summary) != "" {
		return a.Markdown(), nil
	}

	cleaned := utils.CleanMarkdown(raw)
	if !utils.ValidateMarkdown(cleaned) {
		return "", errors.New("empty model answer")
	}
	return cleaned, nil
}
