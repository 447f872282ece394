package batch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finbot/pkg/core/store"
	"finbot/pkg/core/tenk"
)

const businessText = "Acme Corporation designs and manufactures precision widgets for industrial customers. " +
	"Our business serves markets across several regions and our products are sold through distributors. "

const riskText = "Our business faces competition and supply risks that could reduce revenue and harm operations. "

// filingText renders a small submission with a contents page and three Items.
func filingText(accession, period string, withBodyItem1 bool) string {
	var b strings.Builder
	b.WriteString("<SEC-HEADER>\nACCESSION NUMBER:\t\t" + accession + "\n")
	b.WriteString("CONFORMED SUBMISSION TYPE:\t10-K\n")
	if period != "" {
		b.WriteString("CONFORMED PERIOD OF REPORT:\t" + period + "\n")
	}
	b.WriteString("FILED AS OF DATE:\t\t20231103\n")
	b.WriteString("\t\tCOMPANY CONFORMED NAME:\t\t\tACME CORP\n")
	b.WriteString("\t\tCENTRAL INDEX KEY:\t\t\t0000320193\n</SEC-HEADER>\n")
	b.WriteString("<DOCUMENT>\n<TEXT>\n<html><body>\n")
	b.WriteString("<p>TABLE OF CONTENTS</p>\n")
	b.WriteString("<p>Item 1. Business ........ 4</p>\n<p>Item 1A. Risk Factors ........ 9</p>\n<p>Item 2. Properties ........ 15</p>\n")
	b.WriteString("<p>PART I</p>\n")
	if withBodyItem1 {
		b.WriteString("<p>Item 1. Business</p>\n")
	}
	b.WriteString("<p>" + strings.Repeat(businessText, 8) + "</p>\n")
	b.WriteString("<p>Item 1A. Risk Factors</p>\n<p>" + strings.Repeat(riskText, 6) + "</p>\n")
	b.WriteString("<p>Item 2. Properties</p>\n<p>The Company owns plants and offices used by its operations in several states.</p>\n")
	b.WriteString("</body></html>\n</TEXT>\n</DOCUMENT>\n")
	return b.String()
}

func writeFiling(t *testing.T, root, ticker, name, content string) string {
	t.Helper()
	path := filepath.Join(root, ticker, FormDir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func openRepo(t *testing.T) *store.FilingsRepo {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, "duckdb::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.EnsureSchema(ctx))
	return store.NewFilingsRepo(db)
}

func quietLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// fakeStore records saves and fails on demand.
type fakeStore struct {
	saved     []*store.FilingRow
	saveErr   error
	pingErr   error
	processed map[string]bool
	onSave    func()
}

func (f *fakeStore) Save(_ context.Context, row *store.FilingRow) (bool, error) {
	if f.onSave != nil {
		f.onSave()
	}
	if f.saveErr != nil {
		return false, f.saveErr
	}
	f.saved = append(f.saved, row)
	return true, nil
}

func (f *fakeStore) ProcessedTickers(context.Context) (map[string]bool, error) {
	return f.processed, nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.pingErr
}

// =============================================================================
// DISCOVERY
// =============================================================================

func TestDiscoverTickers(t *testing.T) {
	root := t.TempDir()
	writeFiling(t, root, "ACME", "0000320193-23-000106.txt", "x")
	writeFiling(t, root, "MSFT", filepath.Join("0000789019-23-000014", "full-submission.txt"), "x")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "EMPTY", FormDir), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "NOFORM", "10-Q"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "README.md"), []byte("notes"), 0644))

	tickers, err := DiscoverTickers(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME", "MSFT"}, tickers)
}

func TestDiscoverTickers_MissingRoot(t *testing.T) {
	_, err := DiscoverTickers(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestListFilings(t *testing.T) {
	root := t.TempDir()
	writeFiling(t, root, "ACME", "b.txt", "x")
	writeFiling(t, root, "ACME", "a.txt", "x")
	writeFiling(t, root, "ACME", "notes.htm", "x")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "EMPTY", FormDir), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "NOFORM"), 0755))

	files, err := ListFilings(root, "ACME")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "ACME", FormDir, "a.txt"),
		filepath.Join(root, "ACME", FormDir, "b.txt"),
	}, files)

	tests := []struct {
		ticker string
		want   error
	}{
		{"MISSING", ErrTickerNotFound},
		{"NOFORM", ErrNo10KDir},
		{"EMPTY", ErrNoFilings},
	}
	for _, tt := range tests {
		t.Run(tt.ticker, func(t *testing.T) {
			_, err := ListFilings(root, tt.ticker)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, IsInputAbsent(err))
		})
	}
}

// =============================================================================
// DRIVER
// =============================================================================

func TestDriver_RunStoresEveryFilingOnce(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFiling(t, root, "ACME", "2023.txt", filingText("0000320193-23-000106", "20230930", true))
	writeFiling(t, root, "ACME", "2022.txt", filingText("0000320193-22-000108", "20220924", true))
	writeFiling(t, root, "MSFT", "2023.txt", filingText("0000789019-23-000014", "20230630", true))

	repo := openRepo(t)
	var logs bytes.Buffer
	d := NewDriver(root, repo, nil, quietLogger(&logs))

	pending, err := d.PendingTickers(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ACME", "MSFT"}, pending)

	summary, err := d.Run(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, d.RunID(), summary.RunID)
	require.Len(t, summary.Tickers, 2)
	assert.Equal(t, 2, summary.Tickers[0].Inserted)
	assert.Equal(t, 1, summary.Tickers[1].Inserted)
	assert.Equal(t, 3, summary.Totals().Succeeded())

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	pending, err = d.PendingTickers(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Re-running a ticker is an idempotent no-op.
	result, err := d.ProcessTicker(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 2, result.Duplicates)

	n, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	assert.Contains(t, logs.String(), "run_id="+d.RunID())
}

func TestDriver_StoredRowContents(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeFiling(t, root, "ACME", "2023.txt", filingText("0000320193-23-000106", "", true))

	fake := &fakeStore{}
	d := NewDriver(root, fake, nil, quietLogger(&bytes.Buffer{}))

	result, err := d.ProcessTicker(ctx, "ACME")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	require.Len(t, fake.saved, 1)

	row := fake.saved[0]
	assert.Equal(t, "2023.txt", row.FileName)
	assert.Equal(t, "ACME", row.Ticker)
	assert.Equal(t, "0000320193-23-000106", row.DocumentNumber)
	assert.Equal(t, "0000320193", row.CIK)
	assert.Equal(t, "", row.ReportDate)
	assert.Equal(t, "2023-11-03", row.FiledDate)
	assert.Equal(t, store.Fingerprint("0000320193-23-000106", "", nil), row.ContentHash)

	item1, ok := row.Items.Get(tenk.Item1)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(item1, "Acme Corporation designs"))
	_, ok = row.Items.Get(tenk.Item1A)
	assert.True(t, ok)
}

func TestDriver_WarnsWhenItem1Missing(t *testing.T) {
	root := t.TempDir()
	writeFiling(t, root, "ACME", "2023.txt", filingText("0000320193-23-000106", "20230930", false))

	fake := &fakeStore{}
	var logs bytes.Buffer
	d := NewDriver(root, fake, nil, quietLogger(&logs))

	result, err := d.ProcessTicker(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Inserted)
	assert.Contains(t, logs.String(), "item_1 not found")

	require.Len(t, fake.saved, 1)
	_, ok := fake.saved[0].Items.Get(tenk.Item1)
	assert.False(t, ok)
	_, ok = fake.saved[0].Items.Get(tenk.Item1A)
	assert.True(t, ok)
}

func TestDriver_SkipsEmptyFiling(t *testing.T) {
	root := t.TempDir()
	writeFiling(t, root, "ACME", "junk.txt", "<html><body>nothing here</body></html>")

	fake := &fakeStore{}
	d := NewDriver(root, fake, nil, quietLogger(&bytes.Buffer{}))

	result, err := d.ProcessTicker(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Empty)
	assert.Empty(t, fake.saved)
}

func TestDriver_UnreadableFilingIsSkipped(t *testing.T) {
	root := t.TempDir()
	writeFiling(t, root, "ACME", "good.txt", filingText("0000320193-23-000106", "20230930", true))
	broken := filepath.Join(root, "ACME", FormDir, "broken.txt")
	require.NoError(t, os.Symlink(filepath.Join(root, "missing-target"), broken))

	fake := &fakeStore{}
	var logs bytes.Buffer
	d := NewDriver(root, fake, nil, quietLogger(&logs))

	result, err := d.ProcessTicker(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Files)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Inserted)
	assert.Contains(t, logs.String(), "skipping unreadable filing")

	_, err = d.ProcessFile(context.Background(), "ACME", broken)
	assert.ErrorIs(t, err, ErrUnreadableFiling)
}

func TestDriver_SaveFailureWithLiveDatabaseContinues(t *testing.T) {
	root := t.TempDir()
	writeFiling(t, root, "ACME", "a.txt", filingText("0000320193-23-000106", "20230930", true))
	writeFiling(t, root, "ACME", "b.txt", filingText("0000320193-22-000108", "20220924", true))

	fake := &fakeStore{saveErr: errors.New("deadlock found")}
	d := NewDriver(root, fake, nil, quietLogger(&bytes.Buffer{}))

	result, err := d.ProcessTicker(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, 2, result.Failed)
}

func TestDriver_DatabaseUnavailableStopsRun(t *testing.T) {
	root := t.TempDir()
	writeFiling(t, root, "ACME", "a.txt", filingText("0000320193-23-000106", "20230930", true))
	writeFiling(t, root, "MSFT", "a.txt", filingText("0000789019-23-000014", "20230630", true))

	fake := &fakeStore{
		saveErr: errors.New("connection refused"),
		pingErr: errors.New("connection refused"),
	}
	d := NewDriver(root, fake, nil, quietLogger(&bytes.Buffer{}))

	summary, err := d.Run(context.Background(), []string{"ACME", "MSFT"})
	assert.ErrorIs(t, err, ErrDatabaseUnavailable)
	require.Len(t, summary.Tickers, 1)
	assert.Equal(t, "ACME", summary.Tickers[0].Ticker)
}

func TestDriver_InterruptDuringSaveIsCancellation(t *testing.T) {
	root := t.TempDir()
	writeFiling(t, root, "ACME", "a.txt", filingText("0000320193-23-000106", "20230930", true))
	writeFiling(t, root, "ACME", "b.txt", filingText("0000320193-22-000108", "20220924", true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fake := &fakeStore{saveErr: context.Canceled, onSave: cancel}
	d := NewDriver(root, fake, nil, quietLogger(&bytes.Buffer{}))

	summary, err := d.Run(ctx, []string{"ACME"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrDatabaseUnavailable)
	require.Len(t, summary.Tickers, 1)
	assert.Equal(t, 1, summary.Tickers[0].Failed)
}

func TestDriver_RunSkipsAbsentInput(t *testing.T) {
	root := t.TempDir()
	writeFiling(t, root, "ACME", "a.txt", filingText("0000320193-23-000106", "20230930", true))

	fake := &fakeStore{}
	d := NewDriver(root, fake, nil, quietLogger(&bytes.Buffer{}))

	summary, err := d.Run(context.Background(), []string{"GHOST", "ACME"})
	require.NoError(t, err)
	assert.Equal(t, []string{"GHOST"}, summary.Skipped)
	require.Len(t, summary.Tickers, 1)
	assert.Equal(t, 1, summary.Totals().Inserted)
}

func TestDriver_HonorsCancellation(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 3; i++ {
		writeFiling(t, root, "ACME", fmt.Sprintf("%d.txt", i), filingText(fmt.Sprintf("0000320193-2%d-000106", i), "20230930", true))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fake := &fakeStore{}
	d := NewDriver(root, fake, nil, quietLogger(&bytes.Buffer{}))

	_, err := d.Run(ctx, []string{"ACME"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fake.saved)
}

func TestDriver_PendingTickersExcludesProcessed(t *testing.T) {
	root := t.TempDir()
	writeFiling(t, root, "ACME", "a.txt", "x")
	writeFiling(t, root, "MSFT", "a.txt", "x")

	fake := &fakeStore{processed: map[string]bool{"ACME": true}}
	d := NewDriver(root, fake, nil, quietLogger(&bytes.Buffer{}))

	pending, err := d.PendingTickers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"MSFT"}, pending)
}
