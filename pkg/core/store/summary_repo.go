package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finbot/pkg/core/tenk"
)

// SummaryRow is the per-Item LLM summary of one filing.
type SummaryRow struct {
	FilingID int64
	Ticker   string
	Items    tenk.ItemRecord
}

// SummaryRepo reads and writes ten_k_filings_summary.
type SummaryRepo struct {
	db *DB
}

// NewSummaryRepo creates a repository on db.
func NewSummaryRepo(db *DB) *SummaryRepo {
	return &SummaryRepo{db: db}
}

var insertSummarySQL = `INSERT INTO ten_k_filings_summary (
	original_filing_id, company_name, ` + itemColumnList() + `
) VALUES (` + placeholders(2+len(tenk.RecordKeys())) + `)`

// Save writes one summary row. A second summary of the same filing is a
// no-op.
func (r *SummaryRepo) Save(ctx context.Context, row *SummaryRow) error {
	exists, err := r.Exists(ctx, row.FilingID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	args := append([]any{row.FilingID, nullable(row.Ticker)}, itemArgs(row.Items)...)

	_, err = r.db.sql.ExecContext(ctx, r.db.dialect.Rebind(insertSummarySQL), args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("failed to save summary for filing %d: %w", row.FilingID, err)
	}
	return nil
}

// Exists reports whether filingID already has a summary.
func (r *SummaryRepo) Exists(ctx context.Context, filingID int64) (bool, error) {
	var n int
	err := r.db.sql.QueryRowContext(ctx,
		r.db.dialect.Rebind(`SELECT COUNT(*) FROM ten_k_filings_summary WHERE original_filing_id = ?`),
		filingID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check summary for filing %d: %w", filingID, err)
	}
	return n > 0, nil
}

// Get loads the summary of filingID, or ErrNotFound.
func (r *SummaryRepo) Get(ctx context.Context, filingID int64) (*SummaryRow, error) {
	query := `SELECT original_filing_id, company_name, ` + itemColumnList() +
		` FROM ten_k_filings_summary WHERE original_filing_id = ?`

	var (
		row    SummaryRow
		ticker sql.NullString
	)
	items := make([]sql.NullString, len(tenk.RecordKeys()))

	dest := []any{&row.FilingID, &ticker}
	for i := range items {
		dest = append(dest, &items[i])
	}

	err := r.db.sql.QueryRowContext(ctx, r.db.dialect.Rebind(query), filingID).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("summary of filing %d: %w", filingID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading summary of filing %d: %w", filingID, err)
	}

	row.Ticker = ticker.String
	row.Items = scanItems(items)
	return &row, nil
}
