package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"finbot/pkg/core/tenk"
)

const dateLayout = "2006-01-02"

// FilingRow is one parsed 10-K as stored in ten_k_filings.
//
// Ticker is stored in the company_name column; downstream consumers join on
// it. Empty strings are written as NULL.
type FilingRow struct {
	ID             int64
	FileName       string
	DocumentNumber string
	Ticker         string
	CIK            string
	ReportDate     string // YYYY-MM-DD
	FiledDate      string // YYYY-MM-DD
	ContentHash    string
	Items          tenk.ItemRecord
	CreatedAt      time.Time
}

// FilingsRepo reads and writes ten_k_filings.
type FilingsRepo struct {
	db *DB
}

// NewFilingsRepo creates a repository on db.
func NewFilingsRepo(db *DB) *FilingsRepo {
	return &FilingsRepo{db: db}
}

// Save inserts row in its own transaction unless a row with the same content
// hash already exists. inserted is false for the duplicate no-op.
func (r *FilingsRepo) Save(ctx context.Context, row *FilingRow) (inserted bool, err error) {
	if row.ContentHash == "" {
		return false, fmt.Errorf("filing %s has no content hash", row.FileName)
	}

	tx, err := r.db.sql.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var n int
	err = tx.QueryRowContext(ctx,
		r.db.dialect.Rebind(`SELECT COUNT(*) FROM ten_k_filings WHERE content_hash = ?`),
		row.ContentHash,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check existing filing: %w", err)
	}
	if n > 0 {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, r.db.dialect.Rebind(insertFilingSQL), row.args()...); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert filing %s: %w", row.FileName, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit filing %s: %w", row.FileName, err)
	}
	return true, nil
}

// Exists reports whether a filing with the given content hash is stored.
func (r *FilingsRepo) Exists(ctx context.Context, contentHash string) (bool, error) {
	n, err := r.count(ctx, `SELECT COUNT(*) FROM ten_k_filings WHERE content_hash = ?`, contentHash)
	if err != nil {
		return false, fmt.Errorf("failed to check filing %s: %w", contentHash, err)
	}
	return n > 0, nil
}

// HasTicker reports whether at least one filing of ticker is stored.
func (r *FilingsRepo) HasTicker(ctx context.Context, ticker string) (bool, error) {
	n, err := r.count(ctx, `SELECT COUNT(*) FROM ten_k_filings WHERE company_name = ?`, ticker)
	if err != nil {
		return false, fmt.Errorf("failed to check ticker %s: %w", ticker, err)
	}
	return n > 0, nil
}

// Count returns the number of stored filings.
func (r *FilingsRepo) Count(ctx context.Context) (int, error) {
	n, err := r.count(ctx, `SELECT COUNT(*) FROM ten_k_filings`)
	if err != nil {
		return 0, fmt.Errorf("failed to count filings: %w", err)
	}
	return n, nil
}

// ProcessedTickers returns the set of tickers with at least one stored filing.
func (r *FilingsRepo) ProcessedTickers(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.sql.QueryContext(ctx,
		`SELECT DISTINCT company_name FROM ten_k_filings WHERE company_name IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("error listing processed tickers: %w", err)
	}
	defer rows.Close()

	tickers := make(map[string]bool)
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("error scanning ticker row: %w", err)
		}
		tickers[ticker] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticker rows: %w", err)
	}
	return tickers, nil
}

// Get loads one filing by id. It returns ErrNotFound when no row matches.
func (r *FilingsRepo) Get(ctx context.Context, id int64) (*FilingRow, error) {
	query := `SELECT id, file_name, document_number, company_name, cik, report_date, filed_date, content_hash, ` +
		itemColumnList() + `, created_at FROM ten_k_filings WHERE id = ?`

	var (
		row                                 FilingRow
		fileName, docNum, ticker, cik, hash sql.NullString
		reportDate, filedDate, createdAt    sql.NullTime
	)
	items := make([]sql.NullString, len(tenk.RecordKeys()))

	dest := []any{&row.ID, &fileName, &docNum, &ticker, &cik, &reportDate, &filedDate, &hash}
	for i := range items {
		dest = append(dest, &items[i])
	}
	dest = append(dest, &createdAt)

	err := r.db.sql.QueryRowContext(ctx, r.db.dialect.Rebind(query), id).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("filing %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading filing %d: %w", id, err)
	}

	row.FileName = fileName.String
	row.DocumentNumber = docNum.String
	row.Ticker = ticker.String
	row.CIK = cik.String
	row.ContentHash = hash.String
	row.ReportDate = formatDate(reportDate)
	row.FiledDate = formatDate(filedDate)
	row.CreatedAt = createdAt.Time
	row.Items = scanItems(items)

	return &row, nil
}

// ListUnsummarized returns ids of filings without a summary row, oldest
// first. limit <= 0 means no limit.
func (r *FilingsRepo) ListUnsummarized(ctx context.Context, limit int) ([]int64, error) {
	query := `SELECT f.id FROM ten_k_filings f
		LEFT JOIN ten_k_filings_summary s ON s.original_filing_id = f.id
		WHERE s.id IS NULL
		ORDER BY f.id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.sql.QueryContext(ctx, r.db.dialect.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("error listing unsummarized filings: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning filing id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating filing ids: %w", err)
	}
	return ids, nil
}

// Ping verifies the underlying connection.
func (r *FilingsRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

func (r *FilingsRepo) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := r.db.sql.QueryRowContext(ctx, r.db.dialect.Rebind(query), args...).Scan(&n)
	return n, err
}

// =============================================================================
// ROW MAPPING
// =============================================================================

var insertFilingSQL = `INSERT INTO ten_k_filings (
	file_name, document_number, company_name, cik, report_date, filed_date, content_hash, ` + itemColumnList() + `
) VALUES (` + placeholders(7+len(tenk.RecordKeys())) + `)`

func (row *FilingRow) args() []any {
	args := []any{
		nullable(row.FileName),
		nullable(row.DocumentNumber),
		nullable(row.Ticker),
		nullable(row.CIK),
		nullableDate(row.ReportDate),
		nullableDate(row.FiledDate),
		row.ContentHash,
	}
	return append(args, itemArgs(row.Items)...)
}

func itemColumnList() string {
	cols := make([]string, 0, len(tenk.RecordKeys()))
	for _, key := range tenk.RecordKeys() {
		cols = append(cols, string(key))
	}
	return strings.Join(cols, ", ")
}

func itemArgs(items tenk.ItemRecord) []any {
	args := make([]any, 0, len(tenk.RecordKeys()))
	for _, key := range tenk.RecordKeys() {
		if v, ok := items.Get(key); ok {
			args = append(args, v)
		} else {
			args = append(args, nil)
		}
	}
	return args
}

func scanItems(values []sql.NullString) tenk.ItemRecord {
	items := make(tenk.ItemRecord)
	for i, key := range tenk.RecordKeys() {
		if values[i].Valid && values[i].String != "" {
			items[key] = values[i].String
		}
	}
	return items
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// nullable maps "" to NULL. Plain values are passed so every driver's
// argument checker accepts them.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullableDate maps a YYYY-MM-DD string to a time.Time, or NULL when it is
// empty or malformed.
func nullableDate(s string) any {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return t
}

func formatDate(t sql.NullTime) string {
	if !t.Valid {
		return ""
	}
	return t.Time.Format(dateLayout)
}
