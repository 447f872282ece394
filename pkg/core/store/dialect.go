package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"finbot/pkg/core/tenk"
)

// Dialect names a supported SQL flavour.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
	DuckDB   Dialect = "duckdb"
)

const (
	filingsTable = "ten_k_filings"
	summaryTable = "ten_k_filings_summary"
)

// Rebind rewrites "?" placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// idColumn is the auto-assigned primary key definition.
func (d Dialect) idColumn(table string) string {
	switch d {
	case Postgres:
		return "id BIGSERIAL PRIMARY KEY"
	case DuckDB:
		return "id BIGINT PRIMARY KEY DEFAULT nextval('" + table + "_id_seq')"
	default:
		return "id BIGINT AUTO_INCREMENT PRIMARY KEY"
	}
}

func (d Dialect) textType() string {
	if d == MySQL {
		return "TEXT"
	}
	return "VARCHAR"
}

// itemColumns renders one nullable text column per record slot.
func (d Dialect) itemColumns() string {
	cols := make([]string, 0, len(tenk.RecordKeys()))
	for _, key := range tenk.RecordKeys() {
		cols = append(cols, "\t"+string(key)+" "+d.textType())
	}
	return strings.Join(cols, ",\n")
}

func (d Dialect) schema() []string {
	var stmts []string

	if d == DuckDB {
		stmts = append(stmts,
			"CREATE SEQUENCE IF NOT EXISTS "+filingsTable+"_id_seq",
			"CREATE SEQUENCE IF NOT EXISTS "+summaryTable+"_id_seq",
		)
	}

	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s,
	file_name VARCHAR(255),
	document_number VARCHAR(32),
	company_name VARCHAR(255),
	cik VARCHAR(16),
	report_date DATE,
	filed_date DATE,
	content_hash CHAR(32) NOT NULL UNIQUE,
%s,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`, filingsTable, d.idColumn(filingsTable), d.itemColumns()))

	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	%s,
	original_filing_id BIGINT NOT NULL UNIQUE,
	company_name VARCHAR(255),
%s,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (original_filing_id) REFERENCES %s(id)
)`, summaryTable, d.idColumn(summaryTable), d.itemColumns(), filingsTable))

	if d == MySQL || d == Postgres {
		stmts = append(stmts, fmt.Sprintf(
			"CREATE INDEX %sidx_%s_company_name ON %s (company_name)",
			d.ifNotExists(), filingsTable, filingsTable))
	}

	return stmts
}

// ifNotExists guards CREATE INDEX where the dialect supports it. MySQL
// reports a duplicate key name instead, which EnsureSchema tolerates.
func (d Dialect) ifNotExists() string {
	if d == Postgres {
		return "IF NOT EXISTS "
	}
	return ""
}

// EnsureSchema creates the filings and summary tables when absent.
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range db.dialect.schema() {
		if _, err := db.sql.ExecContext(ctx, stmt); err != nil {
			if db.dialect == MySQL && isDuplicateKeyName(err) {
				continue
			}
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
