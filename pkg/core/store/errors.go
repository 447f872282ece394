package store

import (
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/marcboeker/go-duckdb"
)

// ErrNotFound is returned when a row lookup matches nothing.
var ErrNotFound = errors.New("row not found")

const (
	mysqlDuplicateKeyName = 1061
	mysqlDuplicateEntry   = 1062
	pgUniqueViolation     = "23505"
)

func isDuplicateKeyName(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateKeyName
}

// isUniqueViolation reports whether err is a unique-constraint failure in
// any supported dialect.
func isUniqueViolation(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	var pe *pgconn.PgError
	if errors.As(err, &pe) {
		return pe.Code == pgUniqueViolation
	}
	var de *duckdb.Error
	if errors.As(err, &de) {
		return de.Type == duckdb.ErrorTypeConstraint
	}
	return false
}
