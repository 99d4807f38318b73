package dbx

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// Dialect names a SQL flavour. Repositories write queries with '?'
// placeholders; Postgres handles rewrite them to $N before execution.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "pgx"
)

// ParseDialect maps a database/sql driver name to a Dialect.
func ParseDialect(driver string) (Dialect, error) {
	switch Dialect(driver) {
	case DialectSQLite, DialectPostgres:
		return Dialect(driver), nil
	}
	return "", fmt.Errorf("unsupported database driver %q", driver)
}

// GooseDialect returns the dialect name goose expects for migrations.
func (d Dialect) GooseDialect() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite3"
}

// Rebind rewrites '?' placeholders for the given dialect. Question marks
// inside single-quoted literals are left untouched.
func Rebind(d Dialect, query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

type boundDB struct {
	db      DBTX
	dialect Dialect
}

// WithDialect wraps db so every query is rebound for dialect.
func WithDialect(db DBTX, dialect Dialect) DBTX {
	if dialect != DialectPostgres {
		return db
	}
	if b, ok := db.(*boundDB); ok {
		return b
	}
	return &boundDB{db: db, dialect: dialect}
}

func (b *boundDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return b.db.ExecContext(ctx, Rebind(b.dialect, query), args...)
}

func (b *boundDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return b.db.QueryContext(ctx, Rebind(b.dialect, query), args...)
}

func (b *boundDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return b.db.QueryRowContext(ctx, Rebind(b.dialect, query), args...)
}
