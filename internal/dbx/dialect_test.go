package dbx

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		in      string
		want    string
	}{
		{"sqlite untouched", DialectSQLite, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = ? AND b = ?"},
		{"postgres numbered", DialectPostgres, "SELECT * FROM t WHERE a = ? AND b = ?", "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{"postgres skips literals", DialectPostgres, "SELECT '?' FROM t WHERE a = ?", "SELECT '?' FROM t WHERE a = $1"},
		{"no placeholders", DialectPostgres, "DELETE FROM t", "DELETE FROM t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Rebind(tt.dialect, tt.in))
		})
	}
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("sqlite")
	require.NoError(t, err)
	assert.Equal(t, DialectSQLite, d)
	assert.Equal(t, "sqlite3", d.GooseDialect())

	d, err = ParseDialect("pgx")
	require.NoError(t, err)
	assert.Equal(t, DialectPostgres, d)
	assert.Equal(t, "pgx", d.GooseDialect())

	_, err = ParseDialect("mysql")
	require.Error(t, err)
}

func TestWithDialect_PostgresRewritesQueries(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DELETE FROM t WHERE id = $1").WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))

	bound := WithDialect(db, DialectPostgres)
	_, err = bound.ExecContext(context.Background(), "DELETE FROM t WHERE id = ?", 7)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Same(t, bound, WithDialect(bound, DialectPostgres), "double wrapping must be avoided")
}

func TestWithDialect_SQLiteReturnsSameHandle(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, DBTX(db), WithDialect(db, DialectSQLite))
}
