// Package repotest opens throwaway SQLite databases with the full schema
// applied, for repository and service tests.
package repotest

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/dmitrijs2005/faceguard/internal/dbx"
	"github.com/dmitrijs2005/faceguard/internal/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// NewSQLiteDB returns an isolated in-memory database migrated to the latest
// schema. It is closed automatically when the test ends.
func NewSQLiteDB(t testing.TB) *sql.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := sql.Open("sqlite", "file:"+name+"?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(dbx.DialectSQLite.GooseDialect()); err != nil {
		t.Fatalf("goose dialect: %v", err)
	}
	goose.SetLogger(goose.NopLogger())
	if err := goose.UpContext(context.Background(), db, migrations.Dir(dbx.DialectSQLite)); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return db
}
