package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/faceguard/internal/dbx"
	"github.com/dmitrijs2005/faceguard/internal/models"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewRepositoryManager_RejectsUnknownDialect(t *testing.T) {
	_, err := NewRepositoryManager("mysql")
	require.Error(t, err)

	m, err := NewRepositoryManager(dbx.DialectPostgres)
	require.NoError(t, err)
	assert.Equal(t, dbx.DialectPostgres, m.Dialect())
}

func TestFactories_ReturnRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m, err := NewRepositoryManager(dbx.DialectSQLite)
	require.NoError(t, err)

	assert.NotNil(t, m.Users(db))
	assert.NotNil(t, m.AccessLogs(db))
	assert.NotNil(t, m.Lockouts(db))
	assert.NotNil(t, m.Sessions(db))
	assert.NotNil(t, m.Audit(db))
	assert.NotNil(t, m.Metadata(db))
}

func TestPostgresRepos_RebindPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	m, err := NewRepositoryManager(dbx.DialectPostgres)
	require.NoError(t, err)

	mock.ExpectExec(`DELETE FROM lockouts WHERE identifier = $1`).
		WithArgs("login").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, m.Lockouts(db).Reset(context.Background(), "login"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "postgres" {
			return errors.New("unexpected dir " + dir)
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &SQLRepositoryManager{dialect: dbx.DialectPostgres}
	require.NoError(t, m.RunMigrations(context.Background(), db))
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &SQLRepositoryManager{dialect: dbx.DialectSQLite}
	err := m.RunMigrations(context.Background(), db)
	require.EqualError(t, err, "boom")
}

func TestOpen_SQLiteFileMigratesAndPersists(t *testing.T) {
	ctx := context.Background()
	dsn := "file:" + filepath.Join(t.TempDir(), "faceguard.db") + "?_pragma=busy_timeout(5000)"

	db, m, err := Open(ctx, "sqlite", dsn)
	require.NoError(t, err)

	_, err = m.Users(db).Create(ctx, &models.User{FullName: "Alice", Username: "alice", RegisteredAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, m, err = Open(ctx, "sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()

	u, err := m.Users(db).GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", u.FullName)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, _, err := Open(context.Background(), "oracle", "x")
	require.Error(t, err)
}
