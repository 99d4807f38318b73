// Package repomanager vends repository implementations bound to a database
// handle and runs schema migrations via goose.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/faceguard/internal/dbx"
	"github.com/dmitrijs2005/faceguard/internal/migrations"
	"github.com/dmitrijs2005/faceguard/internal/repositories/accesslogs"
	"github.com/dmitrijs2005/faceguard/internal/repositories/audit"
	"github.com/dmitrijs2005/faceguard/internal/repositories/lockouts"
	"github.com/dmitrijs2005/faceguard/internal/repositories/metadata"
	"github.com/dmitrijs2005/faceguard/internal/repositories/sessions"
	"github.com/dmitrijs2005/faceguard/internal/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type RepositoryManager interface {
	Dialect() dbx.Dialect
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	AccessLogs(db dbx.DBTX) accesslogs.Repository
	Lockouts(db dbx.DBTX) lockouts.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	Audit(db dbx.DBTX) audit.Repository
	Metadata(db dbx.DBTX) metadata.Repository
}

// SQLRepositoryManager hands out the database/sql repositories, rebinding
// placeholders for the configured dialect.
type SQLRepositoryManager struct {
	dialect dbx.Dialect
}

func NewRepositoryManager(dialect dbx.Dialect) (RepositoryManager, error) {
	if _, err := dbx.ParseDialect(string(dialect)); err != nil {
		return nil, err
	}
	return &SQLRepositoryManager{dialect: dialect}, nil
}

func (m *SQLRepositoryManager) Dialect() dbx.Dialect { return m.dialect }

func (m *SQLRepositoryManager) bind(db dbx.DBTX) dbx.DBTX {
	return dbx.WithDialect(db, m.dialect)
}

func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(m.bind(db))
}

func (m *SQLRepositoryManager) AccessLogs(db dbx.DBTX) accesslogs.Repository {
	return accesslogs.NewSQLRepository(m.bind(db))
}

func (m *SQLRepositoryManager) Lockouts(db dbx.DBTX) lockouts.Repository {
	return lockouts.NewSQLRepository(m.bind(db))
}

func (m *SQLRepositoryManager) Sessions(db dbx.DBTX) sessions.Repository {
	return sessions.NewSQLRepository(m.bind(db))
}

func (m *SQLRepositoryManager) Audit(db dbx.DBTX) audit.Repository {
	return audit.NewSQLRepository(m.bind(db))
}

func (m *SQLRepositoryManager) Metadata(db dbx.DBTX) metadata.Repository {
	return metadata.NewSQLRepository(m.bind(db))
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded migrations for the manager's dialect.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.dialect.GooseDialect()); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	return gooseUpContext(ctx, db, migrations.Dir(m.dialect))
}

// Open connects to the database, verifies the connection and migrates it.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	dialect, err := dbx.ParseDialect(driver)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db open error: %w", err)
	}
	if dialect == dbx.DialectSQLite {
		// one writer at a time; busy_timeout in the DSN covers other processes
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db ping error: %w", err)
	}

	m, err := NewRepositoryManager(dialect)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}

	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("db migration error: %w", err)
	}

	return db, m, nil
}
