// Package lockouts persists failed-attempt counters keyed by identifier.
package lockouts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/faceguard/internal/dbx"
	"github.com/dmitrijs2005/faceguard/internal/models"
)

type Repository interface {
	// Get returns a zero-valued record when identifier has none.
	Get(ctx context.Context, identifier string) (*models.Lockout, error)
	// RecordFailure increments the counter in one statement and sets
	// locked_until to lockUntil once the counter reaches threshold.
	RecordFailure(ctx context.Context, identifier string, threshold int, lockUntil time.Time) (*models.Lockout, error)
	// ResetIfUnchanged deletes the record only if its counter still equals
	// failCount. It reports whether a row was removed.
	ResetIfUnchanged(ctx context.Context, identifier string, failCount int) (bool, error)
	Reset(ctx context.Context, identifier string) error
}

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Get(ctx context.Context, identifier string) (*models.Lockout, error) {
	var (
		failCount   int
		lockedUntil sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT fail_count, locked_until FROM lockouts WHERE identifier = ?`, identifier).
		Scan(&failCount, &lockedUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.Lockout{Identifier: identifier}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	rec := &models.Lockout{Identifier: identifier, FailCount: failCount}
	if lockedUntil.Valid {
		t := lockedUntil.Time.UTC()
		rec.LockedUntil = &t
	}
	return rec, nil
}

func (r *SQLRepository) RecordFailure(ctx context.Context, identifier string, threshold int, lockUntil time.Time) (*models.Lockout, error) {
	lockUntil = lockUntil.UTC()

	var initial sql.NullTime
	if threshold <= 1 {
		initial = sql.NullTime{Time: lockUntil, Valid: true}
	}

	query :=
		`INSERT INTO lockouts (identifier, fail_count, locked_until)
		 VALUES (?, 1, ?)
		 ON CONFLICT (identifier) DO UPDATE SET
		   fail_count = lockouts.fail_count + 1,
		   locked_until = CASE WHEN lockouts.fail_count + 1 >= ? THEN ? ELSE lockouts.locked_until END
		 RETURNING fail_count`

	var failCount int
	err := r.db.QueryRowContext(ctx, query, identifier, initial, threshold, lockUntil).Scan(&failCount)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	rec := &models.Lockout{Identifier: identifier, FailCount: failCount}
	if failCount >= threshold {
		rec.LockedUntil = &lockUntil
	}
	return rec, nil
}

func (r *SQLRepository) ResetIfUnchanged(ctx context.Context, identifier string, failCount int) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM lockouts WHERE identifier = ? AND fail_count = ?`, identifier, failCount)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) Reset(ctx context.Context, identifier string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lockouts WHERE identifier = ?`, identifier); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
