// Package sessions persists issued session tokens and their active flag.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/dbx"
	"github.com/dmitrijs2005/faceguard/internal/models"
)

type Repository interface {
	Create(ctx context.Context, s *models.Session) (*models.Session, error)
	GetByToken(ctx context.Context, token string) (*models.Session, error)
	// Deactivate flips active to false. It reports whether this call made
	// the change, so concurrent callers see exactly one true.
	Deactivate(ctx context.Context, token string) (bool, error)
	DeactivateByUsername(ctx context.Context, username string) (int64, error)
	ListActive(ctx context.Context) ([]*models.Session, error)
}

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO sessions (username, token, created_at, expires_at, active)
		 VALUES (?, ?, ?, ?, TRUE)
		 RETURNING id`,
		s.Username, s.Token, s.CreatedAt.UTC(), s.ExpiresAt.UTC()).Scan(&s.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.Active = true
	return s, nil
}

func (r *SQLRepository) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx,
		`SELECT id, username, token, created_at, expires_at, active FROM sessions
		 WHERE token = ?`, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *SQLRepository) Deactivate(ctx context.Context, token string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET active = FALSE WHERE token = ? AND active = TRUE`, token)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *SQLRepository) DeactivateByUsername(ctx context.Context, username string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET active = FALSE WHERE username = ? AND active = TRUE`, username)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// ListActive returns active sessions, newest first.
func (r *SQLRepository) ListActive(ctx context.Context) ([]*models.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, token, created_at, expires_at, active FROM sessions
		 WHERE active = TRUE
		 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(sc scanner) (*models.Session, error) {
	var s models.Session
	if err := sc.Scan(&s.ID, &s.Username, &s.Token, &s.CreatedAt, &s.ExpiresAt, &s.Active); err != nil {
		return nil, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.ExpiresAt = s.ExpiresAt.UTC()
	return &s, nil
}
