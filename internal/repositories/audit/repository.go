// Package audit stores the append-only security trail. The schema rejects
// UPDATE and DELETE on audit rows.
package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/faceguard/internal/dbx"
	"github.com/dmitrijs2005/faceguard/internal/models"
)

type Repository interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]*models.AuditEntry, error)
}

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO audit_log (created_at, action, performed_by, target_user, details)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id`,
		entry.Timestamp.UTC(), string(entry.Action), entry.PerformedBy,
		nullable(entry.TargetUser), nullable(entry.Details)).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListRecent returns up to limit entries, newest first.
func (r *SQLRepository) ListRecent(ctx context.Context, limit int) ([]*models.AuditEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, action, performed_by, target_user, details FROM audit_log
		 ORDER BY id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.AuditEntry
	for rows.Next() {
		var (
			e               models.AuditEntry
			action          string
			target, details sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Timestamp, &action, &e.PerformedBy, &target, &details); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.Action = models.AuditAction(action)
		e.TargetUser = target.String
		e.Details = details.String
		e.Timestamp = e.Timestamp.UTC()
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
