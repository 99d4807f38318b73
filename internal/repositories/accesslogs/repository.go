// Package accesslogs stores the raw per-attempt login history.
package accesslogs

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/faceguard/internal/dbx"
	"github.com/dmitrijs2005/faceguard/internal/models"
)

type Repository interface {
	Add(ctx context.Context, entry *models.AccessLogEntry) error
	ListRecent(ctx context.Context, limit int) ([]*models.AccessLogEntry, error)
}

type SQLRepository struct {
	db dbx.DBTX
}

func NewSQLRepository(db dbx.DBTX) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Add(ctx context.Context, entry *models.AccessLogEntry) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO access_logs (username, status, confidence, created_at)
		 VALUES (?, ?, ?, ?)
		 RETURNING id`,
		entry.Username, string(entry.Status), entry.Confidence, entry.Timestamp.UTC()).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// ListRecent returns up to limit entries, newest first.
func (r *SQLRepository) ListRecent(ctx context.Context, limit int) ([]*models.AccessLogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, username, status, confidence, created_at FROM access_logs
		 ORDER BY id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.AccessLogEntry
	for rows.Next() {
		var (
			e      models.AccessLogEntry
			status string
		)
		if err := rows.Scan(&e.ID, &e.Username, &status, &e.Confidence, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.Status = models.AccessStatus(status)
		e.Timestamp = e.Timestamp.UTC()
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
