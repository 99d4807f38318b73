package audit

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/faceguard/internal/models"
	"github.com/dmitrijs2005/faceguard/internal/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_SQLShape(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	q := `(?s)^INSERT\s+INTO\s+audit_log\s*\(created_at,\s*action,\s*performed_by,\s*target_user,\s*details\)\s*VALUES\s*\(\?,\s*\?,\s*\?,\s*\?,\s*\?\)\s*RETURNING\s+id$`
	mock.ExpectQuery(q).
		WithArgs(at, "LOCKOUT_RESET", "ADMIN", nil, "Manually unlocked via admin panel").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(9)))

	e := &models.AuditEntry{Timestamp: at, Action: models.ActionLockoutReset, PerformedBy: "ADMIN", Details: "Manually unlocked via admin panel"}
	require.NoError(t, NewSQLRepository(db).Append(context.Background(), e))
	assert.Equal(t, int64(9), e.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_AppendOnly(t *testing.T) {
	ctx := context.Background()
	db := repotest.NewSQLiteDB(t)
	repo := NewSQLRepository(db)

	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	require.NoError(t, repo.Append(ctx, &models.AuditEntry{Timestamp: at, Action: models.ActionUserRegistered, PerformedBy: "SYSTEM", TargetUser: "alice", Details: "Registered with 30 samples"}))
	require.NoError(t, repo.Append(ctx, &models.AuditEntry{Timestamp: at.Add(time.Second), Action: models.ActionModelTrained, PerformedBy: "SYSTEM"}))

	got, err := repo.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.ActionModelTrained, got[0].Action)
	assert.Empty(t, got[0].TargetUser)
	assert.Equal(t, "alice", got[1].TargetUser)

	_, err = db.ExecContext(ctx, `UPDATE audit_log SET details = 'x'`)
	assert.Error(t, err)
	_, err = db.ExecContext(ctx, `DELETE FROM audit_log`)
	assert.Error(t, err)
}
