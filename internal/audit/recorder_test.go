package audit

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dmitrijs2005/faceguard/internal/clock"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/models"
	"github.com/dmitrijs2005/faceguard/internal/repositories/accesslogs"
	auditrepo "github.com/dmitrijs2005/faceguard/internal/repositories/audit"
	"github.com/dmitrijs2005/faceguard/internal/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)

func TestRecorder_WritesBothTrails(t *testing.T) {
	ctx := context.Background()
	db := repotest.NewSQLiteDB(t)
	r := NewRecorder(auditrepo.NewSQLRepository(db), accesslogs.NewSQLRepository(db), logging.Nop(), clock.Fake(t0))

	r.Record(ctx, models.ActionUserRegistered, "SYSTEM", "alice", "Registered with 30 samples")
	r.Attempt(ctx, "alice", models.AccessSuccess, 64.5)

	entries, err := r.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionUserRegistered, entries[0].Action)
	assert.True(t, t0.Equal(entries[0].Timestamp))

	attempts, err := r.RecentAttempts(ctx, 0)
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, 64.5, attempts[0].Confidence)
}

type failingAudit struct{ auditrepo.Repository }

func (failingAudit) Append(context.Context, *models.AuditEntry) error { return errors.New("db locked") }

type failingAccess struct{ accesslogs.Repository }

func (failingAccess) Add(context.Context, *models.AccessLogEntry) error { return errors.New("db locked") }

func TestRecorder_StorageErrorsAreSwallowedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))
	r := NewRecorder(failingAudit{}, failingAccess{}, log, nil)

	require.NotPanics(t, func() {
		r.Record(context.Background(), models.ActionLockout, "SYSTEM", "", "")
		r.Attempt(context.Background(), "UNKNOWN", models.AccessFailed, 0)
	})

	out := buf.String()
	assert.Contains(t, out, "audit write failed")
	assert.Contains(t, out, "access log write failed")
	assert.Contains(t, out, "db locked")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Account locked out", Describe(models.ActionLockout))
	assert.Equal(t, "CUSTOM", Describe("CUSTOM"))
}
