package lockouts

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/faceguard/internal/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lockUntil = time.Date(2024, 6, 1, 10, 0, 30, 0, time.UTC)

func TestRecordFailure_SingleStatement(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+lockouts.*ON\s+CONFLICT\s*\(identifier\)\s*DO\s+UPDATE\s+SET.*fail_count\s*=\s*lockouts\.fail_count\s*\+\s*1.*RETURNING\s+fail_count$`
	mock.ExpectQuery(q).
		WithArgs("login", nil, 5, lockUntil).
		WillReturnRows(sqlmock.NewRows([]string{"fail_count"}).AddRow(5))

	rec, err := NewSQLRepository(db).RecordFailure(context.Background(), "login", 5, lockUntil)
	require.NoError(t, err)
	assert.Equal(t, 5, rec.FailCount)
	require.NotNil(t, rec.LockedUntil)
	assert.Equal(t, lockUntil, *rec.LockedUntil)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT fail_count, locked_until FROM lockouts`).WillReturnError(errors.New("locked db"))

	_, err = NewSQLRepository(db).Get(context.Background(), "login")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
}

func TestSQLite_CounterAndLock(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository(repotest.NewSQLiteDB(t))

	rec, err := repo.Get(ctx, "login")
	require.NoError(t, err)
	assert.Zero(t, rec.FailCount)
	assert.Nil(t, rec.LockedUntil)

	for i := 1; i <= 4; i++ {
		rec, err = repo.RecordFailure(ctx, "login", 5, lockUntil)
		require.NoError(t, err)
		assert.Equal(t, i, rec.FailCount)
		assert.Nil(t, rec.LockedUntil)
	}

	rec, err = repo.RecordFailure(ctx, "login", 5, lockUntil)
	require.NoError(t, err)
	assert.Equal(t, 5, rec.FailCount)
	require.NotNil(t, rec.LockedUntil)

	stored, err := repo.Get(ctx, "login")
	require.NoError(t, err)
	assert.Equal(t, 5, stored.FailCount)
	require.NotNil(t, stored.LockedUntil)
	assert.True(t, lockUntil.Equal(*stored.LockedUntil), stored.LockedUntil)

	other, err := repo.Get(ctx, "other")
	require.NoError(t, err)
	assert.Zero(t, other.FailCount)
}

func TestSQLite_ResetIfUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository(repotest.NewSQLiteDB(t))

	_, err := repo.RecordFailure(ctx, "login", 5, lockUntil)
	require.NoError(t, err)
	_, err = repo.RecordFailure(ctx, "login", 5, lockUntil)
	require.NoError(t, err)

	ok, err := repo.ResetIfUnchanged(ctx, "login", 1)
	require.NoError(t, err)
	assert.False(t, ok, "stale counter must not reset")

	ok, err = repo.ResetIfUnchanged(ctx, "login", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	rec, err := repo.Get(ctx, "login")
	require.NoError(t, err)
	assert.Zero(t, rec.FailCount)

	require.NoError(t, repo.Reset(ctx, "login"))
}

func TestSQLite_ConcurrentFailuresAreNotLost(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository(repotest.NewSQLiteDB(t))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.RecordFailure(ctx, "login", 5, lockUntil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	rec, err := repo.Get(ctx, "login")
	require.NoError(t, err)
	assert.Equal(t, n, rec.FailCount)
}
