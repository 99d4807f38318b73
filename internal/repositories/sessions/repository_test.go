package sessions

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/faceguard/internal/common"
	"github.com/dmitrijs2005/faceguard/internal/models"
	"github.com/dmitrijs2005/faceguard/internal/repositories/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var created = time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)

func TestDeactivate_ConditionalUpdate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`^UPDATE sessions SET active = FALSE WHERE token = \? AND active = TRUE$`).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := NewSQLRepository(db).Deactivate(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByToken_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, username, token`).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, err = NewSQLRepository(db).GetByToken(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func newSession(user, token string, offset time.Duration) *models.Session {
	return &models.Session{
		Username:  user,
		Token:     token,
		CreatedAt: created.Add(offset),
		ExpiresAt: created.Add(offset + 30*time.Minute),
	}
}

func TestSQLite_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository(repotest.NewSQLiteDB(t))

	for i, tok := range []string{"t1", "t2", "t3"} {
		s, err := repo.Create(ctx, newSession("alice", tok, time.Duration(i)*time.Minute))
		require.NoError(t, err)
		assert.True(t, s.Active)
	}

	got, err := repo.GetByToken(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.True(t, got.Active)
	assert.True(t, created.Add(31*time.Minute).Equal(got.ExpiresAt))

	ok, err := repo.Deactivate(ctx, "t2")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Deactivate(ctx, "t2")
	require.NoError(t, err)
	assert.False(t, ok, "second deactivation is a no-op")

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "t3", active[0].Token)
	assert.Equal(t, "t1", active[1].Token)

	n, err := repo.DeactivateByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	active, err = repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestSQLite_DeactivateExactlyOnce(t *testing.T) {
	ctx := context.Background()
	repo := NewSQLRepository(repotest.NewSQLiteDB(t))

	_, err := repo.Create(ctx, newSession("bob", "tok", 0))
	require.NoError(t, err)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.Deactivate(ctx, "tok")
			assert.NoError(t, err)
			if ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, wins.Load())
}
