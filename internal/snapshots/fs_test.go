package snapshots

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFSStore_SaveAndList(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "intruders")
	s := NewFSStore(dir)
	ctx := context.Background()

	names, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, off := range []time.Duration{time.Minute, 0, time.Hour} {
		name, err := s.Save(ctx, base.Add(off), []byte{byte(i)})
		require.NoError(t, err)
		assert.FileExists(t, filepath.Join(dir, name))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	names, err = s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"intruder_20260102_040405.jpg",
		"intruder_20260102_030505.jpg",
		"intruder_20260102_030405.jpg",
	}, names)

	data, err := os.ReadFile(filepath.Join(dir, "intruder_20260102_040405.jpg"))
	require.NoError(t, err)
	assert.Equal(t, []byte{2}, data)
}

func TestFSStore_SaveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFSStore(t.TempDir()).Save(ctx, time.Now(), []byte("x"))
	assert.ErrorIs(t, err, context.Canceled)
}
