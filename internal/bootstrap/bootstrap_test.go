package bootstrap

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/faceguard/internal/config"
	"github.com/dmitrijs2005/faceguard/internal/logging"
	"github.com/dmitrijs2005/faceguard/internal/services"
	"github.com/dmitrijs2005/faceguard/internal/snapshots"
	"github.com/dmitrijs2005/faceguard/internal/vision/visiontest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabaseDSN = filepath.Join(dir, "faceguard.db")
	cfg.DatasetsDir = filepath.Join(dir, "datasets")
	cfg.ModelsDir = filepath.Join(dir, "models")
	cfg.IntrudersDir = filepath.Join(dir, "intruders")
	return cfg
}

func testVision() services.Vision {
	return services.Vision{
		OpenCamera: visiontest.NewOpener().Open,
		Liveness:   visiontest.Analyzer{},
		Faces:      visiontest.Analyzer{},
		Recognizer: visiontest.NewRecognizer(),
	}
}

func TestNew_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	st, err := New(ctx, cfg, logging.Nop(), testVision())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	users, err := st.Admin.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	locked, _, err := st.Admin.LockoutStatus(ctx)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestNew_ReopenKeepsSigningKey(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	st, err := New(ctx, cfg, logging.Nop(), testVision())
	require.NoError(t, err)
	tok, err := st.Core.Sessions().Create(ctx, "alice")
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = New(ctx, cfg, logging.Nop(), testVision())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	p, err := st.Core.Sessions().Validate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseDriver = "mysql"
	_, err := New(context.Background(), cfg, logging.Nop(), testVision())
	assert.ErrorContains(t, err, "unknown database driver")
}

func TestNewSnapshotStore(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	s, err := NewSnapshotStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &snapshots.FSStore{}, s)

	cfg.SnapshotBackend = config.SnapshotS3
	s, err = NewSnapshotStore(ctx, cfg)
	require.NoError(t, err)
	assert.IsType(t, &snapshots.S3Store{}, s)

	cfg.SnapshotBackend = "ftp"
	_, err = NewSnapshotStore(ctx, cfg)
	assert.Error(t, err)
}
