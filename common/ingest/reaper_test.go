package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edustart-Tech/media-server/common/config"
	"github.com/Edustart-Tech/media-server/common/logger"
	"github.com/Edustart-Tech/media-server/common/storage"
)

func newTestReaper(t *testing.T) (*Reaper, *storage.Paths) {
	t.Helper()

	paths, err := storage.NewPaths(config.StorageConfig{
		Root:          t.TempDir(),
		UploadsPrefix: "uploads",
		SitesPrefix:   "html_sites",
	})
	require.NoError(t, err)

	return NewReaper(paths, logger.New("error", "text")), paths
}

func TestReap_RemovesSandbox(t *testing.T) {
	reaper, paths := newTestReaper(t)
	assetID := uuid.New()

	dir := paths.SandboxDir(assetID.String())
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "index.html"), []byte("x"), 0o644))

	require.NoError(t, reaper.Reap(context.Background(), assetID))

	_, err := os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestReap_Idempotent(t *testing.T) {
	reaper, paths := newTestReaper(t)
	assetID := uuid.New()

	dir := paths.SandboxDir(assetID.String())
	require.NoError(t, os.MkdirAll(dir, 0o755))

	require.NoError(t, reaper.Reap(context.Background(), assetID))
	require.NoError(t, reaper.Reap(context.Background(), assetID))
}

func TestReap_AbsentSandbox(t *testing.T) {
	reaper, _ := newTestReaper(t)

	assert.NoError(t, reaper.Reap(context.Background(), uuid.New()))
}

func TestReap_LeavesOtherSandboxesAlone(t *testing.T) {
	reaper, paths := newTestReaper(t)
	victim := uuid.New()
	neighbor := uuid.New()

	for _, id := range []uuid.UUID{victim, neighbor} {
		dir := paths.SandboxDir(id.String())
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("x"), 0o644))
	}

	require.NoError(t, reaper.Reap(context.Background(), victim))

	_, err := os.Stat(paths.SandboxDir(neighbor.String()))
	assert.NoError(t, err)
}
