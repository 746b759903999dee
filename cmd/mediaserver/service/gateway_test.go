package service

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
	"github.com/Edustart-Tech/media-server/common/models"
	"github.com/Edustart-Tech/media-server/common/repository"
	"github.com/Edustart-Tech/media-server/common/storage"
)

// The container serves the gateway through the asset service
var _ AssetGetter = (*AssetService)(nil)

type fakeAssetGetter struct {
	assets map[uuid.UUID]*models.MediaAsset
}

func (f *fakeAssetGetter) GetByID(ctx context.Context, assetID uuid.UUID) (*models.MediaAsset, error) {
	asset, ok := f.assets[assetID]
	if !ok {
		return nil, repository.ErrAssetNotFound
	}
	return asset, nil
}

type gatewayFixture struct {
	gateway *Gateway
	getter  *fakeAssetGetter
	paths   *storage.Paths
	root    string
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()

	root := t.TempDir()
	paths, err := storage.NewPaths(config.StorageConfig{
		Root:          root,
		UploadsPrefix: "uploads",
		SitesPrefix:   "html_sites",
	})
	require.NoError(t, err)

	getter := &fakeAssetGetter{assets: make(map[uuid.UUID]*models.MediaAsset)}
	return &gatewayFixture{
		gateway: NewGateway(getter, paths, logger.New("error", "text")),
		getter:  getter,
		paths:   paths,
		root:    root,
	}
}

// addSite materializes an extracted site on disk and registers a ready
// asset whose base dir points at it
func (f *gatewayFixture) addSite(t *testing.T, files map[string]string) uuid.UUID {
	t.Helper()

	assetID := uuid.New()
	baseRel := f.paths.SandboxRel(assetID.String()) + "/site"
	baseAbs := f.paths.Abs(baseRel)

	for rel, content := range files {
		path := filepath.Join(baseAbs, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	f.getter.assets[assetID] = &models.MediaAsset{
		AssetID:           assetID,
		IsSiteBundle:      true,
		ProcessingState:   models.StateReady,
		EntryDocumentPath: baseRel + "/index.html",
		SandboxBaseDir:    baseRel,
	}
	return assetID
}

func TestResolve_EntryDocument(t *testing.T) {
	f := newGatewayFixture(t)
	assetID := f.addSite(t, map[string]string{"index.html": "<html>home</html>"})

	resolved, err := f.gateway.Resolve(context.Background(), assetID, "")
	require.NoError(t, err)

	got, err := os.ReadFile(resolved.Path)
	require.NoError(t, err)
	assert.Equal(t, "<html>home</html>", string(got))
	assert.Contains(t, resolved.ContentType, "text/html")
}

func TestResolve_SubPath(t *testing.T) {
	f := newGatewayFixture(t)
	assetID := f.addSite(t, map[string]string{
		"index.html":    "<html></html>",
		"css/style.css": "body {}",
	})

	resolved, err := f.gateway.Resolve(context.Background(), assetID, "css/style.css")
	require.NoError(t, err)
	assert.Contains(t, resolved.ContentType, "text/css")
}

func TestResolve_UnknownContentType(t *testing.T) {
	f := newGatewayFixture(t)
	assetID := f.addSite(t, map[string]string{
		"index.html": "<html></html>",
		"data.weird": "???",
	})

	resolved, err := f.gateway.Resolve(context.Background(), assetID, "data.weird")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", resolved.ContentType)
}

func TestResolve_EscapeAttempt(t *testing.T) {
	f := newGatewayFixture(t)
	assetID := f.addSite(t, map[string]string{"index.html": "<html></html>"})

	// A secret outside the sandbox must stay unreachable
	secret := filepath.Join(f.root, "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("password"), 0o644))

	for _, sub := range []string{
		"../../secret.txt",
		"../../../etc/passwd",
		"css/../../../secret.txt",
	} {
		_, err := f.gateway.Resolve(context.Background(), assetID, sub)
		assert.ErrorIs(t, err, ErrSiteNotFound, "sub path %q", sub)
	}
}

func TestResolve_MissingFile(t *testing.T) {
	f := newGatewayFixture(t)
	assetID := f.addSite(t, map[string]string{"index.html": "<html></html>"})

	_, err := f.gateway.Resolve(context.Background(), assetID, "missing.html")
	assert.ErrorIs(t, err, ErrSiteNotFound)
}

func TestResolve_DirectoryIsNotServable(t *testing.T) {
	f := newGatewayFixture(t)
	assetID := f.addSite(t, map[string]string{"css/style.css": "body {}"})

	_, err := f.gateway.Resolve(context.Background(), assetID, "css")
	assert.ErrorIs(t, err, ErrSiteNotFound)
}

func TestResolve_UnreadyAsset(t *testing.T) {
	f := newGatewayFixture(t)

	for _, state := range []models.ProcessingState{models.StatePending, models.StateProcessing, models.StateFailed} {
		assetID := uuid.New()
		f.getter.assets[assetID] = &models.MediaAsset{
			AssetID:         assetID,
			IsSiteBundle:    true,
			ProcessingState: state,
		}

		_, err := f.gateway.Resolve(context.Background(), assetID, "")
		assert.ErrorIs(t, err, ErrSiteNotFound, "state %s", state)
	}
}

func TestResolve_NonBundleAsset(t *testing.T) {
	f := newGatewayFixture(t)

	assetID := uuid.New()
	f.getter.assets[assetID] = &models.MediaAsset{
		AssetID:         assetID,
		IsSiteBundle:    false,
		ProcessingState: models.StateReady,
	}

	_, err := f.gateway.Resolve(context.Background(), assetID, "")
	assert.ErrorIs(t, err, ErrSiteNotFound)
}

func TestResolve_UnknownAsset(t *testing.T) {
	f := newGatewayFixture(t)

	_, err := f.gateway.Resolve(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, ErrSiteNotFound)
}
