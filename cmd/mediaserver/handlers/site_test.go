package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edustart-Tech/media-server/cmd/mediaserver/service"
	"github.com/Edustart-Tech/media-server/common/bootstrap"
	"github.com/Edustart-Tech/media-server/common/config"
	"github.com/Edustart-Tech/media-server/common/logger"
	"github.com/Edustart-Tech/media-server/common/models"
	"github.com/Edustart-Tech/media-server/common/repository"
	"github.com/Edustart-Tech/media-server/common/storage"
)

type staticAssets map[uuid.UUID]*models.MediaAsset

func (s staticAssets) GetByID(ctx context.Context, assetID uuid.UUID) (*models.MediaAsset, error) {
	asset, ok := s[assetID]
	if !ok {
		return nil, repository.ErrAssetNotFound
	}
	return asset, nil
}

type siteFixture struct {
	echo    *echo.Echo
	handler *SiteHandler
	assets  staticAssets
	paths   *storage.Paths
}

func newSiteFixture(t *testing.T, environment string) *siteFixture {
	t.Helper()

	cfg := &config.Config{}
	cfg.Service.Environment = environment

	paths, err := storage.NewPaths(config.StorageConfig{
		Root:          t.TempDir(),
		UploadsPrefix: "uploads",
		SitesPrefix:   "html_sites",
	})
	require.NoError(t, err)

	log := logger.New("error", "text")
	assets := staticAssets{}
	components := &bootstrap.Components{Config: cfg, Logger: log}

	return &siteFixture{
		echo:    echo.New(),
		handler: NewSiteHandler(components, service.NewGateway(assets, paths, log)),
		assets:  assets,
		paths:   paths,
	}
}

func (f *siteFixture) addSite(t *testing.T, files map[string]string) uuid.UUID {
	t.Helper()

	assetID := uuid.New()
	baseRel := f.paths.SandboxRel(assetID.String())
	for rel, content := range files {
		path := filepath.Join(f.paths.Abs(baseRel), filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	f.assets[assetID] = &models.MediaAsset{
		AssetID:           assetID,
		IsSiteBundle:      true,
		ProcessingState:   models.StateReady,
		EntryDocumentPath: baseRel + "/index.html",
		SandboxBaseDir:    baseRel,
	}
	return assetID
}

func (f *siteFixture) serve(t *testing.T, id, subPath string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := f.echo.NewContext(req, rec)

	if subPath == "" {
		c.SetPath("/sites/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
	} else {
		c.SetPath("/sites/:id/*")
		c.SetParamNames("id", "*")
		c.SetParamValues(id, subPath)
	}

	if err := f.handler.ServeSite(c); err != nil {
		f.echo.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestServeSite_EntryDocument(t *testing.T) {
	f := newSiteFixture(t, "production")
	assetID := f.addSite(t, map[string]string{"index.html": "<html>home</html>"})

	rec := f.serve(t, assetID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "<html>home</html>", rec.Body.String())
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/html")
}

func TestServeSite_SecurityHeaders(t *testing.T) {
	f := newSiteFixture(t, "production")
	assetID := f.addSite(t, map[string]string{"index.html": "<html></html>"})

	rec := f.serve(t, assetID.String(), "")
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "frame-ancestors 'self'", rec.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	// Production responses are cacheable
	assert.Empty(t, rec.Header().Get("Cache-Control"))
}

func TestServeSite_DevelopmentDisablesCaching(t *testing.T) {
	f := newSiteFixture(t, "development")
	assetID := f.addSite(t, map[string]string{"index.html": "<html></html>"})

	rec := f.serve(t, assetID.String(), "")
	assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "no-cache", rec.Header().Get("Pragma"))
}

func TestServeSite_SubPath(t *testing.T) {
	f := newSiteFixture(t, "production")
	assetID := f.addSite(t, map[string]string{
		"index.html":    "<html></html>",
		"css/style.css": "body {}",
	})

	rec := f.serve(t, assetID.String(), "css/style.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "text/css")
}

func TestServeSite_NotFoundFlattening(t *testing.T) {
	f := newSiteFixture(t, "production")
	assetID := f.addSite(t, map[string]string{"index.html": "<html></html>"})

	// Malformed ID, unknown asset, missing file, and escape attempts all
	// yield the same 404
	for _, tc := range []struct{ id, subPath string }{
		{"not-a-uuid", ""},
		{uuid.New().String(), ""},
		{assetID.String(), "missing.html"},
		{assetID.String(), "../../../etc/passwd"},
	} {
		rec := f.serve(t, tc.id, tc.subPath)
		assert.Equal(t, http.StatusNotFound, rec.Code, "id %q sub %q", tc.id, tc.subPath)
	}
}
