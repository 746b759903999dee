package service

import (
	"context"
	"errors"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Edustart-Tech/media-server/common/logger"
	"github.com/Edustart-Tech/media-server/common/models"
	"github.com/Edustart-Tech/media-server/common/storage"
)

// ErrSiteNotFound is the single error the gateway exposes. Escape attempts,
// missing files, unready bundles, and unknown assets all map to it so the
// response never leaks what exists outside a sandbox.
var ErrSiteNotFound = errors.New("site file not found")

// AssetGetter is the read surface the gateway needs
type AssetGetter interface {
	GetByID(ctx context.Context, assetID uuid.UUID) (*models.MediaAsset, error)
}

// ResolvedFile is a servable file inside an asset's sandbox
type ResolvedFile struct {
	Path        string // absolute path on disk
	ContentType string
}

// Gateway resolves (asset, sub-path) requests to files inside the asset's
// extracted sandbox
type Gateway struct {
	assets AssetGetter
	paths  *storage.Paths
	log    *logger.Logger
}

// NewGateway creates a new static site gateway
func NewGateway(assets AssetGetter, paths *storage.Paths, log *logger.Logger) *Gateway {
	return &Gateway{
		assets: assets,
		paths:  paths,
		log:    log,
	}
}

// Resolve maps a logical (assetID, subPath) request to a concrete file
// inside the asset's sandbox. An empty subPath resolves to the entry
// document recorded at ingestion time; it is never recomputed per request.
func (g *Gateway) Resolve(ctx context.Context, assetID uuid.UUID, subPath string) (*ResolvedFile, error) {
	asset, err := g.assets.GetByID(ctx, assetID)
	if err != nil {
		g.log.Debug("gateway asset lookup failed", "asset_id", assetID, "error", err)
		return nil, ErrSiteNotFound
	}

	if !asset.IsReadySite() {
		g.log.Debug("gateway asset not servable",
			"asset_id", assetID,
			"is_site_bundle", asset.IsSiteBundle,
			"state", asset.ProcessingState,
		)
		return nil, ErrSiteNotFound
	}

	if subPath == "" {
		rel, ok := entryRelativeToBase(asset)
		if !ok {
			g.log.Error("asset entry document outside its base dir",
				"asset_id", assetID,
				"entry_document_path", asset.EntryDocumentPath,
				"sandbox_base_dir", asset.SandboxBaseDir,
			)
			return nil, ErrSiteNotFound
		}
		subPath = rel
	}

	base := filepath.Clean(g.paths.Abs(asset.SandboxBaseDir))
	target, ok := resolveWithin(base, subPath)
	if !ok {
		// Escape attempt; indistinguishable from a missing file
		g.log.Warn("gateway path escape rejected", "asset_id", assetID, "sub_path", subPath)
		return nil, ErrSiteNotFound
	}

	info, err := os.Stat(target)
	if err != nil || info.IsDir() {
		return nil, ErrSiteNotFound
	}

	contentType := mime.TypeByExtension(filepath.Ext(target))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &ResolvedFile{
		Path:        target,
		ContentType: contentType,
	}, nil
}

// entryRelativeToBase returns the entry document's path relative to the
// sandbox base dir, both of which were recorded together at ingestion time
func entryRelativeToBase(asset *models.MediaAsset) (string, bool) {
	prefix := asset.SandboxBaseDir + "/"
	if !strings.HasPrefix(asset.EntryDocumentPath, prefix) {
		return "", false
	}
	return strings.TrimPrefix(asset.EntryDocumentPath, prefix), true
}

// resolveWithin joins subPath onto base, normalizes the result, and
// verifies it is still contained within base
func resolveWithin(base, subPath string) (string, bool) {
	target := filepath.Join(base, filepath.FromSlash(subPath))
	if target == base {
		return "", false
	}
	if !strings.HasPrefix(target, base+string(os.PathSeparator)) {
		return "", false
	}
	return target, true
}
