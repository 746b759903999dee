package storage

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/Edustart-Tech/media-server/common/config"
)

// Paths resolves the filesystem layout under the media storage root.
// All persisted paths are slash-separated and relative to the root, so
// records stay valid if the root moves between deployments.
type Paths struct {
	root          string
	uploadsPrefix string
	sitesPrefix   string
}

// NewPaths creates a Paths resolver from storage configuration.
// The root is made absolute up front.
func NewPaths(cfg config.StorageConfig) (*Paths, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}
	return &Paths{
		root:          root,
		uploadsPrefix: cfg.UploadsPrefix,
		sitesPrefix:   cfg.SitesPrefix,
	}, nil
}

// Root returns the absolute storage root
func (p *Paths) Root() string {
	return p.root
}

// Abs converts a root-relative path to an absolute one
func (p *Paths) Abs(rel string) string {
	return filepath.Join(p.root, filepath.FromSlash(rel))
}

// Rel converts an absolute path under the root to a root-relative,
// slash-separated path
func (p *Paths) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(p.root, abs)
	if err != nil {
		return "", fmt.Errorf("relativize %s: %w", abs, err)
	}
	return filepath.ToSlash(rel), nil
}

// SandboxRel returns the root-relative sandbox directory for an asset.
// One sandbox per asset; the asset ID is the directory name, so sandboxes
// never collide.
func (p *Paths) SandboxRel(assetID string) string {
	return path.Join(p.sitesPrefix, assetID)
}

// SandboxDir returns the absolute sandbox directory for an asset
func (p *Paths) SandboxDir(assetID string) string {
	return p.Abs(p.SandboxRel(assetID))
}

// UploadRel builds the root-relative destination for an uploaded file,
// organized by year/month with a slugged base name.
func (p *Paths) UploadRel(filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return path.Join(
		p.uploadsPrefix,
		fmt.Sprintf("%d/%02d", now.Year(), int(now.Month())),
		slug.Make(base)+ext,
	)
}
