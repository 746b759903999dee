package ingest

import (
	"context"
	"os"

	"github.com/google/uuid"

	"github.com/Edustart-Tech/media-server/common/logger"
	"github.com/Edustart-Tech/media-server/common/storage"
)

// Reaper removes an asset's extracted sandbox after the owning record has
// been deleted
type Reaper struct {
	paths *storage.Paths
	log   *logger.Logger
}

// NewReaper creates a new sandbox reaper
func NewReaper(paths *storage.Paths, log *logger.Logger) *Reaper {
	return &Reaper{
		paths: paths,
		log:   log,
	}
}

// Reap recursively removes the asset's sandbox directory. An absent
// sandbox is success; removal is idempotent. Failures are logged and
// suppressed so they never kill the invoking worker.
func (r *Reaper) Reap(ctx context.Context, assetID uuid.UUID) error {
	dir := r.paths.SandboxDir(assetID.String())

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		r.log.Debug("sandbox already absent", "asset_id", assetID)
		return nil
	}

	if err := os.RemoveAll(dir); err != nil {
		r.log.Error("failed to remove sandbox", "asset_id", assetID, "dir", dir, "error", err)
		return nil
	}

	r.log.Info("sandbox removed", "asset_id", assetID, "dir", dir)
	return nil
}
