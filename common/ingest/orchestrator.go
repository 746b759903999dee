package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/Edustart-Tech/media-server/common/logger"
	"github.com/Edustart-Tech/media-server/common/models"
	"github.com/Edustart-Tech/media-server/common/repository"
	"github.com/Edustart-Tech/media-server/common/storage"
)

// AssetStore is the persistence surface the orchestrator needs. All writes
// are partial-field updates of the columns this component owns, so they
// never race with concurrent metadata edits.
type AssetStore interface {
	GetByID(ctx context.Context, assetID uuid.UUID) (*models.MediaAsset, error)
	ClaimProcessing(ctx context.Context, assetID uuid.UUID) (bool, error)
	MarkReady(ctx context.Context, assetID uuid.UUID, entryPath, baseDir string) error
	MarkFailed(ctx context.Context, assetID uuid.UUID, reason string) error
}

// Orchestrator coordinates extraction and entry-point location for uploaded
// site bundles. It runs as an asynchronous job handler and is safe to invoke
// more than once for the same asset.
type Orchestrator struct {
	store     AssetStore
	extractor *Extractor
	paths     *storage.Paths
	entryName string
	log       *logger.Logger
}

// NewOrchestrator creates a new ingestion orchestrator
func NewOrchestrator(store AssetStore, extractor *Extractor, paths *storage.Paths, entryName string, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		store:     store,
		extractor: extractor,
		paths:     paths,
		entryName: entryName,
		log:       log,
	}
}

// Ingest extracts an asset's archive into its sandbox and records the
// located entry document. Domain failures (corrupt archive, unsafe entry,
// no entry document) are persisted on the record and return nil so the job
// system does not retry them opaquely; only infrastructure errors (the
// store itself failing) are returned for redelivery.
func (o *Orchestrator) Ingest(ctx context.Context, assetID uuid.UUID) error {
	log := o.log.WithAssetID(assetID.String())

	asset, err := o.store.GetByID(ctx, assetID)
	if errors.Is(err, repository.ErrAssetNotFound) {
		// Deleted between enqueue and processing; not an error
		log.Warn("asset no longer exists, skipping ingestion")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load asset: %w", err)
	}

	// Idempotency guard: once the entry document is recorded, repeat
	// invocations are silent no-ops. Failed assets are not retried here;
	// retry is an explicit reingest operation.
	if !asset.IsSiteBundle || asset.EntryDocumentPath != "" {
		log.Debug("nothing to ingest",
			"is_site_bundle", asset.IsSiteBundle,
			"entry_document_path", asset.EntryDocumentPath,
		)
		return nil
	}

	archivePath := o.paths.Abs(asset.FilePath)
	if _, err := os.Stat(archivePath); os.IsNotExist(err) {
		log.Warn("uploaded archive missing from storage", "path", asset.FilePath)
		return o.markFailed(ctx, assetID, "uploaded archive missing from storage")
	}

	claimed, err := o.store.ClaimProcessing(ctx, assetID)
	if err != nil {
		return fmt.Errorf("claim asset: %w", err)
	}
	if !claimed {
		log.Info("asset not claimable, skipping", "state", asset.ProcessingState)
		return nil
	}

	destDir := o.paths.SandboxDir(assetID.String())
	log.Info("extracting site bundle", "archive", asset.FilePath, "dest", destDir)

	if err := o.extractor.Extract(archivePath, destDir); err != nil {
		log.Warn("extraction failed", "error", err)
		return o.markFailed(ctx, assetID, err.Error())
	}

	ep, found, err := LocateEntry(o.paths.Root(), destDir, o.entryName)
	if err != nil {
		log.Warn("entry document search failed", "error", err)
		return o.markFailed(ctx, assetID, err.Error())
	}
	if !found {
		log.Warn("no entry document found in archive")
		return o.markFailed(ctx, assetID, "no entry document found in archive")
	}

	// Entry path, base dir, and ready state land in one update
	if err := o.store.MarkReady(ctx, assetID, ep.EntryPath, ep.BaseDir); err != nil {
		return fmt.Errorf("mark asset ready: %w", err)
	}

	log.Info("site bundle ingested",
		"entry_document_path", ep.EntryPath,
		"sandbox_base_dir", ep.BaseDir,
	)

	return nil
}

func (o *Orchestrator) markFailed(ctx context.Context, assetID uuid.UUID, reason string) error {
	if err := o.store.MarkFailed(ctx, assetID, reason); err != nil {
		return fmt.Errorf("mark asset failed: %w", err)
	}
	return nil
}
