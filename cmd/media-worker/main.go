package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Edustart-Tech/media-server/cmd/media-worker/worker"
	"github.com/Edustart-Tech/media-server/common/bootstrap"
	"github.com/Edustart-Tech/media-server/common/ingest"
	"github.com/Edustart-Tech/media-server/common/repository"
	"github.com/Edustart-Tech/media-server/common/storage"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bootstrap service components. The API server owns migrations; the
	// worker only consumes the schema.
	components, err := bootstrap.Setup(ctx, "media-worker",
		bootstrap.WithoutMigrations(),
		bootstrap.WithoutCache(),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to setup service: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	components.Logger.Info("media-worker starting")

	paths, err := storage.NewPaths(components.Config.Storage)
	if err != nil {
		components.Logger.Error("failed to initialize storage paths", "error", err)
		os.Exit(1)
	}

	assetRepo := repository.NewAssetRepository(components.DB)
	extractor := ingest.NewExtractor(components.Config.Storage, components.Logger)
	orchestrator := ingest.NewOrchestrator(
		assetRepo,
		extractor,
		paths,
		components.Config.Storage.EntryDocument,
		components.Logger,
	)
	reaper := ingest.NewReaper(paths, components.Logger)

	ingestWorker := worker.NewIngestWorker(components.Redis, orchestrator, reaper, components.Logger)

	// Start worker in goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := ingestWorker.Start(ctx); err != nil && err != context.Canceled {
			errChan <- fmt.Errorf("ingest worker error: %w", err)
		}
	}()

	components.Logger.Info("media-worker started successfully")

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		components.Logger.Error("worker failed", "error", err)
		os.Exit(1)
	case sig := <-sigChan:
		components.Logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}

	components.Logger.Info("media-worker shutting down gracefully")
}
