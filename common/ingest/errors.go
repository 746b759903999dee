package ingest

import "errors"

// Extraction failure taxonomy. The orchestrator converts all of these into
// a persisted failed state; they never propagate to the job system.
var (
	// ErrCorruptArchive means the archive could not be opened or parsed
	ErrCorruptArchive = errors.New("corrupt archive")

	// ErrUnsafeArchiveEntry means an entry's resolved path would fall
	// outside the destination directory. The whole extraction fails;
	// unsafe entries are never silently skipped.
	ErrUnsafeArchiveEntry = errors.New("unsafe archive entry")

	// ErrArchiveTooLarge means the archive exceeds the configured
	// decompressed-size or entry-count ceiling
	ErrArchiveTooLarge = errors.New("archive exceeds extraction limits")
)
