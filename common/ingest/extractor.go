package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/Edustart-Tech/media-server/common/config"
	"github.com/Edustart-Tech/media-server/common/logger"
)

// Extractor safely materializes zip archives into per-asset sandbox
// directories
type Extractor struct {
	maxBytes   int64
	maxEntries int
	log        *logger.Logger
}

// NewExtractor creates an extractor with the configured ceilings
func NewExtractor(cfg config.StorageConfig, log *logger.Logger) *Extractor {
	return &Extractor{
		maxBytes:   cfg.MaxArchiveBytes,
		maxEntries: cfg.MaxArchiveEntries,
		log:        log,
	}
}

// Extract unpacks every entry of the archive at archivePath into destDir,
// preserving relative paths. destDir is created if absent; pre-existing
// unrelated content there is left alone, so the call is safe to repeat
// against a partially populated directory.
//
// Every entry path is validated before anything is written: an entry that
// would resolve outside destDir fails the whole operation with
// ErrUnsafeArchiveEntry. An unreadable archive yields ErrCorruptArchive,
// an archive over the decompressed-size or entry-count ceiling yields
// ErrArchiveTooLarge, and filesystem errors propagate wrapped.
func (e *Extractor) Extract(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorruptArchive, archivePath, err)
	}
	defer reader.Close()

	if len(reader.File) > e.maxEntries {
		return fmt.Errorf("%w: %d entries (limit %d)", ErrArchiveTooLarge, len(reader.File), e.maxEntries)
	}

	var declared int64
	for _, f := range reader.File {
		declared += int64(f.UncompressedSize64)
	}
	if declared > e.maxBytes {
		return fmt.Errorf("%w: %d decompressed bytes (limit %d)", ErrArchiveTooLarge, declared, e.maxBytes)
	}

	destDir = filepath.Clean(destDir)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create destination %s: %w", destDir, err)
	}

	// Validate all entry paths before writing anything
	targets := make([]string, len(reader.File))
	for i, f := range reader.File {
		target, err := resolveEntry(destDir, f.Name)
		if err != nil {
			return err
		}
		targets[i] = target
	}

	// The declared sizes are untrusted; track actual bytes written too
	var written int64
	for i, f := range reader.File {
		n, err := e.writeEntry(f, targets[i], e.maxBytes-written)
		if err != nil {
			return err
		}
		written += n
	}

	e.log.Debug("archive extracted",
		"archive", archivePath,
		"dest", destDir,
		"entries", len(reader.File),
		"bytes", written,
	)

	return nil
}

// resolveEntry maps an archive entry name to its destination path,
// rejecting absolute paths and any name that escapes destDir
func resolveEntry(destDir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty entry name", ErrUnsafeArchiveEntry)
	}
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: absolute path %q", ErrUnsafeArchiveEntry, name)
	}

	target := filepath.Join(destDir, filepath.FromSlash(name))
	if target != destDir && !strings.HasPrefix(target, destDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q resolves outside destination", ErrUnsafeArchiveEntry, name)
	}

	return target, nil
}

// writeEntry materializes one archive entry, refusing to write more than
// budget bytes. Returns the number of bytes written.
func (e *Extractor) writeEntry(f *zip.File, target string, budget int64) (int64, error) {
	if f.FileInfo().IsDir() {
		if err := os.MkdirAll(target, 0o755); err != nil {
			return 0, fmt.Errorf("create directory %s: %w", target, err)
		}
		return 0, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return 0, fmt.Errorf("create directory %s: %w", filepath.Dir(target), err)
	}

	src, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("%w: entry %q: %v", ErrCorruptArchive, f.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create file %s: %w", target, err)
	}
	defer dst.Close()

	// Copy one byte past the budget so overruns are detectable
	n, err := io.Copy(dst, io.LimitReader(src, budget+1))
	if err != nil {
		return n, fmt.Errorf("write file %s: %w", target, err)
	}
	if n > budget {
		return n, fmt.Errorf("%w: entry %q exceeds remaining byte budget", ErrArchiveTooLarge, f.Name)
	}

	return n, nil
}
