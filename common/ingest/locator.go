package ingest

import (
	"fmt"
	"os"
	"path/filepath"
)

// EntryPoint is the located entry document of an extracted site, with both
// paths relative to the storage root so they remain valid after the call.
type EntryPoint struct {
	EntryPath string
	BaseDir   string
}

// LocateEntry searches rootDir for a file literally named entryName and
// returns it together with its containing directory, both relative to
// storageRoot.
//
// The traversal is breadth-first with directories visited in ascending name
// order, so the result is deterministic when the entry document exists at
// several depths: the shallowest match wins, ties broken by directory name.
// The search stops at the first match. Absence is a normal outcome reported
// via found=false, not an error.
func LocateEntry(storageRoot, rootDir, entryName string) (ep EntryPoint, found bool, err error) {
	queue := []string{filepath.Clean(rootDir)}

	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return EntryPoint{}, false, fmt.Errorf("read directory %s: %w", dir, err)
		}

		// os.ReadDir returns entries sorted by name
		for _, entry := range entries {
			if !entry.IsDir() && entry.Name() == entryName {
				entryRel, err := filepath.Rel(storageRoot, filepath.Join(dir, entry.Name()))
				if err != nil {
					return EntryPoint{}, false, fmt.Errorf("relativize entry path: %w", err)
				}
				baseRel, err := filepath.Rel(storageRoot, dir)
				if err != nil {
					return EntryPoint{}, false, fmt.Errorf("relativize base dir: %w", err)
				}
				return EntryPoint{
					EntryPath: filepath.ToSlash(entryRel),
					BaseDir:   filepath.ToSlash(baseRel),
				}, true, nil
			}
		}

		for _, entry := range entries {
			if entry.IsDir() {
				queue = append(queue, filepath.Join(dir, entry.Name()))
			}
		}
	}

	return EntryPoint{}, false, nil
}
