package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func TestLocateEntry_AtRoot(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"html_sites/abc/index.html":   "<html></html>",
		"html_sites/abc/deeper/x.txt": "x",
	})

	ep, found, err := LocateEntry(root, filepath.Join(root, "html_sites", "abc"), "index.html")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "html_sites/abc/index.html", ep.EntryPath)
	assert.Equal(t, "html_sites/abc", ep.BaseDir)
}

func TestLocateEntry_ShallowestWins(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"html_sites/abc/site/index.html":        "top",
		"html_sites/abc/site/nested/index.html": "deep",
	})

	ep, found, err := LocateEntry(root, filepath.Join(root, "html_sites", "abc"), "index.html")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "html_sites/abc/site/index.html", ep.EntryPath)
	assert.Equal(t, "html_sites/abc/site", ep.BaseDir)
}

func TestLocateEntry_Deterministic(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"html_sites/abc/b/index.html": "b",
		"html_sites/abc/a/index.html": "a",
	})

	// Same depth in two sibling directories: the lexically first
	// directory wins, every time
	for i := 0; i < 5; i++ {
		ep, found, err := LocateEntry(root, filepath.Join(root, "html_sites", "abc"), "index.html")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "html_sites/abc/a/index.html", ep.EntryPath)
	}
}

func TestLocateEntry_FilesBeforeSubdirectories(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"html_sites/abc/index.html":     "root",
		"html_sites/abc/aaa/index.html": "nested",
	})

	ep, found, err := LocateEntry(root, filepath.Join(root, "html_sites", "abc"), "index.html")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "html_sites/abc/index.html", ep.EntryPath)
}

func TestLocateEntry_NotFound(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"html_sites/abc/readme.txt": "no entry here",
	})

	_, found, err := LocateEntry(root, filepath.Join(root, "html_sites", "abc"), "index.html")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLocateEntry_ExactNameOnly(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"html_sites/abc/Index.html":  "wrong case",
		"html_sites/abc/index.htm":   "wrong extension",
		"html_sites/abc/xindex.html": "wrong prefix",
	})

	_, found, err := LocateEntry(root, filepath.Join(root, "html_sites", "abc"), "index.html")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLocateEntry_MissingRootDir(t *testing.T) {
	root := t.TempDir()

	_, _, err := LocateEntry(root, filepath.Join(root, "does-not-exist"), "index.html")
	assert.Error(t, err)
}
