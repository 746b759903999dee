package ingest

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Edustart-Tech/media-server/common/config"
	"github.com/Edustart-Tech/media-server/common/logger"
)

func testExtractor(t *testing.T, maxBytes int64, maxEntries int) *Extractor {
	t.Helper()
	return NewExtractor(config.StorageConfig{
		MaxArchiveBytes:   maxBytes,
		MaxArchiveEntries: maxEntries,
	}, logger.New("error", "text"))
}

// writeZip builds a zip archive on disk from entry name to content
func writeZip(t *testing.T, dir string, entries map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	path := filepath.Join(dir, "bundle.zip")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

func TestExtract_PreservesTree(t *testing.T) {
	dir := t.TempDir()
	archive := writeZip(t, dir, map[string]string{
		"index.html":     "<html>home</html>",
		"css/style.css":  "body {}",
		"js/app.js":      "console.log('hi')",
		"img/logo.png":   "not-really-a-png",
		"docs/sub/a.txt": "nested",
	})

	dest := filepath.Join(dir, "out")
	e := testExtractor(t, 1<<20, 100)
	require.NoError(t, e.Extract(archive, dest))

	got, err := os.ReadFile(filepath.Join(dest, "css", "style.css"))
	require.NoError(t, err)
	assert.Equal(t, "body {}", string(got))

	got, err = os.ReadFile(filepath.Join(dest, "docs", "sub", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "nested", string(got))
}

func TestExtract_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archive := writeZip(t, dir, map[string]string{
		"ok.txt":      "fine",
		"../evil.txt": "escape",
	})

	dest := filepath.Join(dir, "out")
	err := testExtractor(t, 1<<20, 100).Extract(archive, dest)
	require.ErrorIs(t, err, ErrUnsafeArchiveEntry)

	// Nothing may be written when any entry is unsafe
	_, err = os.Stat(filepath.Join(dest, "ok.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "evil.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtract_RejectsAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	archive := writeZip(t, dir, map[string]string{
		"/etc/cron.d/evil": "payload",
	})

	err := testExtractor(t, 1<<20, 100).Extract(archive, filepath.Join(dir, "out"))
	assert.ErrorIs(t, err, ErrUnsafeArchiveEntry)
}

func TestExtract_CorruptArchive(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "garbage.zip")
	require.NoError(t, os.WriteFile(path, []byte("this is not a zip file"), 0o644))

	err := testExtractor(t, 1<<20, 100).Extract(path, filepath.Join(dir, "out"))
	assert.ErrorIs(t, err, ErrCorruptArchive)
}

func TestExtract_TooManyEntries(t *testing.T) {
	dir := t.TempDir()
	archive := writeZip(t, dir, map[string]string{
		"a.txt": "a",
		"b.txt": "b",
		"c.txt": "c",
	})

	err := testExtractor(t, 1<<20, 2).Extract(archive, filepath.Join(dir, "out"))
	assert.ErrorIs(t, err, ErrArchiveTooLarge)
}

func TestExtract_OverByteCeiling(t *testing.T) {
	dir := t.TempDir()
	archive := writeZip(t, dir, map[string]string{
		"big.txt": "0123456789012345678901234567890123456789",
	})

	err := testExtractor(t, 10, 100).Extract(archive, filepath.Join(dir, "out"))
	assert.ErrorIs(t, err, ErrArchiveTooLarge)
}

func TestExtract_Repeatable(t *testing.T) {
	dir := t.TempDir()
	archive := writeZip(t, dir, map[string]string{"index.html": "<html></html>"})
	dest := filepath.Join(dir, "out")

	e := testExtractor(t, 1<<20, 100)
	require.NoError(t, e.Extract(archive, dest))
	require.NoError(t, e.Extract(archive, dest))
}
