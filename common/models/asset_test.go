package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileTypeFromName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"photo.jpg", FileTypeImage},
		{"PHOTO.JPEG", FileTypeImage},
		{"diagram.png", FileTypeImage},
		{"animation.webp", FileTypeImage},
		{"report.pdf", FileTypeDocument},
		{"slides.pptx", FileTypeDocument},
		{"clip.mp4", FileTypeVideo},
		{"track.mp3", FileTypeAudio},
		{"site.zip", FileTypeOther},
		{"archive.tar.gz", FileTypeOther},
		{"noextension", FileTypeOther},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, FileTypeFromName(tt.name), "file %s", tt.name)
	}
}

func TestIsReadySite(t *testing.T) {
	ready := &MediaAsset{
		IsSiteBundle:      true,
		ProcessingState:   StateReady,
		EntryDocumentPath: "html_sites/x/index.html",
		SandboxBaseDir:    "html_sites/x",
	}
	assert.True(t, ready.IsReadySite())

	notBundle := *ready
	notBundle.IsSiteBundle = false
	assert.False(t, notBundle.IsReadySite())

	pending := *ready
	pending.ProcessingState = StatePending
	assert.False(t, pending.IsReadySite())

	noEntry := *ready
	noEntry.EntryDocumentPath = ""
	assert.False(t, noEntry.IsReadySite())
}
