package models

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProcessingState represents the ingestion state of a site bundle
type ProcessingState string

const (
	StatePending    ProcessingState = "pending"
	StateProcessing ProcessingState = "processing"
	StateReady      ProcessingState = "ready"
	StateFailed     ProcessingState = "failed"
)

// File type classification, derived from the upload's extension
const (
	FileTypeImage    = "image"
	FileTypeDocument = "document"
	FileTypeVideo    = "video"
	FileTypeAudio    = "audio"
	FileTypeOther    = "other"
)

// MediaAsset represents a stored media object.
// Maps to: media_asset table.
type MediaAsset struct {
	AssetID     uuid.UUID `db:"asset_id" json:"asset_id"`
	Title       string    `db:"title" json:"title"`
	AltText     string    `db:"alt_text" json:"alt_text"`
	Description string    `db:"description" json:"description"`

	// FilePath is the uploaded blob's path relative to the storage root.
	// For site bundles this is the original archive; it is retained as a
	// record after extraction.
	FilePath string `db:"file_path" json:"file_path"`
	FileType string `db:"file_type" json:"file_type"`

	// IsSiteBundle marks an uploaded archive representing a static HTML
	// website. Immutable after creation.
	IsSiteBundle bool `db:"is_site_bundle" json:"is_site_bundle"`

	// EntryDocumentPath and SandboxBaseDir are storage-root-relative paths
	// set together, exactly once, when ingestion succeeds. Owned by the
	// ingestion orchestrator; never touched by metadata edits.
	EntryDocumentPath string `db:"entry_document_path" json:"entry_document_path"`
	SandboxBaseDir    string `db:"sandbox_base_dir" json:"sandbox_base_dir"`

	ProcessingState ProcessingState `db:"processing_state" json:"processing_state"`
	ProcessingError string          `db:"processing_error" json:"processing_error,omitempty"`

	// Image dimensions; null for non-image files
	Width  *int `db:"width" json:"width,omitempty"`
	Height *int `db:"height" json:"height,omitempty"`

	UploadedAt time.Time `db:"uploaded_at" json:"uploaded_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// IsReadySite reports whether the asset is a fully ingested site bundle
// that the gateway may serve.
func (a *MediaAsset) IsReadySite() bool {
	return a.IsSiteBundle &&
		a.ProcessingState == StateReady &&
		a.EntryDocumentPath != "" &&
		a.SandboxBaseDir != ""
}

var fileTypesByExtension = map[string]string{
	".jpg": FileTypeImage, ".jpeg": FileTypeImage, ".png": FileTypeImage,
	".gif": FileTypeImage, ".webp": FileTypeImage,
	".pdf": FileTypeDocument, ".doc": FileTypeDocument, ".docx": FileTypeDocument,
	".xls": FileTypeDocument, ".xlsx": FileTypeDocument, ".ppt": FileTypeDocument,
	".pptx": FileTypeDocument,
	".mp4":  FileTypeVideo, ".avi": FileTypeVideo, ".mov": FileTypeVideo,
	".wmv": FileTypeVideo,
	".mp3": FileTypeAudio, ".wav": FileTypeAudio, ".ogg": FileTypeAudio,
}

// FileTypeFromName classifies an upload by its file extension
func FileTypeFromName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if t, ok := fileTypesByExtension[ext]; ok {
		return t
	}
	return FileTypeOther
}
