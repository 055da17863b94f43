package client

import (
	"github.com/google/uuid"

	"github.com/cmorandi/docvault"
)

// UploadOptions controls a single upload.
type UploadOptions struct {
	// LocalPath is the file to upload.
	LocalPath string
	// FileName overrides the name recorded on the descriptor. Defaults to
	// the base name of LocalPath.
	FileName string
	// Title and Description are optional descriptive fields.
	Title       string
	Description string
	// ContentType overrides MIME detection by extension.
	ContentType string
}

// UploadResult reports a completed upload.
type UploadResult struct {
	LocalPath  string
	Descriptor docvault.Descriptor
}

// DownloadOptions controls a single download.
type DownloadOptions struct {
	// ID of the document to download.
	ID uuid.UUID
	// LocalPath is the destination file. "-" streams to the caller;
	// empty derives the name from the descriptor.
	LocalPath string
}

// DownloadResult reports a completed download.
type DownloadResult struct {
	ID          uuid.UUID `json:"id"`
	LocalPath   string    `json:"local_path"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size_bytes"`
}

// ListOptions controls listing.
type ListOptions struct {
	Limit  int
	Cursor string
	// All paginates through every page.
	All bool
}
