package client

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cmorandi/docvault"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, result *UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatShare(w io.Writer, info *docvault.ShareInfo) error
	FormatList(w io.Writer, result *docvault.ListResult) error
	FormatDelete(w io.Writer, id string) error
	FormatError(w io.Writer, err error) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatUpload formats an upload result as human-readable text.
func (f *HumanFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	if f.Quiet {
		_, _ = fmt.Fprintln(w, result.Descriptor.ID)
		return nil
	}
	_, _ = fmt.Fprintf(w, "Uploaded: %s (%s)\n", result.Descriptor.FileName, formatSize(result.Descriptor.SizeBytes))
	_, _ = fmt.Fprintf(w, "  ID: %s\n", result.Descriptor.ID)
	return nil
}

// FormatDownload formats a download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}
	if result.LocalPath == "-" {
		_, _ = fmt.Fprintf(w, "Downloaded: %s (%s)\n", result.FileName, formatSize(result.Size))
	} else {
		_, _ = fmt.Fprintf(w, "Downloaded: %s -> %s (%s)\n", result.FileName, result.LocalPath, formatSize(result.Size))
	}
	return nil
}

// FormatShare formats a visibility change as human-readable text.
func (f *HumanFormatter) FormatShare(w io.Writer, info *docvault.ShareInfo) error {
	if info.Visibility == docvault.VisibilityPublic {
		_, _ = fmt.Fprintf(w, "Public: %s\n", info.ShareURL)
	} else {
		_, _ = fmt.Fprintln(w, "Private: share link disabled")
	}
	return nil
}

// FormatList formats list results as human-readable text.
func (f *HumanFormatter) FormatList(w io.Writer, result *docvault.ListResult) error {
	if len(result.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No documents found")
		return nil
	}

	maxTitleLen := 5 // "TITLE"
	for i := range result.Items {
		if len(result.Items[i].Title) > maxTitleLen {
			maxTitleLen = len(result.Items[i].Title)
		}
	}
	if maxTitleLen > 40 {
		maxTitleLen = 40
	}

	_, _ = fmt.Fprintf(w, "%-36s  %-*s  %10s  %-7s  %9s\n", "ID", maxTitleLen, "TITLE", "SIZE", "VIS", "DOWNLOADS")
	_, _ = fmt.Fprintf(w, "%s  %s  %s  %s  %s\n",
		strings.Repeat("-", 36), strings.Repeat("-", maxTitleLen),
		strings.Repeat("-", 10), strings.Repeat("-", 7), strings.Repeat("-", 9))

	var total int64
	for i := range result.Items {
		d := &result.Items[i]
		title := d.Title
		if len(title) > maxTitleLen {
			title = title[:maxTitleLen-3] + "..."
		}
		_, _ = fmt.Fprintf(w, "%-36s  %-*s  %10s  %-7s  %9d\n",
			d.ID, maxTitleLen, title, formatSize(d.SizeBytes), d.Visibility, d.DownloadCount)
		total += d.SizeBytes
	}

	_, _ = fmt.Fprintf(w, "\n%d document(s) (%s total)\n", len(result.Items), formatSize(total))

	if result.NextCursor != "" {
		_, _ = fmt.Fprintf(w, "Next page: use --cursor %q\n", result.NextCursor)
	}

	return nil
}

// FormatDelete formats a delete result as human-readable text.
func (f *HumanFormatter) FormatDelete(w io.Writer, id string) error {
	if !f.Quiet {
		_, _ = fmt.Fprintf(w, "Deleted: %s\n", id)
	}
	return nil
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatUpload formats an upload result as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, result *UploadResult) error {
	return writeJSON(w, result.Descriptor)
}

// FormatDownload formats a download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatShare formats a visibility change as JSON.
func (f *JSONFormatter) FormatShare(w io.Writer, info *docvault.ShareInfo) error {
	return writeJSON(w, info)
}

// FormatList formats list results as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, result *docvault.ListResult) error {
	return writeJSON(w, result)
}

// FormatDelete formats a delete result as JSON.
func (f *JSONFormatter) FormatDelete(w io.Writer, id string) error {
	return writeJSON(w, struct {
		ID      string `json:"id"`
		Deleted bool   `json:"deleted"`
	}{ID: id, Deleted: true})
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	return writeJSON(w, struct {
		Error string `json:"error"`
	}{Error: err.Error()})
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
