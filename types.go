package docvault

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Visibility controls who may obtain a read handle for a document.
type Visibility string

const (
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

func (v Visibility) IsValid() bool {
	switch v {
	case VisibilityPrivate, VisibilityPublic:
		return true
	default:
		return false
	}
}

// Descriptor is the durable metadata record for one stored document.
//
// StorageKey is set once at finalize time and never rewritten; a replacement
// upload produces a new descriptor. ShareToken is assigned lazily the first
// time the document is published and is never rotated afterwards: flipping
// back to private leaves the token dormant so previously distributed links
// resume working on the next publish.
type Descriptor struct {
	ID            uuid.UUID  `json:"id"`
	OwnerID       string     `json:"owner_id"`
	StorageKey    string     `json:"-"`
	FileName      string     `json:"file_name"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	ContentType   string     `json:"content_type"`
	SizeBytes     int64      `json:"size_bytes"`
	Visibility    Visibility `json:"visibility"`
	ShareToken    string     `json:"-"`
	DownloadCount int64      `json:"download_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// WriteGrant is a short-lived capability to write exactly one object.
// The storage key must be echoed back on finalize.
type WriteGrant struct {
	URL        string    `json:"url"`
	Method     string    `json:"method"`
	StorageKey string    `json:"storage_key"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ReadGrant is a short-lived capability to read one object. Issuance is not
// proof the object exists; a grant for a dangling key fails when consumed.
type ReadGrant struct {
	URL         string    `json:"url"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// FinalizeRequest converts a completed upload into a durable descriptor.
type FinalizeRequest struct {
	StorageKey  string `json:"storage_key"`
	FileName    string `json:"file_name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	SizeBytes   int64  `json:"size_bytes"`
	ContentType string `json:"content_type"`
}

// DetailsUpdate carries the owner-mutable descriptive fields. Nil fields are
// left unchanged.
type DetailsUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Caller identifies the requesting principal. The zero value is an
// unauthenticated caller.
type Caller struct {
	OwnerID string
}

func (c Caller) Authenticated() bool { return c.OwnerID != "" }

// DocumentRef addresses a document either by its id (authenticated path) or
// by its share token (public path). Exactly one field is set.
type DocumentRef struct {
	ID         uuid.UUID
	ShareToken string
}

// ByID returns a reference for the authenticated lookup path.
func ByID(id uuid.UUID) DocumentRef { return DocumentRef{ID: id} }

// ByShareToken returns a reference for the unauthenticated lookup path.
func ByShareToken(token string) DocumentRef { return DocumentRef{ShareToken: token} }

// ShareInfo is the result of publishing a document.
type ShareInfo struct {
	Visibility Visibility `json:"visibility"`
	ShareURL   string     `json:"share_url,omitempty"`
}

// ListQuery selects a page of an owner's documents, most recent first.
type ListQuery struct {
	Limit  int
	Cursor string
}

type ListResult struct {
	Items      []Descriptor `json:"items"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

// Tables holds configurable table names for metadata storage.
// This allows multi-tenant deployments to use different table names.
type Tables struct {
	Descriptors string `mapstructure:"descriptors"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Descriptors == "" {
		return errors.New("validate tables: descriptors table name cannot be empty")
	}

	if !IsValidTableName(t.Descriptors) {
		return fmt.Errorf("validate tables: invalid descriptors table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Descriptors)
	}

	return nil
}
