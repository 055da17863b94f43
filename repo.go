package docvault

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DescriptorRepo is the durable record of Document Descriptors. It is the
// single source of truth and the sole arbiter of concurrent mutation; the
// broker keeps no state between calls.
//
// All methods accept a context for cancellation and timeout control.
// Implementations must return ErrNotFound (possibly wrapped) when a lookup
// misses, and must serialize the visibility/token read-modify-write so no
// window exists where a document is public without a share token.
type DescriptorRepo interface {
	// Create inserts a finalized descriptor. The caller supplies ID, OwnerID,
	// StorageKey and the descriptive fields; timestamps are set by the store.
	Create(ctx context.Context, d Descriptor) (Descriptor, error)

	// GetByID retrieves a descriptor regardless of visibility.
	// Returns ErrNotFound if no descriptor exists for the id.
	GetByID(ctx context.Context, id uuid.UUID) (Descriptor, error)

	// FindByOwner returns a page of the owner's descriptors ordered by
	// recency. Rows belonging to other owners are never included.
	FindByOwner(ctx context.Context, ownerID string, q ListQuery) (ListResult, error)

	// FindByShareToken resolves a descriptor by its share token. The lookup
	// filters on visibility at the storage layer: tokens whose descriptor is
	// currently private miss with ErrNotFound exactly like unknown tokens,
	// so callers cannot leak the existence of private documents.
	FindByShareToken(ctx context.Context, token string) (Descriptor, error)

	// IncrementDownloadCount atomically increments the download counter.
	// Concurrent increments must all be reflected; implementations perform a
	// single relative UPDATE, never a read-then-write.
	IncrementDownloadCount(ctx context.Context, id uuid.UUID) error

	// Publish flips visibility to public and, when no share token has ever
	// been assigned, stores the supplied token in the same atomic statement.
	// Returns the token actually stored, which is the pre-existing one when
	// the document was published before. Idempotent.
	Publish(ctx context.Context, id uuid.UUID, token string) (string, error)

	// Unpublish flips visibility to private. The share token is retained
	// dormant so a later Publish restores the same link. Idempotent.
	Unpublish(ctx context.Context, id uuid.UUID) error

	// UpdateDetails patches the owner-mutable descriptive fields.
	UpdateDetails(ctx context.Context, id uuid.UUID, update DetailsUpdate) (Descriptor, error)

	// Delete removes the descriptor row. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Cursor represents pagination cursor data for owner listings.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// EncodeCursor encodes cursor data to a base64 string for pagination.
func EncodeCursor(createdAt time.Time, id uuid.UUID) string {
	data := createdAt.Format(time.RFC3339Nano) + "|" + id.String()
	return base64.URLEncoding.EncodeToString([]byte(data))
}

// DecodeCursor decodes a pagination cursor string back to cursor data.
func DecodeCursor(cursor string) (Cursor, error) {
	if cursor == "" {
		return Cursor{}, nil
	}

	decoded, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid encoding: %w", err)
	}

	parts := strings.SplitN(string(decoded), "|", 2)
	if len(parts) != 2 {
		return Cursor{}, fmt.Errorf("decode cursor: invalid format")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid timestamp: %w", err)
	}

	id, err := uuid.Parse(parts[1])
	if err != nil {
		return Cursor{}, fmt.Errorf("decode cursor: invalid id: %w", err)
	}

	return Cursor{CreatedAt: createdAt, ID: id}, nil
}
