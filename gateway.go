package docvault

import "context"

// BlobGateway wraps the external object store behind a narrow capability
// interface: issue a write handle, issue a read handle, delete an object.
//
// Handles are stateless capability URLs with embedded expiry. The gateway
// never records issued handles, so revocation before expiry is impossible;
// the expiry window bounds exposure. Issuing a read handle does not verify
// the object exists — a dangling key yields a handle that fails at use time.
type BlobGateway interface {
	// IssueWriteHandle produces a storage key scoped under the owner's
	// namespace with a collision-resistant suffix, and a handle valid for a
	// short fixed window that allows one object write to that key with the
	// declared content type. Returns ErrGatewayUnavailable when the backing
	// store cannot be reached.
	IssueWriteHandle(ctx context.Context, ownerID, fileName, contentType string) (WriteGrant, error)

	// IssueReadHandle produces a short-lived handle permitting a read of the
	// object at the key.
	IssueReadHandle(ctx context.Context, storageKey string) (ReadGrant, error)

	// DeleteObject removes the object at the key. Idempotent: deleting a
	// non-existent key is not an error.
	DeleteObject(ctx context.Context, storageKey string) error
}
