package docvault

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Broker is the decision engine in front of the blob gateway and the
// descriptor repository. For every operation it decides whether the caller
// may obtain a handle or mutate metadata, and it orchestrates the two-phase
// upload and the share-token lifecycle.
//
// The broker is stateless per request: all shared mutable state (descriptor
// rows, counters) lives in the repository, so concurrent brokers need no
// coordination beyond the repository's transactional guarantees.
type Broker struct {
	repo         DescriptorRepo
	gateway      BlobGateway
	shareBaseURL string
}

// BrokerConfig holds configuration options for Broker.
type BrokerConfig struct {
	// ShareBaseURL is the public base URL share links are composed from,
	// e.g. "https://docs.example.com". No trailing slash required.
	ShareBaseURL string
}

func NewBroker(repo DescriptorRepo, gateway BlobGateway, cfg BrokerConfig) (*Broker, error) {
	if repo == nil {
		return nil, errors.New("new broker: repo is required")
	}
	if gateway == nil {
		return nil, errors.New("new broker: gateway is required")
	}
	if cfg.ShareBaseURL == "" {
		return nil, errors.New("new broker: share base URL is required")
	}
	return &Broker{
		repo:         repo,
		gateway:      gateway,
		shareBaseURL: strings.TrimSuffix(cfg.ShareBaseURL, "/"),
	}, nil
}

// InitiateUpload requests a write handle scoped to the caller's namespace.
//
// No descriptor row is created yet: the upload stays pending purely in the
// returned grant until FinalizeUpload. An abandoned upload therefore leaves
// no metadata behind, though it may leave an orphaned blob in storage.
func (b *Broker) InitiateUpload(ctx context.Context, ownerID, fileName, contentType string) (WriteGrant, error) {
	if err := ctx.Err(); err != nil {
		return WriteGrant{}, fmt.Errorf("initiate upload: %w", err)
	}

	if ownerID == "" {
		return WriteGrant{}, fmt.Errorf("initiate upload: %w", ErrUnauthorized)
	}

	if fileName == "" {
		return WriteGrant{}, fmt.Errorf("initiate upload: %w: file name cannot be empty", ErrValidation)
	}

	grant, err := b.gateway.IssueWriteHandle(ctx, ownerID, fileName, contentType)
	if err != nil {
		return WriteGrant{}, fmt.Errorf("initiate upload: %w", err)
	}

	return grant, nil
}

// FinalizeUpload registers the descriptor for a completed upload. The new
// document starts private with a zero download count.
//
// The blob's existence at the storage key is not verified here; the two-step
// protocol trusts the client, and a missing object only surfaces at the
// first download attempt.
func (b *Broker) FinalizeUpload(ctx context.Context, ownerID string, req FinalizeRequest) (Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return Descriptor{}, fmt.Errorf("finalize upload: %w", err)
	}

	if ownerID == "" {
		return Descriptor{}, fmt.Errorf("finalize upload: %w", ErrUnauthorized)
	}

	if err := validateFinalize(req); err != nil {
		return Descriptor{}, fmt.Errorf("finalize upload: %w", err)
	}

	// A key minted for another owner must not be registered under this one.
	if !KeyInNamespace(req.StorageKey, ownerID) {
		return Descriptor{}, fmt.Errorf("finalize upload: storage key outside owner namespace: %w", ErrValidation)
	}

	title := req.Title
	if title == "" {
		title = req.FileName
	}

	desc, err := b.repo.Create(ctx, Descriptor{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		StorageKey:  req.StorageKey,
		FileName:    req.FileName,
		Title:       title,
		Description: req.Description,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		Visibility:  VisibilityPrivate,
	})
	if err != nil {
		return Descriptor{}, fmt.Errorf("finalize upload: %w", err)
	}

	return desc, nil
}

// RequestDownload resolves a document reference, checks access and issues a
// read handle.
//
// Authenticated path (ref by id): the owner always passes; anyone else needs
// the document to be public, otherwise ErrForbidden. Public path (ref by
// share token): resolved through the repository's visibility-filtered lookup,
// so unknown and private tokens both miss with ErrNotFound.
//
// The download counter is incremented only after the gateway issued the
// handle, and unconditionally once it did: a "download" is a handle issuance,
// not a byte transfer. A counter failure after issuance is logged by callers
// but does not revoke the already-issued grant.
func (b *Broker) RequestDownload(ctx context.Context, caller Caller, ref DocumentRef) (ReadGrant, error) {
	if err := ctx.Err(); err != nil {
		return ReadGrant{}, fmt.Errorf("request download: %w", err)
	}

	desc, err := b.resolveForRead(ctx, caller, ref)
	if err != nil {
		return ReadGrant{}, fmt.Errorf("request download: %w", err)
	}

	grant, err := b.gateway.IssueReadHandle(ctx, desc.StorageKey)
	if err != nil {
		return ReadGrant{}, fmt.Errorf("request download: %w", err)
	}
	grant.FileName = desc.FileName
	grant.ContentType = desc.ContentType

	if err := b.repo.IncrementDownloadCount(ctx, desc.ID); err != nil {
		return ReadGrant{}, fmt.Errorf("request download: count: %w", err)
	}

	return grant, nil
}

func (b *Broker) resolveForRead(ctx context.Context, caller Caller, ref DocumentRef) (Descriptor, error) {
	if ref.ShareToken != "" {
		return b.repo.FindByShareToken(ctx, ref.ShareToken)
	}

	if ref.ID == uuid.Nil {
		return Descriptor{}, ErrNotFound
	}

	desc, err := b.repo.GetByID(ctx, ref.ID)
	if err != nil {
		return Descriptor{}, err
	}

	// Ownership short-circuits the visibility check.
	if caller.Authenticated() && caller.OwnerID == desc.OwnerID {
		return desc, nil
	}

	if desc.Visibility == VisibilityPublic {
		return desc, nil
	}

	return Descriptor{}, ErrForbidden
}

// ToggleVisibility publishes or unpublishes a document. Only the owner may
// toggle. Publishing assigns a share token lazily, atomically with the
// visibility flip, and reuses the existing token on every later publish.
// Toggling to the current state is a no-op that still succeeds.
func (b *Broker) ToggleVisibility(ctx context.Context, ownerID string, id uuid.UUID, makePublic bool) (ShareInfo, error) {
	if err := ctx.Err(); err != nil {
		return ShareInfo{}, fmt.Errorf("toggle visibility: %w", err)
	}

	if ownerID == "" {
		return ShareInfo{}, fmt.Errorf("toggle visibility: %w", ErrUnauthorized)
	}

	if _, err := b.ownedDescriptor(ctx, ownerID, id); err != nil {
		return ShareInfo{}, fmt.Errorf("toggle visibility: %w", err)
	}

	if !makePublic {
		if err := b.repo.Unpublish(ctx, id); err != nil {
			return ShareInfo{}, fmt.Errorf("toggle visibility: %w", err)
		}
		return ShareInfo{Visibility: VisibilityPrivate}, nil
	}

	// Generate a candidate token up front. The repository stores it only if
	// the descriptor was never published; otherwise the stored token wins.
	token, err := NewShareToken()
	if err != nil {
		return ShareInfo{}, fmt.Errorf("toggle visibility: %w", err)
	}

	stored, err := b.repo.Publish(ctx, id, token)
	if err != nil {
		return ShareInfo{}, fmt.Errorf("toggle visibility: %w", err)
	}

	return ShareInfo{
		Visibility: VisibilityPublic,
		ShareURL:   b.shareBaseURL + "/shared/" + stored,
	}, nil
}

// UpdateDetails patches the document's title and description. Owner only.
func (b *Broker) UpdateDetails(ctx context.Context, ownerID string, id uuid.UUID, update DetailsUpdate) (Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return Descriptor{}, fmt.Errorf("update details: %w", err)
	}

	if ownerID == "" {
		return Descriptor{}, fmt.Errorf("update details: %w", ErrUnauthorized)
	}

	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return Descriptor{}, fmt.Errorf("update details: %w: title cannot be blank", ErrValidation)
	}

	if _, err := b.ownedDescriptor(ctx, ownerID, id); err != nil {
		return Descriptor{}, fmt.Errorf("update details: %w", err)
	}

	desc, err := b.repo.UpdateDetails(ctx, id, update)
	if err != nil {
		return Descriptor{}, fmt.Errorf("update details: %w", err)
	}

	return desc, nil
}

// DeleteDocument removes the blob and then the descriptor. Owner only.
//
// The blob goes first: if its deletion fails the descriptor is retained, so
// there is never a live blob without an owning record. Gateway deletion is
// idempotent, so callers retry the whole operation after transient failures.
func (b *Broker) DeleteDocument(ctx context.Context, ownerID string, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if ownerID == "" {
		return fmt.Errorf("delete document: %w", ErrUnauthorized)
	}

	desc, err := b.ownedDescriptor(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if err := b.gateway.DeleteObject(ctx, desc.StorageKey); err != nil {
		return fmt.Errorf("delete document: blob: %w", err)
	}

	if err := b.repo.Delete(ctx, id); err != nil {
		// Concurrent delete already removed the row; the blob is gone either way.
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete document: %w", err)
	}

	return nil
}

// ListDocuments returns a page of the caller's own documents, newest first.
func (b *Broker) ListDocuments(ctx context.Context, ownerID string, q ListQuery) (ListResult, error) {
	if err := ctx.Err(); err != nil {
		return ListResult{}, fmt.Errorf("list documents: %w", err)
	}

	if ownerID == "" {
		return ListResult{}, fmt.Errorf("list documents: %w", ErrUnauthorized)
	}

	result, err := b.repo.FindByOwner(ctx, ownerID, q)
	if err != nil {
		return ListResult{}, fmt.Errorf("list documents: %w", err)
	}

	return result, nil
}

// GetDocument returns a single descriptor, owner only.
func (b *Broker) GetDocument(ctx context.Context, ownerID string, id uuid.UUID) (Descriptor, error) {
	if err := ctx.Err(); err != nil {
		return Descriptor{}, fmt.Errorf("get document: %w", err)
	}

	if ownerID == "" {
		return Descriptor{}, fmt.Errorf("get document: %w", ErrUnauthorized)
	}

	desc, err := b.ownedDescriptor(ctx, ownerID, id)
	if err != nil {
		return Descriptor{}, fmt.Errorf("get document: %w", err)
	}

	return desc, nil
}

// ownedDescriptor loads a descriptor and enforces ownership.
func (b *Broker) ownedDescriptor(ctx context.Context, ownerID string, id uuid.UUID) (Descriptor, error) {
	desc, err := b.repo.GetByID(ctx, id)
	if err != nil {
		return Descriptor{}, err
	}

	if desc.OwnerID != ownerID {
		return Descriptor{}, ErrForbidden
	}

	return desc, nil
}

func validateFinalize(req FinalizeRequest) error {
	if req.StorageKey == "" {
		return fmt.Errorf("%w: storage key cannot be empty", ErrValidation)
	}
	if req.FileName == "" {
		return fmt.Errorf("%w: file name cannot be empty", ErrValidation)
	}
	if req.SizeBytes < 0 {
		return fmt.Errorf("%w: size cannot be negative", ErrValidation)
	}
	if req.ContentType == "" {
		return fmt.Errorf("%w: content type cannot be empty", ErrValidation)
	}
	return nil
}
