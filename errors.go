package docvault

import "errors"

var (
	// ErrNotFound is returned when a document cannot be resolved. The public
	// share-token path also returns it for documents that exist but are
	// currently private, so probing cannot distinguish the two cases.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when no valid caller identity is presented
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden is returned when a valid caller lacks rights to the document
	ErrForbidden = errors.New("forbidden")
	// ErrValidation is returned when a request payload fails validation
	ErrValidation = errors.New("validation failed")
	// ErrConflict is returned when an operation hits a conflicting concurrent mutation
	ErrConflict = errors.New("state conflict")
	// ErrGatewayUnavailable is returned when the blob store cannot be reached. Retryable.
	ErrGatewayUnavailable = errors.New("gateway unavailable")
	// ErrRepositoryUnavailable is returned when the metadata store cannot be reached. Retryable.
	ErrRepositoryUnavailable = errors.New("repository unavailable")
)
