// Package identity provides CredentialResolver implementations mapping
// access keys to signing secrets and owner identities.
package identity

import (
	"fmt"

	"github.com/cmorandi/docvault"
)

// MapResolver resolves credentials from an in-memory map.
// Suitable for configuration file-based key storage.
type MapResolver struct {
	creds map[string]docvault.Credential
}

// NewMapResolver creates a resolver over the given access key to credential mapping.
func NewMapResolver(creds map[string]docvault.Credential) *MapResolver {
	return &MapResolver{creds: creds}
}

// Resolve returns the credential for the given access key.
func (r *MapResolver) Resolve(accessKey string) (docvault.Credential, error) {
	cred, found := r.creds[accessKey]
	if !found {
		return docvault.Credential{}, fmt.Errorf("access key not found: %w", docvault.ErrUnauthorized)
	}
	return cred, nil
}
