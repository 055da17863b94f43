package identity

import (
	"github.com/cmorandi/docvault"
)

// KeysConfig holds configuration for loading access keys.
type KeysConfig struct {
	Inline []KeyEntry `mapstructure:"inline"` // Inline key entries from config
	File   string     `mapstructure:"file"`   // Path to JSON file containing key entries
}

// NewResolver creates a CredentialResolver from the given configuration.
// It loads keys from both inline config and file (if specified), merging them
// into a single resolver. File keys take precedence over inline keys if there
// are duplicates.
func NewResolver(cfg KeysConfig) (docvault.CredentialResolver, error) {
	creds := make(map[string]docvault.Credential)

	for _, e := range cfg.Inline {
		if e.AccessKey != "" && e.SecretKey != "" && e.OwnerID != "" {
			creds[e.AccessKey] = docvault.Credential{SecretKey: e.SecretKey, OwnerID: e.OwnerID}
		}
	}

	if cfg.File != "" {
		fileCreds, err := LoadKeysFromFile(cfg.File)
		if err != nil {
			return nil, err
		}
		for k, v := range fileCreds {
			creds[k] = v
		}
	}

	return NewMapResolver(creds), nil
}
