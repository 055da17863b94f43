package identity_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorandi/docvault"
	"github.com/cmorandi/docvault/identity"
)

func writeKeysFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keys.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewResolver_InlineKeys(t *testing.T) {
	resolver, err := identity.NewResolver(identity.KeysConfig{
		Inline: []identity.KeyEntry{
			{AccessKey: "ak1", SecretKey: "sk1", OwnerID: "alice"},
			{AccessKey: "", SecretKey: "sk2", OwnerID: "bob"},   // skipped: no access key
			{AccessKey: "ak3", SecretKey: "sk3", OwnerID: ""},   // skipped: no owner
			{AccessKey: "ak4", SecretKey: "", OwnerID: "carol"}, // skipped: no secret
		},
	})
	require.NoError(t, err)

	cred, err := resolver.Resolve("ak1")
	require.NoError(t, err)
	assert.Equal(t, docvault.Credential{SecretKey: "sk1", OwnerID: "alice"}, cred)

	for _, key := range []string{"", "ak3", "ak4"} {
		_, err := resolver.Resolve(key)
		assert.ErrorIs(t, err, docvault.ErrUnauthorized)
	}
}

func TestNewResolver_FileOverridesInline(t *testing.T) {
	path := writeKeysFile(t, `[
		{"access_key": "ak1", "secret_key": "from-file", "owner_id": "alice-file"},
		{"access_key": "ak2", "secret_key": "sk2", "owner_id": "bob"}
	]`)

	resolver, err := identity.NewResolver(identity.KeysConfig{
		Inline: []identity.KeyEntry{
			{AccessKey: "ak1", SecretKey: "from-inline", OwnerID: "alice-inline"},
		},
		File: path,
	})
	require.NoError(t, err)

	cred, err := resolver.Resolve("ak1")
	require.NoError(t, err)
	assert.Equal(t, "from-file", cred.SecretKey)
	assert.Equal(t, "alice-file", cred.OwnerID)

	cred, err = resolver.Resolve("ak2")
	require.NoError(t, err)
	assert.Equal(t, "bob", cred.OwnerID)
}

func TestNewResolver_FileErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := identity.NewResolver(identity.KeysConfig{File: "/nonexistent/keys.json"})
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeKeysFile(t, `{not json`)
		_, err := identity.NewResolver(identity.KeysConfig{File: path})
		assert.Error(t, err)
	})
}
