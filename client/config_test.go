package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileLifecycle(t *testing.T) {
	cfg := &ConfigFile{}

	require.NoError(t, cfg.AddProfile(Profile{Name: "prod", Endpoint: "https://vault.example.com"}))
	require.NoError(t, cfg.AddProfile(Profile{Name: "local", Endpoint: "http://localhost:8080"}))

	err := cfg.AddProfile(Profile{Name: "prod"})
	require.ErrorIs(t, err, ErrProfileExists)

	// First profile is the default until one is marked.
	p, err := cfg.GetDefaultProfile()
	require.NoError(t, err)
	assert.Equal(t, "prod", p.Name)

	require.NoError(t, cfg.SetDefault("local"))
	p, err = cfg.GetProfile("")
	require.NoError(t, err)
	assert.Equal(t, "local", p.Name)

	require.NoError(t, cfg.UpdateProfile(Profile{Name: "prod", Endpoint: "https://new.example.com"}))
	p, err = cfg.GetProfile("prod")
	require.NoError(t, err)
	assert.Equal(t, "https://new.example.com", p.Endpoint)

	require.NoError(t, cfg.RemoveProfile("prod"))
	_, err = cfg.GetProfile("prod")
	require.ErrorIs(t, err, ErrProfileNotFound)

	assert.Equal(t, []string{"local"}, cfg.ProfileNames())
}

func TestConfigFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := &ConfigFile{Profiles: []Profile{
		{Name: "prod", Endpoint: "https://vault.example.com", AccessKey: "AK", SecretKey: "SK", Default: true},
	}}
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfigFile(path)
	require.NoError(t, err)
	require.Len(t, loaded.Profiles, 1)
	assert.Equal(t, cfg.Profiles[0], loaded.Profiles[0])

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfigWithDefaults(t *testing.T) {
	cfg := (&Config{}).WithDefaults()
	assert.Equal(t, DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, DefaultRegion, cfg.Region)
	assert.Equal(t, DefaultService, cfg.Service)

	cfg = (&Config{Endpoint: "http://other", Region: "eu-west-1"}).WithDefaults()
	assert.Equal(t, "http://other", cfg.Endpoint)
	assert.Equal(t, "eu-west-1", cfg.Region)
}

func TestValidateWithAuth(t *testing.T) {
	err := (&Config{}).ValidateWithAuth()
	require.ErrorIs(t, err, ErrAccessKeyRequired)

	err = (&Config{AccessKey: "AK"}).ValidateWithAuth()
	require.ErrorIs(t, err, ErrSecretKeyRequired)

	require.NoError(t, (&Config{AccessKey: "AK", SecretKey: "SK"}).ValidateWithAuth())
}

func TestMergeConfig(t *testing.T) {
	base := &Config{Endpoint: "http://base", AccessKey: "base-ak", SecretKey: "base-sk"}
	override := &Config{AccessKey: "override-ak"}

	merged := MergeConfig(base, override, nil)
	assert.Equal(t, "http://base", merged.Endpoint)
	assert.Equal(t, "override-ak", merged.AccessKey)
	assert.Equal(t, "base-sk", merged.SecretKey)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("DOCVAULT_ENDPOINT", "http://env.example")
	t.Setenv("DOCVAULT_ACCESS_KEY", "env-ak")
	t.Setenv("DOCVAULT_SECRET_KEY", "env-sk")
	t.Setenv("DOCVAULT_PROFILE", "staging")

	cfg := ConfigFromEnv()
	assert.Equal(t, "http://env.example", cfg.Endpoint)
	assert.Equal(t, "env-ak", cfg.AccessKey)
	assert.Equal(t, "env-sk", cfg.SecretKey)
	assert.Equal(t, "staging", ProfileFromEnv())
}
