package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]string{writeConfigFile(t, "")}, nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Server.PublicBaseURL)
	assert.Equal(t, 30, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "docvault.db", cfg.Database.DSN)
	assert.Equal(t, "docvault_descriptors", cfg.Database.Tables.Descriptors)
	assert.False(t, cfg.Database.AutoMigrate)
	assert.Equal(t, "memory", cfg.Storage.Type)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, "us-east-1", cfg.Auth.AWS.Region)
	assert.Equal(t, "docvault", cfg.Auth.AWS.Service)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
  public_base_url: https://vault.example.com
database:
  type: postgres
  dsn: postgres://localhost:5432/docvault
storage:
  type: s3
  s3:
    bucket: docvault-blobs
    region: eu-west-1
auth:
  keys:
    inline:
      - access_key: AKIDEXAMPLE
        secret_key: secret
        owner_id: alice
log:
  level: debug
`)

	cfg, err := Load([]string{path}, nil)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "https://vault.example.com", cfg.Server.PublicBaseURL)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "docvault-blobs", cfg.Storage.S3.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Storage.S3.Region)
	require.Len(t, cfg.Auth.Keys.Inline, 1)
	assert.Equal(t, "alice", cfg.Auth.Keys.Inline[0].OwnerID)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFileMerge(t *testing.T) {
	base := writeConfigFile(t, `
server:
  port: 9090
log:
  level: debug
`)
	override := writeConfigFile(t, `
server:
  port: 9999
`)

	cfg, err := Load([]string{base, override}, nil)
	require.NoError(t, err)

	// Later files win per key; untouched keys keep earlier values.
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DOCVAULT_SERVER_PORT", "7070")
	t.Setenv("DOCVAULT_LOG_LEVEL", "warn")

	cfg, err := Load([]string{writeConfigFile(t, "")}, nil)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadFlagOverride(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 0, "")
	flags.String("db-type", "", "")
	require.NoError(t, flags.Parse([]string{"--port=6060", "--db-type=postgres"}))

	cfg, err := Load([]string{path}, flags)
	require.NoError(t, err)

	assert.Equal(t, 6060, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Type)
}

func TestLoadUnsetFlagDoesNotOverride(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9090
`)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("port", 1234, "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load([]string{path}, flags)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "invalid port",
			content: `
server:
  port: 99999
`,
		},
		{
			name: "invalid storage type",
			content: `
storage:
  type: carrier-pigeon
`,
		},
		{
			name: "invalid log level",
			content: `
log:
  level: loud
`,
		},
		{
			name: "invalid base url",
			content: `
server:
  public_base_url: not-a-url
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]string{writeConfigFile(t, tt.content)}, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "validate config")
		})
	}
}

func TestContextRoundTrip(t *testing.T) {
	cfg := &Config{}
	ctx := WithContext(context.Background(), cfg)

	got, err := FromContext(ctx)
	require.NoError(t, err)
	assert.Same(t, cfg, got)

	_, err = FromContext(context.Background())
	require.Error(t, err)
}
