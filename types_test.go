package docvault_test

import (
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorandi/docvault"
)

func TestVisibilityIsValid(t *testing.T) {
	assert.True(t, docvault.VisibilityPrivate.IsValid())
	assert.True(t, docvault.VisibilityPublic.IsValid())
	assert.False(t, docvault.Visibility("").IsValid())
	assert.False(t, docvault.Visibility("hidden").IsValid())
}

func TestDescriptorJSONHidesSecrets(t *testing.T) {
	d := docvault.Descriptor{
		ID:         uuid.New(),
		OwnerID:    "alice",
		StorageKey: "alice/k1/report.pdf",
		ShareToken: "secret-token",
		FileName:   "report.pdf",
	}

	data, err := json.Marshal(d)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "secret-token")
	assert.NotContains(t, string(data), "alice/k1")
	assert.Contains(t, string(data), `"file_name":"report.pdf"`)
}

func TestCursorRoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 8, 20, 10, 30, 0, 123456789, time.UTC)
	id := uuid.New()

	encoded := docvault.EncodeCursor(createdAt, id)
	decoded, err := docvault.DecodeCursor(encoded)
	require.NoError(t, err)

	assert.True(t, decoded.CreatedAt.Equal(createdAt))
	assert.Equal(t, id, decoded.ID)
}

func TestDecodeCursorErrors(t *testing.T) {
	t.Run("empty cursor is zero value", func(t *testing.T) {
		c, err := docvault.DecodeCursor("")
		assert.NoError(t, err)
		assert.Equal(t, docvault.Cursor{}, c)
	})

	tests := []struct {
		name   string
		cursor string
	}{
		{"not base64", "%%%"},
		{"no separator", "bm9zZXBhcmF0b3I="},
		{"bad timestamp", "bm90YXRpbWV8bm90YXV1aWQ="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := docvault.DecodeCursor(tt.cursor)
			assert.Error(t, err)
		})
	}

	t.Run("bad uuid", func(t *testing.T) {
		raw := time.Now().UTC().Format(time.RFC3339Nano) + "|not-a-uuid"
		_, err := docvault.DecodeCursor(base64.URLEncoding.EncodeToString([]byte(raw)))
		assert.Error(t, err)
	})
}

func TestCallerAuthenticated(t *testing.T) {
	assert.False(t, docvault.Caller{}.Authenticated())
	assert.True(t, docvault.Caller{OwnerID: "alice"}.Authenticated())
}

func TestTablesValidate(t *testing.T) {
	tests := []struct {
		name    string
		tables  docvault.Tables
		wantErr bool
	}{
		{"valid", docvault.Tables{Descriptors: "docvault_descriptors"}, false},
		{"empty", docvault.Tables{}, true},
		{"uppercase", docvault.Tables{Descriptors: "Descriptors"}, true},
		{"leading digit", docvault.Tables{Descriptors: "1descriptors"}, true},
		{"sql injection", docvault.Tables{Descriptors: "x; drop table y"}, true},
		{"leading underscore", docvault.Tables{Descriptors: "_descriptors"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tables.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsValidTableName(t *testing.T) {
	assert.True(t, docvault.IsValidTableName("docs"))
	assert.False(t, docvault.IsValidTableName(""))

	long := make([]byte, 64)
	for i := range long {
		long[i] = 'a'
	}
	assert.False(t, docvault.IsValidTableName(string(long)))
	assert.True(t, docvault.IsValidTableName(string(long[:63])))
}
