package docvault

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// shareTokenBytes is the entropy of a share token. 32 bytes encodes to a
// 43-character base64url string.
const shareTokenBytes = 32

// NewShareToken returns an unguessable token for public document access.
// Tokens are assigned once per descriptor and never rotated.
func NewShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("new share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// NewStorageKey builds an object key scoped under the owner's namespace with
// a time-based nonce so concurrent uploads by the same owner never collide.
// Layout: <owner>/<unixnano>-<uuid>/<sanitized file name>.
func NewStorageKey(ownerID, fileName string) string {
	nonce := strconv.FormatInt(time.Now().UnixNano(), 36)
	return ownerID + "/" + nonce + "-" + uuid.NewString() + "/" + SanitizeFileName(fileName)
}

// KeyInNamespace reports whether a storage key lives under the owner's
// namespace. Finalize uses it to reject keys minted for another owner.
func KeyInNamespace(storageKey, ownerID string) bool {
	return ownerID != "" && strings.HasPrefix(storageKey, ownerID+"/")
}

// SanitizeFileName strips path separators and control characters from a
// client-supplied file name so it is safe to embed in an object key.
// An empty result falls back to "file".
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)

	var b strings.Builder
	for _, r := range name {
		switch {
		case r == '/' || r == '\\':
			b.WriteByte('_')
		case r < 0x20 || r == 0x7f:
			// drop control characters
		default:
			b.WriteRune(r)
		}
	}

	cleaned := strings.Trim(b.String(), ". ")
	if cleaned == "" {
		return "file"
	}
	return cleaned
}
