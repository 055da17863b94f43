package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorandi/docvault"
)

type recordingVerifier struct {
	caller docvault.Caller
	err    error

	gotMethod string
	gotPath   string
	gotHost   string
}

func (v *recordingVerifier) Verify(method, path string, query url.Values, headers http.Header) (docvault.Caller, error) {
	v.gotMethod = method
	v.gotPath = path
	v.gotHost = headers.Get("Host")
	return v.caller, v.err
}

func TestAuthMiddlewareAttachesCaller(t *testing.T) {
	verifier := &recordingVerifier{caller: docvault.Caller{OwnerID: "alice"}}

	var seen docvault.Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "http://vault.example/documents", nil)
	rec := httptest.NewRecorder()
	AuthMiddleware(verifier)(next).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", seen.OwnerID)
	assert.True(t, seen.Authenticated())

	assert.Equal(t, http.MethodGet, verifier.gotMethod)
	assert.Equal(t, "/documents", verifier.gotPath)
	assert.Equal(t, "vault.example", verifier.gotHost)
}

func TestAuthMiddlewareRejectsBadSignature(t *testing.T) {
	verifier := &recordingVerifier{err: docvault.ErrUnauthorized}

	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	rec := httptest.NewRecorder()
	AuthMiddleware(verifier)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthMiddlewareNilVerifierPassesThrough(t *testing.T) {
	var seen docvault.Caller
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	rec := httptest.NewRecorder()
	AuthMiddleware(nil)(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, seen.Authenticated())
}
