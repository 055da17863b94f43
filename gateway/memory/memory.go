// Package memory implements the blob gateway against an in-process object
// store. Handles are HMAC-signed URLs served by the gateway itself, so the
// full initiate/transfer/finalize flow works without external storage. It is
// intended for development and tests.
package memory

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cmorandi/docvault"
)

// Config options for the in-memory gateway.
type Config struct {
	BaseURL       string `mapstructure:"base_url"`       // Public base URL for issued handles
	Secret        string `mapstructure:"secret"`         // HMAC secret; random when empty
	PresignExpiry int    `mapstructure:"presign_expiry"` // Handle validity in seconds (default 900)
}

type object struct {
	data        []byte
	contentType string
}

// Gateway holds objects in memory and issues signed URLs against itself.
type Gateway struct {
	mu            sync.RWMutex
	objects       map[string]object
	baseURL       string
	secret        []byte
	presignExpiry time.Duration
	now           func() time.Time
}

func New(cfg Config) (*Gateway, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}

	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = 900
	}

	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("new memory gateway: generate secret: %w", err)
		}
	}

	return &Gateway{
		objects:       make(map[string]object),
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		secret:        secret,
		presignExpiry: time.Duration(cfg.PresignExpiry) * time.Second,
		now:           time.Now,
	}, nil
}

// SetBaseURL rebinds issued handles to a different host. Tests point it at an
// httptest server after the listener address is known.
func (g *Gateway) SetBaseURL(baseURL string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.baseURL = strings.TrimRight(baseURL, "/")
}

// IssueWriteHandle mints a namespaced storage key and a signed PUT URL.
func (g *Gateway) IssueWriteHandle(ctx context.Context, ownerID, fileName, contentType string) (docvault.WriteGrant, error) {
	if err := ctx.Err(); err != nil {
		return docvault.WriteGrant{}, fmt.Errorf("issue write handle: %w", err)
	}

	storageKey := docvault.NewStorageKey(ownerID, fileName)
	expiresAt := g.now().Add(g.presignExpiry)

	return docvault.WriteGrant{
		URL:        g.signedURL(http.MethodPut, storageKey, expiresAt),
		Method:     http.MethodPut,
		StorageKey: storageKey,
		ExpiresAt:  expiresAt,
	}, nil
}

// IssueReadHandle returns a signed GET URL for the key. Issuance does not
// check that the object exists; a dangling handle fails on use.
func (g *Gateway) IssueReadHandle(ctx context.Context, storageKey string) (docvault.ReadGrant, error) {
	if err := ctx.Err(); err != nil {
		return docvault.ReadGrant{}, fmt.Errorf("issue read handle: %w", err)
	}

	expiresAt := g.now().Add(g.presignExpiry)

	return docvault.ReadGrant{
		URL:       g.signedURL(http.MethodGet, storageKey, expiresAt),
		ExpiresAt: expiresAt,
	}, nil
}

// DeleteObject removes the object. Deleting a missing key is not an error.
func (g *Gateway) DeleteObject(ctx context.Context, storageKey string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.objects, storageKey)

	return nil
}

// Has reports whether an object is stored under the key.
func (g *Gateway) Has(storageKey string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.objects[storageKey]
	return ok
}

// Handler serves the blob endpoints that issued handles point at.
func (g *Gateway) Handler() http.Handler {
	r := chi.NewRouter()
	r.Put("/blobs/*", g.handlePut)
	r.Get("/blobs/*", g.handleGet)
	return r
}

func (g *Gateway) handlePut(w http.ResponseWriter, r *http.Request) {
	storageKey := chi.URLParam(r, "*")
	if !g.verifyHandle(http.MethodPut, storageKey, r.URL.Query()) {
		http.Error(w, "invalid or expired handle", http.StatusForbidden)
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	g.objects[storageKey] = object{
		data:        data,
		contentType: r.Header.Get("Content-Type"),
	}
	g.mu.Unlock()

	w.WriteHeader(http.StatusOK)
}

func (g *Gateway) handleGet(w http.ResponseWriter, r *http.Request) {
	storageKey := chi.URLParam(r, "*")
	if !g.verifyHandle(http.MethodGet, storageKey, r.URL.Query()) {
		http.Error(w, "invalid or expired handle", http.StatusForbidden)
		return
	}

	g.mu.RLock()
	obj, ok := g.objects[storageKey]
	g.mu.RUnlock()

	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if obj.contentType != "" {
		w.Header().Set("Content-Type", obj.contentType)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(obj.data)
}

func (g *Gateway) signedURL(method, storageKey string, expiresAt time.Time) string {
	expires := strconv.FormatInt(expiresAt.Unix(), 10)

	query := url.Values{}
	query.Set("expires", expires)
	query.Set("signature", g.sign(method, storageKey, expires))

	escaped := (&url.URL{Path: storageKey}).EscapedPath()

	return g.baseURL + "/blobs/" + escaped + "?" + query.Encode()
}

func (g *Gateway) verifyHandle(method, storageKey string, query url.Values) bool {
	expires := query.Get("expires")
	signature := query.Get("signature")
	if expires == "" || signature == "" {
		return false
	}

	expiresUnix, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false
	}

	if g.now().After(time.Unix(expiresUnix, 0)) {
		return false
	}

	expected := g.sign(method, storageKey, expires)

	return hmac.Equal([]byte(expected), []byte(signature))
}

func (g *Gateway) sign(method, storageKey, expires string) string {
	mac := hmac.New(sha256.New, g.secret)
	mac.Write([]byte(method + "\n" + storageKey + "\n" + expires))
	return hex.EncodeToString(mac.Sum(nil))
}
