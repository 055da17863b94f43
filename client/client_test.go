package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorandi/docvault"
)

// fakeServer implements just enough of the docvault API for client tests,
// including the blob endpoint that write and read handles point at.
type fakeServer struct {
	t      *testing.T
	server *httptest.Server

	blobs       map[string][]byte
	descriptors map[uuid.UUID]docvault.Descriptor

	verifyAuth func(t *testing.T, r *http.Request)
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()

	fs := &fakeServer{
		t:           t,
		blobs:       make(map[string][]byte),
		descriptors: make(map[uuid.UUID]docvault.Descriptor),
	}

	r := chi.NewRouter()
	r.Post("/documents/uploads", fs.handleInitiate)
	r.Post("/documents", fs.handleFinalize)
	r.Get("/documents", fs.handleList)
	r.Get("/documents/{id}/download", fs.handleDownload)
	r.Put("/documents/{id}/visibility", fs.handleVisibility)
	r.Delete("/documents/{id}", fs.handleDelete)
	r.Put("/blobs/{key}", fs.handleBlobPut)
	r.Get("/blobs/{key}", fs.handleBlobGet)

	fs.server = httptest.NewServer(r)
	t.Cleanup(fs.server.Close)

	return fs
}

func (fs *fakeServer) auth(r *http.Request) {
	if fs.verifyAuth != nil {
		fs.verifyAuth(fs.t, r)
	}
}

func (fs *fakeServer) handleInitiate(w http.ResponseWriter, r *http.Request) {
	fs.auth(r)

	var req struct {
		FileName string `json:"file_name"`
	}
	require.NoError(fs.t, json.NewDecoder(r.Body).Decode(&req))

	grant := docvault.WriteGrant{
		URL:        fs.server.URL + "/blobs/blob-1",
		Method:     http.MethodPut,
		StorageKey: "alice/abc/" + req.FileName,
		ExpiresAt:  time.Now().Add(15 * time.Minute),
	}
	writeJSONResp(w, http.StatusOK, grant)
}

func (fs *fakeServer) handleFinalize(w http.ResponseWriter, r *http.Request) {
	fs.auth(r)

	var req docvault.FinalizeRequest
	require.NoError(fs.t, json.NewDecoder(r.Body).Decode(&req))

	d := docvault.Descriptor{
		ID:          uuid.New(),
		OwnerID:     "alice",
		FileName:    req.FileName,
		Title:       req.Title,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		Visibility:  docvault.VisibilityPrivate,
	}
	fs.descriptors[d.ID] = d
	writeJSONResp(w, http.StatusCreated, d)
}

func (fs *fakeServer) handleList(w http.ResponseWriter, r *http.Request) {
	fs.auth(r)

	var items []docvault.Descriptor
	for _, d := range fs.descriptors {
		items = append(items, d)
	}
	writeJSONResp(w, http.StatusOK, docvault.ListResult{Items: items})
}

func (fs *fakeServer) handleDownload(w http.ResponseWriter, r *http.Request) {
	fs.auth(r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	require.NoError(fs.t, err)

	d, ok := fs.descriptors[id]
	if !ok {
		writeJSONResp(w, http.StatusNotFound, map[string]string{"error": "not_found"})
		return
	}

	writeJSONResp(w, http.StatusOK, docvault.ReadGrant{
		URL:         fs.server.URL + "/blobs/blob-1",
		FileName:    d.FileName,
		ContentType: d.ContentType,
		ExpiresAt:   time.Now().Add(15 * time.Minute),
	})
}

func (fs *fakeServer) handleVisibility(w http.ResponseWriter, r *http.Request) {
	fs.auth(r)

	var req struct {
		Visibility docvault.Visibility `json:"visibility"`
	}
	require.NoError(fs.t, json.NewDecoder(r.Body).Decode(&req))

	info := docvault.ShareInfo{Visibility: req.Visibility}
	if req.Visibility == docvault.VisibilityPublic {
		info.ShareURL = fs.server.URL + "/shared/tok123"
	}
	writeJSONResp(w, http.StatusOK, info)
}

func (fs *fakeServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	fs.auth(r)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	require.NoError(fs.t, err)

	if _, ok := fs.descriptors[id]; !ok {
		writeJSONResp(w, http.StatusNotFound, map[string]string{"error": "not_found"})
		return
	}
	delete(fs.descriptors, id)
	w.WriteHeader(http.StatusNoContent)
}

func (fs *fakeServer) handleBlobPut(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	require.NoError(fs.t, err)
	fs.blobs[chi.URLParam(r, "key")] = data
	w.WriteHeader(http.StatusOK)
}

func (fs *fakeServer) handleBlobGet(w http.ResponseWriter, r *http.Request) {
	data, ok := fs.blobs[chi.URLParam(r, "key")]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_, _ = w.Write(data)
}

func writeJSONResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestClient(t *testing.T, fs *fakeServer) *Client {
	t.Helper()

	c, err := New(&Config{
		Endpoint:  fs.server.URL,
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
	})
	require.NoError(t, err)
	return c
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrConfigRequired)
}

func TestUploadTwoPhase(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(t, fs)

	localPath := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(localPath, []byte("pdf bytes"), 0o600))

	result, err := c.Upload(context.Background(), UploadOptions{
		LocalPath: localPath,
		Title:     "Q3 Report",
	})
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", result.Descriptor.FileName)
	assert.Equal(t, "Q3 Report", result.Descriptor.Title)
	assert.Equal(t, int64(len("pdf bytes")), result.Descriptor.SizeBytes)
	assert.Equal(t, docvault.VisibilityPrivate, result.Descriptor.Visibility)

	// Bytes went to the blob endpoint, not the API.
	assert.Equal(t, []byte("pdf bytes"), fs.blobs["blob-1"])
}

func TestUploadSignsAPIRequests(t *testing.T) {
	fs := newFakeServer(t)
	fs.verifyAuth = func(t *testing.T, r *http.Request) {
		q := r.URL.Query()
		assert.NotEmpty(t, q.Get("X-Amz-Signature"))
		assert.Contains(t, q.Get("X-Amz-Credential"), "AKIDEXAMPLE")
	}
	c := newTestClient(t, fs)

	localPath := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(localPath, []byte("x"), 0o600))

	_, err := c.Upload(context.Background(), UploadOptions{LocalPath: localPath})
	require.NoError(t, err)
}

func TestUploadEmptyPath(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(t, fs)

	_, err := c.Upload(context.Background(), UploadOptions{})
	require.ErrorIs(t, err, ErrEmptyPath)
}

func TestDownloadToFile(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(t, fs)

	localPath := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(localPath, []byte("pdf bytes"), 0o600))

	uploaded, err := c.Upload(context.Background(), UploadOptions{LocalPath: localPath})
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "downloaded.pdf")
	result, body, err := c.Download(context.Background(), DownloadOptions{
		ID:        uploaded.Descriptor.ID,
		LocalPath: dest,
	})
	require.NoError(t, err)
	assert.Nil(t, body)
	assert.Equal(t, dest, result.LocalPath)
	assert.Equal(t, int64(len("pdf bytes")), result.Size)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), data)
}

func TestDownloadToStdout(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(t, fs)

	localPath := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(localPath, []byte("content"), 0o600))

	uploaded, err := c.Upload(context.Background(), UploadOptions{LocalPath: localPath})
	require.NoError(t, err)

	result, body, err := c.Download(context.Background(), DownloadOptions{
		ID:        uploaded.Descriptor.ID,
		LocalPath: "-",
	})
	require.NoError(t, err)
	require.NotNil(t, body)
	defer func() { _ = body.Close() }()

	assert.Equal(t, "-", result.LocalPath)

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), data)
}

func TestDownloadUnknownDocument(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(t, fs)

	_, _, err := c.Download(context.Background(), DownloadOptions{ID: uuid.New()})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestShareUnshare(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(t, fs)

	id := uuid.New()
	fs.descriptors[id] = docvault.Descriptor{ID: id}

	info, err := c.Share(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, docvault.VisibilityPublic, info.Visibility)
	assert.NotEmpty(t, info.ShareURL)

	info, err = c.Unshare(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, docvault.VisibilityPrivate, info.Visibility)
	assert.Empty(t, info.ShareURL)
}

func TestDeleteDocument(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(t, fs)

	id := uuid.New()
	fs.descriptors[id] = docvault.Descriptor{ID: id}

	require.NoError(t, c.Delete(context.Background(), id))
	assert.Empty(t, fs.descriptors)

	err := c.Delete(context.Background(), id)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	fs := newFakeServer(t)
	c := newTestClient(t, fs)

	for range 3 {
		id := uuid.New()
		fs.descriptors[id] = docvault.Descriptor{ID: id, OwnerID: "alice"}
	}

	result, err := c.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.Len(t, result.Items, 3)
}

func TestPresignedQueryIncludesCaller(t *testing.T) {
	c, err := New(&Config{
		Endpoint:  "http://vault.example",
		AccessKey: "AKIDEXAMPLE",
		SecretKey: "secret",
	})
	require.NoError(t, err)

	signed, err := docvault.Presign(http.MethodGet, "/documents", url.Values{}, "vault.example",
		c.authConfig, c.config.AccessKey, c.config.SecretKey, DefaultExpires, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, signed.Get("X-Amz-Signature"))
}
