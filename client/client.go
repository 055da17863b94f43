package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cmorandi/docvault"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultExpires is the default request signature expiry in seconds.
	DefaultExpires = 900
)

// Client performs operations against a docvault server.
type Client struct {
	config     *Config
	httpClient *http.Client
	authConfig docvault.AuthConfig
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()

	c := &Client{
		config: &Config{
			Endpoint:  strings.TrimSuffix(cfg.Endpoint, "/"),
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Region:    cfg.Region,
			Service:   cfg.Service,
		},
		httpClient: &http.Client{Timeout: DefaultTimeout},
		authConfig: docvault.AuthConfig{
			Region:  cfg.Region,
			Service: cfg.Service,
		},
		now: time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Upload uploads a local file through the two-phase flow: request a write
// handle, transfer the bytes to it, then finalize the descriptor.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) (*UploadResult, error) {
	if opts.LocalPath == "" {
		return nil, fmt.Errorf("upload: %w", ErrEmptyPath)
	}

	file, err := os.Open(opts.LocalPath) //#nosec G304 -- localPath is user-provided input
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}

	fileName := opts.FileName
	if fileName == "" {
		fileName = filepath.Base(opts.LocalPath)
	}

	contentType := opts.ContentType
	if contentType == "" {
		contentType = detectContentType(opts.LocalPath)
	}

	// Phase 1: request a write handle.
	var grant docvault.WriteGrant
	initiateBody := map[string]string{
		"file_name":    fileName,
		"content_type": contentType,
	}
	if err := c.doJSON(ctx, http.MethodPost, "/documents/uploads", nil, initiateBody, &grant); err != nil {
		return nil, fmt.Errorf("initiate upload: %w", err)
	}

	// Phase 2: transfer bytes straight to the blob store.
	putReq, err := http.NewRequestWithContext(ctx, grant.Method, grant.URL, file)
	if err != nil {
		return nil, fmt.Errorf("create transfer request: %w", err)
	}
	putReq.Header.Set("Content-Type", contentType)
	putReq.ContentLength = info.Size()

	putResp, err := c.httpClient.Do(putReq)
	if err != nil {
		return nil, fmt.Errorf("transfer bytes: %w", err)
	}
	transferBody, _ := io.ReadAll(putResp.Body)
	_ = putResp.Body.Close()
	if putResp.StatusCode != http.StatusOK && putResp.StatusCode != http.StatusCreated && putResp.StatusCode != http.StatusNoContent {
		return nil, parseServerError(putResp.StatusCode, transferBody)
	}

	// Phase 3: finalize the descriptor.
	var descriptor docvault.Descriptor
	finalizeBody := docvault.FinalizeRequest{
		StorageKey:  grant.StorageKey,
		FileName:    fileName,
		Title:       opts.Title,
		Description: opts.Description,
		ContentType: contentType,
		SizeBytes:   info.Size(),
	}
	if err := c.doJSON(ctx, http.MethodPost, "/documents", nil, finalizeBody, &descriptor); err != nil {
		return nil, fmt.Errorf("finalize upload: %w", err)
	}

	return &UploadResult{
		LocalPath:  opts.LocalPath,
		Descriptor: descriptor,
	}, nil
}

// Download requests a read handle for the document and follows it.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and
// must be closed by the caller. Otherwise, the content is written to the file
// and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.ID == uuid.Nil {
		return nil, nil, fmt.Errorf("download: %w", ErrIDRequired)
	}

	var grant docvault.ReadGrant
	path := "/documents/" + opts.ID.String() + "/download"
	if err := c.doJSON(ctx, http.MethodGet, path, nil, nil, &grant); err != nil {
		return nil, nil, fmt.Errorf("request download: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, grant.URL, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &DownloadResult{
		ID:          opts.ID,
		FileName:    grant.FileName,
		ContentType: grant.ContentType,
		Size:        resp.ContentLength,
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = grant.FileName
	}
	if localPath == "" {
		localPath = opts.ID.String()
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// Share makes the document public and returns its share link.
func (c *Client) Share(ctx context.Context, id uuid.UUID) (*docvault.ShareInfo, error) {
	return c.setVisibility(ctx, id, docvault.VisibilityPublic)
}

// Unshare makes the document private. The share link stops working but the
// token is retained and the same link works again after the next Share.
func (c *Client) Unshare(ctx context.Context, id uuid.UUID) (*docvault.ShareInfo, error) {
	return c.setVisibility(ctx, id, docvault.VisibilityPrivate)
}

func (c *Client) setVisibility(ctx context.Context, id uuid.UUID, visibility docvault.Visibility) (*docvault.ShareInfo, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("set visibility: %w", ErrIDRequired)
	}

	var info docvault.ShareInfo
	path := "/documents/" + id.String() + "/visibility"
	body := map[string]string{"visibility": string(visibility)}
	if err := c.doJSON(ctx, http.MethodPut, path, nil, body, &info); err != nil {
		return nil, fmt.Errorf("set visibility: %w", err)
	}

	return &info, nil
}

// Get fetches a single document descriptor.
func (c *Client) Get(ctx context.Context, id uuid.UUID) (*docvault.Descriptor, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("get: %w", ErrIDRequired)
	}

	var descriptor docvault.Descriptor
	if err := c.doJSON(ctx, http.MethodGet, "/documents/"+id.String(), nil, nil, &descriptor); err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}

	return &descriptor, nil
}

// UpdateDetails changes the document's title and description. Nil fields are
// left untouched.
func (c *Client) UpdateDetails(ctx context.Context, id uuid.UUID, update docvault.DetailsUpdate) (*docvault.Descriptor, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("update details: %w", ErrIDRequired)
	}

	var descriptor docvault.Descriptor
	if err := c.doJSON(ctx, http.MethodPatch, "/documents/"+id.String(), nil, update, &descriptor); err != nil {
		return nil, fmt.Errorf("update details: %w", err)
	}

	return &descriptor, nil
}

// Delete removes the document's blob and descriptor.
func (c *Client) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("delete: %w", ErrIDRequired)
	}

	return c.doJSON(ctx, http.MethodDelete, "/documents/"+id.String(), nil, nil, nil)
}

// List lists the caller's documents.
// If opts.All is true, paginates through all results.
func (c *Client) List(ctx context.Context, opts ListOptions) (*docvault.ListResult, error) {
	if opts.All {
		return c.listAll(ctx, opts)
	}
	return c.listPage(ctx, opts)
}

// listPage fetches a single page of results.
func (c *Client) listPage(ctx context.Context, opts ListOptions) (*docvault.ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}

	var result docvault.ListResult
	if err := c.doJSON(ctx, http.MethodGet, "/documents", query, nil, &result); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	return &result, nil
}

// listAll fetches all pages of results.
func (c *Client) listAll(ctx context.Context, opts ListOptions) (*docvault.ListResult, error) {
	var all []docvault.Descriptor
	cursor := opts.Cursor

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := c.listPage(ctx, ListOptions{
			Limit:  opts.Limit,
			Cursor: cursor,
		})
		if err != nil {
			return nil, err
		}

		all = append(all, page.Items...)

		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	return &docvault.ListResult{Items: all}, nil
}

// doJSON signs a request with query-string SigV4, executes it, and decodes
// the JSON response into out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint, err := url.Parse(c.config.Endpoint)
	if err != nil {
		return fmt.Errorf("parse endpoint: %w", err)
	}

	if query == nil {
		query = url.Values{}
	}

	signed, err := docvault.Presign(method, path, query, endpoint.Host, c.authConfig,
		c.config.AccessKey, c.config.SecretKey, DefaultExpires, c.now())
	if err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	var body io.Reader = http.NoBody
	if in != nil {
		data, marshalErr := json.Marshal(in)
		if marshalErr != nil {
			return fmt.Errorf("marshal body: %w", marshalErr)
		}
		body = bytes.NewReader(data)
	}

	reqURL := c.config.Endpoint + path + "?" + signed.Encode()
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseServerError(resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}

	return nil
}

// detectContentType returns MIME type based on file extension.
func detectContentType(path string) string {
	ext := filepath.Ext(path)
	if ext == "" {
		return "application/octet-stream"
	}

	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		return "application/octet-stream"
	}

	return mimeType
}
