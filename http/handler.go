package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/cmorandi/docvault"
)

// Service is the broker surface the handlers depend on.
type Service interface {
	InitiateUpload(ctx context.Context, ownerID, fileName, contentType string) (docvault.WriteGrant, error)
	FinalizeUpload(ctx context.Context, ownerID string, req docvault.FinalizeRequest) (docvault.Descriptor, error)
	RequestDownload(ctx context.Context, caller docvault.Caller, ref docvault.DocumentRef) (docvault.ReadGrant, error)
	ToggleVisibility(ctx context.Context, ownerID string, id uuid.UUID, makePublic bool) (docvault.ShareInfo, error)
	UpdateDetails(ctx context.Context, ownerID string, id uuid.UUID, update docvault.DetailsUpdate) (docvault.Descriptor, error)
	DeleteDocument(ctx context.Context, ownerID string, id uuid.UUID) error
	ListDocuments(ctx context.Context, ownerID string, q docvault.ListQuery) (docvault.ListResult, error)
	GetDocument(ctx context.Context, ownerID string, id uuid.UUID) (docvault.Descriptor, error)
}

// Pinger reports backend liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

type CORSConfig struct {
	Enabled          bool
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

type HandlerConfig struct {
	Verifier RequestVerifier
	CORS     CORSConfig
	Pinger   Pinger
}

// Handler provides HTTP handlers for the document API.
type Handler struct {
	config  HandlerConfig
	service Service
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) *Handler {
	return &Handler{
		config:  *config,
		service: service,
	}
}

// Router returns an http.Handler with all routes configured. Document
// management routes require signature authentication; the shared download
// route and the health endpoint are public.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.Verifier))
		r.Post("/documents/uploads", h.handleInitiateUpload)
		r.Post("/documents", h.handleFinalizeUpload)
		r.Get("/documents", h.handleList)
		r.Get("/documents/{id}", h.handleGet)
		r.Get("/documents/{id}/download", h.handleDownload)
		r.Patch("/documents/{id}", h.handleUpdateDetails)
		r.Put("/documents/{id}/visibility", h.handleVisibility)
		r.Delete("/documents/{id}", h.handleDelete)
	})

	r.Get("/shared/{token}", h.handleSharedDownload)
	r.Get("/healthz", h.handleHealth)

	return r
}

type initiateUploadRequest struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
}

func (h *Handler) handleInitiateUpload(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	var req initiateUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	grant, err := h.service.InitiateUpload(r.Context(), caller.OwnerID, req.FileName, req.ContentType)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, grant)
}

func (h *Handler) handleFinalizeUpload(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	var req docvault.FinalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	descriptor, err := h.service.FinalizeUpload(r.Context(), caller.OwnerID, req)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, descriptor)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil {
			limit = max(1, min(1000, parsed))
		}
	}

	query := docvault.ListQuery{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	}

	result, err := h.service.ListDocuments(r.Context(), caller.OwnerID, query)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	id, ok := documentID(w, r)
	if !ok {
		return
	}

	descriptor, err := h.service.GetDocument(r.Context(), caller.OwnerID, id)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, descriptor)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	id, ok := documentID(w, r)
	if !ok {
		return
	}

	grant, err := h.service.RequestDownload(r.Context(), caller, docvault.ByID(id))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, grant)
}

type detailsUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (h *Handler) handleUpdateDetails(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	id, ok := documentID(w, r)
	if !ok {
		return
	}

	var req detailsUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	update := docvault.DetailsUpdate{
		Title:       req.Title,
		Description: req.Description,
	}

	descriptor, err := h.service.UpdateDetails(r.Context(), caller.OwnerID, id, update)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, descriptor)
}

type visibilityRequest struct {
	Visibility docvault.Visibility `json:"visibility"`
}

func (h *Handler) handleVisibility(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	id, ok := documentID(w, r)
	if !ok {
		return
	}

	var req visibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "Invalid JSON body")
		return
	}

	if !req.Visibility.IsValid() {
		WriteError(w, http.StatusBadRequest, "invalid_visibility", "Visibility must be private or public")
		return
	}

	info, err := h.service.ToggleVisibility(r.Context(), caller.OwnerID, id, req.Visibility == docvault.VisibilityPublic)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, info)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	caller := CallerFromContext(r.Context())

	id, ok := documentID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteDocument(r.Context(), caller.OwnerID, id); err != nil {
		HandleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleSharedDownload resolves a share token anonymously and redirects to
// the issued read handle. Revoked or unknown tokens both surface as 404.
func (h *Handler) handleSharedDownload(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		WriteError(w, http.StatusNotFound, "not_found", "Document not found")
		return
	}

	grant, err := h.service.RequestDownload(r.Context(), docvault.Caller{}, docvault.ByShareToken(token))
	if err != nil {
		HandleError(w, err)
		return
	}

	http.Redirect(w, r, grant.URL, http.StatusFound)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.config.Pinger != nil {
		if err := h.config.Pinger.Ping(r.Context()); err != nil {
			WriteError(w, http.StatusServiceUnavailable, "unavailable", "Metadata backend unreachable")
			return
		}
	}

	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func documentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", "Document ID must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
