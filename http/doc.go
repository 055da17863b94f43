// Package http provides the HTTP transport for the document access broker.
//
// The handler exposes document management routes under signature
// authentication and two public routes:
//
//	POST   /documents/uploads           issue a write handle
//	POST   /documents                   finalize an upload
//	GET    /documents                   list owned documents
//	GET    /documents/{id}              fetch a descriptor
//	GET    /documents/{id}/download     issue a read handle
//	PATCH  /documents/{id}              update title and description
//	PUT    /documents/{id}/visibility   publish or unpublish
//	DELETE /documents/{id}              delete blob and descriptor
//	GET    /shared/{token}              anonymous download via share token
//	GET    /healthz                     liveness check
//
// Authenticated routes use AWS Signature V4 (query string presign or
// Authorization header); the middleware resolves the access key to an owner
// identity and attaches it to the request context. Domain errors map onto
// HTTP status codes in HandleError: unauthorized 401, forbidden 403, not
// found 404, validation 400, conflict 409, backend unavailability 503.
//
// # Usage
//
//	verifier := docvault.NewSignatureVerifier(authCfg, resolver)
//	handler := http.NewHandler(&http.HandlerConfig{Verifier: verifier}, broker)
//	srv := &nethttp.Server{Addr: ":8080", Handler: handler.Router()}
package http
