package http

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cmorandi/docvault"
)

// RequestVerifier authenticates a request and resolves the calling owner.
type RequestVerifier interface {
	Verify(method, path string, query url.Values, headers http.Header) (docvault.Caller, error)
}

type contextKey string

const callerContextKey contextKey = "caller"

// CallerFromContext returns the authenticated caller stored by the
// middleware, or the zero Caller when the request was not authenticated.
func CallerFromContext(ctx context.Context) docvault.Caller {
	caller, _ := ctx.Value(callerContextKey).(docvault.Caller)
	return caller
}

// ContextWithCaller stores an authenticated caller. Exposed for tests that
// invoke handlers without the middleware.
func ContextWithCaller(ctx context.Context, caller docvault.Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// AuthMiddleware enforces AWS Signature V4 authentication and attaches the
// resolved caller to the request context. Pass nil to disable authentication;
// handlers then see an unauthenticated caller and reject owner operations.
func AuthMiddleware(verifier RequestVerifier) func(http.Handler) http.Handler {
	if verifier == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Go stores Host outside Header; the canonical request needs it.
			headers := r.Header.Clone()
			headers.Set("Host", r.Host)

			caller, err := verifier.Verify(r.Method, r.URL.Path, r.URL.Query(), headers)
			if err != nil {
				HandleError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithCaller(r.Context(), caller)))
		})
	}
}
