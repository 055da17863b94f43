package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmorandi/docvault"
)

func TestHandleErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"unauthorized", docvault.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", docvault.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"not found", docvault.ErrNotFound, http.StatusNotFound, "not_found"},
		{"validation", docvault.ErrValidation, http.StatusBadRequest, "invalid_input"},
		{"conflict", docvault.ErrConflict, http.StatusConflict, "conflict"},
		{"gateway down", docvault.ErrGatewayUnavailable, http.StatusServiceUnavailable, "storage_unavailable"},
		{"repo down", docvault.ErrRepositoryUnavailable, http.StatusServiceUnavailable, "metadata_unavailable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		{"wrapped not found", fmt.Errorf("get by id: %w", docvault.ErrNotFound), http.StatusNotFound, "not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantErr, resp.Error)
		})
	}
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	err := WriteJSON(rec, http.StatusCreated, map[string]int{"count": 3})
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"count":3}`, rec.Body.String())
}
