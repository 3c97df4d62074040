package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apimiddleware "scamshield/internal/api/middleware"
	"scamshield/internal/domain/models"
	"scamshield/pkg/logger"
)

func TestMissingIdentityIsUnauthorized(t *testing.T) {
	h := NewScanHandler(nil, logger.Nop())

	tests := []struct {
		name  string
		actor *models.Actor
	}{
		{"no actor in context", nil},
		{"actor without user id", &models.Actor{Name: "ghost"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/scans/stats", nil)
			if tt.actor != nil {
				req = req.WithContext(apimiddleware.WithActor(req.Context(), *tt.actor))
			}
			rec := httptest.NewRecorder()
			h.Stats(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, "UNAUTHENTICATED", resp.Code)
		})
	}
}
