package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCredential(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "vendor header",
			headers: map[string]string{APIKeyHeader: "api-key-123"},
			want:    "api-key-123",
		},
		{
			name:    "bearer token",
			headers: map[string]string{AuthHeader: "Bearer tok-456"},
			want:    "tok-456",
		},
		{
			name: "vendor header wins over bearer",
			headers: map[string]string{
				APIKeyHeader: "api-key-123",
				AuthHeader:   "Bearer tok-456",
			},
			want: "api-key-123",
		},
		{
			name:    "non-bearer authorization ignored",
			headers: map[string]string{AuthHeader: "Basic dXNlcjpwYXNz"},
			want:    "",
		},
		{
			name:    "no headers",
			headers: nil,
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", nil)
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, ExtractCredential(r))
		})
	}
}

func TestCredentialMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := NewCredentialMiddleware(logger)

	var reached bool
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("rejects missing credential", func(t *testing.T) {
		reached = false
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t,
			`{"error":{"code":401,"message":"missing API key or bearer token","status":"UNAUTHENTICATED"}}`,
			rec.Body.String())
		assert.False(t, reached)
	})

	t.Run("passes credentialed request through", func(t *testing.T) {
		reached = false
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set(APIKeyHeader, "key")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, reached)
	})
}
