package middleware

import (
	"log/slog"
	"net/http"
	"strings"
)

// Header forms the gateway accepts a credential in. The vendor header wins
// when both are present.
const (
	APIKeyHeader = "X-Goog-Api-Key"
	AuthHeader   = "Authorization"
)

type CredentialMiddleware struct {
	logger *slog.Logger
}

// NewCredentialMiddleware rejects requests carrying no upstream credential
// before any work happens. The gateway does not validate the token; it only
// forwards it, so presence is the whole check.
func NewCredentialMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	cm := &CredentialMiddleware{
		logger: logger,
	}

	return cm.middleware
}

func (cm *CredentialMiddleware) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ExtractCredential(r) == "" {
			cm.logger.Error("Request without credential", "remote_addr", r.RemoteAddr, "path", r.URL.Path)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":401,"message":"missing API key or bearer token","status":"UNAUTHENTICATED"}}`))

			return
		}

		next.ServeHTTP(w, r)
	})
}

// ExtractCredential returns the bearer token from either accepted header
// form, or "" when the request carries none.
func ExtractCredential(r *http.Request) string {
	if key := r.Header.Get(APIKeyHeader); key != "" {
		return key
	}

	if auth := r.Header.Get(AuthHeader); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	return ""
}
