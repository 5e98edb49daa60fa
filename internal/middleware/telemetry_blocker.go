package middleware

import (
	"log/slog"
	"net/http"
	"strings"
)

type TelemetryBlockerMiddleware struct {
	logger *slog.Logger
}

// NewTelemetryBlockerMiddleware swallows the usage-stats uploads the Gemini
// CLI fires at its vendor when pointed at this gateway, so they neither leak
// nor error out the client.
func NewTelemetryBlockerMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	tbm := &TelemetryBlockerMiddleware{
		logger: logger,
	}

	return tbm.middleware
}

func (tbm *TelemetryBlockerMiddleware) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host := r.Host
		if host == "" {
			host = r.Header.Get("Host")
		}

		if tbm.isTelemetryRequest(host, r.URL.Path) {
			tbm.sendTelemetryResponse(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (tbm *TelemetryBlockerMiddleware) sendTelemetryResponse(w http.ResponseWriter) {
	// Mimic the collector's accept response so the client stays quiet.
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Via", "1.1 google")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"nextRequestWaitMillis":600000}`))
}

func (tbm *TelemetryBlockerMiddleware) isTelemetryRequest(host, path string) bool {
	// The Clearcut collector host, in case the client resolves it here.
	if strings.Contains(host, "play.googleapis.com") {
		return true
	}

	telemetryPaths := []string{
		"/log",
		"/v1/loadusage",
		"/telemetry",
		"/analytics",
	}

	for _, telemetryPath := range telemetryPaths {
		if strings.HasPrefix(path, telemetryPath) {
			return true
		}
	}

	return false
}
