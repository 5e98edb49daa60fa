package handlers

import (
	"encoding/json"
	"net/http"
)

// HealthHandler answers liveness probes with the gateway identity, so a
// checker can tell this service apart from anything else answering on the
// loopback port.
type HealthHandler struct {
	version string
}

func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "gemini-code-gateway",
		"version": h.version,
	})
}
