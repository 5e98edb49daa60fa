package handlers

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/pkoukk/tiktoken-go"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/Davincible/gemini-code-gateway/internal/codec"
	"github.com/Davincible/gemini-code-gateway/internal/config"
	"github.com/Davincible/gemini-code-gateway/internal/middleware"
	"github.com/Davincible/gemini-code-gateway/internal/models"
	"github.com/Davincible/gemini-code-gateway/internal/schema"
)

const (
	actionGenerate = "generateContent"
	actionStream   = "streamGenerateContent"
)

// modelPathPattern matches the .../models/<id>:<action> form of the inbound
// path. The model may also arrive in the body instead.
var modelPathPattern = regexp.MustCompile(`/models/([^/:]+):(\w+)$`)

type GatewayHandler struct {
	config   *config.Manager
	resolver *models.Resolver
	logger   *slog.Logger
	client   *http.Client
}

func NewGatewayHandler(cfg *config.Manager, logger *slog.Logger) *GatewayHandler {
	return &GatewayHandler{
		config:   cfg,
		resolver: models.NewResolver(cfg.Get().Models),
		logger:   logger,
		client:   &http.Client{},
	}
}

func (h *GatewayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("Panic while handling request", "panic", rec, "path", r.URL.Path)
			h.httpError(w, http.StatusInternalServerError, "internal gateway error")
		}
	}()

	if r.Method != http.MethodPost {
		h.httpError(w, http.StatusMethodNotAllowed, "only POST is supported")
		return
	}

	credential := middleware.ExtractCredential(r)
	if credential == "" {
		// The credential middleware normally rejects these earlier.
		h.httpError(w, http.StatusUnauthorized, "missing API key or bearer token")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.httpError(w, http.StatusBadRequest, "failed to read request body: %v", err)
		return
	}

	model, action := parseModelPath(r.URL.Path)
	if model == "" {
		model = gjson.GetBytes(body, "model").String()
	}

	streaming := action == actionStream || gjson.GetBytes(body, "stream").Bool()

	canonical := h.resolver.Resolve(model)
	family := schema.FamilyFor(canonical)

	// Tool schemas are the only body content the strict upstream is picky
	// about; everything else is forwarded untouched inside the envelope.
	if tools := gjson.GetBytes(body, "tools"); tools.Exists() {
		cleaned := schema.Sanitize(tools.Value(), family)
		body, err = sjson.SetBytes(body, "tools", cleaned)
		if err != nil {
			h.httpError(w, http.StatusInternalServerError, "failed to rewrite tool schemas: %v", err)
			return
		}
	}

	payload, err := json.Marshal(codec.Wrap(canonical, body))
	if err != nil {
		h.httpError(w, http.StatusInternalServerError, "failed to build upstream envelope: %v", err)
		return
	}

	req, err := h.buildUpstreamRequest(r, credential, payload, streaming)
	if err != nil {
		h.httpError(w, http.StatusInternalServerError, "failed to create upstream request: %v", err)
		return
	}

	h.logger.Info("Proxying request",
		"model", model,
		"canonical", canonical,
		"family", family.String(),
		"stream", streaming,
		"input_tokens", h.countInputTokens(string(body)),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		h.httpError(w, http.StatusInternalServerError, "upstream request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if streaming {
		h.handleStreamingResponse(w, resp)
	} else {
		h.handleResponse(w, resp)
	}
}

// buildUpstreamRequest targets the fixed upstream action with the gateway's
// pseudo-identity headers plus the forwarded credential. The inbound request
// context rides along so a client disconnect releases the upstream
// connection promptly.
func (h *GatewayHandler) buildUpstreamRequest(r *http.Request, credential string, payload []byte, streaming bool) (*http.Request, error) {
	upstream := strings.TrimSuffix(h.config.Get().Upstream, "/")

	var url string
	if streaming {
		url = upstream + ":" + actionStream + "?alt=sse"
	} else {
		url = upstream + ":" + actionGenerate
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("User-Agent", codec.EnvelopeUserAgent)
	if streaming {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}

	return req, nil
}

func (h *GatewayHandler) handleStreamingResponse(w http.ResponseWriter, resp *http.Response) {
	bodyReader, err := h.decompressReader(resp)
	if err != nil {
		h.httpError(w, http.StatusInternalServerError, "decompression error: %v", err)
		return
	}
	if closer, ok := bodyReader.(io.Closer); ok {
		defer closer.Close()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(resp.StatusCode)

	transcoder := codec.NewTranscoder(&flushWriter{w: w})

	buf := make([]byte, 16*1024)
	for {
		n, readErr := bodyReader.Read(buf)
		if n > 0 {
			if err := transcoder.OnChunk(buf[:n]); err != nil {
				// Client is gone; stop pulling from upstream.
				h.logger.Warn("Stream write failed", "error", err)
				return
			}
		}
		if readErr != nil {
			if readErr != io.EOF {
				h.logger.Error("Stream read error", "error", readErr)
			}
			break
		}
	}

	if err := transcoder.OnEnd(); err != nil {
		h.logger.Warn("Stream flush failed", "error", err)
	}

	h.logger.Info("Completed streaming response", "status", resp.StatusCode)
}

func (h *GatewayHandler) handleResponse(w http.ResponseWriter, resp *http.Response) {
	bodyReader, err := h.decompressReader(resp)
	if err != nil {
		h.httpError(w, http.StatusInternalServerError, "decompression error: %v", err)
		return
	}
	if closer, ok := bodyReader.(io.Closer); ok {
		defer closer.Close()
	}

	respBody, err := io.ReadAll(bodyReader)
	if err != nil {
		h.httpError(w, http.StatusInternalServerError, "failed to read upstream response: %v", err)
		return
	}

	// Unparseable bodies are forwarded raw; losing an upstream error body to
	// an unwrap failure helps nobody.
	unwrapped := codec.UnwrapSingle(respBody)

	h.copyHeaders(w, resp)
	// A raw pass-through body keeps the upstream's own Content-Type.
	if gjson.ValidBytes(unwrapped) {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.StatusCode)
	w.Write(unwrapped)

	if resp.StatusCode != http.StatusOK {
		h.logger.Error("Upstream error response", "status", resp.StatusCode, "body", string(respBody))
	}
}

// parseModelPath extracts the model id and action from a
// .../models/<id>:<action> path, or returns empty strings.
func parseModelPath(path string) (model, action string) {
	m := modelPathPattern.FindStringSubmatch(path)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

func (h *GatewayHandler) countInputTokens(text string) int {
	tke, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		h.logger.Error("Failed to get tiktoken encoding", "error", err)
		return 0
	}
	return len(tke.Encode(text, nil, nil))
}

func (h *GatewayHandler) decompressReader(resp *http.Response) (io.Reader, error) {
	var bodyReader io.Reader = resp.Body

	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		gzipReader, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		bodyReader = gzipReader
	case "br":
		bodyReader = brotli.NewReader(resp.Body)
	}

	return bodyReader, nil
}

func (h *GatewayHandler) copyHeaders(w http.ResponseWriter, resp *http.Response) {
	for key, values := range resp.Header {
		// Decompression already happened, so these no longer apply.
		if key == "Content-Encoding" || key == "Content-Length" {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
}

func (h *GatewayHandler) httpError(w http.ResponseWriter, code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	h.logger.Error("HTTP Error", "code", code, "message", msg)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": msg,
			"status":  googleStatus(code),
		},
	})
}

func googleStatus(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "INVALID_ARGUMENT"
	case http.StatusUnauthorized:
		return "UNAUTHENTICATED"
	case http.StatusMethodNotAllowed:
		return "FAILED_PRECONDITION"
	default:
		return "INTERNAL"
	}
}

// flushWriter pushes every transcoded frame to the client immediately
// instead of letting net/http buffer the stream.
type flushWriter struct {
	w http.ResponseWriter
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if flusher, ok := fw.w.(http.Flusher); ok {
		flusher.Flush()
	}
	return n, err
}
