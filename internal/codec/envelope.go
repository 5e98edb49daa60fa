package codec

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// The upstream endpoint refuses bare generation requests; everything has to
// arrive wrapped in this envelope, and everything it sends back is wrapped in
// {"response": ...}. Keeping both directions in this package means upstream
// format drift touches one file.
const (
	EnvelopeProject     = "gemini-code-gateway"
	EnvelopeRequestType = "agent"
	EnvelopeUserAgent   = "antigravity"
)

// Envelope is the outbound wire shape required by the upstream provider. The
// caller's body rides along unchanged under Request.
type Envelope struct {
	Project     string          `json:"project"`
	Model       string          `json:"model"`
	RequestType string          `json:"requestType"`
	UserAgent   string          `json:"userAgent"`
	RequestID   string          `json:"requestId"`
	Request     json.RawMessage `json:"request"`
}

// Wrap builds the envelope for one upstream call. The request ID is freshly
// generated per call and never reused.
func Wrap(model string, body json.RawMessage) Envelope {
	return Envelope{
		Project:     EnvelopeProject,
		Model:       model,
		RequestType: EnvelopeRequestType,
		UserAgent:   EnvelopeUserAgent,
		RequestID:   "agent-" + uuid.NewString(),
		Request:     body,
	}
}

// UnwrapSingle strips the {"response": ...} wrapper from a full upstream
// body. Payloads without the wrapper, or that are not JSON at all, come back
// verbatim; the provider occasionally emits the bare shape and the caller is
// better served by a raw body than a dropped one.
func UnwrapSingle(payload []byte) []byte {
	if !gjson.ValidBytes(payload) {
		return payload
	}
	if inner := gjson.GetBytes(payload, "response"); inner.Exists() {
		return []byte(inner.Raw)
	}
	return payload
}

// UnwrapStreamFrame applies the same unwrap rule to the JSON payload of a
// single streamed frame. Unparseable frames pass through untouched.
func UnwrapStreamFrame(jsonText string) string {
	if !gjson.Valid(jsonText) {
		return jsonText
	}
	if inner := gjson.Get(jsonText, "response"); inner.Exists() {
		return inner.Raw
	}
	return jsonText
}
