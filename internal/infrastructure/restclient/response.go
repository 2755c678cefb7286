package restclient

import (
	"encoding/json"
	"strings"
)

// Decode unmarshals the response body into v
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// ErrorMessage extracts a human-readable message from an error body.
// It understands {"message": ...}, {"error": "..."} and {"error": {"message": ...}}
// and falls back to the trimmed raw body.
func (r *Response) ErrorMessage() string {
	var envelope struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(r.Body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if len(envelope.Error) > 0 {
			var s string
			if json.Unmarshal(envelope.Error, &s) == nil && s != "" {
				return s
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(envelope.Error, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
		}
	}

	text := strings.TrimSpace(string(r.Body))
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}
