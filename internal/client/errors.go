package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Error is returned for every non-2xx response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return e.Message
}

// errorBody covers the two error shapes backends commonly send.
type errorBody struct {
	Detail  json.RawMessage `json:"detail"`
	Message json.RawMessage `json:"message"`
}

func newError(status int, contentType string, body []byte) *Error {
	return &Error{StatusCode: status, Message: errorMessage(status, contentType, body)}
}

// errorMessage picks, in order: JSON detail, JSON message, raw text, a fallback naming the status.
func errorMessage(status int, contentType string, body []byte) string {
	fallback := fmt.Sprintf("Request failed with status %d", status)

	if isJSON(contentType) {
		var eb errorBody
		if err := json.Unmarshal(body, &eb); err == nil {
			if msg := fieldText(eb.Detail); msg != "" {
				return msg
			}
			if msg := fieldText(eb.Message); msg != "" {
				return msg
			}
			return fallback
		}
		if json.Valid(body) {
			return fallback
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fallback
}

// fieldText renders a JSON value as message text. Strings are used as-is;
// structured values (e.g. a list of validation problems) are compacted.
func fieldText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
