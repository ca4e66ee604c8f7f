package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// HTTPError is returned for any non-2xx response. Detail carries the
// backend's `detail` field when the body had one.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e *HTTPError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// AsHTTPError unwraps err into an *HTTPError if it is one.
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

func IsHTTPError(err error) bool {
	_, ok := AsHTTPError(err)
	return ok
}

// parseDetail extracts `detail` from an error body. FastAPI validation errors
// carry a list there; anything that is not a string is returned as raw JSON.
func parseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	raw := bytes.TrimSpace(payload.Detail)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
