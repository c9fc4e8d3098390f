// Package httputil provides shared HTTP utilities for consistent response handling.
package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// ContentTypeJSON is the content type of every JSON response.
const ContentTypeJSON = "application/json"

// WriteJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteRaw writes an already encoded body. Every header is set on the
// response before the status is written; later values of a header name
// replace earlier ones.
func WriteRaw(w http.ResponseWriter, status int, headers [][2]string, body []byte) {
	h := w.Header()
	for _, kv := range headers {
		h.Set(kv[0], kv[1])
	}
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// ParseStatus converts a status code written as a string into an HTTP
// status. Surrounding whitespace is ignored. The code must be a number
// between 200 and 999; informational 1xx codes are rejected.
func ParseStatus(code string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil || n < 200 || n > 999 {
		return 0, fmt.Errorf("invalid status code %q", code)
	}
	return n, nil
}
