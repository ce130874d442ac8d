package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized matches backend 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrMissingCredential is returned before any request is made when an
	// authenticated operation is called without a token.
	ErrMissingCredential = errors.New("missing credential")
)

// Error is a non-2xx response from the backend.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden)
}

// newError extracts a human readable message from a failure body. The
// backend answers either with {"message": "..."} or with plain text.
func newError(status int, body []byte) *Error {
	msg := messageFrom(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if len(msg) > 500 {
		msg = msg[:500]
	}
	return &Error{StatusCode: status, Message: msg}
}

// messageFrom returns the "message" (or "error") field of a JSON object,
// or the trimmed body when it is not one.
func messageFrom(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if payload.Message != "" {
		return payload.Message
	}
	return payload.Error
}

// StatusCode returns the backend status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
