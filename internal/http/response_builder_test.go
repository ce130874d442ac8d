package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"nutrihelper/internal/api"
	"nutrihelper/internal/services"
	"nutrihelper/internal/session"
)

func TestJSONResponseBuilder(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Body(messageJSON{Message: "ok"}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want 201", w.Code)
	}
	if w.Header().Get("X-Test") != "1" {
		t.Error("custom header not set")
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	var got messageJSON
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil || got.Message != "ok" {
		t.Errorf("body = %s (%v)", w.Body.String(), err)
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Errorf("got %d with %q", w.Code, w.Body.String())
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", fmt.Errorf("%w: portion", services.ErrInvalidInput), http.StatusUnprocessableEntity},
		{"missing session", session.ErrNotFound, http.StatusUnauthorized},
		{"backend 401", fmt.Errorf("list: %w", &api.Error{StatusCode: 401, Message: "expired"}), http.StatusUnauthorized},
		{"backend 403", &api.Error{StatusCode: 403, Message: "no"}, http.StatusUnauthorized},
		{"backend rejects input", &api.Error{StatusCode: 400, Message: "email taken"}, http.StatusUnprocessableEntity},
		{"backend failure", &api.Error{StatusCode: 500, Message: "boom"}, http.StatusBadGateway},
		{"search disabled", services.ErrSearchDisabled, http.StatusServiceUnavailable},
		{"timeout", fmt.Errorf("call: %w", context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"unknown", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := errorStatus(tt.err)
			if got != tt.want {
				t.Errorf("errorStatus() = %d, want %d", got, tt.want)
			}
			if msg == "" {
				t.Error("message should not be empty")
			}
		})
	}
}

func TestErrorStatus_HidesBackendDetail(t *testing.T) {
	_, msg := errorStatus(&api.Error{StatusCode: 502, Message: "db password wrong"})
	if msg != "nutrition backend error" {
		t.Errorf("backend detail leaked: %q", msg)
	}
	_, msg = errorStatus(&api.Error{StatusCode: 409, Message: "email already registered"})
	if msg != "email already registered" {
		t.Errorf("rejected input should carry the backend message, got %q", msg)
	}
}
