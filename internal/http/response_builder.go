package http

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"nutrihelper/internal/api"
	applog "nutrihelper/internal/log"
	"nutrihelper/internal/services"
	"nutrihelper/internal/session"
)

// JSONResponseBuilder provides a fluent API for JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body. A nil body writes
// only the status.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error string `json:"error"`
}

func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func UnauthorizedError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, "authentication required")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	NewJSONResponse().Status(status).Body(v).Write(w)
}

// errorStatus maps a service error to the status and message the client
// sees. Backend failures keep their detail in the logs only.
func errorStatus(err error) (int, string) {
	var apiErr *api.Error
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, session.ErrNotFound),
		errors.Is(err, api.ErrUnauthorized),
		errors.Is(err, api.ErrMissingCredential):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, services.ErrSearchDisabled):
		return http.StatusServiceUnavailable, err.Error()
	case errors.As(err, &apiErr):
		if rejectedInput(apiErr.StatusCode) {
			return http.StatusUnprocessableEntity, apiErr.Message
		}
		return http.StatusBadGateway, "nutrition backend error"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "upstream timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return http.StatusBadGateway, "nutrition backend unavailable"
	}
	return http.StatusInternalServerError, "internal error"
}

// rejectedInput reports backend statuses that mean the user's request was
// refused rather than that the backend failed.
func rejectedInput(status int) bool {
	switch status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
		return true
	}
	return false
}

// writeError logs err at a level matching its status and writes the
// mapped response.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, msg := errorStatus(err)
	logger := applog.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		applog.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, nil)
	} else {
		logger.WarnContext(r.Context(), "Request rejected",
			applog.FieldOperation, op,
			applog.FieldStatusCode, status,
			applog.FieldError, err)
	}
	ErrorResponse(status, msg).Write(w)
}
