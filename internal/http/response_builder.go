package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finanse/internal/auth"
	"finanse/internal/core"
	applog "finanse/internal/log"
	"finanse/internal/storage"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a builder with a 200 status and no body.
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

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response. An unencodable body becomes a 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n"))
}

type errorBody struct {
	Error  string          `json:"error"`
	Errors map[string]bool `json:"errors,omitempty"`
}

// ErrorResponse creates a response carrying {"error": message}.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

// ValidationErrorResponse flags the fields that failed validation.
func ValidationErrorResponse(fields map[string]bool) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(http.StatusUnprocessableEntity).
		Body(errorBody{Error: "validation failed", Errors: fields})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func NoContent() *JSONResponseBuilder {
	return NewJSONResponse().Status(http.StatusNoContent)
}

// errorResponseFor maps service errors onto statuses. Unknown errors are
// logged and hidden behind a generic 500.
func (s *Server) errorResponseFor(r *http.Request, op string, err error) *JSONResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return ValidationErrorResponse(verr.Fields)
	case errors.Is(err, core.ErrUnauthenticated):
		return ErrorResponse(http.StatusUnauthorized, "authentication required")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return ErrorResponse(http.StatusUnauthorized, err.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("not found")
	case errors.Is(err, core.ErrDuplicateCategory),
		errors.Is(err, core.ErrCategoryInUse),
		errors.Is(err, storage.ErrEmailTaken):
		return ErrorResponse(http.StatusConflict, err.Error())
	}

	fields := applog.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "")
	applog.NewStructuredLogger(applog.FromContext(r.Context())).
		LogError(r.Context(), "Request failed", err, op, fields)
	return ErrorResponse(http.StatusInternalServerError, "internal error")
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.errorResponseFor(r, op, err).Write(w)
}
