package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/ledger"
	"budgetbuddy/internal/log"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	payload    any
	headers    map[string]string
	cookies    []*http.Cookie
}

// NewJSONResponse creates a new response builder with default 200 status.
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

// JSON sets the value encoded as the response body.
func (b *JSONResponseBuilder) JSON(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

func (b *JSONResponseBuilder) Cookie(c *http.Cookie) *JSONResponseBuilder {
	b.cookies = append(b.cookies, c)
	return b
}

// Write sends the built response. A nil payload writes no body.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	for _, c := range b.cookies {
		http.SetCookie(w, c)
	}
	if b.payload == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.payload)
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a standard {"error": message} response.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnauthorizedError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// TooManyRequestsError is sent by the rate limiter.
func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later")
}

const driftMessage = "entry saved but balance not updated; run a reconcile to repair it"

// ErrorFromErr maps a service error to its HTTP response. Unexpected errors
// are logged and reported without detail.
func ErrorFromErr(r *http.Request, err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, ledger.ErrLedgerDrift):
		fields := log.NewFields()
		fields[log.FieldUserID] = auth.UserID(r.Context())
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Ledger drift", err, log.ErrorTypeLedger, fields)
		return InternalServerError(driftMessage)
	case core.IsValidation(err), errors.Is(err, core.ErrEmailInUse), errors.Is(err, core.ErrMissingUser):
		return BadRequestError(err.Error())
	case errors.Is(err, core.ErrUnauthenticated),
		errors.Is(err, core.ErrInvalidPassword),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken):
		return UnauthorizedError(unauthorizedMessage(err))
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("not found")
	}
	fields := log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, "")
	log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Request failed", err, log.ErrorTypeInternal, fields)
	return InternalServerError("internal server error")
}

func unauthorizedMessage(err error) string {
	if errors.Is(err, core.ErrInvalidPassword) {
		return "invalid password"
	}
	return "authentication required"
}
