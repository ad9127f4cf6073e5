package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"budgetbuddy/internal/core"
)

// maxBodyBytes bounds every request body.
const maxBodyBytes = 1 << 20

var errMalformedBody = errors.New("malformed request body")

// RequestBodyParser reads the body once and exposes its fields as strings.
// Bodies may be JSON objects or form-encoded.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
		if p.err == nil && len(p.body) > maxBodyBytes {
			p.err = fmt.Errorf("%w: body exceeds %d bytes", errMalformedBody, maxBodyBytes)
		}
	}
	return p
}

// Parse decodes the body as JSON when it looks like an object, as form data otherwise.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		return p.err
	}
	if trimmed[0] == '[' {
		p.err = fmt.Errorf("%w: expected an object", errMalformedBody)
		return p.err
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, p.err)
	}
	return p.err
}

// Get returns the sanitized string value of key.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was present in the body.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		_, ok := p.jsonData[key]
		return ok
	}
	return p.formData != nil && p.formData.Has(key)
}

// GetRaw returns the raw, unsanitized value. Passwords use it.
func (p *RequestBodyParser) GetRaw(key string) string {
	if p.jsonData != nil {
		return stringValue(p.jsonData[key])
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// Bool parses key as a boolean; absent or invalid values yield def.
func (p *RequestBodyParser) Bool(key string, def bool) bool {
	if b, err := strconv.ParseBool(p.Get(key)); err == nil {
		return b
	}
	return def
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseMonthParam reads ?month=YYYY-MM. An absent value yields year 0,
// which the services treat as the current month.
func ParseMonthParam(query url.Values) (int, time.Month, error) {
	v := strings.TrimSpace(query.Get("month"))
	if v == "" {
		return 0, 0, nil
	}
	year, month, err := core.ParseMonth(v)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: month must be YYYY-MM", core.ErrInvalidDate)
	}
	return year, month, nil
}

// ParseBoolParam reads a boolean query parameter, def when absent or invalid.
func ParseBoolParam(query url.Values, key string, def bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(query.Get(key))); err == nil {
		return b
	}
	return def
}

// parseBody parses the request body or returns the 400 response to send.
func parseBody(r *http.Request) (*RequestBodyParser, *JSONResponseBuilder) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, BadRequestError("invalid request body")
	}
	return p, nil
}
