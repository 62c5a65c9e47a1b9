package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors, matched with errors.Is
var (
	// ErrNotFound indicates the backend does not serve the endpoint
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates a missing or rejected API token
	ErrUnauthorized = errors.New("unauthorized")

	// ErrServerError indicates a 5xx answer
	ErrServerError = errors.New("server error")

	// ErrTimeout indicates the request did not complete in time
	ErrTimeout = errors.New("request timed out")

	// ErrUnreachable indicates a transport failure: refused, reset or DNS
	ErrUnreachable = errors.New("backend unreachable")

	// ErrOffline indicates the client has no connectivity, so nothing was sent
	ErrOffline = errors.New("client is offline")

	// ErrMalformedResponse indicates a body that is not the expected JSON shape
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError is a non-200 answer from the fleet backend
type APIError struct {
	StatusCode int
	Status     string
	Endpoint   string
	Message    string // from the body's "error" or "message" field
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error %d (%s): %s", e.StatusCode, e.Endpoint, e.Message)
	}
	return fmt.Sprintf("API error %d: %s (endpoint: %s)", e.StatusCode, e.Status, e.Endpoint)
}

// Is maps status codes onto the sentinel errors
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrServerError:
		return e.StatusCode >= 500
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrTimeout:
		return e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusGatewayTimeout
	}
	return false
}

// NewAPIError creates an APIError without a backend message
func NewAPIError(statusCode int, status, endpoint string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Status:     status,
		Endpoint:   endpoint,
	}
}

// errorBody is the JSON error envelope; the backend uses either key
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// parseAPIError builds an APIError, taking the message from body when it is
// a JSON error envelope
func parseAPIError(resp *http.Response, endpoint string, body []byte) *APIError {
	apiErr := NewAPIError(resp.StatusCode, resp.Status, endpoint)
	var eb errorBody
	if json.Unmarshal(body, &eb) == nil {
		apiErr.Message = strings.TrimSpace(eb.Error)
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(eb.Message)
		}
	}
	return apiErr
}

// Retryable reports whether repeating the fetch later can succeed without
// operator action
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrOffline),
		errors.Is(err, ErrUnreachable),
		errors.Is(err, ErrTimeout),
		errors.Is(err, ErrServerError):
		return true
	}
	return false
}

// Describe returns a one-line operator-facing message for a fetch error
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOffline):
		return "No connection. Data will reload when the network returns."
	case errors.Is(err, ErrUnreachable):
		return "Fleet backend unreachable. Retrying on the next refresh."
	case errors.Is(err, ErrTimeout):
		return "Fleet backend did not answer in time."
	case errors.Is(err, ErrUnauthorized):
		return "Fleet backend rejected the API token."
	case errors.Is(err, ErrMalformedResponse):
		return "Fleet backend sent data in an unexpected format."
	}
	return err.Error()
}

// ValidationError is a rejected user supplied parameter
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

func ErrMissingField(field string) error {
	return NewValidationError(field, "field is required")
}

func ErrInvalidFormat(field, expected string) error {
	return NewValidationError(field, fmt.Sprintf("invalid format, expected %s", expected))
}

func ErrInvalidValue(field string, value interface{}) error {
	return NewValidationError(field, fmt.Sprintf("invalid value: %v", value))
}
