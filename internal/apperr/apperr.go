// Package apperr defines the error kinds surfaced across the service's
// request boundary and their HTTP status mapping. NotFound deliberately
// covers both "does not exist" and "exists but is not visible to the
// caller", so a denied caller cannot probe for resource existence.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound: the referenced resource does not exist, or is not
	// visible to the caller.
	ErrNotFound = errors.New("not found")

	// ErrForbidden: the principal resolved but lacks membership for the
	// target tenant.
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyResponded: an approval transition was attempted from a
	// non-pending state. The original decision is preserved.
	ErrAlreadyResponded = errors.New("approval already responded to")

	// ErrSignatureInvalid: an inbound provider event failed the
	// authenticity check. The entire delivery is rejected.
	ErrSignatureInvalid = errors.New("invalid signature")

	// ErrUpstreamUnavailable: a collaborator call failed transiently.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// ValidationError carries field-level detail for inputs that fail schema
// constraints.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

// Validation builds a ValidationError for a single field.
func Validation(field, reason string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: reason}}
}

// HTTPStatus maps an error to its HTTP status code. Unrecognized errors map
// to 500.
func HTTPStatus(err error) int {
	var ve *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrAlreadyResponded):
		return http.StatusConflict
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrSignatureInvalid):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstreamUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Payload returns the JSON error body for an error.
func Payload(err error) map[string]interface{} {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return map[string]interface{}{"error": "validation failed", "fields": ve.Fields}
	}
	if HTTPStatus(err) == http.StatusInternalServerError {
		return map[string]interface{}{"error": "internal server error"}
	}
	return map[string]interface{}{"error": err.Error()}
}
