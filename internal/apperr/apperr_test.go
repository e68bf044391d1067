package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("client: %w", ErrNotFound), http.StatusNotFound},
		{"forbidden", ErrForbidden, http.StatusForbidden},
		{"already responded", ErrAlreadyResponded, http.StatusConflict},
		{"validation", Validation("title", "is required"), http.StatusBadRequest},
		{"signature invalid", ErrSignatureInvalid, http.StatusBadRequest},
		{"upstream unavailable", ErrUpstreamUnavailable, http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestPayloadValidationFields(t *testing.T) {
	err := Validation("email", "must be a valid email address")
	payload := Payload(err)

	fields, ok := payload["fields"].(map[string]string)
	if !ok {
		t.Fatalf("expected fields map in payload, got %v", payload)
	}
	if fields["email"] != "must be a valid email address" {
		t.Errorf("unexpected field detail: %v", fields)
	}
}

func TestPayloadHidesInternalDetail(t *testing.T) {
	payload := Payload(errors.New("pq: connection refused"))
	if payload["error"] != "internal server error" {
		t.Errorf("internal errors must not leak detail, got %v", payload)
	}
}
