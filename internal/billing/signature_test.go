package billing

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/TESCHEL/clienthub/internal/apperr"
)

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"invoice.payment_succeeded"}`)
	secret := "whsec_test"

	header := SignPayload(payload, secret, time.Now())
	if err := VerifySignature(payload, header, secret, DefaultTolerance); err != nil {
		t.Fatalf("valid signature rejected: %v", err)
	}
}

func TestVerifySignatureRejects(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	secret := "whsec_test"
	good := SignPayload(payload, secret, time.Now())

	tests := []struct {
		name    string
		payload []byte
		header  string
	}{
		{"missing header", payload, ""},
		{"wrong secret", payload, SignPayload(payload, "whsec_other", time.Now())},
		{"tampered payload", []byte(`{"id":"evt_2"}`), good},
		{"malformed header", payload, "not-a-signature"},
		{"missing timestamp", payload, "v1=deadbeef"},
		{"missing signature", payload, "t=1700000000"},
		{"garbage timestamp", payload, "t=soon,v1=deadbeef"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(tt.payload, tt.header, secret, DefaultTolerance)
			if !errors.Is(err, apperr.ErrSignatureInvalid) {
				t.Errorf("err = %v, want ErrSignatureInvalid", err)
			}
		})
	}
}

func TestVerifySignatureTolerance(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	secret := "whsec_test"

	stale := SignPayload(payload, secret, time.Now().Add(-10*time.Minute))
	if err := VerifySignature(payload, stale, secret, DefaultTolerance); !errors.Is(err, apperr.ErrSignatureInvalid) {
		t.Errorf("stale delivery err = %v, want ErrSignatureInvalid", err)
	}

	// Zero tolerance disables the age check entirely.
	if err := VerifySignature(payload, stale, secret, 0); err != nil {
		t.Errorf("stale delivery with tolerance disabled rejected: %v", err)
	}
}

func TestVerifySignatureSecretRotation(t *testing.T) {
	payload := []byte(`{"id":"evt_1"}`)
	at := time.Now()
	oldHeader := SignPayload(payload, "whsec_old", at)
	newHeader := SignPayload(payload, "whsec_new", at)

	// During rotation the provider sends one v1 entry per active secret.
	oldSig := oldHeader[strings.Index(oldHeader, "v1=")+len("v1="):]
	combined := newHeader + ",v1=" + oldSig

	if err := VerifySignature(payload, combined, "whsec_old", DefaultTolerance); err != nil {
		t.Errorf("rotated secret rejected: %v", err)
	}
	if err := VerifySignature(payload, combined, "whsec_new", DefaultTolerance); err != nil {
		t.Errorf("current secret rejected: %v", err)
	}
}
