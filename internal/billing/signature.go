package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/TESCHEL/clienthub/internal/apperr"
)

// DefaultTolerance bounds how old a signed delivery may be before it is
// rejected as a possible replay.
const DefaultTolerance = 5 * time.Minute

// VerifySignature checks a delivery's authenticity against the shared
// webhook secret. The header carries `t=<unix>,v1=<hex>` (possibly several
// v1 entries during secret rotation); the signature is HMAC-SHA256 over
// `<t>.<payload>`. Any failure rejects the whole delivery before any event
// handler runs.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration) error {
	if header == "" {
		return fmt.Errorf("missing signature header: %w", apperr.ErrSignatureInvalid)
	}

	var timestamp int64
	var signatures [][]byte
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("malformed timestamp: %w", apperr.ErrSignatureInvalid)
			}
			timestamp = ts
		case "v1":
			sig, err := hex.DecodeString(v)
			if err == nil {
				signatures = append(signatures, sig)
			}
		}
	}

	if timestamp == 0 || len(signatures) == 0 {
		return fmt.Errorf("incomplete signature header: %w", apperr.ErrSignatureInvalid)
	}

	if tolerance > 0 {
		age := time.Since(time.Unix(timestamp, 0))
		if age > tolerance || age < -tolerance {
			return fmt.Errorf("timestamp outside tolerance: %w", apperr.ErrSignatureInvalid)
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := mac.Sum(nil)

	for _, sig := range signatures {
		if hmac.Equal(expected, sig) {
			return nil
		}
	}
	return fmt.Errorf("no matching signature: %w", apperr.ErrSignatureInvalid)
}

// SignPayload produces a valid signature header for a payload. Used by tests
// and local webhook replays.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
