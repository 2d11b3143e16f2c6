package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/rs/zerolog"
)

// SignatureHeader is the inbound header carrying the processor's signature.
const SignatureHeader = "X-Primer-Signature"

// Verifier decides whether a raw webhook payload should be trusted.
type Verifier struct {
	Secret   string
	Disabled bool
	Logger   zerolog.Logger
}

// ComputeSignature calculates the expected signature for a payload:
// HMAC-SHA256 over the raw body, hex encoded.
func ComputeSignature(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether the payload is trusted. With no secret configured
// (or verification disabled) it fails open and trusts everything — a
// documented local-development convenience, warned about both here and at
// startup. With a secret, the comparison is constant time and a missing or
// malformed signature fails closed.
func (v Verifier) Verify(body []byte, signature string) bool {
	if v.Disabled {
		v.Logger.Warn().Msg("webhook verification disabled, accepting unverified payload")
		return true
	}
	secret := strings.TrimSpace(v.Secret)
	if secret == "" {
		v.Logger.Warn().Msg("no webhook secret configured, accepting unverified payload")
		return true
	}
	provided := strings.TrimSpace(signature)
	if provided == "" {
		return false
	}
	expected := ComputeSignature(secret, body)
	return hmac.Equal([]byte(expected), []byte(provided))
}
