package converter

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the HMAC of the raw callback body.
const SignatureHeader = "X-Convert-Signature"

// Sign computes the hex HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the header value against the raw body. The
// "sha256=" prefix is optional on the wire. Comparison is constant time.
func VerifySignature(payload []byte, header, secret string) bool {
	if header == "" || secret == "" {
		return false
	}
	got := "sha256=" + strings.TrimPrefix(header, "sha256=")
	return hmac.Equal([]byte(got), []byte(Sign(payload, secret)))
}
