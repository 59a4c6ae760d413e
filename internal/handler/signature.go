package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// SignatureHeader carries the HMAC of the raw request body.
const SignatureHeader = "x-hub-signature-256"

// VerifySignature reports whether header matches the HMAC-SHA256 of body
// under secret. An empty secret skips verification entirely, an explicit
// opt-out for local development. The hex digests are compared in constant
// time to avoid leaking match length through timing.
func VerifySignature(secret string, header string, body []byte) bool {
	if secret == "" {
		return true
	}

	digest, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))

	return subtle.ConstantTimeCompare([]byte(want), []byte(digest)) == 1
}
