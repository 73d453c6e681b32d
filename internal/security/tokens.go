package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
)

// upperTokenCharset is the alphabet for human-readable reference tokens.
const upperTokenCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomUpperToken returns an uppercase alphanumeric token of the given length.
// Used as the random suffix of transaction, receipt and refund references.
func RandomUpperToken(length int) string {
	if length <= 0 {
		return ""
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	out := make([]byte, length)
	for i, b := range raw {
		out[i] = upperTokenCharset[int(b)%len(upperTokenCharset)]
	}
	return string(out)
}

// FingerprintToken returns a stable hex fingerprint for a bearer token.
// The revocation store keys on fingerprints so raw JWTs are never persisted.
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
