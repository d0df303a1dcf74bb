package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"math/big"
)

// GenerateNumericCode returns a cryptographically random numeric code of
// the given number of digits, zero-padded (e.g. "042913"). Used for
// out-of-band email OTP codes.
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 {
		return "", fmt.Errorf("code digits must be positive, got %d", digits)
	}

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(digits)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("failed to generate random code: %w", err)
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}

// FingerprintCode returns a deterministic SHA-256 fingerprint of a code or
// token. Challenges store fingerprints instead of the original value so a
// database read never exposes a live code.
//
// The fingerprint is returned as a base64url-encoded string (43 chars).
func FingerprintCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
