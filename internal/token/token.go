// Package token mints opaque session identifiers from the OS CSPRNG.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// Token size is a policy knob, not a correctness boundary: out-of-range
// requests are clamped rather than rejected.
const (
	DefaultBytes = 32
	MinBytes     = 16
	MaxBytes     = 128
)

// Generate returns a URL-safe token built from byteLen random bytes, clamped
// into [MinBytes, MaxBytes]. The only error path is the random source itself
// failing, which is not recoverable by retrying with different input.
func Generate(byteLen int) (string, error) {
	if byteLen < MinBytes {
		byteLen = MinBytes
	}
	if byteLen > MaxBytes {
		byteLen = MaxBytes
	}

	b := make([]byte, byteLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
