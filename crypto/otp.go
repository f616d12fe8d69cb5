package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

const (
	otpMin = 100000
	otpMax = 999999
)

// GenerateOtp returns a six digit one time code drawn uniformly from
// [100000, 999999] using crypto/rand. Rejection sampling keeps the
// distribution uniform; math/rand style modulo bias would skew low codes.
func GenerateOtp() (string, error) {
	const span = otpMax - otpMin + 1 // 900000
	// Largest multiple of span below 2^32, everything at or above is rejected.
	const limit = (1 << 32) / span * span

	var buf [4]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		n := binary.BigEndian.Uint32(buf[:])
		if n >= limit {
			continue
		}
		return fmt.Sprintf("%06d", otpMin+n%span), nil
	}
}
