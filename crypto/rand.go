package crypto

import (
	"crypto/rand"
	"math/big"
)

const (
	// AlphanumericAlphabet is the set used for generated secrets.
	AlphanumericAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// RandomString generates a random string of the given length using the
// provided alphabet. It panics on failure of the system randomness source,
// which is only used at config bootstrap time.
func RandomString(length int, alphabet string) string {
	max := big.NewInt(int64(len(alphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto: system randomness source failed: " + err.Error())
		}
		b[i] = alphabet[n.Int64()]
	}
	return string(b)
}
