package registrations

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// codeAlphabet omits 0/O, 1/I/L and similar lookalikes so registration
// numbers survive being read aloud or handwritten.
const (
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	codeLength   = 6
)

// NewRegistrationNumber mints a 6-character code from the restricted
// alphabet. Uniqueness is the caller's problem (retry on the unique index).
func NewRegistrationNumber() (string, error) {
	return randomCode(codeLength)
}

// NewDisplayCode mints a public-facing code PREFIX-YEAR-RANDOM6.
func NewDisplayCode(prefix string, year int) (string, error) {
	random, err := randomCode(codeLength)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%s", prefix, year, random), nil
}

func randomCode(length int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("draw random index: %w", err)
		}
		out[i] = codeAlphabet[n.Int64()]
	}
	return string(out), nil
}
