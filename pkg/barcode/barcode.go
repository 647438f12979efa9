// Package barcode generates numeric membership card tokens. A card token
// is a 12-digit string shown to the member and scanned by partner
// establishments, so it must be unguessable and uniformly distributed.
package barcode

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// Length is the number of digits in a membership card token.
const Length = 12

// ErrGenerateFailed is returned when the system's entropy source fails.
var ErrGenerateFailed = errors.New("barcode: failed to generate token")

// Generate returns a random Length-digit numeric string. Leading zeros
// are preserved, so the full keyspace of 10^Length tokens is used.
func Generate() (string, error) {
	digits := make([]byte, Length)
	max := big.NewInt(10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Join(ErrGenerateFailed, err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
