// Package pincode generates keypad access codes in the vendor's format.
package pincode

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const (
	// codes are drawn from [100000, 999999]: always exactly 6 digits,
	// never a leading zero.
	min  = 100000
	span = 900000
)

// Generate returns a uniformly distributed 6-digit code.
// crypto/rand's Int is used because it guarantees uniform coverage of the
// range; cryptographic strength is not required for these short-lived codes.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(span))
	if err != nil {
		return "", fmt.Errorf("reading random source: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+min), nil
}
