package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Code returns a zero-padded numeric verification code of n digits.
func Code(n int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < n; i++ {
		max.Mul(max, big.NewInt(10))
	}

	v, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%0*d", n, v), nil
}
