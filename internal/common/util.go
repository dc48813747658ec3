package common

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// GenerateRandByteArray returns n bytes from the system CSPRNG.
// It panics if the random source fails, which only happens on a broken host.
func GenerateRandByteArray(n int) []byte {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("crypto/rand failure: %v", err))
	}
	return b
}

// RandomDigits returns a string of n decimal digits. Every digit is drawn
// uniformly with rand.Int, so there is no modulo bias.
func RandomDigits(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	ten := big.NewInt(10)
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}

// WipeByteArray overwrites b with zeros. Nil is a no-op.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
