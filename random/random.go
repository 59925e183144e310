package random

import (
	crand "crypto/rand"
	"math/big"
)

const charset = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// String draws length characters from an alphanumeric charset using crypto/rand.
func String(length int) (string, error) {
	b := make([]byte, length)
	l := big.NewInt(int64(len(charset)))
	for i := range b {
		num, err := crand.Int(crand.Reader, l)
		if err != nil {
			return "", err
		}
		b[i] = charset[num.Int64()]
	}
	return string(b), nil
}

// MustString is String for process start-up paths where a broken entropy source is fatal.
func MustString(length int) string {
	s, err := String(length)
	if err != nil {
		panic(err)
	}
	return s
}
