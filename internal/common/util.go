package common

import (
	"crypto/rand"
	"encoding/hex"
)

// RandBytes returns size cryptographically random bytes.
func RandBytes(size int) ([]byte, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return b, nil
}

// RandHexString encodes size random bytes as hex, so the result is twice
// size characters long.
func RandHexString(size int) (string, error) {
	b, err := RandBytes(size)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
