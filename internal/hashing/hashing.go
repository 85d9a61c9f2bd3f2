package hashing

import (
	"crypto/sha512"
	"encoding/hex"
)

// Calculate returns the hex encoded sha512 of data, the digest sawtooth uses
// for payloads and state addresses.
func Calculate(data []byte) string {
	h := sha512.Sum512(data)
	return hex.EncodeToString(h[:])
}

func CalculateSHA512(s string) string {
	return Calculate([]byte(s))
}
