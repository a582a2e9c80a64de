package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

// GenerateTicketCode returns a human-readable serial like "TKT-3F9A0C21D4E7"
// with n random bytes of entropy.
func GenerateTicketCode(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return fmt.Sprintf("TKT-%s", strings.ToUpper(hex.EncodeToString(byt))), nil
}

// GenerateReference returns an uppercase hex reference of n random bytes,
// used for payment session ids.
func GenerateReference(n int) (string, error) {
	byt := make([]byte, n)
	if _, err := rand.Read(byt); err != nil {
		return "", err
	}

	return strings.ToUpper(hex.EncodeToString(byt)), nil
}
