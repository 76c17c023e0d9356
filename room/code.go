package room

import (
	"crypto/rand"
	"fmt"
)

// Entry codes are 4 characters drawn from an alphabet without the
// lookalikes 0/O, 1/I and lowercase, since people type these by hand.
const codeLetters = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const codeLength = 4

// maxCodeAttempts bounds how many fresh codes Create will try before
// giving up with ErrCodeExhausted. Uniqueness itself is enforced by the
// store's unique index on entry_code, not by this loop.
const maxCodeAttempts = 5

func newEntryCode() (string, error) {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	for i := range b {
		b[i] = codeLetters[int(b[i])%len(codeLetters)]
	}
	return string(b), nil
}
