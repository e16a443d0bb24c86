package verification

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

// codeAlphabet matches the code format users are told to send: uppercase
// letters and digits only, so the inbox substring match is unambiguous.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._]{1,30}$`)

// generateCode returns a random code of the given length drawn from the
// code alphabet.
func generateCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// validUsername reports whether a claimed provider username is well-formed.
func validUsername(username string) bool {
	return usernamePattern.MatchString(username)
}
