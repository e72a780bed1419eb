package registry

import (
	"crypto/rand"
	"fmt"
)

const (
	tokenLength   = 6
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// maxTokenAttempts bounds collision regeneration; with 36^6 possible tokens
// a batch of 10k rows never comes close.
const maxTokenAttempts = 100

// randomToken generates one fixed-length alphanumeric token.
func randomToken() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}

// uniqueToken returns a token not already present in used, and records it.
func uniqueToken(used map[string]struct{}) (string, error) {
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		if _, ok := used[token]; ok {
			continue
		}
		used[token] = struct{}{}
		return token, nil
	}
	return "", fmt.Errorf("could not find unused token after %d attempts", maxTokenAttempts)
}
