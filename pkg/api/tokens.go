// Package api exposes the sync service HTTP surface: payload upload,
// calendar feeds, and run management.
package api

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// UserToken derives a stable calendar token from a username. The same
// user always lands on the same feed URL, so re-syncing replaces the
// published calendar in place.
func UserToken(username string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(username)))
	return hex.EncodeToString(sum[:])[:16]
}

// RandomToken returns a fresh token for anonymous uploads.
func RandomToken() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
