// Package database persists encrypted sync payloads keyed by token.
package database

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no payload exists for a token.
var ErrNotFound = errors.New("database: token not found")

// Record is one stored payload. Payload is an encrypted envelope; the
// plaintext inside carries the authoritative creation time for expiry.
type Record struct {
	Token     string
	Payload   []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store is the payload storage contract. Saving an existing token replaces
// its payload and resets the creation time, renewing the published link.
type Store interface {
	SavePayload(ctx context.Context, token string, payload []byte) error
	GetPayload(ctx context.Context, token string) (*Record, error)
	Close() error
}
