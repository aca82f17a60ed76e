// Package revocation keeps a deny-list of token identifiers (jti) so that
// otherwise valid tokens can be withdrawn before they expire.
package revocation

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTokenRevoked is the DecodeError reason for a token whose jti is on the deny-list.
	ErrTokenRevoked = errors.New("token has been revoked")

	// ErrMissingTokenID is returned by Revoke for tokens without a jti claim.
	ErrMissingTokenID = errors.New("token has no jti claim")

	// ErrStoreClosed is returned by every Store method after Close.
	ErrStoreClosed = errors.New("revocation store is closed")

	// ErrEmptyID is returned when an empty token identifier is stored.
	ErrEmptyID = errors.New("token id must not be empty")
)

// Store holds revoked token identifiers until their tokens expire.
// Implementations are safe for concurrent use.
type Store interface {
	// Add revokes id until expiresAt. Adding an id twice keeps the later expiry.
	Add(ctx context.Context, id string, expiresAt time.Time) error

	// Contains reports whether id is revoked and not yet expired.
	Contains(ctx context.Context, id string) (bool, error)

	// Remove takes id off the deny-list.
	Remove(ctx context.Context, id string) error

	// Close releases resources. Further calls fail with ErrStoreClosed.
	Close() error
}
