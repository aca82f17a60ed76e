package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cybergodev/hsjwt"
)

// DefaultTTL is how long a token without exp stays revoked.
const DefaultTTL = 24 * time.Hour

// Guard decodes tokens with JWT and rejects those whose jti is in Store.
// Tokens without a jti cannot be revoked and pass the deny-list check.
type Guard struct {
	JWT   *hsjwt.JWT
	Store Store

	// DefaultTTL replaces the exp of tokens that carry none. Zero means DefaultTTL.
	DefaultTTL time.Duration

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// NewGuard returns a Guard over j and store.
func NewGuard(j *hsjwt.JWT, store Store) *Guard {
	return &Guard{JWT: j, Store: store}
}

// Decode verifies token and then checks its jti against the store. A
// revoked token fails with a *hsjwt.DecodeError whose reason is
// ErrTokenRevoked.
func (g *Guard) Decode(ctx context.Context, token string) (hsjwt.Claims, error) {
	claims, err := g.JWT.Decode(token)
	if err != nil {
		return nil, err
	}

	id, ok := claims.GetString(hsjwt.ClaimID)
	if !ok || id == "" {
		return claims, nil
	}

	revoked, err := g.Store.Contains(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return nil, &hsjwt.DecodeError{Reason: ErrTokenRevoked, Claim: hsjwt.ClaimID}
	}
	return claims, nil
}

// Revoke verifies token and puts its jti on the deny-list until the token
// expires. Revoking an already expired token is a no-op.
func (g *Guard) Revoke(ctx context.Context, token string) error {
	claims, err := g.JWT.Decode(token)
	if errors.Is(err, hsjwt.ErrTokenExpired) {
		return nil
	}
	if err != nil {
		return err
	}

	id, ok := claims.GetString(hsjwt.ClaimID)
	if !ok || id == "" {
		return ErrMissingTokenID
	}

	expiresAt, ok := claims.Time(hsjwt.ClaimExpiresAt)
	if !ok {
		ttl := g.DefaultTTL
		if ttl <= 0 {
			ttl = DefaultTTL
		}
		expiresAt = g.now().Add(ttl)
	}
	return g.Store.Add(ctx, id, expiresAt)
}

// RevokeID puts id on the deny-list until expiresAt without a token at hand.
func (g *Guard) RevokeID(ctx context.Context, id string, expiresAt time.Time) error {
	return g.Store.Add(ctx, id, expiresAt)
}

func (g *Guard) now() time.Time {
	if g.Clock != nil {
		return g.Clock()
	}
	return time.Now()
}
