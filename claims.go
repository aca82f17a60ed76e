package hsjwt

import (
	"fmt"
	"time"
)

// Registered claim names.
const (
	ClaimIssuer    = "iss"
	ClaimSubject   = "sub"
	ClaimAudience  = "aud"
	ClaimExpiresAt = "exp"
	ClaimNotBefore = "nbf"
	ClaimIssuedAt  = "iat"
	ClaimID        = "jti"
)

// Claims is the payload of a token: a JSON object keyed by claim name.
type Claims map[string]Value

// NewClaims converts a map of plain Go values into Claims.
func NewClaims(m map[string]any) (Claims, error) {
	c := make(Claims, len(m))
	for k, x := range m {
		v, err := ValueOf(x)
		if err != nil {
			return nil, fmt.Errorf("claim %q: %w", k, err)
		}
		c[k] = v
	}
	return c, nil
}

// Get returns the claim called name.
func (c Claims) Get(name string) (Value, bool) {
	v, ok := c[name]
	return v, ok
}

// Lookup is Get with an error naming the missing claim.
func (c Claims) Lookup(name string) (Value, error) {
	v, ok := c[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrClaimNotFound, name)
	}
	return v, nil
}

func (c Claims) has(name string) bool {
	_, ok := c[name]
	return ok
}

// GetString returns the claim called name when it holds a string.
func (c Claims) GetString(name string) (string, bool) {
	return c[name].AsString()
}

// Time returns a numeric date claim such as exp, nbf or iat.
func (c Claims) Time(name string) (time.Time, bool) {
	v, ok := c[name]
	if !ok {
		return time.Time{}, false
	}
	t, err := NumericDate(v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Clone returns a deep copy of c.
func (c Claims) Clone() Claims {
	if c == nil {
		return nil
	}
	return Claims(cloneObject(c))
}

// Equal reports whether c and other hold the same claims with the same kinds.
func (c Claims) Equal(other Claims) bool {
	return objectsEqual(c, other)
}

// Interface converts c into a map of plain Go values.
func (c Claims) Interface() map[string]any {
	return Object(c).Interface().(map[string]any)
}

// MarshalJSON implements json.Marshaler. Keys are written in sorted order.
func (c Claims) MarshalJSON() ([]byte, error) {
	stream := jsonAPI.BorrowStream(nil)
	defer jsonAPI.ReturnStream(stream)

	if err := writeObject(stream, c, 0); err != nil {
		return nil, err
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Claims) UnmarshalJSON(data []byte) error {
	parsed, err := ParseClaims(data)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
