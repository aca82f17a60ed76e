// Package security holds secret material and constant-time helpers.
package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"runtime"
)

const redacted = "[REDACTED]"

// Secret is an immutable copy of key material. It never prints its contents.
type Secret struct {
	data []byte
}

// NewSecret copies data into a new Secret.
func NewSecret(data []byte) Secret {
	return Secret{data: append([]byte(nil), data...)}
}

// IsZero reports whether the secret is empty.
func (s Secret) IsZero() bool {
	return len(s.data) == 0
}

// Bytes returns a copy of the secret. Callers should ZeroBytes it when done.
func (s Secret) Bytes() []byte {
	return append([]byte(nil), s.data...)
}

// Equal compares two secrets in constant time.
func (s Secret) Equal(other Secret) bool {
	return SecureCompare(s.data, other.data)
}

// Fingerprint returns a hex SHA-256 digest usable as a map key.
func (s Secret) Fingerprint() string {
	sum := sha256.Sum256(s.data)
	return hex.EncodeToString(sum[:])
}

func (s Secret) String() string   { return redacted }
func (s Secret) GoString() string { return redacted }

// Format keeps %v, %+v, %x and friends from leaking the key.
func (s Secret) Format(f fmt.State, _ rune) {
	_, _ = f.Write([]byte(redacted))
}

// SecureCompare performs constant-time comparison of two byte slices.
// Slices of different length never compare equal.
func SecureCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// ZeroBytes overwrites data with zeros.
func ZeroBytes(data []byte) {
	clear(data)
	runtime.KeepAlive(data)
}
