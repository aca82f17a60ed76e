// Package signing implements the HMAC-SHA2 signature algorithms accepted by the token engine.
package signing

import (
	"crypto"
	"errors"
	"fmt"

	_ "crypto/sha256"
	_ "crypto/sha512"
)

var (
	// ErrUnsupportedAlgorithm is returned by Lookup for anything outside the allow-list.
	ErrUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

	// ErrSignatureMismatch is returned when a signature does not verify.
	ErrSignatureMismatch = errors.New("signature mismatch")
)

// Method names an HMAC algorithm and its hash. Signing goes through Keyed.
type Method interface {
	Alg() string
	Size() int
	Hash() crypto.Hash
}

type hmacMethod struct {
	name string
	hash crypto.Hash
}

// Supported HMAC methods.
var (
	HS256 Method = &hmacMethod{"HS256", crypto.SHA256}
	HS384 Method = &hmacMethod{"HS384", crypto.SHA384}
	HS512 Method = &hmacMethod{"HS512", crypto.SHA512}
)

// Lookup returns the method registered under alg. The match is exact and
// case-sensitive; "none", "hs256" and every asymmetric name are rejected.
func Lookup(alg string) (Method, error) {
	switch alg {
	case "HS256":
		return HS256, nil
	case "HS384":
		return HS384, nil
	case "HS512":
		return HS512, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
}

func (m *hmacMethod) Alg() string       { return m.name }
func (m *hmacMethod) Size() int         { return m.hash.Size() }
func (m *hmacMethod) Hash() crypto.Hash { return m.hash }
