package signing

import (
	"crypto/hmac"
	"hash"
	"sync"

	"github.com/cybergodev/hsjwt/internal/security"
)

// Keyed binds a Method to one key and reuses HMAC states across calls.
// It is safe for concurrent use.
type Keyed struct {
	method Method
	pool   sync.Pool
}

// NewKeyed returns a Keyed signer for method and secret. Each pooled HMAC
// state is keyed from a short-lived copy that is wiped once hmac.New has
// absorbed it.
func NewKeyed(method Method, secret security.Secret) *Keyed {
	s := &Keyed{method: method}
	s.pool.New = func() any {
		key := secret.Bytes()
		defer security.ZeroBytes(key)
		return hmac.New(method.Hash().New, key)
	}
	return s
}

// Method returns the bound signing method.
func (s *Keyed) Method() Method {
	return s.method
}

// AppendSign appends the signature of input to dst.
func (s *Keyed) AppendSign(dst, input []byte) []byte {
	mac := s.pool.Get().(hash.Hash)
	mac.Reset()
	mac.Write(input)
	dst = mac.Sum(dst)
	s.pool.Put(mac)
	return dst
}

// Verify checks signature against input in constant time.
func (s *Keyed) Verify(input, signature []byte) error {
	if len(signature) != s.method.Size() {
		return ErrSignatureMismatch
	}

	var buf [64]byte
	expected := s.AppendSign(buf[:0], input)
	if !hmac.Equal(signature, expected) {
		return ErrSignatureMismatch
	}
	return nil
}
