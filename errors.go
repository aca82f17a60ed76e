package hsjwt

import (
	"errors"
	"strings"
)

// Decode failure reasons. Every error returned by Decode is a *DecodeError
// whose Reason is one of these, so errors.Is(err, ErrTokenExpired) works.
var (
	ErrMalformedToken    = errors.New("malformed token")
	ErrAlgorithmMismatch = errors.New("algorithm mismatch")
	ErrSignatureInvalid  = errors.New("signature mismatch")
	ErrClaimMissing      = errors.New("required claim missing")
	ErrInvalidClaim      = errors.New("invalid claim")
	ErrTokenExpired      = errors.New("token has expired")
	ErrTokenNotYetValid  = errors.New("token is not yet valid")
	ErrInvalidIssuer     = errors.New("invalid issuer")
	ErrInvalidAudience   = errors.New("invalid audience")
)

var (
	// Construction errors
	ErrInvalidSecret = errors.New("invalid secret: must not be empty")
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrMalformedJSON is wrapped by ParseClaims and ParseValue failures.
	ErrMalformedJSON = errors.New("malformed JSON")

	// ErrUnsupportedValue is wrapped by EncodeError for values JSON cannot carry.
	ErrUnsupportedValue = errors.New("unsupported value")

	// ErrClaimNotFound is returned by Claims.Lookup.
	ErrClaimNotFound = errors.New("claim not found")
)

// DecodeError is the single error kind returned by Decode.
type DecodeError struct {
	Reason error  // One of the Err* decode reasons
	Claim  string // Claim involved, if any
	Err    error  // Underlying cause, if any
}

func (e *DecodeError) Error() string {
	var b strings.Builder
	b.WriteString("decode: ")
	b.WriteString(e.Reason.Error())
	if e.Claim != "" {
		b.WriteString(" (")
		b.WriteString(e.Claim)
		b.WriteString(")")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *DecodeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

func decodeError(reason error, claim string, err error) *DecodeError {
	return &DecodeError{Reason: reason, Claim: claim, Err: err}
}

// EncodeError reports claims that cannot be serialized. It signals a
// programming error, not a runtime condition.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string {
	return "encode: " + e.Err.Error()
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}
