// Package codec implements the unpadded base64url alphabet used by every token segment.
package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrInvalidEncoding is returned for input that is not canonical unpadded base64url.
var ErrInvalidEncoding = errors.New("invalid base64url encoding")

// strict rejects non-zero trailing bits so that one byte sequence has exactly one encoding.
var strict = base64.RawURLEncoding.Strict()

// Encode returns the unpadded base64url form of src.
func Encode(src []byte) string {
	return strict.EncodeToString(src)
}

// EncodedLen returns the length of the encoding of n source bytes.
func EncodedLen(n int) int {
	return strict.EncodedLen(n)
}

// AppendEncode appends the unpadded base64url form of src to dst.
func AppendEncode(dst, src []byte) []byte {
	return strict.AppendEncode(dst, src)
}

// Decode is the exact inverse of Encode.
func Decode(s string) ([]byte, error) {
	if len(s)%4 == 1 {
		return nil, fmt.Errorf("%w: impossible length %d", ErrInvalidEncoding, len(s))
	}

	// The stdlib decoder silently skips CR and LF, so check the alphabet first.
	if i := invalidIndex(s); i >= 0 {
		return nil, fmt.Errorf("%w: illegal character at offset %d", ErrInvalidEncoding, i)
	}

	buf := make([]byte, strict.DecodedLen(len(s)))
	n, err := strict.Decode(buf, []byte(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEncoding, err)
	}
	return buf[:n], nil
}

func invalidIndex(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') ||
			(c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') ||
			c == '-' || c == '_' {
			continue
		}
		return i
	}
	return -1
}
