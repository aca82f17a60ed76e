// Package core splits and joins the compact three-segment token form.
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"

	"github.com/cybergodev/hsjwt/internal/codec"
)

const (
	// Separator joins the three token segments.
	Separator = '.'

	// DefaultMaxTokenLength bounds the work done on a single token.
	DefaultMaxTokenLength = 64 << 10
)

var (
	// ErrMalformed is wrapped by every structural failure returned from Unpack.
	ErrMalformed = errors.New("malformed token")

	errEmptyToken    = fmt.Errorf("%w: empty token", ErrMalformed)
	errTokenTooLarge = fmt.Errorf("%w: token too large", ErrMalformed)
	errSegmentCount  = fmt.Errorf("%w: token must have exactly three segments", ErrMalformed)
	errEmptySegment  = fmt.Errorf("%w: empty segment", ErrMalformed)
	errMissingAlg    = fmt.Errorf("%w: header has no alg", ErrMalformed)
)

var headerAPI = jsoniter.Config{
	EscapeHTML:    false,
	CaseSensitive: true,
}.Froze()

// Header is the decoded protected header.
type Header struct {
	Alg string `json:"alg"`
	Typ string `json:"typ,omitempty"`
}

// Parts is an unpacked token. Payload has not been interpreted and must not
// be trusted before the signature over SigningInput is verified.
type Parts struct {
	SigningInput []byte
	Header       Header
	Payload      []byte
	Signature    []byte
}

// EncodeHeader serializes and encodes a header segment.
func EncodeHeader(h Header) (string, error) {
	raw, err := headerAPI.Marshal(h)
	if err != nil {
		return "", fmt.Errorf("marshal header: %w", err)
	}
	return codec.Encode(raw), nil
}

// Pack returns encodedHeader.base64url(payload) in a buffer with room for the
// signature segment of sigSize bytes.
func Pack(encodedHeader string, payload []byte, sigSize int) []byte {
	size := len(encodedHeader) + 1 + codec.EncodedLen(len(payload)) + 1 + codec.EncodedLen(sigSize)
	buf := make([]byte, 0, size)
	buf = append(buf, encodedHeader...)
	buf = append(buf, Separator)
	return codec.AppendEncode(buf, payload)
}

// Seal appends the signature segment to a buffer returned by Pack.
func Seal(signingInput, signature []byte) string {
	buf := append(signingInput, Separator)
	return string(codec.AppendEncode(buf, signature))
}

// Unpack splits token and decodes its segments. maxLen <= 0 selects
// DefaultMaxTokenLength.
func Unpack(token string, maxLen int) (*Parts, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxTokenLength
	}
	if len(token) == 0 {
		return nil, errEmptyToken
	}
	if len(token) > maxLen {
		return nil, errTokenTooLarge
	}

	first, second, ok := split3(token)
	if !ok {
		return nil, errSegmentCount
	}

	h, p, s := token[:first], token[first+1:second], token[second+1:]
	if len(h) == 0 || len(p) == 0 || len(s) == 0 {
		return nil, errEmptySegment
	}

	rawHeader, err := codec.Decode(h)
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformed, err)
	}

	parts := &Parts{SigningInput: []byte(token[:second])}
	if parts.Header, err = parseHeader(rawHeader); err != nil {
		return nil, err
	}
	if parts.Header.Alg == "" {
		return nil, errMissingAlg
	}

	if parts.Payload, err = codec.Decode(p); err != nil {
		return nil, fmt.Errorf("%w: payload: %w", ErrMalformed, err)
	}
	if parts.Signature, err = codec.Decode(s); err != nil {
		return nil, fmt.Errorf("%w: signature: %w", ErrMalformed, err)
	}

	return parts, nil
}

// parseHeader reads the header object. Field names match exactly and may
// appear once, so a header cannot smuggle a second alg past the check.
func parseHeader(raw []byte) (Header, error) {
	var h Header
	if !utf8.Valid(raw) || !json.Valid(raw) {
		return h, fmt.Errorf("%w: header: invalid JSON", ErrMalformed)
	}

	iter := headerAPI.BorrowIterator(raw)
	defer headerAPI.ReturnIterator(iter)

	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return h, fmt.Errorf("%w: header: not an object", ErrMalformed)
	}

	seen := make(map[string]struct{}, 2)
	var fieldErr error
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		if _, dup := seen[key]; dup {
			fieldErr = fmt.Errorf("%w: header: duplicate field %q", ErrMalformed, key)
			return false
		}
		seen[key] = struct{}{}

		switch key {
		case "alg":
			h.Alg, fieldErr = readHeaderString(it, key)
		case "typ":
			h.Typ, fieldErr = readHeaderString(it, key)
		default:
			it.Skip()
		}
		return fieldErr == nil
	})
	if fieldErr != nil {
		return Header{}, fieldErr
	}
	if iter.Error != nil && iter.Error != io.EOF {
		return Header{}, fmt.Errorf("%w: header: %v", ErrMalformed, iter.Error)
	}
	return h, nil
}

func readHeaderString(iter *jsoniter.Iterator, field string) (string, error) {
	if iter.WhatIsNext() != jsoniter.StringValue {
		return "", fmt.Errorf("%w: header: %s must be a string", ErrMalformed, field)
	}
	return iter.ReadString(), nil
}

// split3 returns the offsets of the two separators, failing unless there are
// exactly two.
func split3(s string) (int, int, bool) {
	first, second := -1, -1
	for i := 0; i < len(s); i++ {
		if s[i] != Separator {
			continue
		}
		switch {
		case first == -1:
			first = i
		case second == -1:
			second = i
		default:
			return 0, 0, false
		}
	}
	return first, second, second != -1
}
