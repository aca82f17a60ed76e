// Package hsjwt encodes and decodes HMAC-signed JSON Web Tokens.
//
// A JWT handle is built once from a secret and reused:
//
//	j, err := hsjwt.New(secret)
//	token, err := j.Encode(hsjwt.Claims{
//		"sub": hsjwt.String("user-1"),
//		"exp": hsjwt.NewNumericDate(time.Now().Add(time.Hour)),
//	})
//	claims, err := j.Decode(token)
//
// Claims are a tree of Value, which keeps integers and floats apart across
// a round trip: an exp of 1700000000 decodes as an integer and an exp of
// 1700000000.5 decodes as a float.
//
// Every failure of Decode is a *DecodeError. Its Reason is one of
// ErrMalformedToken, ErrAlgorithmMismatch, ErrSignatureInvalid,
// ErrClaimMissing, ErrInvalidClaim, ErrTokenExpired, ErrTokenNotYetValid,
// ErrInvalidIssuer or ErrInvalidAudience, and errors.Is matches it.
//
// By default a handle signs HS256, requires exp, checks nbf when present
// and applies no leeway. Tokens are rejected once now reaches exp.
package hsjwt
