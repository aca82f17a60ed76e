package hsjwt

import (
	"fmt"
	"slices"
	"time"
)

// validate applies the claim policy to verified claims. Checks run in a
// fixed order: required claims, exp, nbf, iss, aud.
func (j *JWT) validate(claims Claims) *DecodeError {
	for _, name := range j.cfg.RequiredClaims {
		if !claims.has(name) {
			return decodeError(ErrClaimMissing, name, nil)
		}
	}

	now := j.cfg.Clock()
	leeway := j.cfg.Leeway

	if !j.cfg.DisableExpiryCheck {
		if v, ok := claims[ClaimExpiresAt]; ok {
			exp, err := NumericDate(v)
			if err != nil {
				return decodeError(ErrInvalidClaim, ClaimExpiresAt, err)
			}
			if isExpired(now, exp, leeway) {
				return decodeError(ErrTokenExpired, ClaimExpiresAt, nil)
			}
		}
	}

	if !j.cfg.DisableNotBeforeCheck {
		if v, ok := claims[ClaimNotBefore]; ok {
			nbf, err := NumericDate(v)
			if err != nil {
				return decodeError(ErrInvalidClaim, ClaimNotBefore, err)
			}
			if isPremature(now, nbf, leeway) {
				return decodeError(ErrTokenNotYetValid, ClaimNotBefore, nil)
			}
		}
	}

	if j.cfg.Issuer != "" {
		v, ok := claims[ClaimIssuer]
		if !ok {
			return decodeError(ErrClaimMissing, ClaimIssuer, nil)
		}
		if iss, _ := v.AsString(); iss != j.cfg.Issuer {
			return decodeError(ErrInvalidIssuer, ClaimIssuer, nil)
		}
	}

	if len(j.cfg.Audience) > 0 {
		v, ok := claims[ClaimAudience]
		if !ok {
			return decodeError(ErrClaimMissing, ClaimAudience, nil)
		}
		auds, err := audienceOf(v)
		if err != nil {
			return decodeError(ErrInvalidClaim, ClaimAudience, err)
		}
		if !slices.ContainsFunc(auds, func(a string) bool { return slices.Contains(j.cfg.Audience, a) }) {
			return decodeError(ErrInvalidAudience, ClaimAudience, nil)
		}
	}

	return nil
}

// isExpired reports whether a token with expiry exp is no longer valid at
// now. The expiry instant itself is already invalid.
func isExpired(now, exp time.Time, leeway time.Duration) bool {
	return !now.Before(exp.Add(leeway))
}

func isPremature(now, nbf time.Time, leeway time.Duration) bool {
	return now.Before(nbf.Add(-leeway))
}

// audienceOf reads aud, which is either a string or an array of strings.
func audienceOf(v Value) ([]string, error) {
	if s, ok := v.AsString(); ok {
		return []string{s}, nil
	}
	items, ok := v.AsArray()
	if !ok {
		return nil, fmt.Errorf("aud must be a string or an array of strings, got %s", v.Kind())
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.AsString()
		if !ok {
			return nil, fmt.Errorf("aud entries must be strings, got %s", item.Kind())
		}
		out = append(out, s)
	}
	return out, nil
}
