package hsjwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAt(t *testing.T, now time.Time, claims Claims, opts ...Option) (Claims, error) {
	t.Helper()
	signer := newTestJWT(t, opts...)
	token := mustEncode(t, signer, claims)

	verifier, err := New(testSecret, append(opts, WithClock(fixedClock(now)))...)
	require.NoError(t, err)
	return verifier.Decode(token)
}

func TestRequiredClaims(t *testing.T) {
	t.Run("exp required by default", func(t *testing.T) {
		_, err := decodeAt(t, testNow, Claims{"sub": String("u")})
		derr := requireReason(t, err, ErrClaimMissing)
		assert.Equal(t, "exp", derr.Claim)
	})

	t.Run("empty set accepts claims without exp", func(t *testing.T) {
		claims, err := decodeAt(t, testNow, Claims{"sub": String("u")}, WithRequiredClaims())
		require.NoError(t, err)
		assert.Len(t, claims, 1)
	})

	t.Run("custom set", func(t *testing.T) {
		opt := WithRequiredClaims("exp", "sub", "role")
		_, err := decodeAt(t, testNow, Claims{"exp": expIn(time.Hour), "sub": String("u")}, opt)
		derr := requireReason(t, err, ErrClaimMissing)
		assert.Equal(t, "role", derr.Claim)

		_, err = decodeAt(t, testNow, Claims{"exp": expIn(time.Hour), "sub": String("u"), "role": Null()}, opt)
		assert.NoError(t, err, "null counts as present")
	})

	t.Run("missing exp is reported before other checks", func(t *testing.T) {
		_, err := decodeAt(t, testNow, Claims{"nbf": expIn(time.Hour)})
		requireReason(t, err, ErrClaimMissing)
	})
}

func TestExpiry(t *testing.T) {
	claims := Claims{"exp": expIn(10 * time.Second)}

	tests := []struct {
		name    string
		now     time.Time
		leeway  time.Duration
		wantErr error
	}{
		{"before exp", testNow, 0, nil},
		{"one second before exp", testNow.Add(9 * time.Second), 0, nil},
		{"at exp", testNow.Add(10 * time.Second), 0, ErrTokenExpired},
		{"after exp", testNow.Add(time.Hour), 0, ErrTokenExpired},
		{"within leeway", testNow.Add(12 * time.Second), 5 * time.Second, nil},
		{"at exp plus leeway", testNow.Add(15 * time.Second), 5 * time.Second, ErrTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeAt(t, tt.now, claims, WithLeeway(tt.leeway))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			derr := requireReason(t, err, tt.wantErr)
			assert.Equal(t, "exp", derr.Claim)
		})
	}

	t.Run("fractional exp", func(t *testing.T) {
		claims := Claims{"exp": NewNumericDateFloat(testNow.Add(1500 * time.Millisecond))}
		_, err := decodeAt(t, testNow.Add(time.Second), claims)
		assert.NoError(t, err)
		_, err = decodeAt(t, testNow.Add(1500*time.Millisecond), claims)
		requireReason(t, err, ErrTokenExpired)
	})

	t.Run("check disabled", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.DisableExpiryCheck = true
		cfg.Clock = fixedClock(testNow.Add(time.Hour))
		verifier, err := NewWithConfig(testSecret, cfg)
		require.NoError(t, err)

		_, err = verifier.Decode(mustEncode(t, newTestJWT(t), claims))
		assert.NoError(t, err)
	})

	t.Run("clock location does not matter", func(t *testing.T) {
		tokyo := time.FixedZone("JST", 9*60*60)
		_, err := decodeAt(t, testNow.In(tokyo), claims)
		assert.NoError(t, err)
		_, err = decodeAt(t, testNow.Add(10*time.Second).In(tokyo), claims)
		requireReason(t, err, ErrTokenExpired)
	})
}

func TestInvalidNumericClaims(t *testing.T) {
	tests := []struct {
		name  string
		claim string
		value Value
	}{
		{"exp string", "exp", String("tomorrow")},
		{"exp bool", "exp", Bool(true)},
		{"exp negative", "exp", Int(-1)},
		{"exp beyond year 9999", "exp", Int(maxNumericDate + 1)},
		{"nbf array", "nbf", Array(Int(1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := Claims{"exp": expIn(time.Hour), tt.claim: tt.value}
			_, err := decodeAt(t, testNow, claims)
			derr := requireReason(t, err, ErrInvalidClaim)
			assert.Equal(t, tt.claim, derr.Claim)
		})
	}
}

func TestNotBefore(t *testing.T) {
	claims := Claims{"exp": expIn(time.Hour), "nbf": expIn(time.Minute)}

	_, err := decodeAt(t, testNow, claims)
	derr := requireReason(t, err, ErrTokenNotYetValid)
	assert.Equal(t, "nbf", derr.Claim)

	_, err = decodeAt(t, testNow.Add(time.Minute), claims)
	assert.NoError(t, err, "valid from nbf on")

	_, err = decodeAt(t, testNow, claims, WithLeeway(time.Minute))
	assert.NoError(t, err)

	cfg := DefaultConfig()
	cfg.DisableNotBeforeCheck = true
	cfg.Clock = fixedClock(testNow)
	verifier, err := NewWithConfig(testSecret, cfg)
	require.NoError(t, err)
	_, err = verifier.Decode(mustEncode(t, newTestJWT(t), claims))
	assert.NoError(t, err)
}

func TestIssuer(t *testing.T) {
	base := Claims{"exp": expIn(time.Hour)}

	_, err := decodeAt(t, testNow, base, WithIssuer("auth"))
	derr := requireReason(t, err, ErrClaimMissing)
	assert.Equal(t, "iss", derr.Claim)

	claims := base.Clone()
	claims["iss"] = String("other")
	_, err = decodeAt(t, testNow, claims, WithIssuer("auth"))
	requireReason(t, err, ErrInvalidIssuer)

	claims["iss"] = Int(1)
	_, err = decodeAt(t, testNow, claims, WithIssuer("auth"))
	requireReason(t, err, ErrInvalidIssuer)

	claims["iss"] = String("auth")
	_, err = decodeAt(t, testNow, claims, WithIssuer("auth"))
	assert.NoError(t, err)

	_, err = decodeAt(t, testNow, claims)
	assert.NoError(t, err, "iss ignored when no issuer is configured")
}

func TestAudience(t *testing.T) {
	tests := []struct {
		name    string
		aud     *Value
		wantErr error
	}{
		{"missing", nil, ErrClaimMissing},
		{"string match", ptr(String("api")), nil},
		{"string mismatch", ptr(String("web")), ErrInvalidAudience},
		{"array match", ptr(Array(String("web"), String("api"))), nil},
		{"array mismatch", ptr(Array(String("web"))), ErrInvalidAudience},
		{"empty array", ptr(Array()), ErrInvalidAudience},
		{"number", ptr(Int(1)), ErrInvalidClaim},
		{"array with number", ptr(Array(String("api"), Int(1))), ErrInvalidClaim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims := Claims{"exp": expIn(time.Hour)}
			if tt.aud != nil {
				claims["aud"] = *tt.aud
			}
			_, err := decodeAt(t, testNow, claims, WithAudience("api", "admin"))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			derr := requireReason(t, err, tt.wantErr)
			assert.Equal(t, "aud", derr.Claim)
		})
	}
}

func ptr[T any](v T) *T { return &v }

func TestValidationOrder(t *testing.T) {
	claims := Claims{
		"exp": expIn(-time.Hour),
		"nbf": expIn(time.Hour),
		"iss": String("wrong"),
	}

	_, err := decodeAt(t, testNow, claims, WithIssuer("auth"), WithRequiredClaims("exp", "sub"))
	requireReason(t, err, ErrClaimMissing)

	_, err = decodeAt(t, testNow, claims, WithIssuer("auth"))
	requireReason(t, err, ErrTokenExpired)

	delete(claims, "exp")
	_, err = decodeAt(t, testNow, claims, WithIssuer("auth"), WithRequiredClaims())
	requireReason(t, err, ErrTokenNotYetValid)
}

func TestDecodeErrorFormat(t *testing.T) {
	err := decodeError(ErrClaimMissing, "exp", nil)
	assert.Equal(t, "decode: required claim missing (exp)", err.Error())
	assert.ErrorIs(t, err, ErrClaimMissing)

	err = decodeError(ErrMalformedToken, "", ErrMalformedJSON)
	assert.Equal(t, "decode: malformed token: malformed JSON", err.Error())
	assert.ErrorIs(t, err, ErrMalformedToken)
	assert.ErrorIs(t, err, ErrMalformedJSON)
	assert.NotErrorIs(t, err, ErrSignatureInvalid)
}
