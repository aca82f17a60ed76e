package hsjwt

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClaims(t *testing.T) {
	claims, err := NewClaims(map[string]any{
		"sub":   "user-1",
		"exp":   int64(1_700_003_600),
		"score": 0.75,
		"tags":  []string{"a", "b"},
	})
	require.NoError(t, err)

	sub, ok := claims.GetString("sub")
	assert.True(t, ok)
	assert.Equal(t, "user-1", sub)
	assert.Equal(t, KindInt, claims["exp"].Kind())
	assert.Equal(t, KindFloat, claims["score"].Kind())
	assert.True(t, claims["tags"].Equal(Array(String("a"), String("b"))))

	_, err = NewClaims(map[string]any{"bad": make(chan int)})
	assert.ErrorIs(t, err, ErrUnsupportedValue)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestClaimsLookup(t *testing.T) {
	claims := Claims{"sub": String("u"), "n": Int(1)}

	v, err := claims.Lookup("sub")
	require.NoError(t, err)
	assert.True(t, v.Equal(String("u")))

	_, err = claims.Lookup("missing")
	assert.ErrorIs(t, err, ErrClaimNotFound)
	assert.Contains(t, err.Error(), "missing")

	_, ok := claims.Get("missing")
	assert.False(t, ok)

	_, ok = claims.GetString("n")
	assert.False(t, ok, "ints are not strings")
}

func TestClaimsTime(t *testing.T) {
	claims := Claims{
		"exp":  Int(1_700_000_000),
		"iat":  Float(1_700_000_000.25),
		"sub":  String("x"),
		"neg":  Int(-5),
		"null": Null(),
	}

	exp, ok := claims.Time("exp")
	require.True(t, ok)
	assert.Equal(t, time.Unix(1_700_000_000, 0).UTC(), exp)

	iat, ok := claims.Time("iat")
	require.True(t, ok)
	assert.Equal(t, time.Unix(1_700_000_000, 250_000_000).UTC(), iat)

	for _, name := range []string{"sub", "neg", "null", "missing"} {
		_, ok := claims.Time(name)
		assert.False(t, ok, name)
	}
}

func TestClaimsCloneAndEqual(t *testing.T) {
	claims := Claims{"list": Array(Int(1)), "obj": Object(map[string]Value{"k": Int(1)})}

	c := claims.Clone()
	assert.True(t, c.Equal(claims))

	c["extra"] = Null()
	assert.False(t, c.Equal(claims))
	assert.NotContains(t, claims, "extra")

	assert.Nil(t, Claims(nil).Clone())
	assert.True(t, Claims(nil).Equal(Claims{}))
}

func TestClaimsJSON(t *testing.T) {
	claims := Claims{"z": Int(1), "a": Float(1), "m": Array()}

	data, err := claims.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a":1.0,"m":[],"z":1}`, string(data))

	viaStdlib, err := json.Marshal(claims)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(viaStdlib))

	var back Claims
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Equal(claims))

	assert.Error(t, json.Unmarshal([]byte(`[1]`), &back))
	assert.Error(t, json.Unmarshal([]byte(`{"a":1,"a":1}`), &back))

	assert.Equal(t, map[string]any{"z": int64(1), "a": 1.0, "m": []any{}}, claims.Interface())
}
