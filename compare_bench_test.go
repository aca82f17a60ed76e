package hsjwt_test

import (
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	josejwt "github.com/go-jose/go-jose/v4/jwt"
	golangjwt "github.com/golang-jwt/jwt/v5"
	katarasjwt "github.com/kataras/jwt"

	"github.com/cybergodev/hsjwt"
)

var compareKey = []byte("comparison-benchmark-secret-key!")

func compareClaims() map[string]any {
	return map[string]any{
		"sub":   "user123",
		"name":  "Test User",
		"admin": true,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
}

func BenchmarkCompareSign(b *testing.B) {
	b.Run("hsjwt", func(b *testing.B) {
		j, err := hsjwt.New(compareKey)
		if err != nil {
			b.Fatal(err)
		}
		claims, err := hsjwt.NewClaims(compareClaims())
		if err != nil {
			b.Fatal(err)
		}
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := j.Encode(claims); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("golang-jwt", func(b *testing.B) {
		claims := golangjwt.MapClaims(compareClaims())
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := golangjwt.NewWithClaims(golangjwt.SigningMethodHS256, claims).SignedString(compareKey); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("kataras-jwt", func(b *testing.B) {
		claims := compareClaims()
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := katarasjwt.Sign(katarasjwt.HS256, compareKey, claims); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("go-jose", func(b *testing.B) {
		signer := newJoseSigner(b)
		claims := compareClaims()
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := josejwt.Signed(signer).Claims(claims).Serialize(); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkCompareVerify(b *testing.B) {
	b.Run("hsjwt", func(b *testing.B) {
		j, err := hsjwt.New(compareKey)
		if err != nil {
			b.Fatal(err)
		}
		token := hsjwtToken(b, j)
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := j.Decode(token); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("golang-jwt", func(b *testing.B) {
		token, err := golangjwt.NewWithClaims(golangjwt.SigningMethodHS256, golangjwt.MapClaims(compareClaims())).SignedString(compareKey)
		if err != nil {
			b.Fatal(err)
		}
		keyFunc := func(*golangjwt.Token) (any, error) { return compareKey, nil }
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := golangjwt.Parse(token, keyFunc, golangjwt.WithValidMethods([]string{"HS256"})); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("kataras-jwt", func(b *testing.B) {
		token, err := katarasjwt.Sign(katarasjwt.HS256, compareKey, compareClaims())
		if err != nil {
			b.Fatal(err)
		}
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			verified, err := katarasjwt.Verify(katarasjwt.HS256, compareKey, token)
			if err != nil {
				b.Fatal(err)
			}
			var out map[string]any
			if err := verified.Claims(&out); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("go-jose", func(b *testing.B) {
		token, err := josejwt.Signed(newJoseSigner(b)).Claims(compareClaims()).Serialize()
		if err != nil {
			b.Fatal(err)
		}
		algs := []jose.SignatureAlgorithm{jose.HS256}
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			parsed, err := josejwt.ParseSigned(token, algs)
			if err != nil {
				b.Fatal(err)
			}
			var out map[string]any
			if err := parsed.Claims(compareKey, &out); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// TestCompareInterop checks that tokens from the other libraries decode here
// and the other way round, since they share the HS256 wire format.
func TestCompareInterop(t *testing.T) {
	j, err := hsjwt.New(compareKey)
	if err != nil {
		t.Fatal(err)
	}

	golangToken, err := golangjwt.NewWithClaims(golangjwt.SigningMethodHS256, golangjwt.MapClaims(compareClaims())).SignedString(compareKey)
	if err != nil {
		t.Fatal(err)
	}
	katarasToken, err := katarasjwt.Sign(katarasjwt.HS256, compareKey, compareClaims())
	if err != nil {
		t.Fatal(err)
	}
	joseToken, err := josejwt.Signed(newJoseSigner(t)).Claims(compareClaims()).Serialize()
	if err != nil {
		t.Fatal(err)
	}

	for name, token := range map[string]string{
		"golang-jwt":  golangToken,
		"kataras-jwt": string(katarasToken),
		"go-jose":     joseToken,
	} {
		t.Run(name, func(t *testing.T) {
			claims, err := j.Decode(token)
			if err != nil {
				t.Fatalf("decode %s token: %v", name, err)
			}
			if sub, _ := claims.GetString("sub"); sub != "user123" {
				t.Errorf("sub = %q", sub)
			}
			if claims["exp"].Kind() != hsjwt.KindInt {
				t.Errorf("exp kind = %s", claims["exp"].Kind())
			}
		})
	}

	ours := hsjwtToken(t, j)
	keyFunc := func(*golangjwt.Token) (any, error) { return compareKey, nil }
	if _, err := golangjwt.Parse(ours, keyFunc, golangjwt.WithValidMethods([]string{"HS256"})); err != nil {
		t.Errorf("golang-jwt rejected token: %v", err)
	}
	if _, err := katarasjwt.Verify(katarasjwt.HS256, compareKey, []byte(ours)); err != nil {
		t.Errorf("kataras-jwt rejected token: %v", err)
	}
	parsed, err := josejwt.ParseSigned(ours, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		t.Fatalf("go-jose parse: %v", err)
	}
	var out map[string]any
	if err := parsed.Claims(compareKey, &out); err != nil {
		t.Errorf("go-jose rejected token: %v", err)
	}
}

func hsjwtToken(tb testing.TB, j *hsjwt.JWT) string {
	tb.Helper()
	claims, err := hsjwt.NewClaims(compareClaims())
	if err != nil {
		tb.Fatal(err)
	}
	token, err := j.Encode(claims)
	if err != nil {
		tb.Fatal(err)
	}
	return token
}

func newJoseSigner(tb testing.TB) jose.Signer {
	tb.Helper()
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: compareKey},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		tb.Fatal(err)
	}
	return signer
}
