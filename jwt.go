package hsjwt

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/cybergodev/hsjwt/internal/core"
	"github.com/cybergodev/hsjwt/internal/security"
	"github.com/cybergodev/hsjwt/internal/signing"
)

// JWT encodes and decodes tokens signed with one secret. It is immutable
// after construction and safe for concurrent use.
type JWT struct {
	cfg    Config
	secret security.Secret
	signer *signing.Keyed
	header string
	logger *slog.Logger
}

// New creates a handle for secret. Without options it signs HS256, requires
// exp and applies no leeway.
func New(secret []byte, opts ...Option) (*JWT, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return NewWithConfig(secret, cfg)
}

// NewFromString is New for a text secret.
func NewFromString(secret string, opts ...Option) (*JWT, error) {
	return New([]byte(secret), opts...)
}

// NewWithConfig creates a handle from an explicit configuration. Unlike
// DefaultConfig, a nil RequiredClaims here means no claim is required.
func NewWithConfig(secret []byte, cfg Config) (*JWT, error) {
	s := security.NewSecret(secret)
	if s.IsZero() {
		return nil, ErrInvalidSecret
	}

	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	method, err := signing.Lookup(cfg.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	header, err := core.EncodeHeader(core.Header{Alg: method.Alg(), Typ: "JWT"})
	if err != nil {
		return nil, err
	}

	return &JWT{
		cfg:    cfg,
		secret: s,
		signer: signing.NewKeyed(method, s),
		header: header,
		logger: cfg.Logger,
	}, nil
}

// Algorithm returns the name of the signing algorithm.
func (j *JWT) Algorithm() string {
	return j.signer.Method().Alg()
}

// Config returns a copy of the handle's configuration.
func (j *JWT) Config() Config {
	cfg := j.cfg
	cfg.RequiredClaims = slices.Clone(cfg.RequiredClaims)
	cfg.Audience = slices.Clone(cfg.Audience)
	return cfg
}

// String never reveals the secret.
func (j *JWT) String() string {
	return fmt.Sprintf("hsjwt.JWT{alg: %s, secret: %s}", j.Algorithm(), j.secret)
}

func (j *JWT) GoString() string {
	return j.String()
}

// Encode signs claims and returns the compact token. Claims are written with
// sorted keys, so equal claims produce equal tokens. The only failure is an
// *EncodeError for values JSON cannot represent.
func (j *JWT) Encode(claims Claims) (string, error) {
	claims = j.stamp(claims)

	stream := jsonAPI.BorrowStream(nil)
	defer jsonAPI.ReturnStream(stream)

	if err := writeObject(stream, claims, 0); err != nil {
		return "", err
	}

	input := core.Pack(j.header, stream.Buffer(), j.signer.Method().Size())
	var buf [64]byte
	sig := j.signer.AppendSign(buf[:0], input)
	return core.Seal(input, sig), nil
}

// EncodeValue converts x with ValueOf and encodes it. x must convert to an
// object, such as a map or a struct.
func (j *JWT) EncodeValue(x any) (string, error) {
	v, err := ValueOf(x)
	if err != nil {
		return "", err
	}
	obj, ok := v.AsObject()
	if !ok {
		return "", &EncodeError{Err: fmt.Errorf("%w: claims must be an object, got %s", ErrUnsupportedValue, v.Kind())}
	}
	return j.Encode(Claims(obj))
}

// stamp returns claims extended with the configured iat, exp and jti. The
// caller's map is never modified.
func (j *JWT) stamp(claims Claims) Claims {
	needExp := j.cfg.TTL > 0 && !claims.has(ClaimExpiresAt)
	needID := j.cfg.TokenID && !claims.has(ClaimID)
	if !needExp && !needID {
		return claims
	}

	out := make(Claims, len(claims)+3)
	for k, v := range claims {
		out[k] = v
	}
	if needExp {
		now := j.cfg.Clock()
		if !claims.has(ClaimIssuedAt) {
			out[ClaimIssuedAt] = NewNumericDate(now)
		}
		out[ClaimExpiresAt] = NewNumericDate(now.Add(j.cfg.TTL))
	}
	if needID {
		out[ClaimID] = String(uuid.NewString())
	}
	return out
}

// Decode verifies token and returns its claims. Every failure is a
// *DecodeError; use errors.Is with the Err* reasons to tell them apart.
func (j *JWT) Decode(token string) (Claims, error) {
	claims, _, err := j.decode(token)
	return claims, err
}

// DecodeInto verifies token like Decode and then unmarshals the payload
// into dst, which must be a pointer.
func (j *JWT) DecodeInto(token string, dst any) error {
	_, payload, err := j.decode(token)
	if err != nil {
		return err
	}
	if err := jsonAPI.Unmarshal(payload, dst); err != nil {
		return j.reject(decodeError(ErrMalformedToken, "", err))
	}
	return nil
}

func (j *JWT) decode(token string) (Claims, []byte, error) {
	parts, err := core.Unpack(token, j.cfg.MaxTokenLength)
	if err != nil {
		return nil, nil, j.reject(decodeError(ErrMalformedToken, "", err))
	}

	if alg := j.signer.Method().Alg(); parts.Header.Alg != alg {
		return nil, nil, j.reject(decodeError(ErrAlgorithmMismatch, "",
			fmt.Errorf("expected %s, got %q", alg, parts.Header.Alg)))
	}

	if err := j.signer.Verify(parts.SigningInput, parts.Signature); err != nil {
		return nil, nil, j.reject(decodeError(ErrSignatureInvalid, "", nil))
	}

	claims, err := ParseClaims(parts.Payload)
	if err != nil {
		return nil, nil, j.reject(decodeError(ErrMalformedToken, "", err))
	}

	if derr := j.validate(claims); derr != nil {
		return nil, nil, j.reject(derr)
	}
	return claims, parts.Payload, nil
}

func (j *JWT) reject(err *DecodeError) error {
	ctx := context.Background()
	if j.logger.Enabled(ctx, slog.LevelDebug) {
		// Causes can quote token bytes, so only the reason and claim name are logged.
		attrs := []slog.Attr{slog.String("reason", err.Reason.Error())}
		if err.Claim != "" {
			attrs = append(attrs, slog.String("claim", err.Claim))
		}
		j.logger.LogAttrs(ctx, slog.LevelDebug, "token rejected", attrs...)
	}
	return err
}
