package hsjwt

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/cybergodev/hsjwt/internal/core"
	"github.com/cybergodev/hsjwt/internal/signing"
)

// DefaultAlgorithm is used when Config.Algorithm is empty.
const DefaultAlgorithm = "HS256"

// DefaultRequiredClaims is the required-claim set used by DefaultConfig.
var DefaultRequiredClaims = []string{ClaimExpiresAt}

// Config represents the encoding and validation policy of a JWT handle.
// The secret is deliberately not part of it.
type Config struct {
	// Algorithm is the one signing algorithm the handle produces and accepts: HS256, HS384 or HS512
	Algorithm string `yaml:"algorithm" json:"algorithm"`

	// RequiredClaims must all be present in a decoded token. Empty disables the check
	RequiredClaims []string `yaml:"required_claims" json:"required_claims"`

	// Leeway absorbs clock skew in exp and nbf checks
	Leeway time.Duration `yaml:"leeway" json:"leeway"`

	// DisableExpiryCheck skips the exp comparison (presence is still enforced by RequiredClaims)
	DisableExpiryCheck bool `yaml:"disable_expiry_check" json:"disable_expiry_check"`

	// DisableNotBeforeCheck skips the nbf comparison
	DisableNotBeforeCheck bool `yaml:"disable_not_before_check" json:"disable_not_before_check"`

	// Issuer, when set, must equal the iss claim
	Issuer string `yaml:"issuer" json:"issuer"`

	// Audience, when set, must intersect the aud claim
	Audience []string `yaml:"audience" json:"audience"`

	// TTL, when positive, makes Encode add iat and exp to claims that carry no exp
	TTL time.Duration `yaml:"ttl" json:"ttl"`

	// TokenID makes Encode add a random jti to claims that carry none
	TokenID bool `yaml:"token_id" json:"token_id"`

	// MaxTokenLength bounds the size of tokens accepted by Decode
	MaxTokenLength int `yaml:"max_token_length" json:"max_token_length"`

	// Clock is the time source for validation. Defaults to time.Now
	Clock func() time.Time `yaml:"-" json:"-"`

	// Logger receives debug records for rejected tokens. Defaults to a discarding logger
	Logger *slog.Logger `yaml:"-" json:"-"`
}

// DefaultConfig returns the configuration used by New before options apply.
func DefaultConfig() Config {
	return Config{
		Algorithm:      DefaultAlgorithm,
		RequiredClaims: slices.Clone(DefaultRequiredClaims),
		MaxTokenLength: core.DefaultMaxTokenLength,
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	if c == nil {
		return ErrInvalidConfig
	}

	if _, err := signing.Lookup(c.Algorithm); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if c.Leeway < 0 {
		return fmt.Errorf("%w: leeway must not be negative", ErrInvalidConfig)
	}

	if c.TTL < 0 {
		return fmt.Errorf("%w: TTL must not be negative", ErrInvalidConfig)
	}

	if c.MaxTokenLength < 0 {
		return fmt.Errorf("%w: max token length must not be negative", ErrInvalidConfig)
	}

	for _, name := range c.RequiredClaims {
		if name == "" {
			return fmt.Errorf("%w: required claim name must not be empty", ErrInvalidConfig)
		}
	}

	for _, aud := range c.Audience {
		if aud == "" {
			return fmt.Errorf("%w: audience must not be empty", ErrInvalidConfig)
		}
	}

	return nil
}

func (c Config) withDefaults() Config {
	if c.Algorithm == "" {
		c.Algorithm = DefaultAlgorithm
	}
	if c.MaxTokenLength == 0 {
		c.MaxTokenLength = core.DefaultMaxTokenLength
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	c.RequiredClaims = slices.Clone(c.RequiredClaims)
	c.Audience = slices.Clone(c.Audience)
	return c
}

// Option adjusts a Config before a handle is built.
type Option func(*Config)

// WithRequiredClaims replaces the required-claim set. Calling it with no
// names disables the check.
func WithRequiredClaims(names ...string) Option {
	return func(c *Config) {
		c.RequiredClaims = append([]string{}, names...)
	}
}

// WithLeeway sets the clock-skew tolerance for exp and nbf.
func WithLeeway(d time.Duration) Option {
	return func(c *Config) { c.Leeway = d }
}

// WithClock sets the time source used by validation.
func WithClock(now func() time.Time) Option {
	return func(c *Config) { c.Clock = now }
}

// WithAlgorithm selects HS256, HS384 or HS512.
func WithAlgorithm(alg string) Option {
	return func(c *Config) { c.Algorithm = alg }
}

// WithIssuer requires decoded tokens to carry iss equal to issuer.
func WithIssuer(issuer string) Option {
	return func(c *Config) { c.Issuer = issuer }
}

// WithAudience requires decoded tokens to name one of audience in aud.
func WithAudience(audience ...string) Option {
	return func(c *Config) { c.Audience = append([]string{}, audience...) }
}

// WithLogger sets the logger for rejected-token records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// WithTTL makes Encode stamp iat and exp on claims without exp.
func WithTTL(d time.Duration) Option {
	return func(c *Config) { c.TTL = d }
}

// WithTokenID makes Encode stamp a random jti on claims without one.
func WithTokenID() Option {
	return func(c *Config) { c.TokenID = true }
}

// WithMaxTokenLength bounds the size of tokens accepted by Decode.
func WithMaxTokenLength(n int) Option {
	return func(c *Config) { c.MaxTokenLength = n }
}

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "HSJWT_"

type envConfig struct {
	Secret                string        `env:"SECRET,required,notEmpty"`
	Algorithm             string        `env:"ALGORITHM" envDefault:"HS256"`
	RequiredClaims        []string      `env:"REQUIRED_CLAIMS" envSeparator:","`
	Leeway                time.Duration `env:"LEEWAY" envDefault:"0s"`
	DisableExpiryCheck    bool          `env:"DISABLE_EXPIRY_CHECK"`
	DisableNotBeforeCheck bool          `env:"DISABLE_NOT_BEFORE_CHECK"`
	Issuer                string        `env:"ISSUER"`
	Audience              []string      `env:"AUDIENCE" envSeparator:","`
	TTL                   time.Duration `env:"TTL" envDefault:"0s"`
	TokenID               bool          `env:"TOKEN_ID"`
	MaxTokenLength        int           `env:"MAX_TOKEN_LENGTH"`
}

// LoadConfig reads HSJWT_* environment variables, after loading the given
// .env files if any, and returns the configuration and the secret.
//
// HSJWT_REQUIRED_CLAIMS is a comma-separated list; when the variable is set
// to an empty string no claims are required, when it is unset the default
// set applies.
func LoadConfig(envFiles ...string) (Config, []byte, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return Config{}, nil, fmt.Errorf("load env files: %w", err)
		}
	}

	var raw envConfig
	if err := env.ParseWithOptions(&raw, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	cfg := DefaultConfig()
	cfg.Algorithm = raw.Algorithm
	cfg.Leeway = raw.Leeway
	cfg.DisableExpiryCheck = raw.DisableExpiryCheck
	cfg.DisableNotBeforeCheck = raw.DisableNotBeforeCheck
	cfg.Issuer = raw.Issuer
	cfg.Audience = trimList(raw.Audience)
	cfg.TTL = raw.TTL
	cfg.TokenID = raw.TokenID
	if raw.MaxTokenLength != 0 {
		cfg.MaxTokenLength = raw.MaxTokenLength
	}
	if _, set := os.LookupEnv(EnvPrefix + "REQUIRED_CLAIMS"); set {
		cfg.RequiredClaims = trimList(raw.RequiredClaims)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, nil, err
	}
	return cfg, []byte(raw.Secret), nil
}

func trimList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
