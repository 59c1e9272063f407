package security

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noosyn/product-api/internal/core/domain"
)

// minKeyBytes is the smallest HMAC-SHA256 key accepted (256 bits).
const minKeyBytes = 32

// Claims is the token payload. Role is informational only: authorization
// always uses the role currently held in storage.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTCodec signs and verifies HS256 bearer tokens.
type JWTCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// Option configures a JWTCodec.
type Option func(*JWTCodec)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *JWTCodec) { c.now = now }
}

// NewJWTCodec builds a codec from a base64 encoded secret and a token TTL.
func NewJWTCodec(secret string, ttl time.Duration, opts ...Option) (*JWTCodec, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("jwt secret is not valid base64: %w", err)
	}
	if len(key) < minKeyBytes {
		return nil, fmt.Errorf("jwt secret decodes to %d bytes, need at least %d", len(key), minKeyBytes)
	}
	if ttl <= 0 {
		return nil, errors.New("jwt ttl must be positive")
	}

	c := &JWTCodec{key: key, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Issue returns a signed token for username that expires after the configured TTL.
func (c *JWTCodec) Issue(username string, role domain.Role) (string, error) {
	now := c.now()
	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifySubject checks the signature and structure of token and returns its
// subject. Expiry is not checked here.
func (c *JWTCodec) VerifySubject(token string) (string, error) {
	claims, err := c.parse(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsValid reports whether token belongs to expectedUsername and has not expired.
// A token whose expiry equals the current instant is already invalid.
func (c *JWTCodec) IsValid(token, expectedUsername string) bool {
	claims, err := c.parse(token)
	if err != nil {
		return false
	}
	if claims.Subject != expectedUsername || claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Time.After(c.now())
}

func (c *JWTCodec) parse(token string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return c.key, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.Subject == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
