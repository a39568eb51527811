// Package auth issues and validates the signed service tokens that guard the
// administrative API.
//
// Tokens are HS256 JWTs carrying a subject (the operator or automation
// issuing the call) and a list of scopes. Administrative routes require the
// "admin" scope. Tokens are short lived and not revocable; rotate the signing
// key to invalidate every outstanding token.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ScopeAdmin grants access to feature flags and cache administration.
const ScopeAdmin = "admin"

// Token lifetimes.
const (
	// DefaultTokenTTL applies when Issue is called without a TTL.
	DefaultTokenTTL = 1 * time.Hour

	// MaxTokenTTL caps the lifetime of any issued token.
	MaxTokenTTL = 24 * time.Hour
)

// Token errors.
var (
	ErrInvalidToken      = errors.New("invalid service token")
	ErrTokenExpired      = errors.New("service token has expired")
	ErrInsufficientScope = errors.New("service token lacks required scope")
	ErrMissingSigningKey = errors.New("signing key not configured")
)

// Claims are the claims of a service token.
type Claims struct {
	jwt.RegisteredClaims

	// Scopes granted to the bearer.
	Scopes []string `json:"scp"`
}

// HasScope reports whether the claims grant scope.
func (c *Claims) HasScope(scope string) bool {
	return c != nil && slices.Contains(c.Scopes, scope)
}

// TokenConfig holds configuration for the token service.
type TokenConfig struct {
	// SigningKey is the HMAC secret (required).
	SigningKey string

	// Issuer is the issuer claim (default: "flightrisk").
	Issuer string

	// Audience is the audience claim (default: "flightrisk-admin").
	Audience string

	// Now is the clock (default: time.Now).
	Now func() time.Time
}

// TokenService issues and validates service tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	audience   string
	now        func() time.Time
}

// NewTokenService creates a new token service.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "flightrisk"
	}

	audience := cfg.Audience
	if audience == "" {
		audience = "flightrisk-admin"
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &TokenService{
		signingKey: []byte(cfg.SigningKey),
		issuer:     issuer,
		audience:   audience,
		now:        now,
	}, nil
}

// Issue creates a signed token for subject with the given scopes.
func (s *TokenService) Issue(subject string, scopes []string, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	ttl = min(ttl, MaxTokenTTL)

	now := s.now()
	expiresAt := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
		Scopes: scopes,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing service token: %w", err)
	}

	return signed, expiresAt, nil
}

// Validate parses a token and returns its claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Authorize validates a token and checks that it grants scope.
func (s *TokenService) Authorize(tokenString, scope string) (*Claims, error) {
	claims, err := s.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	if !claims.HasScope(scope) {
		return nil, fmt.Errorf("%w: %s", ErrInsufficientScope, scope)
	}
	return claims, nil
}
