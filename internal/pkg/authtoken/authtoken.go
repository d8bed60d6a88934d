package authtoken

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/boxbinhq/boxbin/internal/pkg/env"
)

const (
	// Issuer is the JWT issuer for BoxBin session tokens.
	Issuer = "boxbin"
	// Audience is the JWT audience for BoxBin session tokens.
	Audience = "boxbin-session"
	// DefaultTTL is the lifetime of a minted session token.
	DefaultTTL = time.Hour
)

var (
	ErrSecretMissing = errors.New("session token secret is not configured")
	ErrTokenInvalid  = errors.New("session token is invalid")
)

// Claims are the session token claims. The subject is the BoxBin user id.
type Claims struct {
	Provider string `json:"provider,omitempty"`
	jwt.RegisteredClaims
}

// Minter signs and verifies session tokens with a shared HMAC secret.
type Minter struct {
	secret []byte
	ttl    time.Duration
}

// NewMinter creates a minter from an explicit secret.
func NewMinter(secret string, ttl time.Duration) (*Minter, error) {
	s := strings.TrimSpace(secret)
	if s == "" {
		return nil, ErrSecretMissing
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Minter{secret: []byte(s), ttl: ttl}, nil
}

// NewMinterFromEnv reads SESSION_TOKEN_SECRET.
func NewMinterFromEnv() (*Minter, error) {
	return NewMinter(env.GetEnv("SESSION_TOKEN_SECRET", ""), DefaultTTL)
}

// Mint signs a fresh session token for a subject.
func (m *Minter) Mint(subject, provider string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", errors.New("token subject is required")
	}

	now := time.Now().UTC()
	claims := Claims{
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{Audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a session token.
func (m *Minter) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenInvalid
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(t *jwt.Token) (any, error) {
			if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
			}
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
	)
	if err != nil {
		return nil, err
	}
	if !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
