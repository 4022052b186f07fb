package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultTokenTTL = 24 * time.Hour

// Claims are the JWT claims carried by an access token.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 access tokens. It is constructed
// once with the shared secret and injected where needed; there is no global
// secret cache.
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures TokenManager behavior.
type TokenOption func(*TokenManager)

// WithTokenTTL overrides the default token lifetime.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(m *TokenManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(m *TokenManager) {
		if fn != nil {
			m.now = fn
		}
	}
}

// NewTokenManager constructs a TokenManager for the given issuer and secret.
func NewTokenManager(issuer, secret string, opts ...TokenOption) (*TokenManager, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth secret is not configured")
	}
	m := &TokenManager{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		ttl:    defaultTokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Generate signs a JWT for the given user using HS256.
func (m *TokenManager) Generate(userID string) (string, time.Time, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", time.Time{}, errors.New("userID is required")
	}

	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify checks the token signature and required claims and returns the
// subject user id.
func (m *TokenManager) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}

	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return "", ErrInvalidToken
	}
	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
