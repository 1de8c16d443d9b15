package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stellarlink/stellar/internal/domain"
)

// TokenManager embeds session state in an HMAC-signed token instead of
// the store. Revocation semantics change: Destroy cannot invalidate an
// issued token, logout only clears the cookie and the token dies at exp.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type tokenClaims struct {
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// NewTokenManager creates a stateless manager signing with secret.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// SetClock overrides the time source. Test hook only.
func (m *TokenManager) SetClock(now func() time.Time) { m.now = now }

func (m *TokenManager) Create(ctx context.Context, profile domain.Profile) (string, error) {
	now := m.now()
	claims := tokenClaims{
		Name:    profile.Name,
		Picture: profile.Picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks the signature and expiry and returns the embedded
// profile, or nil on any failure.
func (m *TokenManager) Verify(token string) *domain.Profile {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return m.secret, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || claims.Subject == "" {
		return nil
	}

	return &domain.Profile{Email: claims.Subject, Name: claims.Name, Picture: claims.Picture}
}

func (m *TokenManager) Authenticate(ctx context.Context, r *http.Request) *domain.Profile {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	return m.Verify(c.Value)
}

// Destroy is a no-op: the token stays valid until exp, the caller just
// clears the cookie.
func (m *TokenManager) Destroy(ctx context.Context, value string) error { return nil }
