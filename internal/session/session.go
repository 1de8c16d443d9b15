package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/stellarlink/stellar/internal/domain"
)

// Manager is the sole arbiter of "who is making this request".
// Authenticate never returns an error: every parse or store failure
// degrades to nil, which the router maps to 401 on protected routes.
type Manager interface {
	// Create issues a new credential for the profile and returns the
	// opaque cookie value.
	Create(ctx context.Context, profile domain.Profile) (string, error)

	// Authenticate resolves the request's session cookie to a profile,
	// or nil when the caller is unauthenticated.
	Authenticate(ctx context.Context, r *http.Request) *domain.Profile

	// Destroy revokes the credential. Idempotent; a no-op for
	// self-contained tokens, where logout only clears the cookie.
	Destroy(ctx context.Context, value string) error
}

// generateID returns a 256-bit random identifier, base64url encoded.
func generateID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session: failed to generate id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
