package mw

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/stellarlink/stellar/internal/domain"
	"github.com/stellarlink/stellar/internal/session"
)

type contextKey struct{ name string }

var profileKey = &contextKey{name: "profile"}

// RequireAuth resolves the session cookie and rejects unauthenticated
// callers with 401. The resolved profile is stored on the request
// context for handlers.
func RequireAuth(sessions session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			profile := sessions.Authenticate(r.Context(), r)
			if profile == nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}

			ctx := context.WithValue(r.Context(), profileKey, profile)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ProfileFrom returns the authenticated profile placed by RequireAuth,
// or nil outside a protected route.
func ProfileFrom(ctx context.Context) *domain.Profile {
	p, _ := ctx.Value(profileKey).(*domain.Profile)
	return p
}
