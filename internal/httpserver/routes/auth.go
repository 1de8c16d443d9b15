package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stellarlink/stellar/internal/httpserver/deps"
	"github.com/stellarlink/stellar/internal/httpserver/handlers"
	"github.com/stellarlink/stellar/internal/httpserver/mw"
)

func init() { Register(registerAuth) }

func registerAuth(r chi.Router, d deps.Deps) {
	limited := r.With(mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimitBurst,
		RefillPerIPPerMin: d.RateLimitPerMin,
		MaxEntries:        10000,
		SweepInterval:     time.Minute,
		IdleTTL:           15 * time.Minute,
		TrustProxy:        d.TrustProxy,
	}))

	r.Get("/api/config", handlers.Config(d))

	limited.Get("/api/auth/google", handlers.AuthURL(d))
	limited.Get("/api/auth/callback", handlers.Callback(d))
	limited.Post("/api/auth/google", handlers.Credential(d))

	r.Get("/api/auth/status", handlers.Status(d))
	r.Post("/api/auth/logout", handlers.Logout(d))
}
