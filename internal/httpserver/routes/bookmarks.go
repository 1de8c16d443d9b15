package routes

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stellarlink/stellar/internal/httpserver/deps"
	"github.com/stellarlink/stellar/internal/httpserver/handlers"
	"github.com/stellarlink/stellar/internal/httpserver/mw"
)

func init() { Register(registerBookmarks) }

func registerBookmarks(r chi.Router, d deps.Deps) {
	auth := mw.RequireAuth(d.Sessions)

	r.With(auth).Get("/api/bookmarks", handlers.ListBookmarks(d))
	r.With(auth).Post("/api/bookmarks", handlers.AddBookmark(d))

	// Literal route must be registered alongside the wildcard; chi
	// prefers the static match.
	r.With(auth).Delete("/api/bookmarks/all", handlers.DeleteAllBookmarks(d))
	r.With(auth).Put("/api/bookmarks/{id}", handlers.UpdateBookmark(d))
	r.With(auth).Delete("/api/bookmarks/{id}", handlers.DeleteBookmark(d))

	r.With(auth, mw.RateLimit(mw.RateLimitConfig{
		Burst:             d.RateLimitBurst,
		RefillPerIPPerMin: d.RateLimitPerMin,
		MaxEntries:        10000,
		SweepInterval:     time.Minute,
		IdleTTL:           15 * time.Minute,
		TrustProxy:        d.TrustProxy,
	})).Post("/api/bookmarks/bulk", handlers.BulkImportBookmarks(d))
}
