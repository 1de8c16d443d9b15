package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/stellarlink/stellar/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Store string `json:"store"`
}

// Readyz reports whether the KV backend answers. Not ready maps to 503
// so orchestrators hold traffic while the store is down.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := d.KV.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Store: "unreachable"})
			return
		}

		writeJSON(w, http.StatusOK, readyzResponse{Ready: true, Store: "ok"})
	}
}
