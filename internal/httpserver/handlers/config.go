package handlers

import (
	"net/http"

	"github.com/stellarlink/stellar/internal/httpserver/deps"
)

type configResponse struct {
	GoogleClientID string `json:"googleClientId"`
}

// Config exposes the public client identifier the browser needs to
// render the Google sign-in button. No auth required.
func Config(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, configResponse{
			GoogleClientID: d.IDP.ClientID(),
		})
	}
}
