package handlers

import (
	"net/http"
	"time"

	"github.com/stellarlink/stellar/internal/httpserver/deps"
)

type healthzResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

// Healthz reports liveness and build identity. It never touches the
// store; a wedged backend must not make the process look dead.
func Healthz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, healthzResponse{
			Status:    "ok",
			Uptime:    time.Since(d.StartTime).Round(time.Second).String(),
			Version:   d.Version,
			Commit:    d.Commit,
			BuildDate: d.BuildDate,
			GoVersion: d.GoVersion,
		})
	}
}
