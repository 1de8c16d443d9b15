package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stellarlink/stellar/internal/domain"
	"github.com/stellarlink/stellar/internal/logger"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy to HTTP statuses. Internal
// detail is logged, never leaked into the client-visible message.
func writeError(w http.ResponseWriter, log logger.Logger, err error) {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Msg})
		return
	}

	var nferr *domain.NotFoundError
	if errors.As(err, &nferr) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not Found"})
		return
	}

	var uerr *domain.UpstreamAuthError
	if errors.As(err, &uerr) {
		log.Warn("upstream auth failure", logger.Error(err))
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authentication failed"})
		return
	}

	log.Error("request failed", logger.Error(err))
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
}
