package idp

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"
)

const (
	// StateCookieName carries the CSRF state between auth initiation
	// and the provider callback.
	StateCookieName = "oauth_state"

	// StateTTL bounds the initiate-to-callback window.
	StateTTL = 10 * time.Minute
)

// NewState returns a fresh single-use CSRF correlation token.
func NewState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("idp: failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// SetStateCookie persists the state for the callback comparison.
func SetStateCookie(w http.ResponseWriter, state string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/",
		MaxAge:   int(StateTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearStateCookie consumes the state. Called on every callback,
// whatever the outcome.
func ClearStateCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ValidateState compares the callback's state query parameter against
// the cookie issued at initiation. Both must be present and equal.
func ValidateState(r *http.Request) bool {
	state := r.URL.Query().Get("state")
	if state == "" {
		return false
	}

	c, err := r.Cookie(StateCookieName)
	if err != nil || c.Value == "" {
		return false
	}

	return c.Value == state
}
