package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/stellarlink/stellar/internal/domain"
	"github.com/stellarlink/stellar/internal/httpserver/deps"
	"github.com/stellarlink/stellar/internal/idp"
	"github.com/stellarlink/stellar/internal/kv"
	"github.com/stellarlink/stellar/internal/logger"
	"github.com/stellarlink/stellar/internal/session"
)

type authURLResponse struct {
	AuthURL string `json:"authUrl"`
}

// AuthURL starts the authorization-code flow: generates a CSRF state,
// persists it as a cookie and hands the provider URL to the browser.
func AuthURL(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.IDP.Configured() {
			d.Logger.Error("oauth client credentials not configured")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "OAuth is not configured"})
			return
		}

		state, err := idp.NewState()
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		idp.SetStateCookie(w, state, d.SecureCookies)
		writeJSON(w, http.StatusOK, authURLResponse{AuthURL: d.IDP.AuthCodeURL(state)})
	}
}

// Callback completes the code flow. The state cookie is consumed
// whatever the outcome; failures send the browser back to / with an
// auth_error indicator instead of an error page.
func Callback(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		stateOK := idp.ValidateState(r)
		idp.ClearStateCookie(w, d.SecureCookies)

		if !stateOK {
			d.Logger.Warn("oauth callback rejected: state mismatch")
			redirectAuthError(w, r, "state_mismatch")
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			d.Logger.Warn("oauth callback rejected: missing code")
			redirectAuthError(w, r, "missing_code")
			return
		}

		accessToken, err := d.IDP.ExchangeCode(ctx, code)
		if err != nil {
			d.Logger.Warn("oauth code exchange failed", logger.Error(err))
			redirectAuthError(w, r, "exchange_failed")
			return
		}

		profile, err := d.IDP.FetchProfile(ctx, accessToken)
		if err != nil {
			d.Logger.Warn("oauth userinfo fetch failed", logger.Error(err))
			redirectAuthError(w, r, "profile_failed")
			return
		}

		value, err := d.Sessions.Create(ctx, *profile)
		if err != nil {
			d.Logger.Error("session creation failed", logger.Error(err))
			redirectAuthError(w, r, "session_failed")
			return
		}

		d.Logger.Info("login completed", logger.String("email", profile.Email))
		session.SetCookie(w, value, d.SessionTTL, d.SecureCookies)
		http.Redirect(w, r, "/", http.StatusFound)
	}
}

func redirectAuthError(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, "/?auth_error="+url.QueryEscape(reason), http.StatusFound)
}

type credentialRequest struct {
	Credential string `json:"credential"`
}

type credentialResponse struct {
	Success bool        `json:"success"`
	User    domain.User `json:"user"`
}

// Credential handles the sign-in-button variant: the browser posts the
// provider's ID token directly. The token is checked structurally
// (audience, issuer, expiry), a user record is persisted and a session
// is issued.
func Credential(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req credentialRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Credential == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Credential is required"})
			return
		}

		claims := idp.VerifyIDToken(req.Credential, d.IDP.ClientID(), d.TimeNow())
		if claims == nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
			return
		}

		user := domain.User{
			ID:        claims.Sub,
			Email:     claims.Email,
			Name:      claims.Name,
			Picture:   claims.Picture,
			CreatedAt: d.TimeNow(),
		}
		if err := saveUser(ctx, d, user); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		value, err := d.Sessions.Create(ctx, domain.Profile{
			Email:   user.Email,
			Name:    user.Name,
			Picture: user.Picture,
		})
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		d.Logger.Info("credential login completed", logger.String("email", user.Email))
		session.SetCookie(w, value, d.SessionTTL, d.SecureCookies)
		writeJSON(w, http.StatusOK, credentialResponse{Success: true, User: user})
	}
}

func saveUser(ctx context.Context, d deps.Deps, user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return &domain.StorageError{Op: "encode", Err: err}
	}
	if err := d.KV.Put(ctx, kv.UserKey(user.ID), string(data), 0); err != nil {
		return &domain.StorageError{Op: "put", Err: err}
	}
	return nil
}

type statusResponse struct {
	IsLoggedIn bool   `json:"isLoggedIn"`
	Email      string `json:"email,omitempty"`
	Name       string `json:"name,omitempty"`
	Picture    string `json:"picture,omitempty"`
}

// Status never errors: an absent or invalid session renders the
// logged-out state so the client page always loads.
func Status(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := d.Sessions.Authenticate(r.Context(), r)
		if profile == nil {
			writeJSON(w, http.StatusOK, statusResponse{IsLoggedIn: false})
			return
		}

		writeJSON(w, http.StatusOK, statusResponse{
			IsLoggedIn: true,
			Email:      profile.Email,
			Name:       profile.Name,
			Picture:    profile.Picture,
		})
	}
}

// Logout revokes the session (where revocable) and clears the cookie.
// Always succeeds, even without a session.
func Logout(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(session.CookieName); err == nil && c.Value != "" {
			if err := d.Sessions.Destroy(r.Context(), c.Value); err != nil {
				d.Logger.Warn("session destroy failed", logger.Error(err))
			}
		}

		session.ClearCookie(w, d.SecureCookies)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
