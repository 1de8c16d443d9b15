package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/stellarlink/stellar/internal/domain"
)

const defaultUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"

// Options configures the Google client. Endpoint, UserInfoURL and
// HTTPClient have production defaults and are overridable for tests.
type Options struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Endpoint     oauth2.Endpoint
	UserInfoURL  string
	HTTPClient   *http.Client
}

// Google drives the three-legged authorization-code flow and
// normalizes the resulting profile.
type Google struct {
	oauth       *oauth2.Config
	userInfoURL string
	httpClient  *http.Client
}

// New builds a Google client. No network calls are made here.
func New(opts Options) *Google {
	endpoint := opts.Endpoint
	if endpoint.AuthURL == "" && endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	userInfoURL := opts.UserInfoURL
	if userInfoURL == "" {
		userInfoURL = defaultUserInfoURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Google{
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       []string{"openid", "email", "profile"},
		},
		userInfoURL: userInfoURL,
		httpClient:  httpClient,
	}
}

// Configured reports whether client credentials are present.
func (g *Google) Configured() bool {
	return g.oauth.ClientID != "" && g.oauth.ClientSecret != ""
}

// ClientID exposes the public client identifier for /api/config.
func (g *Google) ClientID() string { return g.oauth.ClientID }

// AuthCodeURL builds the provider authorization URL for the given CSRF
// state. The caller is responsible for persisting the state cookie.
func (g *Google) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// ExchangeCode trades the authorization code for an access token.
func (g *Google) ExchangeCode(ctx context.Context, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return "", &domain.UpstreamAuthError{Reason: "token exchange failed", Err: err}
	}
	if token.AccessToken == "" {
		return "", &domain.UpstreamAuthError{Reason: "provider returned no access token"}
	}
	return token.AccessToken, nil
}

// FetchProfile loads the authenticated user's profile from the
// provider's userinfo endpoint with a bearer token.
func (g *Google) FetchProfile(ctx context.Context, accessToken string) (*domain.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.userInfoURL, nil)
	if err != nil {
		return nil, &domain.UpstreamAuthError{Reason: "building userinfo request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, &domain.UpstreamAuthError{Reason: "userinfo request failed", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.UpstreamAuthError{
			Reason: fmt.Sprintf("userinfo returned status %d", resp.StatusCode),
		}
	}

	var profile domain.Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, &domain.UpstreamAuthError{Reason: "decoding userinfo response", Err: err}
	}
	if profile.Email == "" {
		return nil, &domain.UpstreamAuthError{Reason: "userinfo response missing email"}
	}
	return &profile, nil
}
