package idp

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

// Claims is the subset of a Google ID token we rely on.
type Claims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Aud     string `json:"aud"`
	Iss     string `json:"iss"`
	Exp     int64  `json:"exp"`
}

// VerifyIDToken structurally parses a compact three-part ID token and
// checks audience, issuer and expiry against now. It returns nil on any
// structural or semantic failure and never panics or errors.
//
// The provider's signature is NOT cryptographically verified here; the
// checks mirror what the credential login flow has always enforced. A
// hardened deployment should verify against Google's published JWKS.
func VerifyIDToken(credential, audience string, now time.Time) *Claims {
	parts := strings.Split(credential, ".")
	if len(parts) != 3 {
		return nil
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil
	}

	if claims.Aud != audience {
		return nil
	}
	if claims.Iss != "accounts.google.com" && claims.Iss != "https://accounts.google.com" {
		return nil
	}
	if claims.Exp <= now.Unix() {
		return nil
	}
	if claims.Sub == "" || claims.Email == "" {
		return nil
	}

	return &claims
}
