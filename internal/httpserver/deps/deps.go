package deps

import (
	"time"

	"github.com/stellarlink/stellar/internal/bookmarks"
	"github.com/stellarlink/stellar/internal/idp"
	"github.com/stellarlink/stellar/internal/kv"
	"github.com/stellarlink/stellar/internal/logger"
	"github.com/stellarlink/stellar/internal/session"
)

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	KV        kv.Store         // shared KV backend
	Sessions  session.Manager  // session issuing/validation
	Bookmarks *bookmarks.Store // per-user bookmark collections
	IDP       *idp.Google      // Google OAuth client

	SessionTTL    time.Duration // cookie Max-Age matches this
	SecureCookies bool          // false only for plain-HTTP local dev

	TrustProxy      bool // resolve client IP from proxy headers
	RateLimitBurst  int  // token bucket size for auth/bulk endpoints
	RateLimitPerMin int  // refill rate for auth/bulk endpoints
}
