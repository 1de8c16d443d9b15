package kv

const (
	// KeyPrefixSession is the prefix for session records.
	KeyPrefixSession = "session:"
	// KeyPrefixBookmarks is the prefix for per-user bookmark collections.
	KeyPrefixBookmarks = "bookmarks:"
	// KeyPrefixUser is the prefix for persisted user identity records.
	KeyPrefixUser = "user:"
)

// SessionKey returns the storage key for a session ID.
func SessionKey(sessionID string) string {
	return KeyPrefixSession + sessionID
}

// BookmarksKey returns the storage key for a user's collection,
// namespaced by the authenticated email (case-sensitive).
func BookmarksKey(email string) string {
	return KeyPrefixBookmarks + email
}

// UserKey returns the storage key for a user identity record.
func UserKey(id string) string {
	return KeyPrefixUser + id
}
