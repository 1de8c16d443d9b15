package domain

import "time"

// Bookmark is one saved link in a user's collection.
// Collections are persisted as a single JSON array per user, so the
// field tags define the wire and storage format at the same time.
type Bookmark struct {
	// ID is the canonical unique identifier, generated server-side.
	ID string `json:"id"`

	// Title is the display name, trimmed, never empty.
	Title string `json:"title"`

	// URL is the trimmed target, never empty. Expected http/https but
	// not validated beyond non-emptiness.
	URL string `json:"url"`

	// CreatedAt is set once when the bookmark is accepted.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is set on every in-place edit.
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Profile is the normalized identity a provider hands back after login.
// Email is the storage namespace for the user's collection.
type Profile struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// User is the persisted first-class identity record written on
// credential login (key user:{id}).
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
}
