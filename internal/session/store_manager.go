package session

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/stellarlink/stellar/internal/domain"
	"github.com/stellarlink/stellar/internal/kv"
)

// Record is what is persisted under session:{id}. A session is valid
// iff the record exists and ExpiresAt is in the future.
type Record struct {
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StoreManager keeps session state in the KV store. The store's native
// TTL matches ExpiresAt as a backstop; Get still checks ExpiresAt
// explicitly and deletes lazily so both mechanisms agree.
type StoreManager struct {
	kv  kv.Store
	ttl time.Duration
	now func() time.Time
}

// NewStoreManager creates a store-backed manager with a fixed TTL.
func NewStoreManager(store kv.Store, ttl time.Duration) *StoreManager {
	return &StoreManager{kv: store, ttl: ttl, now: time.Now}
}

// SetClock overrides the time source. Test hook only.
func (m *StoreManager) SetClock(now func() time.Time) { m.now = now }

// TTL returns the configured session lifetime.
func (m *StoreManager) TTL() time.Duration { return m.ttl }

func (m *StoreManager) Create(ctx context.Context, profile domain.Profile) (string, error) {
	id, err := generateID()
	if err != nil {
		return "", err
	}

	now := m.now()
	rec := Record{
		Email:     profile.Email,
		Name:      profile.Name,
		Picture:   profile.Picture,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", &domain.StorageError{Op: "encode", Err: err}
	}
	if err := m.kv.Put(ctx, kv.SessionKey(id), string(data), m.ttl); err != nil {
		return "", &domain.StorageError{Op: "put", Err: err}
	}
	return id, nil
}

// Get loads and validates a session by id. Absent or expired sessions
// return nil; an expired record is deleted on detection.
func (m *StoreManager) Get(ctx context.Context, id string) *domain.Profile {
	if id == "" {
		return nil
	}

	raw, ok, err := m.kv.Get(ctx, kv.SessionKey(id))
	if err != nil || !ok {
		return nil
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil
	}

	if !rec.ExpiresAt.After(m.now()) {
		// Lazy expiry: the native TTL should have evicted this already.
		_ = m.kv.Delete(ctx, kv.SessionKey(id))
		return nil
	}

	return &domain.Profile{Email: rec.Email, Name: rec.Name, Picture: rec.Picture}
}

func (m *StoreManager) Authenticate(ctx context.Context, r *http.Request) *domain.Profile {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	return m.Get(ctx, c.Value)
}

func (m *StoreManager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.kv.Delete(ctx, kv.SessionKey(id)); err != nil {
		return &domain.StorageError{Op: "delete", Err: err}
	}
	return nil
}
