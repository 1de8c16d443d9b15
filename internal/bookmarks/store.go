package bookmarks

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stellarlink/stellar/internal/domain"
	"github.com/stellarlink/stellar/internal/kv"
)

// Store owns the per-user bookmark collection, persisted as one JSON
// document per email under bookmarks:{email}. A missing document is an
// empty collection, never an error.
//
// Read-modify-write is not atomic across concurrent requests for the
// same email: two concurrent Adds both read, both append, last Put
// wins. That lost-update window is accepted for a single-user personal
// collection; the Put is the single commit point per operation.
type Store struct {
	kv  kv.Store
	now func() time.Time
}

// New creates a bookmark store over the given KV backend.
func New(store kv.Store) *Store {
	return &Store{kv: store, now: time.Now}
}

// SetClock overrides the time source. Test hook only.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Candidate is one {title,url} pair offered to BulkImport.
type Candidate struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ImportResult summarizes one BulkImport call.
// Added + Skipped always equals Total.
type ImportResult struct {
	Added    int               `json:"added"`
	Skipped  int               `json:"skipped"`
	Total    int               `json:"total"`
	NewItems []domain.Bookmark `json:"bookmarks"`
}

// List returns the user's collection in insertion order.
func (s *Store) List(ctx context.Context, email string) ([]domain.Bookmark, error) {
	return s.load(ctx, email)
}

// Add validates, appends and persists a new bookmark.
func (s *Store) Add(ctx context.Context, email, title, url string) (*domain.Bookmark, error) {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)
	if title == "" || url == "" {
		return nil, domain.Validationf("title and url are required")
	}

	list, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}

	b := domain.Bookmark{
		ID:        uuid.NewString(),
		Title:     title,
		URL:       url,
		CreatedAt: s.now(),
	}
	list = append(list, b)

	if err := s.save(ctx, email, list); err != nil {
		return nil, err
	}
	return &b, nil
}

// Update replaces title/url in place, preserving ID and CreatedAt.
func (s *Store) Update(ctx context.Context, email, id, title, url string) (*domain.Bookmark, error) {
	title = strings.TrimSpace(title)
	url = strings.TrimSpace(url)
	if title == "" || url == "" {
		return nil, domain.Validationf("title and url are required")
	}

	list, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}

	for i := range list {
		if list[i].ID != id {
			continue
		}
		list[i].Title = title
		list[i].URL = url
		list[i].UpdatedAt = s.now()
		if err := s.save(ctx, email, list); err != nil {
			return nil, err
		}
		b := list[i]
		return &b, nil
	}

	return nil, &domain.NotFoundError{Kind: "bookmark", ID: id}
}

// Delete removes the matching entry if present. Deleting an unknown id
// is not an error; the filtered collection is persisted either way.
func (s *Store) Delete(ctx context.Context, email, id string) error {
	list, err := s.load(ctx, email)
	if err != nil {
		return err
	}

	filtered := list[:0]
	for _, b := range list {
		if b.ID != id {
			filtered = append(filtered, b)
		}
	}

	return s.save(ctx, email, filtered)
}

// DeleteAll replaces the collection with an empty one.
func (s *Store) DeleteAll(ctx context.Context, email string) error {
	return s.save(ctx, email, []domain.Bookmark{})
}

// BulkImport ingests candidates in order, skipping entries with an
// empty title/url or a URL already present in the persisted collection
// or accepted earlier in the same batch (case-sensitive exact match on
// the trimmed URL). existing ++ accepted is persisted in one write.
func (s *Store) BulkImport(ctx context.Context, email string, candidates []Candidate) (*ImportResult, error) {
	list, err := s.load(ctx, email)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(list)+len(candidates))
	for _, b := range list {
		seen[b.URL] = true
	}

	res := &ImportResult{
		Total:    len(candidates),
		NewItems: []domain.Bookmark{},
	}

	for _, c := range candidates {
		title := strings.TrimSpace(c.Title)
		url := strings.TrimSpace(c.URL)

		if title == "" || url == "" || seen[url] {
			res.Skipped++
			continue
		}

		b := domain.Bookmark{
			ID:        uuid.NewString(),
			Title:     title,
			URL:       url,
			CreatedAt: s.now(),
		}
		res.NewItems = append(res.NewItems, b)
		seen[url] = true
		res.Added++
	}

	list = append(list, res.NewItems...)
	if err := s.save(ctx, email, list); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) load(ctx context.Context, email string) ([]domain.Bookmark, error) {
	raw, ok, err := s.kv.Get(ctx, kv.BookmarksKey(email))
	if err != nil {
		return nil, &domain.StorageError{Op: "get", Err: err}
	}
	if !ok {
		return []domain.Bookmark{}, nil
	}

	var list []domain.Bookmark
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, &domain.StorageError{Op: "decode", Err: err}
	}
	if list == nil {
		list = []domain.Bookmark{}
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, email string, list []domain.Bookmark) error {
	data, err := json.Marshal(list)
	if err != nil {
		return &domain.StorageError{Op: "encode", Err: err}
	}
	if err := s.kv.Put(ctx, kv.BookmarksKey(email), string(data), 0); err != nil {
		return &domain.StorageError{Op: "put", Err: err}
	}
	return nil
}
