package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/stellarlink/stellar/internal/bookmarks"
	"github.com/stellarlink/stellar/internal/domain"
	"github.com/stellarlink/stellar/internal/httpserver/deps"
	"github.com/stellarlink/stellar/internal/httpserver/mw"
)

// bookmarkRequest is the request-body schema for add and update.
// Validated once at the boundary; the store trims and re-checks.
type bookmarkRequest struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type bookmarkListResponse struct {
	Bookmarks []domain.Bookmark `json:"bookmarks"`
}

type bookmarkResponse struct {
	Bookmark domain.Bookmark `json:"bookmark"`
}

// ListBookmarks returns the caller's collection in insertion order.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := mw.ProfileFrom(r.Context())

		list, err := d.Bookmarks.List(r.Context(), profile.Email)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		writeJSON(w, http.StatusOK, bookmarkListResponse{Bookmarks: list})
	}
}

// AddBookmark appends one bookmark to the caller's collection.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := mw.ProfileFrom(r.Context())

		var req bookmarkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
			return
		}

		b, err := d.Bookmarks.Add(r.Context(), profile.Email, req.Title, req.URL)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		writeJSON(w, http.StatusOK, bookmarkResponse{Bookmark: *b})
	}
}

// UpdateBookmark edits title/url of one entry in place.
func UpdateBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := mw.ProfileFrom(r.Context())
		id := chi.URLParam(r, "id")

		var req bookmarkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
			return
		}

		b, err := d.Bookmarks.Update(r.Context(), profile.Email, id, req.Title, req.URL)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		writeJSON(w, http.StatusOK, bookmarkResponse{Bookmark: *b})
	}
}

// DeleteBookmark removes one entry; unknown ids succeed too.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := mw.ProfileFrom(r.Context())
		id := chi.URLParam(r, "id")

		if err := d.Bookmarks.Delete(r.Context(), profile.Email, id); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// DeleteAllBookmarks empties the caller's collection.
func DeleteAllBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := mw.ProfileFrom(r.Context())

		if err := d.Bookmarks.DeleteAll(r.Context(), profile.Email); err != nil {
			writeError(w, d.Logger, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

type bulkImportRequest struct {
	Bookmarks []bookmarks.Candidate `json:"bookmarks"`
}

// BulkImportBookmarks ingests a browser-export batch with URL dedup.
func BulkImportBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := mw.ProfileFrom(r.Context())

		var req bulkImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Bookmarks) == 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Bookmarks array is required"})
			return
		}

		res, err := d.Bookmarks.BulkImport(r.Context(), profile.Email, req.Bookmarks)
		if err != nil {
			writeError(w, d.Logger, err)
			return
		}

		writeJSON(w, http.StatusOK, res)
	}
}
