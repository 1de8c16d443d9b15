package integration

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/stellarlink/stellar/internal/bookmarks"
	"github.com/stellarlink/stellar/internal/domain"
	"github.com/stellarlink/stellar/internal/httpserver"
	"github.com/stellarlink/stellar/internal/httpserver/deps"
	"github.com/stellarlink/stellar/internal/idp"
	"github.com/stellarlink/stellar/internal/kv"
	"github.com/stellarlink/stellar/internal/logger"
	"github.com/stellarlink/stellar/internal/session"
)

const clientID = "client-id.apps.googleusercontent.com"

type testEnv struct {
	router    http.Handler
	store     *kv.Memory
	sessions  *session.StoreManager
	provider  *httptest.Server
	exchanges *int64 // token endpoint hit counter
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	var exchanges int64

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&exchanges, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"test-access-token","token_type":"Bearer"}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"email":"user@x.com","name":"Test User","picture":"https://example.com/p.png"}`))
	})
	provider := httptest.NewServer(mux)
	t.Cleanup(provider.Close)

	store := kv.NewMemory()
	sessions := session.NewStoreManager(store, 30*24*time.Hour)
	log := logger.New("error", false)

	google := idp.New(idp.Options{
		ClientID:     clientID,
		ClientSecret: "client-secret",
		RedirectURL:  "https://stellar.example.com/api/auth/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  provider.URL + "/auth",
			TokenURL: provider.URL + "/token",
		},
		UserInfoURL: provider.URL + "/userinfo",
		HTTPClient:  provider.Client(),
	})

	d := deps.Deps{
		Logger:          log,
		StartTime:       time.Now(),
		TimeNow:         time.Now,
		KV:              store,
		Sessions:        sessions,
		Bookmarks:       bookmarks.New(store),
		IDP:             google,
		SessionTTL:      30 * 24 * time.Hour,
		SecureCookies:   true,
		RateLimitBurst:  100,
		RateLimitPerMin: 600,
	}

	return &testEnv{
		router:    httpserver.NewRouter(log, d),
		store:     store,
		sessions:  sessions,
		provider:  provider,
		exchanges: &exchanges,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		r.AddCookie(c)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, r)
	return w
}

func (e *testEnv) login(t *testing.T, email string) *http.Cookie {
	t.Helper()

	id, err := e.sessions.Create(context.Background(), domain.Profile{
		Email: email,
		Name:  "Test User",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return &http.Cookie{Name: session.CookieName, Value: id}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func makeIDToken(t *testing.T, claims map[string]interface{}) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatalf("marshal claims: %v", err)
	}
	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func TestConfigEndpoint(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/config", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		GoogleClientID string `json:"googleClientId"`
	}
	decode(t, w, &resp)
	if resp.GoogleClientID != clientID {
		t.Errorf("googleClientId = %q, want %q", resp.GoogleClientID, clientID)
	}
}

func TestAuthStatusWithoutCookie(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/auth/status", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		IsLoggedIn bool `json:"isLoggedIn"`
	}
	decode(t, w, &resp)
	if resp.IsLoggedIn {
		t.Error("isLoggedIn = true without a cookie")
	}
}

func TestBookmarksRequireAuth(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/bookmarks", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}

	var resp struct {
		Error string `json:"error"`
	}
	decode(t, w, &resp)
	if resp.Error != "Unauthorized" {
		t.Errorf("error = %q, want Unauthorized", resp.Error)
	}
}

func TestAddThenListBookmark(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "user@x.com")

	w := e.do(t, http.MethodPost, "/api/bookmarks",
		map[string]string{"title": "Example", "url": "http://example.com"}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("POST status = %d, body %s", w.Code, w.Body.String())
	}

	var added struct {
		Bookmark domain.Bookmark `json:"bookmark"`
	}
	decode(t, w, &added)
	if added.Bookmark.ID == "" {
		t.Fatal("POST returned bookmark without id")
	}

	w = e.do(t, http.MethodGet, "/api/bookmarks", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("GET status = %d", w.Code)
	}

	var list struct {
		Bookmarks []domain.Bookmark `json:"bookmarks"`
	}
	decode(t, w, &list)
	if len(list.Bookmarks) != 1 || list.Bookmarks[0].ID != added.Bookmark.ID {
		t.Errorf("GET = %+v, want exactly the added bookmark", list.Bookmarks)
	}
}

func TestAddBookmarkValidation(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "user@x.com")

	w := e.do(t, http.MethodPost, "/api/bookmarks",
		map[string]string{"title": "", "url": "http://example.com"}, cookie)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBulkImportDedup(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "user@x.com")

	w := e.do(t, http.MethodPost, "/api/bookmarks/bulk", map[string]interface{}{
		"bookmarks": []map[string]string{
			{"title": "A", "url": "http://a.com"},
			{"title": "B", "url": "http://a.com"},
		},
	}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Added   int `json:"added"`
		Skipped int `json:"skipped"`
		Total   int `json:"total"`
	}
	decode(t, w, &resp)
	if resp.Added != 1 || resp.Skipped != 1 || resp.Total != 2 {
		t.Errorf("bulk = %+v, want added 1 skipped 1 total 2", resp)
	}
}

func TestBulkImportEmptyArray(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "user@x.com")

	w := e.do(t, http.MethodPost, "/api/bookmarks/bulk",
		map[string]interface{}{"bookmarks": []map[string]string{}}, cookie)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestDeleteUnknownBookmarkSucceeds(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "user@x.com")

	e.do(t, http.MethodPost, "/api/bookmarks",
		map[string]string{"title": "Keep", "url": "http://keep.com"}, cookie)

	w := e.do(t, http.MethodDelete, "/api/bookmarks/doesnotexist", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Success bool `json:"success"`
	}
	decode(t, w, &resp)
	if !resp.Success {
		t.Error("success = false")
	}

	w = e.do(t, http.MethodGet, "/api/bookmarks", nil, cookie)
	var list struct {
		Bookmarks []domain.Bookmark `json:"bookmarks"`
	}
	decode(t, w, &list)
	if len(list.Bookmarks) != 1 {
		t.Errorf("collection changed: %+v", list.Bookmarks)
	}
}

func TestUpdateBookmark(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "user@x.com")

	w := e.do(t, http.MethodPost, "/api/bookmarks",
		map[string]string{"title": "Old", "url": "http://old.com"}, cookie)
	var added struct {
		Bookmark domain.Bookmark `json:"bookmark"`
	}
	decode(t, w, &added)

	w = e.do(t, http.MethodPut, "/api/bookmarks/"+added.Bookmark.ID,
		map[string]string{"title": "New", "url": "http://new.com"}, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT status = %d, body %s", w.Code, w.Body.String())
	}

	var updated struct {
		Bookmark domain.Bookmark `json:"bookmark"`
	}
	decode(t, w, &updated)
	if updated.Bookmark.Title != "New" || updated.Bookmark.ID != added.Bookmark.ID {
		t.Errorf("PUT = %+v", updated.Bookmark)
	}

	// Unknown id -> 404
	w = e.do(t, http.MethodPut, "/api/bookmarks/doesnotexist",
		map[string]string{"title": "X", "url": "http://x.com"}, cookie)
	if w.Code != http.StatusNotFound {
		t.Errorf("PUT unknown id status = %d, want 404", w.Code)
	}
}

func TestDeleteAllBookmarks(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "user@x.com")

	for i := 0; i < 3; i++ {
		e.do(t, http.MethodPost, "/api/bookmarks",
			map[string]string{"title": fmt.Sprintf("S%d", i), "url": fmt.Sprintf("http://s%d.com", i)}, cookie)
	}

	w := e.do(t, http.MethodDelete, "/api/bookmarks/all", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	w = e.do(t, http.MethodGet, "/api/bookmarks", nil, cookie)
	var list struct {
		Bookmarks []domain.Bookmark `json:"bookmarks"`
	}
	decode(t, w, &list)
	if len(list.Bookmarks) != 0 {
		t.Errorf("collection not emptied: %+v", list.Bookmarks)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	e := newTestEnv(t)
	cookie := e.login(t, "user@x.com")

	w := e.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
	if w.Code != http.StatusOK {
		t.Fatalf("logout status = %d", w.Code)
	}

	cleared := findCookie(w, session.CookieName)
	if cleared == nil || cleared.MaxAge >= 0 {
		t.Errorf("logout did not clear the session cookie: %+v", cleared)
	}

	// The old session id must be dead server-side too
	w = e.do(t, http.MethodGet, "/api/bookmarks", nil, cookie)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status after logout = %d, want 401", w.Code)
	}
}

func TestAuthURLSetsStateCookie(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/auth/google", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		AuthURL string `json:"authUrl"`
	}
	decode(t, w, &resp)

	state := findCookie(w, idp.StateCookieName)
	if state == nil || state.Value == "" {
		t.Fatal("no oauth_state cookie set")
	}
	if !strings.Contains(resp.AuthURL, "state="+state.Value) {
		t.Errorf("authUrl %q does not carry the issued state", resp.AuthURL)
	}
}

func TestCallbackRejectsStateMismatch(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/auth/callback?code=abc&state=forged", nil,
		&http.Cookie{Name: idp.StateCookieName, Value: "issued"})

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); !strings.Contains(loc, "auth_error") {
		t.Errorf("Location = %q, want auth_error indicator", loc)
	}
	if got := atomic.LoadInt64(e.exchanges); got != 0 {
		t.Errorf("token exchange attempted %d times despite state mismatch", got)
	}
	if c := findCookie(w, idp.StateCookieName); c == nil || c.MaxAge >= 0 {
		t.Error("state cookie not consumed on rejected callback")
	}
}

func TestCallbackHappyPath(t *testing.T) {
	e := newTestEnv(t)

	w := e.do(t, http.MethodGet, "/api/auth/callback?code=abc&state=issued", nil,
		&http.Cookie{Name: idp.StateCookieName, Value: "issued"})

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}

	auth := findCookie(w, session.CookieName)
	if auth == nil || auth.Value == "" {
		t.Fatal("no session cookie set on successful callback")
	}

	// The issued session authenticates follow-up requests
	resp := e.do(t, http.MethodGet, "/api/auth/status", nil,
		&http.Cookie{Name: session.CookieName, Value: auth.Value})
	var status struct {
		IsLoggedIn bool   `json:"isLoggedIn"`
		Email      string `json:"email"`
	}
	decode(t, resp, &status)
	if !status.IsLoggedIn || status.Email != "user@x.com" {
		t.Errorf("status after callback = %+v", status)
	}
}

func TestCredentialLogin(t *testing.T) {
	e := newTestEnv(t)

	token := makeIDToken(t, map[string]interface{}{
		"sub":     "1234567890",
		"email":   "user@x.com",
		"name":    "Test User",
		"picture": "https://example.com/p.png",
		"aud":     clientID,
		"iss":     "https://accounts.google.com",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	w := e.do(t, http.MethodPost, "/api/auth/google", map[string]string{"credential": token})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success bool        `json:"success"`
		User    domain.User `json:"user"`
	}
	decode(t, w, &resp)
	if !resp.Success || resp.User.Email != "user@x.com" {
		t.Errorf("response = %+v", resp)
	}

	if findCookie(w, session.CookieName) == nil {
		t.Error("no session cookie set on credential login")
	}

	// user:{id} record persisted
	if _, ok, _ := e.store.Get(context.Background(), kv.UserKey("1234567890")); !ok {
		t.Error("user record not persisted")
	}
}

func TestCredentialLoginRejections(t *testing.T) {
	e := newTestEnv(t)

	tests := []struct {
		name       string
		body       interface{}
		wantStatus int
	}{
		{name: "missing credential", body: map[string]string{}, wantStatus: http.StatusBadRequest},
		{name: "garbage token", body: map[string]string{"credential": "nope"}, wantStatus: http.StatusUnauthorized},
		{
			name: "wrong audience",
			body: map[string]string{"credential": makeIDToken(t, map[string]interface{}{
				"sub":   "1",
				"email": "user@x.com",
				"aud":   "someone-else",
				"iss":   "https://accounts.google.com",
				"exp":   time.Now().Add(time.Hour).Unix(),
			})},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, http.MethodPost, "/api/auth/google", tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestUsersAreIsolated(t *testing.T) {
	e := newTestEnv(t)
	alice := e.login(t, "alice@x.com")
	bob := e.login(t, "bob@x.com")

	e.do(t, http.MethodPost, "/api/bookmarks",
		map[string]string{"title": "Alice", "url": "http://alice.com"}, alice)

	w := e.do(t, http.MethodGet, "/api/bookmarks", nil, bob)
	var list struct {
		Bookmarks []domain.Bookmark `json:"bookmarks"`
	}
	decode(t, w, &list)
	if len(list.Bookmarks) != 0 {
		t.Errorf("bob sees alice's bookmarks: %+v", list.Bookmarks)
	}
}
