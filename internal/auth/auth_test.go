package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"architect3d/internal/storage"
)

func newTestHandler() (Handler, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return Handler{
		Store:    store,
		Sessions: SessionManager{Secret: []byte("test-secret"), Duration: time.Hour},
	}, store
}

func seedGuestRendering(t *testing.T, store storage.Store) storage.Rendering {
	t.Helper()
	created, err := store.CreateRendering(context.Background(), storage.Rendering{
		Category:    "ROOM",
		Subcategory: "Kitchen",
		Prompt:      "seed",
		ImagePath:   "renderings/seed.png",
	})
	if err != nil {
		t.Fatal(err)
	}
	return created
}

func postJSON(t *testing.T, path string, payload any) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegisterMigratesGuestScope(t *testing.T) {
	h, store := newTestHandler()
	guest := seedGuestRendering(t, store)

	req := postJSON(t, "/api/auth/register", authRequest{Email: "New@Example.com", Password: "hunter22"})
	req = req.WithContext(WithSession(req.Context(), Session{Claims: Claims{GuestIDs: []string{guest.ID}}}))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Email != "new@example.com" {
		t.Errorf("email not normalized: %q", resp.Email)
	}

	// The guest rendering now belongs to the account.
	got, err := store.GetRendering(context.Background(), storage.ForUser(resp.ID), guest.ID)
	if err != nil {
		t.Fatalf("guest rendering not migrated: %v", err)
	}
	if got.OwnerID != resp.ID {
		t.Errorf("owner = %q, want %q", got.OwnerID, resp.ID)
	}

	// And the fresh cookie is a logged-in session with no guest scope.
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("no session cookie issued")
	}
	claims, err := h.Sessions.Parse(cookies[0].Value)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != resp.ID || len(claims.GuestIDs) != 0 {
		t.Errorf("claims = %+v", claims)
	}
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	h, _ := newTestHandler()

	for _, payload := range []authRequest{
		{Email: "", Password: "longenough"},
		{Email: "a@example.com", Password: "short"},
	} {
		rec := httptest.NewRecorder()
		h.Register(rec, postJSON(t, "/api/auth/register", payload))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%+v: status = %d, want 400", payload, rec.Code)
		}
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _ := newTestHandler()

	rec := httptest.NewRecorder()
	h.Register(rec, postJSON(t, "/api/auth/register", authRequest{Email: "a@example.com", Password: "hunter22"}))
	if rec.Code != http.StatusCreated {
		t.Fatal(rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Register(rec, postJSON(t, "/api/auth/register", authRequest{Email: "A@EXAMPLE.com", Password: "hunter22"}))
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate email: status = %d, want 409", rec.Code)
	}
}

func TestLoginFlow(t *testing.T) {
	h, store := newTestHandler()

	rec := httptest.NewRecorder()
	h.Register(rec, postJSON(t, "/api/auth/register", authRequest{Email: "a@example.com", Password: "hunter22"}))
	if rec.Code != http.StatusCreated {
		t.Fatal(rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.Login(rec, postJSON(t, "/api/auth/login", authRequest{Email: "a@example.com", Password: "wrong-password"}))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: status = %d, want 401", rec.Code)
	}

	guest := seedGuestRendering(t, store)
	req := postJSON(t, "/api/auth/login", authRequest{Email: "a@example.com", Password: "hunter22"})
	req = req.WithContext(WithSession(req.Context(), Session{Claims: Claims{GuestIDs: []string{guest.ID}}}))
	rec = httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetRendering(context.Background(), storage.ForUser(resp.ID), guest.ID); err != nil {
		t.Errorf("guest rendering not migrated on login: %v", err)
	}
}

func TestInjectMiddleware(t *testing.T) {
	h, store := newTestHandler()
	mw := Middleware{Store: store, Sessions: h.Sessions}

	user, err := store.CreateUser(context.Background(), storage.User{Email: "a@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatal(err)
	}
	token, _, err := h.Sessions.Issue(Claims{UserID: user.ID})
	if err != nil {
		t.Fatal(err)
	}

	var seen Session
	var ok bool
	next := http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen, ok = SessionFromContext(r.Context())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: token})
	mw.Inject(next).ServeHTTP(httptest.NewRecorder(), req)
	if !ok || !seen.LoggedIn || seen.User.ID != user.ID {
		t.Errorf("session = %+v, ok = %v", seen, ok)
	}

	// A tampered cookie is cleared and yields no session.
	ok = false
	req = httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: token + "x"})
	rec := httptest.NewRecorder()
	mw.Inject(next).ServeHTTP(rec, req)
	if ok {
		t.Error("tampered cookie produced a session")
	}
	cleared := rec.Result().Cookies()
	if len(cleared) == 0 || cleared[0].MaxAge != -1 {
		t.Error("tampered cookie was not cleared")
	}
}

func TestRegisterStopsAfterSessionFailure(t *testing.T) {
	// An empty secret makes Issue fail, so the cookie write cannot succeed.
	h := Handler{
		Store:    storage.NewMemoryStore(),
		Sessions: SessionManager{Duration: time.Hour},
	}

	rec := httptest.NewRecorder()
	h.Register(rec, postJSON(t, "/api/auth/register", authRequest{Email: "a@example.com", Password: "hunter22"}))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte(`"id"`)) {
		t.Errorf("success payload written after session failure: %s", rec.Body.String())
	}
}

type flakyStore struct {
	storage.Store
	err error
}

func (s flakyStore) GetUserByID(ctx context.Context, id string) (storage.User, error) {
	if s.err != nil {
		return storage.User{}, s.err
	}
	return s.Store.GetUserByID(ctx, id)
}

func TestInjectKeepsCookieOnTransientStoreError(t *testing.T) {
	h, store := newTestHandler()
	user, err := store.CreateUser(context.Background(), storage.User{Email: "a@example.com", PasswordHash: "x"})
	if err != nil {
		t.Fatal(err)
	}
	token, _, err := h.Sessions.Issue(Claims{UserID: user.ID})
	if err != nil {
		t.Fatal(err)
	}

	next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {})

	// A store blip must not log the user out.
	mw := Middleware{
		Store:    flakyStore{Store: store, err: errors.New("connection reset")},
		Sessions: h.Sessions,
	}
	req := httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: token})
	rec := httptest.NewRecorder()
	mw.Inject(next).ServeHTTP(rec, req)
	if len(rec.Result().Cookies()) != 0 {
		t.Error("cookie cleared on a transient store error")
	}

	// A genuinely missing user still clears the stale cookie.
	mw = Middleware{Store: store, Sessions: h.Sessions}
	ghost, _, err := h.Sessions.Issue(Claims{UserID: "no-such-user"})
	if err != nil {
		t.Fatal(err)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/gallery", nil)
	req.AddCookie(&http.Cookie{Name: "session_token", Value: ghost})
	rec = httptest.NewRecorder()
	mw.Inject(next).ServeHTTP(rec, req)
	cleared := rec.Result().Cookies()
	if len(cleared) == 0 || cleared[0].MaxAge != -1 {
		t.Error("stale cookie for a deleted user was not cleared")
	}
}

func TestRequireAuth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	RequireAuth(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	session := Session{LoggedIn: true}
	session.User.ID = "u1"
	req = req.WithContext(WithSession(req.Context(), session))
	rec = httptest.NewRecorder()
	RequireAuth(next).ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("logged in: status = %d, want 200", rec.Code)
	}
}
