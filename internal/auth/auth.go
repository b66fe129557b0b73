package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"architect3d/internal/storage"
)

// ErrInvalidCredentials is returned when email/password don't match.
var ErrInvalidCredentials = errors.New("invalid credentials")

type contextKey string

const sessionContextKey contextKey = "auth/session"

// Session is the decoded state of the current request: a logged-in user, or
// a guest carrying the rendering ids it has created.
type Session struct {
	User     storage.User
	LoggedIn bool
	Claims   Claims
}

// Scope translates the session into the repository's authorization boundary.
func (s Session) Scope() storage.Scope {
	if s.LoggedIn {
		return storage.ForUser(s.User.ID)
	}
	return storage.ForGuest(s.Claims.GuestIDs)
}

// Middleware attaches the session to the request context when a valid
// session cookie exists.
type Middleware struct {
	Store    storage.Store
	Sessions SessionManager
}

// Handler exposes auth endpoints for registering and logging in users.
type Handler struct {
	Store    storage.Store
	Sessions SessionManager
}

type authRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// Inject parses the session cookie (if present) and loads the session into
// context. Requests without a usable cookie proceed as fresh guests.
func (m Middleware) Inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(m.Sessions.cookieName())
		if err == nil && cookie.Value != "" {
			claims, err := m.Sessions.Parse(cookie.Value)
			switch {
			case err != nil:
				// Clear unusable cookies to avoid loops.
				m.Sessions.Clear(w)
			case claims.ExpiresAt.Before(time.Now()):
				m.Sessions.Clear(w)
			case claims.UserID != "":
				user, err := m.Store.GetUserByID(r.Context(), claims.UserID)
				switch {
				case err == nil:
					r = r.WithContext(WithSession(r.Context(), Session{User: user, LoggedIn: true, Claims: claims}))
				case errors.Is(err, storage.ErrNotFound):
					m.Sessions.Clear(w)
				default:
					// Transient store error: keep the cookie, proceed anonymously.
				}
			default:
				r = r.WithContext(WithSession(r.Context(), Session{Claims: claims}))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth ensures a logged-in user exists in context or returns 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session, ok := SessionFromContext(r.Context()); !ok || !session.LoggedIn {
			http.Error(w, "login required", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Register handles POST /api/auth/register. Renderings created as a guest
// are claimed by the new account.
func (h Handler) Register(w http.ResponseWriter, r *http.Request) {
	var payload authRequest
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	email := normalizeEmail(payload.Email)
	if email == "" || len(payload.Password) < 6 {
		http.Error(w, "email and password required (6 characters minimum)", http.StatusBadRequest)
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		http.Error(w, "could not create user", http.StatusInternalServerError)
		return
	}

	created, err := h.Store.CreateUser(r.Context(), storage.User{
		Email:        email,
		Name:         strings.TrimSpace(payload.Name),
		PasswordHash: string(hashed),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			http.Error(w, "email already registered", http.StatusConflict)
			return
		}
		http.Error(w, "could not save user", http.StatusInternalServerError)
		return
	}

	if !h.adoptGuestScope(w, r, created.ID) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = jsonResponse(w, http.StatusCreated, map[string]any{
		"id":         created.ID,
		"email":      created.Email,
		"name":       created.Name,
		"created_at": created.CreatedAt,
	})
}

// Login handles POST /api/auth/login. Like registration, any guest-created
// renderings move into the account.
func (h Handler) Login(w http.ResponseWriter, r *http.Request) {
	var payload authRequest
	if err := decodeJSON(r, &payload); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	email := normalizeEmail(payload.Email)
	if email == "" || payload.Password == "" {
		http.Error(w, "email and password required", http.StatusBadRequest)
		return
	}

	user, err := h.Store.GetUserByEmail(r.Context(), email)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	if !h.adoptGuestScope(w, r, user.ID) {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = jsonResponse(w, http.StatusOK, map[string]any{
		"id":         user.ID,
		"email":      user.Email,
		"name":       user.Name,
		"created_at": user.CreatedAt,
	})
}

// Logout handles POST /api/auth/logout.
func (h Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.Sessions.Clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the current user profile.
func (h Handler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := SessionFromContext(r.Context())
	if !ok || !session.LoggedIn {
		http.Error(w, "no active session", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = jsonResponse(w, http.StatusOK, map[string]any{
		"id":         session.User.ID,
		"email":      session.User.Email,
		"name":       session.User.Name,
		"created_at": session.User.CreatedAt,
	})
}

// adoptGuestScope migrates guest renderings to the user and rewrites the
// session cookie as a logged-in one with an empty guest scope. It reports
// whether the response can proceed; on failure the error is already written.
func (h Handler) adoptGuestScope(w http.ResponseWriter, r *http.Request, userID string) bool {
	if session, ok := SessionFromContext(r.Context()); ok && len(session.Claims.GuestIDs) > 0 {
		// Best effort; a failed claim leaves the renderings guest-owned.
		_, _ = h.Store.ClaimRenderings(r.Context(), session.Claims.GuestIDs, userID)
	}
	if err := h.Sessions.Write(w, Claims{UserID: userID}); err != nil {
		http.Error(w, "could not create session", http.StatusInternalServerError)
		return false
	}
	return true
}

// WithSession stores the decoded session in context.
func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, session)
}

// SessionFromContext extracts the session from context if present.
func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey).(Session)
	return session, ok
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func jsonResponse(w http.ResponseWriter, status int, payload any) error {
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(payload)
}
