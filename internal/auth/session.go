package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// DefaultGuestLimit caps how many rendering ids an anonymous session carries.
const DefaultGuestLimit = 48

// SessionManager signs and validates lightweight session tokens. The same
// cookie serves logged-in users and guests; guests carry the ids of the
// renderings they created instead of a user id.
type SessionManager struct {
	Secret       []byte
	Duration     time.Duration
	CookieName   string
	SecureCookie bool
	GuestLimit   int
}

// Claims captures decoded session data.
type Claims struct {
	UserID    string
	GuestIDs  []string
	ExpiresAt time.Time
}

type wireClaims struct {
	UserID   string   `json:"uid,omitempty"`
	GuestIDs []string `json:"gids,omitempty"`
	Expires  int64    `json:"exp"`
}

// AppendGuest adds rendering ids to the guest scope, dropping the oldest
// entries once the limit is reached.
func (sm SessionManager) AppendGuest(claims Claims, ids ...string) Claims {
	claims.GuestIDs = append(claims.GuestIDs, ids...)
	limit := sm.guestLimit()
	if len(claims.GuestIDs) > limit {
		claims.GuestIDs = claims.GuestIDs[len(claims.GuestIDs)-limit:]
	}
	return claims
}

// Issue builds a signed session token for the given claims.
func (sm SessionManager) Issue(claims Claims) (string, time.Time, error) {
	if len(sm.Secret) == 0 {
		return "", time.Time{}, errors.New("session secret missing")
	}
	expires := time.Now().Add(sm.sessionDuration())
	raw, err := json.Marshal(wireClaims{
		UserID:   claims.UserID,
		GuestIDs: claims.GuestIDs,
		Expires:  expires.Unix(),
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encode claims: %w", err)
	}
	payload := base64.RawURLEncoding.EncodeToString(raw)
	token := payload + "." + sm.sign(payload)
	return token, expires, nil
}

// Parse validates a token and returns session claims. Expiry is left to the
// caller to judge against the clock.
func (sm SessionManager) Parse(token string) (Claims, error) {
	payload, sig, ok := splitToken(token)
	if !ok {
		return Claims{}, errors.New("invalid token format")
	}
	if !hmac.Equal([]byte(sm.sign(payload)), []byte(sig)) {
		return Claims{}, errors.New("signature mismatch")
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return Claims{}, fmt.Errorf("decode payload: %w", err)
	}
	var wire wireClaims
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Claims{}, fmt.Errorf("decode claims: %w", err)
	}
	return Claims{
		UserID:    wire.UserID,
		GuestIDs:  wire.GuestIDs,
		ExpiresAt: time.Unix(wire.Expires, 0),
	}, nil
}

// Write issues a fresh token for the claims and sets the session cookie.
func (sm SessionManager) Write(w http.ResponseWriter, claims Claims) error {
	token, exp, err := sm.Issue(claims)
	if err != nil {
		return err
	}
	cookie := sm.cookie(token, exp)
	http.SetCookie(w, &cookie)
	return nil
}

// Clear expires the session cookie.
func (sm SessionManager) Clear(w http.ResponseWriter) {
	cookie := sm.expiredCookie()
	http.SetCookie(w, &cookie)
}

func (sm SessionManager) sign(payload string) string {
	mac := hmac.New(sha256.New, sm.Secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func splitToken(token string) (payload, sig string, ok bool) {
	for i := len(token) - 1; i >= 0; i-- {
		if token[i] == '.' {
			return token[:i], token[i+1:], true
		}
	}
	return "", "", false
}

func (sm SessionManager) cookie(token string, expires time.Time) http.Cookie {
	return http.Cookie{
		Name:     sm.cookieName(),
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   sm.SecureCookie,
	}
}

func (sm SessionManager) expiredCookie() http.Cookie {
	return http.Cookie{
		Name:     sm.cookieName(),
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   sm.SecureCookie,
	}
}

func (sm SessionManager) cookieName() string {
	if sm.CookieName != "" {
		return sm.CookieName
	}
	return "session_token"
}

func (sm SessionManager) sessionDuration() time.Duration {
	if sm.Duration <= 0 {
		return 7 * 24 * time.Hour
	}
	return sm.Duration
}

func (sm SessionManager) guestLimit() int {
	if sm.GuestLimit <= 0 {
		return DefaultGuestLimit
	}
	return sm.GuestLimit
}
