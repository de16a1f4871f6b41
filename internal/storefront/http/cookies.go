package http

import (
	"net/http"

	"github.com/driftline/storefront/pkg/tokenx"
)

const (
	// SessionCookieName carries the refresh token between requests.
	SessionCookieName = "refreshToken"

	// LegacySessionCookieName is the pre-rename cookie. It is read as a
	// fallback and cleared alongside the current name so stale copies
	// cannot linger.
	LegacySessionCookieName = "refresh_token"
)

// CookieManager centralises every attribute of the session cookie so the
// set and clear paths can never drift apart. Path, HttpOnly and SameSite
// must match exactly between the two or browsers keep the old cookie.
type CookieManager struct {
	Secure bool
	MaxAge int
}

// NewCookieManager builds a manager whose cookie lifetime matches the
// refresh token lifetime. Secure is off outside production so local
// HTTP development keeps working.
func NewCookieManager(secure bool) *CookieManager {
	return &CookieManager{
		Secure: secure,
		MaxAge: int(tokenx.DefaultRefreshTTL.Seconds()),
	}
}

// Session returns the Set-Cookie value carrying a refresh token.
func (m *CookieManager) Session(refreshToken string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   m.MaxAge,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// Clear returns expired copies of both cookie names with attributes
// identical to Session, so the browser actually removes them.
func (m *CookieManager) Clear() []*http.Cookie {
	return []*http.Cookie{
		m.clearCookie(SessionCookieName),
		m.clearCookie(LegacySessionCookieName),
	}
}

func (m *CookieManager) clearCookie(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// SetSession writes the session cookie to the response, expiring any
// legacy-named copy first so two session cookies never coexist.
func (m *CookieManager) SetSession(w http.ResponseWriter, refreshToken string) {
	http.SetCookie(w, m.clearCookie(LegacySessionCookieName))
	http.SetCookie(w, m.Session(refreshToken))
}

// ClearSession expires both cookie names on the response.
func (m *CookieManager) ClearSession(w http.ResponseWriter) {
	for _, c := range m.Clear() {
		http.SetCookie(w, c)
	}
}

// ReadSession extracts the refresh token from the request, preferring
// the current cookie name over the legacy one. An empty string means no
// usable cookie was present.
func ReadSession(r *http.Request) string {
	for _, name := range []string{SessionCookieName, LegacySessionCookieName} {
		if c, err := r.Cookie(name); err == nil && c.Value != "" {
			return c.Value
		}
	}
	return ""
}
