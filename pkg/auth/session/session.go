// Package session implements the session transport: extracting bearer
// tokens from requests and managing the http-only cookie pair that
// mirrors them.
//
// When both a bearer header and a cookie are present, the header wins
// and the cookie is the fallback. Cookies are cleared with exactly the
// attribute set they were created with; common clients silently ignore
// a clear whose attributes differ.
package session

import (
	"net/http"
	"strings"
	"time"
)

// Cookie names and scoping.
const (
	AccessCookieName  = "accessToken"
	RefreshCookieName = "refreshToken"

	// RefreshCookiePath restricts the refresh cookie to the refresh
	// endpoint so it is not replayed on every request.
	RefreshCookiePath = "/api/auth/refresh"

	accessCookieMaxAge  = 7 * 24 * time.Hour
	refreshCookieMaxAge = 30 * 24 * time.Hour
)

// Transport attaches and extracts session credentials. The secure flag
// comes from the deployment mode in configuration, never from ad hoc
// environment reads; it must be true on any publicly reachable
// deployment.
type Transport struct {
	secure bool
}

// NewTransport creates a session transport. secure controls the Secure
// attribute of both cookies.
func NewTransport(secure bool) *Transport {
	return &Transport{secure: secure}
}

// ExtractBearer returns the token from a two-part "Bearer <token>"
// Authorization header, or empty for any other shape. Callers treat
// empty as unauthenticated.
func ExtractBearer(header string) string {
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// AccessToken extracts the access token from a request: bearer header
// first, accessToken cookie as fallback.
func (t *Transport) AccessToken(r *http.Request) string {
	if tok := ExtractBearer(r.Header.Get("Authorization")); tok != "" {
		return tok
	}
	if c, err := r.Cookie(AccessCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

// RefreshToken extracts the refresh token from a request: bearer header
// first, refreshToken cookie as fallback.
func (t *Transport) RefreshToken(r *http.Request) string {
	if tok := ExtractBearer(r.Header.Get("Authorization")); tok != "" {
		return tok
	}
	if c, err := r.Cookie(RefreshCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	return ""
}

// Attach sets the access cookie and, when refresh is non-empty, the
// path-restricted refresh cookie.
func (t *Transport) Attach(w http.ResponseWriter, access, refresh string) {
	http.SetCookie(w, t.accessCookie(access, int(accessCookieMaxAge.Seconds())))
	if refresh != "" {
		http.SetCookie(w, t.refreshCookie(refresh, int(refreshCookieMaxAge.Seconds())))
	}
}

// Clear expires both cookies. The attribute sets match Attach exactly.
func (t *Transport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, t.accessCookie("", -1))
	http.SetCookie(w, t.refreshCookie("", -1))
}

func (t *Transport) accessCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     AccessCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (t *Transport) refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     RefreshCookiePath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   t.secure,
		SameSite: http.SameSiteStrictMode,
	}
}
