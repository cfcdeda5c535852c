package auth

import (
	"net/http"
	"strings"
	"time"
)

// CookieName carries the token between the admin UI and the API.
const CookieName = "admin_token"

// CookiePolicy decides the attributes of the token cookie.
type CookiePolicy struct {
	// ForceSecure marks the cookie Secure even when the request looks plain.
	ForceSecure bool
	// CrossSite relaxes SameSite to None for a UI served from another origin.
	CrossSite bool
}

func (p CookiePolicy) Set(w http.ResponseWriter, r *http.Request, token string, expires time.Time) {
	http.SetCookie(w, p.cookie(r, token, int(TokenTTL.Seconds()), expires))
}

// Clear expires the cookie on the client.
func (p CookiePolicy) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, p.cookie(r, "", -1, time.Unix(0, 0)))
}

func (p CookiePolicy) cookie(r *http.Request, value string, maxAge int, expires time.Time) *http.Cookie {
	secure := p.ForceSecure || IsSecureRequest(r)
	sameSite := http.SameSiteLaxMode
	if p.CrossSite {
		// Browsers drop SameSite=None cookies that are not Secure.
		sameSite = http.SameSiteNoneMode
		secure = true
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
	}
}

// IsSecureRequest reports whether the client reached us over TLS, directly or
// through a proxy.
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// TokenFromRequest returns the token from the cookie, or from an
// Authorization: Bearer header when no cookie is present.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// HasCookie reports whether the request carried the token cookie at all.
func HasCookie(r *http.Request) bool {
	_, err := r.Cookie(CookieName)
	return err == nil
}
