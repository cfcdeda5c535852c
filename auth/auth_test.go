package auth

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/hyeyeon57/portfolio-backoffice/errs"
)

func TestVerifyTrimsInputs(t *testing.T) {
	v := NewVerifier("admin", "pw", "")

	require.NoError(t, v.Verify(" admin ", " pw "))
}

func TestVerifyDistinguishesMissingFromMismatch(t *testing.T) {
	v := NewVerifier("admin", "pw", "")

	err := v.Verify("admin", "   ")
	require.ErrorIs(t, err, errs.ErrMissingCredentials)
	require.Equal(t, http.StatusBadRequest, errs.StatusCode(err))

	err = v.Verify("admin", "wrong")
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
	require.Equal(t, http.StatusUnauthorized, errs.StatusCode(err))

	err = v.Verify("root", "pw")
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
}

func TestVerifyWithPasswordHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	v := NewVerifier("admin", "", string(hash))

	require.NoError(t, v.Verify("admin", "s3cret"))
	require.ErrorIs(t, v.Verify("admin", "other"), errs.ErrInvalidCredentials)
}

func TestVerifierFromConfigDefaults(t *testing.T) {
	v := NewVerifierFromConfig(map[string]string{})
	require.NoError(t, v.Verify(defaultUsername, defaultPassword))

	v = NewVerifierFromConfig(map[string]string{"ADMIN_USERNAME": "owner", "ADMIN_PASSWORD": "pw"})
	require.NoError(t, v.Verify("owner", "pw"))
	require.Error(t, v.Verify(defaultUsername, defaultPassword))
}

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret")

	token, expires, err := issuer.Issue("admin")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(TokenTTL), expires, time.Minute)

	identity, err := issuer.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "admin", identity)
}

func TestTokenExpiry(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	now := time.Now()
	issuer.now = func() time.Time { return now }

	token, _, err := issuer.Issue("admin")
	require.NoError(t, err)

	issuer.now = func() time.Time { return now.Add(TokenTTL + time.Minute) }
	_, err = issuer.Validate(token)
	require.ErrorIs(t, err, errs.ErrExpiredToken)
}

func TestTokenTamperingAndWrongKey(t *testing.T) {
	issuer := NewTokenIssuer("secret")
	token, _, err := issuer.Issue("admin")
	require.NoError(t, err)

	_, err = NewTokenIssuer("other").Validate(token)
	require.ErrorIs(t, err, errs.ErrInvalidToken)

	parts := strings.Split(token, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	_, err = issuer.Validate(tampered)
	require.ErrorIs(t, err, errs.ErrInvalidToken)

	_, err = issuer.Validate("")
	require.ErrorIs(t, err, errs.ErrMissingToken)
}

func TestCookieAttributes(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	CookiePolicy{}.Set(rec, req, "tok", time.Now().Add(TokenTTL))

	c := rec.Result().Cookies()[0]
	require.Equal(t, CookieName, c.Name)
	require.True(t, c.HttpOnly)
	require.False(t, c.Secure)
	require.Equal(t, http.SameSiteLaxMode, c.SameSite)
	require.Equal(t, "/", c.Path)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rec = httptest.NewRecorder()
	CookiePolicy{}.Set(rec, req, "tok", time.Now().Add(TokenTTL))
	require.True(t, rec.Result().Cookies()[0].Secure)

	req = httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	CookiePolicy{CrossSite: true}.Set(rec, req, "tok", time.Now().Add(TokenTTL))
	c = rec.Result().Cookies()[0]
	require.True(t, c.Secure)
	require.Equal(t, http.SameSiteNoneMode, c.SameSite)
}

func TestTokenFromRequestPrefersCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	require.Equal(t, "header-token", TokenFromRequest(req))

	req.AddCookie(&http.Cookie{Name: CookieName, Value: "cookie-token"})
	require.Equal(t, "cookie-token", TokenFromRequest(req))
}

func TestGuardClearsInvalidCookie(t *testing.T) {
	g := Guard{Tokens: NewTokenIssuer("secret")}

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "garbage"})
	rec := httptest.NewRecorder()

	_, err := g.Authenticate(rec, req)
	require.ErrorIs(t, err, errs.ErrInvalidToken)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	require.Equal(t, CookieName, cleared[0].Name)
	require.Empty(t, cleared[0].Value)
	require.Less(t, cleared[0].MaxAge, 0)
}

func TestGuardLoginThenAuthenticate(t *testing.T) {
	g := Guard{Tokens: NewTokenIssuer("secret")}

	rec := httptest.NewRecorder()
	_, err := g.Login(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), "admin")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(rec.Result().Cookies()[0])
	identity, err := g.Authenticate(httptest.NewRecorder(), req)
	require.NoError(t, err)
	require.Equal(t, "admin", identity)
}
