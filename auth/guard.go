package auth

import (
	"net/http"
)

// Guard resolves the authentication state of a request.
type Guard struct {
	Tokens  *TokenIssuer
	Cookies CookiePolicy
}

// Authenticate returns the identity behind the request's token. A token that
// is present but fails validation has its cookie cleared on w so the client
// stops replaying it.
func (g Guard) Authenticate(w http.ResponseWriter, r *http.Request) (string, error) {
	token := TokenFromRequest(r)
	identity, err := g.Tokens.Validate(token)
	if err != nil {
		if token != "" && HasCookie(r) {
			g.Cookies.Clear(w, r)
		}
		return "", err
	}
	return identity, nil
}

// Login issues a token for identity and sets the cookie.
func (g Guard) Login(w http.ResponseWriter, r *http.Request, identity string) (string, error) {
	token, expires, err := g.Tokens.Issue(identity)
	if err != nil {
		return "", err
	}
	g.Cookies.Set(w, r, token, expires)
	return token, nil
}

// Logout clears the client-held cookie. The token itself stays valid until
// it expires.
func (g Guard) Logout(w http.ResponseWriter, r *http.Request) {
	g.Cookies.Clear(w, r)
}
