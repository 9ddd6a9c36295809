// Package auth implements the anonymous caller identity.
//
// IDENTITY MODEL:
// A caller is identified by an opaque identity token: a random version 4
// UUID minted the first time the caller creates a meal. The token travels in
// the "sessionId" cookie and is stored as the owner of every meal the caller
// creates. There are no accounts and no server-side token table. Possession
// of the token is the only credential, so the Access Guard accepts any
// non-empty token and the store query (owner_id = token) does the scoping.
//
// THE COOKIE FLOW:
//
//	1. POST /meals without a cookie   → handler mints NewToken()
//	2. meal stored with owner = token → SetTokenCookie (201 + Set-Cookie)
//	3. later requests send the cookie → RequireToken puts it in the context
//	4. service calls take the token   → every query filters on it
//
// A POST that already carries a cookie reuses that token and sets no new
// cookie. A POST that fails validation sets none either.
//
// COOKIE ATTRIBUTES:
//   - HttpOnly: page scripts cannot read the token
//   - SameSite=Lax: not sent on cross-site subrequests such as form POSTs
//   - Secure: HTTPS only, on by default in production (COOKIE_SECURE)
//   - Path=/ and a 7 day Max-Age
package auth

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	// CookieName is the cookie that carries the identity token.
	CookieName = "sessionId"

	// TokenTTL is how long a freshly minted token cookie stays valid.
	TokenTTL = 7 * 24 * time.Hour
)

// NewToken mints a fresh identity token.
func NewToken() string {
	return uuid.NewString()
}

// CookieOptions control how the identity cookie is issued.
type CookieOptions struct {
	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// SetTokenCookie writes the identity cookie for token, valid for TokenTTL
// and scoped to the whole API.
func SetTokenCookie(w http.ResponseWriter, token string, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenTTL / time.Second),
		Expires:  time.Now().Add(TokenTTL),
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest returns the identity token presented by r, if any.
// An empty cookie value counts as no token.
func TokenFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}
