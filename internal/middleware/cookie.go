// Package middleware contains the ordered request interceptors: request
// logging, provenance capture, identity decoding, the session validation
// gate, and role-based authorization policies.
package middleware

import (
	"net/http"
	"time"
)

// IdentityCookieName is the cookie carrying the signed identity token.
const IdentityCookieName = "tc_identity"

// CookieOptions controls identity cookie attributes. Secure should be on
// everywhere except local development over plain HTTP.
type CookieOptions struct {
	Secure bool
	Domain string
}

// SetIdentityCookie issues the identity cookie. The cookie expires with the
// session's fixed horizon and is never renewed; HttpOnly keeps it away from
// scripts.
func SetIdentityCookie(w http.ResponseWriter, token string, expiresAt time.Time, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     IdentityCookieName,
		Value:    token,
		Path:     "/",
		Domain:   opts.Domain,
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearIdentityCookie removes the identity cookie from the client.
func ClearIdentityCookie(w http.ResponseWriter, opts CookieOptions) {
	http.SetCookie(w, &http.Cookie{
		Name:     IdentityCookieName,
		Value:    "",
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
