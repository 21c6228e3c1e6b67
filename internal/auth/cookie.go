package auth

import (
	"net/http"
	"time"
)

// CookieName is the HTTP-only cookie carrying the session token.
const CookieName = "token"

// SessionCookie wraps a signed token in an HTTP-only cookie that expires with it.
func SessionCookie(token string, expires time.Time, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite(secure),
	}
}

// ClearCookie expires the session cookie on the client.
func ClearCookie(secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite(secure),
	}
}

// TokenFromRequest returns the session token cookie value, or "".
func TokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Cross-site cookies (SPA on another origin) require SameSite=None, which
// browsers only accept together with Secure.
func sameSite(secure bool) http.SameSite {
	if secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
