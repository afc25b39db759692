// Package cookies centralizes the refresh-token cookie policy. The token
// only ever travels in an HttpOnly cookie scoped to the API prefix, never
// in a response body.
package cookies

import (
	"net/http"
	"time"
)

// SetRefresh attaches the refresh token to the response. The cookie lives
// as long as the token itself.
func SetRefresh(w http.ResponseWriter, name, path, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     path,
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearRefresh expires the cookie immediately. Attributes must match the
// ones used on set or browsers keep the old cookie.
func ClearRefresh(w http.ResponseWriter, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
