package token

import (
	"context"
	"net/http"
	"strings"

	resp "club_service/internal/lib/api/response"

	"github.com/go-chi/render"
)

type ctxKey struct{}

// Require guards a route with a token of the expected type. Access and
// reset tokens travel in the Authorization header; refresh tokens only in
// the httponly cookie. On success the decoded claims are attached to the
// request context for the wrapped handler.
func Require(svc *Service, expected Type, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extract(r, expected, cookieName)
			if raw == "" {
				unauthorized(w, r, "missing or malformed token")
				return
			}

			claims, err := svc.Parse(raw)
			if err != nil {
				unauthorized(w, r, "invalid or expired token")
				return
			}

			if claims.TokenType != expected {
				unauthorized(w, r, "invalid token type")
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), claims)))
		})
	}
}

func extract(r *http.Request, expected Type, cookieName string) string {
	if expected != TypeRefresh {
		header := r.Header.Get("Authorization")
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimPrefix(header, "Bearer ")
		}
		return ""
	}

	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}

	return cookie.Value
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, resp.Error(msg))
}

func NewContext(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

// FromContext returns the claims attached by Require.
func FromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(Claims)

	return claims, ok
}
