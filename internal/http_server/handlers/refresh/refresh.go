package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"club_service/internal/auth"
	"club_service/internal/http_server/cookies"
	resp "club_service/internal/lib/api/response"
	sl "club_service/internal/lib/logger"
	"club_service/internal/token"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	AccessToken string `json:"access_token"`
}

type Service interface {
	Refresh(ctx context.Context, claims token.Claims) (accessToken, refreshToken string, err error)
}

// New returns the refresh handler. The refresh token arrives via the
// cookie and is verified by the token middleware before this runs; the
// session check against the store happens in the service. The rotated
// refresh token replaces the cookie.
func New(ctx context.Context,
	log *slog.Logger,
	service Service,
	cookieName, cookiePath string,
	refreshTTL time.Duration,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.refresh.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		claims, ok := token.FromContext(r.Context())
		if !ok {
			log.Error("no claims in context")

			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, resp.Error("Unauthorized"))

			return
		}

		accessToken, refreshToken, err := service.Refresh(ctx, claims)
		if err != nil {
			if errors.Is(err, auth.ErrSessionRevoked) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Session expired, log in again"))

				return
			}

			log.Error("failed to refresh tokens", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Tokens refreshed successfully")

		cookies.SetRefresh(w, cookieName, cookiePath, refreshToken, refreshTTL)

		render.JSON(w, r, Response{
			Response:    resp.OK(),
			AccessToken: accessToken,
		})
	}
}
