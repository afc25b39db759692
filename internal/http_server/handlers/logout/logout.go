package logout

import (
	"context"
	"log/slog"
	"net/http"

	"club_service/internal/http_server/cookies"
	resp "club_service/internal/lib/api/response"
	sl "club_service/internal/lib/logger"
	"club_service/internal/token"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Service interface {
	Logout(ctx context.Context, claims token.Claims) error
}

// New returns the logout handler. It revokes every session for the user
// and clears the refresh cookie. Logging out twice is not an error.
func New(ctx context.Context,
	log *slog.Logger,
	service Service,
	cookieName, cookiePath string,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.logout.New"

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

		if err := service.Logout(ctx, claims); err != nil {
			log.Error("failed to logout user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("User logged out successfully")

		cookies.ClearRefresh(w, cookieName, cookiePath)

		render.JSON(w, r, resp.OK())
	}
}
