package change_password

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"club_service/internal/auth"
	resp "club_service/internal/lib/api/response"
	sl "club_service/internal/lib/logger"
	"club_service/internal/token"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	CurrentPass string `json:"current_password" validate:"required"`
	NewPass     string `json:"new_password" validate:"required,min=8"`
}

type Service interface {
	ChangePassword(ctx context.Context, claims token.Claims, currentPassword, newPassword string) error
}

// New returns the authenticated password-change handler. It is guarded
// by the refresh token so a leaked access token cannot change the
// password. Success revokes all sessions: every device must log in again.
func New(ctx context.Context,
	log *slog.Logger,
	service Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.change_password.New"

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

		var req Request

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		log.Info("Request body decoded")

		if err := validator.New().Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		if err := service.ChangePassword(ctx, claims, req.CurrentPass, req.NewPass); err != nil {
			if errors.Is(err, auth.ErrSessionRevoked) || errors.Is(err, auth.ErrInvalidCredentials) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Invalid credentials"))

				return
			}

			log.Error("failed to change password", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Password changed successfully")

		render.JSON(w, r, resp.OK())
	}
}
