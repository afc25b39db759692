package submit_password_reset

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
	Code string `json:"code" validate:"required,len=6,numeric"`
	Pass string `json:"new_password" validate:"required,min=8"`
}

type Service interface {
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

// New returns the final reset step. The code is re-checked and consumed
// here, so a reset token alone is never enough to change a password.
func New(ctx context.Context,
	log *slog.Logger,
	service Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.submit_password_reset.New"

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

		if err := service.ResetPassword(ctx, claims.Email, req.Code, req.Pass); err != nil {
			if errors.Is(err, auth.ErrInvalidResetCode) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Invalid or expired code"))

				return
			}

			log.Error("failed to reset password", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Password reset successfully")

		render.JSON(w, r, resp.OK())
	}
}
