package forgot_password

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"club_service/internal/auth"
	resp "club_service/internal/lib/api/response"
	sl "club_service/internal/lib/logger"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Email string `json:"email" validate:"required,email"`
}

type Response struct {
	resp.Response
	ResetToken string `json:"reset_token"`
}

type Service interface {
	ForgotPassword(ctx context.Context, email string) (string, error)
}

// New returns the forgot-password handler. The 6-digit code goes out by
// email; the response carries a short-lived reset-scoped token that the
// verify and submit steps authenticate with.
func New(ctx context.Context,
	log *slog.Logger,
	service Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.forgot_password.New"

		log = log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

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

		resetToken, err := service.ForgotPassword(ctx, req.Email)
		if err != nil {
			if errors.Is(err, auth.ErrEmailNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("Email not registered"))

				return
			}

			log.Error("failed to start password reset", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("Reset code sent")

		render.JSON(w, r, Response{
			Response:   resp.OK(),
			ResetToken: resetToken,
		})
	}
}
