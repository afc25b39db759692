package login

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
	"club_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email" validate:"omitempty,email"`
	Pass     string `json:"password" validate:"required"`
}

type Response struct {
	resp.Response
	AccessToken string `json:"access_token"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	UserType    string `json:"user_type"`
}

type Service interface {
	Login(ctx context.Context, username, email, password string) (auth.LoginResult, error)
}

// New returns the login handler. The access token travels in the body,
// the refresh token only in the httponly cookie. Unknown user and wrong
// password collapse into one generic 401 so usernames cannot be probed.
func New(ctx context.Context,
	log *slog.Logger,
	service Service,
	cookieName, cookiePath string,
	refreshTTL time.Duration,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.login.New"

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

		res, err := service.Login(ctx, req.Username, req.Email, req.Pass)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidCredentials) {
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, resp.Error("Invalid credentials"))

				return
			}

			log.Error("failed to login user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("User logged in successfully")

		cookies.SetRefresh(w, cookieName, cookiePath, res.RefreshToken, refreshTTL)

		ResponseOK(w, r, res.AccessToken, res.User)
	}
}

func ResponseOK(w http.ResponseWriter, r *http.Request, accessToken string, user models.User) {
	render.JSON(w, r, Response{
		Response:    resp.OK(),
		AccessToken: accessToken,
		UserID:      user.ID,
		Username:    user.Username,
		UserType:    user.UserType,
	})
}
