package me

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"club_service/internal/auth"
	resp "club_service/internal/lib/api/response"
	sl "club_service/internal/lib/logger"
	"club_service/internal/models"
	"club_service/internal/token"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
)

type Response struct {
	resp.Response
	UserID    int64  `json:"user_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhotoURL  string `json:"photo_url,omitempty"`
	UserType  string `json:"user_type"`
	Status    string `json:"status"`
}

type Service interface {
	Profile(ctx context.Context, userID int64) (models.User, error)
}

func New(ctx context.Context,
	log *slog.Logger,
	service Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.me.New"

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

		user, err := service.Profile(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, auth.ErrUserNotFound) {
				render.Status(r, http.StatusNotFound)
				render.JSON(w, r, resp.Error("User not found"))

				return
			}

			log.Error("failed to load profile", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		render.JSON(w, r, Response{
			Response:  resp.OK(),
			UserID:    user.ID,
			Username:  user.Username,
			Email:     user.Email,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			PhotoURL:  user.PhotoURL,
			UserType:  user.UserType,
			Status:    user.Status,
		})
	}
}
