package enroll

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"club_service/internal/auth"
	resp "club_service/internal/lib/api/response"
	sl "club_service/internal/lib/logger"
	"club_service/internal/models"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Request struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Username  string `json:"username" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Pass      string `json:"password" validate:"required,min=8"`
	Phone     string `json:"phone,omitempty"`
	BirthDate string `json:"birth_date,omitempty"`
	DocNumber string `json:"doc_number,omitempty"`
	DocType   string `json:"doc_type,omitempty"`
	Gender    string `json:"gender,omitempty"`
}

type Response struct {
	resp.Response
	UserID int64 `json:"user_id"`
}

type Service interface {
	Enroll(ctx context.Context, u models.NewUser, password string) (int64, error)
}

func New(ctx context.Context,
	log *slog.Logger,
	service Service,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.enroll.New"

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

		id, err := service.Enroll(ctx, models.NewUser{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Username:  req.Username,
			Email:     req.Email,
			Phone:     req.Phone,
			BirthDate: req.BirthDate,
			DocNumber: req.DocNumber,
			DocType:   req.DocType,
			Gender:    req.Gender,
		}, req.Pass)
		if err != nil {
			if errors.Is(err, auth.ErrUserExists) {
				render.Status(r, http.StatusConflict)
				render.JSON(w, r, resp.Error("Username or email already taken"))

				return
			}

			log.Error("failed to enroll user", sl.Err(err))

			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, resp.Error("Internal error"))

			return
		}

		log.Info("User enrolled successfully", slog.Int64("uid", id))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{
			Response: resp.OK(),
			UserID:   id,
		})
	}
}
