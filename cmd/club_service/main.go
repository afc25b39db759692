package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"club_service/internal/auth"
	"club_service/internal/config"
	"club_service/internal/http_server/handlers/change_password"
	"club_service/internal/http_server/handlers/enroll"
	"club_service/internal/http_server/handlers/forgot_password"
	"club_service/internal/http_server/handlers/login"
	"club_service/internal/http_server/handlers/logout"
	"club_service/internal/http_server/handlers/me"
	"club_service/internal/http_server/handlers/refresh"
	"club_service/internal/http_server/handlers/submit_password_reset"
	"club_service/internal/http_server/handlers/verify_reset_code"
	sl "club_service/internal/lib/logger"
	rateLimit "club_service/internal/middleware/ratelimit"
	"club_service/internal/rabbitmq"
	"club_service/internal/storage/postgres"
	"club_service/internal/token"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

func main() {
	cfg := config.MustLoad("./config/config.yaml")

	log := sl.Setup(cfg.Env)

	log.Info("starting club service", slog.String("env", cfg.Env))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutdown signal received")
		cancel()
	}()

	if err := postgres.RunMigrations(ctx, cfg); err != nil {
		log.Error("failed to run migrations", sl.Err(err))
		os.Exit(1)
	}

	storage, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer storage.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer msgBroker.Close()

	tokens := token.NewService(cfg.Tokens.Secret, cfg.Tokens.Issuer)

	authService := auth.New(
		log,
		storage,
		storage,
		storage,
		tokens,
		msgBroker,
		cfg.Tokens.AccessTokenTTL,
		cfg.Tokens.RefreshTokenTTL,
		cfg.Tokens.ResetTokenTTL,
		cfg.Tokens.ResetCodeTTL,
	)

	router := setupRouter(ctx, log, cfg, tokens, authService)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", sl.Err(err))
			cancel()
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}

	log.Info("Club service stopped")
}

func setupRouter(
	ctx context.Context,
	log *slog.Logger,
	cfg *config.Config,
	tokens *token.Service,
	authService *auth.Auth,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	cookieName := cfg.Tokens.CookieName
	cookiePath := cfg.Tokens.CookiePath

	requireAccess := token.Require(tokens, token.TypeAccess, cookieName)
	requireRefresh := token.Require(tokens, token.TypeRefresh, cookieName)
	requireReset := token.Require(tokens, token.TypeReset, cookieName)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(rateLimit.Login()).Post("/login",
				login.New(ctx, log, authService, cookieName, cookiePath, cfg.Tokens.RefreshTokenTTL),
			)
			r.With(rateLimit.Enroll()).Post("/enroll",
				enroll.New(ctx, log, authService),
			)
			r.With(rateLimit.Refresh(), requireRefresh).Post("/refresh",
				refresh.New(ctx, log, authService, cookieName, cookiePath, cfg.Tokens.RefreshTokenTTL),
			)
			r.With(rateLimit.Logout(), requireRefresh).Post("/logout",
				logout.New(ctx, log, authService, cookieName, cookiePath),
			)
			r.With(rateLimit.ForgotPassword()).Post("/forgot-password",
				forgot_password.New(ctx, log, authService),
			)
			r.With(rateLimit.VerifyResetCode(), requireReset).Post("/verify-reset-code",
				verify_reset_code.New(ctx, log, authService),
			)
			r.With(rateLimit.SubmitPasswordReset(), requireReset).Post("/reset-password",
				submit_password_reset.New(ctx, log, authService),
			)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(requireAccess).Get("/me",
				me.New(ctx, log, authService),
			)
			r.With(rateLimit.ChangePassword(), requireRefresh).Post("/change-password",
				change_password.New(ctx, log, authService),
			)
		})
	})

	return r
}
