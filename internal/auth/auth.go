package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"club_service/internal/emails"
	sl "club_service/internal/lib/logger"
	"club_service/internal/lib/random"
	"club_service/internal/models"
	"club_service/internal/storage"
	"club_service/internal/token"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrEmailNotFound      = errors.New("email not found")
	ErrSessionRevoked     = errors.New("session revoked or not found")
	ErrInvalidResetCode   = errors.New("invalid or expired reset code")
)

const resetCodeDigits = 6

type CredentialStore interface {
	LoginLookup(ctx context.Context, username, email string) (models.User, error)
	UserProfile(ctx context.Context, userID int64) (models.User, error)
	CreateUser(ctx context.Context, u models.NewUser) (int64, error)
	PasswordHashByUserID(ctx context.Context, userID int64) ([]byte, error)
	UpdatePasswordHashByUserID(ctx context.Context, userID int64, hash []byte) error
	UpdatePasswordHashByEmail(ctx context.Context, email string, hash []byte) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, userID int64, jti string, expiresAt time.Time) error
	VerifySession(ctx context.Context, userID int64, jti string) error
	RevokeSessions(ctx context.Context, userID int64) error
}

type ResetCodeStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	InsertResetCode(ctx context.Context, email, code string, ttl time.Duration) error
	CheckResetCode(ctx context.Context, email, code string) error
	ConsumeResetCode(ctx context.Context, email, code string) error
}

// Publisher queues an outbound email. Delivery is best-effort: a publish
// failure never rolls back the business operation that triggered it.
type Publisher interface {
	Publish(ctx context.Context, msg models.EmailMessage) error
}

type Auth struct {
	log      *slog.Logger
	creds    CredentialStore
	sessions SessionStore
	codes    ResetCodeStore
	tokens   *token.Service
	mail     Publisher

	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	codeTTL    time.Duration
}

func New(
	log *slog.Logger,
	creds CredentialStore,
	sessions SessionStore,
	codes ResetCodeStore,
	tokens *token.Service,
	mail Publisher,
	accessTTL, refreshTTL, resetTTL, codeTTL time.Duration,
) *Auth {
	return &Auth{
		log:        log,
		creds:      creds,
		sessions:   sessions,
		codes:      codes,
		tokens:     tokens,
		mail:       mail,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
		codeTTL:    codeTTL,
	}
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         models.User
}

// Login checks the credentials, mints an access and a refresh token and
// persists the refresh token's jti as the new active session. A session
// persistence failure fails the login even though the password matched.
func (a *Auth) Login(ctx context.Context, username, email, password string) (LoginResult, error) {
	const op = "auth.Login"

	log := a.log.With(slog.String("op", op))

	user, err := a.creds.LoginLookup(ctx, username, email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			log.Warn("user not found")
			return LoginResult{}, ErrUserNotFound
		}

		log.Error("failed to look up user", sl.Err(err))
		return LoginResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(password)); err != nil {
		log.Info("incorrect password", slog.Int64("uid", user.ID))
		return LoginResult{}, ErrInvalidCredentials
	}

	accessToken, err := a.tokens.NewAccess(user, a.accessTTL)
	if err != nil {
		log.Error("failed to mint access token", sl.Err(err))
		return LoginResult{}, fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, jti, err := a.mintRefresh(user)
	if err != nil {
		log.Error("failed to mint refresh token", sl.Err(err))
		return LoginResult{}, fmt.Errorf("%s: %w", op, err)
	}

	err = a.sessions.CreateSession(ctx, user.ID, jti, time.Now().UTC().Add(a.refreshTTL))
	if err != nil {
		log.Error("failed to persist session", sl.Err(err))
		return LoginResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged in", slog.Int64("uid", user.ID))

	user.PassHash = nil

	return LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// Refresh exchanges a verified refresh token for a new access token. The
// (user_id, jti) pair must still be the active session; the jti check is
// what makes revocation pre-empt the token's own expiry. The refresh token
// rotates: a new jti supersedes the old session.
func (a *Auth) Refresh(ctx context.Context, claims token.Claims) (accessToken, refreshToken string, err error) {
	const op = "auth.Refresh"

	log := a.log.With(slog.String("op", op))

	if err := a.sessions.VerifySession(ctx, claims.UserID, claims.JTI()); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			log.Warn("stale or revoked session", slog.Int64("uid", claims.UserID))
			return "", "", ErrSessionRevoked
		}

		log.Error("failed to verify session", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	user := userFromClaims(claims)

	accessToken, err = a.tokens.NewAccess(user, a.accessTTL)
	if err != nil {
		log.Error("failed to mint access token", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	refreshToken, jti, err := a.mintRefresh(user)
	if err != nil {
		log.Error("failed to mint refresh token", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	err = a.sessions.CreateSession(ctx, user.ID, jti, time.Now().UTC().Add(a.refreshTTL))
	if err != nil {
		log.Error("failed to rotate session", sl.Err(err))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("tokens refreshed", slog.Int64("uid", user.ID))

	return accessToken, refreshToken, nil
}

// Logout revokes every active session for the user. It is coarse-grained
// (all devices) and idempotent: a second call finds nothing to revoke and
// still succeeds.
func (a *Auth) Logout(ctx context.Context, claims token.Claims) error {
	const op = "auth.Logout"

	log := a.log.With(slog.String("op", op))

	if err := a.sessions.RevokeSessions(ctx, claims.UserID); err != nil {
		log.Error("failed to revoke sessions", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("user logged out", slog.Int64("uid", claims.UserID))

	return nil
}

// Enroll registers a new user. Uniqueness is enforced by the store. The
// welcome email is best-effort: its failure does not fail the signup.
func (a *Auth) Enroll(ctx context.Context, u models.NewUser, password string) (int64, error) {
	const op = "auth.Enroll"

	log := a.log.With(slog.String("op", op))

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	u.PassHash = passHash

	id, err := a.creds.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, storage.ErrUserExists) {
			log.Warn("user already exists", slog.String("username", u.Username))
			return 0, ErrUserExists
		}

		log.Error("failed to create user", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	subject, html, err := emails.Welcome(u.FirstName)
	if err != nil {
		log.Error("failed to render welcome email", sl.Err(err))
	} else if err := a.mail.Publish(ctx, models.EmailMessage{
		To:      u.Email,
		Subject: subject,
		HTML:    html,
	}); err != nil {
		log.Error("failed to queue welcome email", sl.Err(err))
	}

	log.Info("user enrolled", slog.Int64("uid", id))

	return id, nil
}

// ForgotPassword generates a short-lived reset code, stores it, queues the
// code email and returns a reset-scoped token carrying the email claim.
func (a *Auth) ForgotPassword(ctx context.Context, email string) (string, error) {
	const op = "auth.ForgotPassword"

	log := a.log.With(slog.String("op", op))

	exists, err := a.codes.EmailExists(ctx, email)
	if err != nil {
		log.Error("failed to check email", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		log.Warn("email not registered")
		return "", ErrEmailNotFound
	}

	code, err := random.Code(resetCodeDigits)
	if err != nil {
		log.Error("failed to generate code", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := a.codes.InsertResetCode(ctx, email, code, a.codeTTL); err != nil {
		log.Error("failed to store code", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resetToken, err := a.tokens.NewReset(email, a.resetTTL)
	if err != nil {
		log.Error("failed to mint reset token", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	subject, html, err := emails.ResetCode(code, a.codeTTL)
	if err != nil {
		log.Error("failed to render code email", sl.Err(err))
	} else if err := a.mail.Publish(ctx, models.EmailMessage{
		To:      email,
		Subject: subject,
		HTML:    html,
	}); err != nil {
		log.Error("failed to queue code email", sl.Err(err))
	}

	log.Info("reset code issued")

	return resetToken, nil
}

// VerifyResetCode checks a pending code against the email carried by the
// reset token's claims, without consuming it.
func (a *Auth) VerifyResetCode(ctx context.Context, email, code string) error {
	const op = "auth.VerifyResetCode"

	log := a.log.With(slog.String("op", op))

	if err := a.codes.CheckResetCode(ctx, email, code); err != nil {
		if errors.Is(err, storage.ErrCodeInvalid) {
			log.Warn("reset code rejected")
			return ErrInvalidResetCode
		}

		log.Error("failed to check code", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// ResetPassword consumes the code, writes the new hash and revokes every
// session for the account. The code is single-use: a second submit with
// the same code fails even inside its TTL window.
func (a *Auth) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	const op = "auth.ResetPassword"

	log := a.log.With(slog.String("op", op))

	if err := a.codes.ConsumeResetCode(ctx, email, code); err != nil {
		if errors.Is(err, storage.ErrCodeInvalid) {
			log.Warn("reset code rejected")
			return ErrInvalidResetCode
		}

		log.Error("failed to consume code", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.creds.UpdatePasswordHashByEmail(ctx, email, passHash); err != nil {
		log.Error("failed to update password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.revokeByEmail(ctx, email); err != nil {
		log.Error("failed to revoke sessions after reset", sl.Err(err))
	}

	log.Info("password reset")

	return nil
}

// ChangePassword is the authenticated path. It requires a live refresh
// session (stronger proof than an access token), re-checks the current
// password and forces re-login everywhere by revoking all sessions.
func (a *Auth) ChangePassword(ctx context.Context, claims token.Claims, currentPassword, newPassword string) error {
	const op = "auth.ChangePassword"

	log := a.log.With(slog.String("op", op))

	if err := a.sessions.VerifySession(ctx, claims.UserID, claims.JTI()); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			log.Warn("stale or revoked session", slog.Int64("uid", claims.UserID))
			return ErrSessionRevoked
		}

		log.Error("failed to verify session", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	hash, err := a.creds.PasswordHashByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return ErrUserNotFound
		}

		log.Error("failed to load password hash", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(currentPassword)); err != nil {
		log.Info("current password mismatch", slog.Int64("uid", claims.UserID))
		return ErrInvalidCredentials
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.creds.UpdatePasswordHashByUserID(ctx, claims.UserID, newHash); err != nil {
		log.Error("failed to update password", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := a.sessions.RevokeSessions(ctx, claims.UserID); err != nil {
		log.Error("failed to revoke sessions after change", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("password changed", slog.Int64("uid", claims.UserID))

	return nil
}

// Profile returns the stored profile for an authenticated user.
func (a *Auth) Profile(ctx context.Context, userID int64) (models.User, error) {
	const op = "auth.Profile"

	user, err := a.creds.UserProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return models.User{}, ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

func (a *Auth) mintRefresh(user models.User) (raw, jti string, err error) {
	jti = uuid.NewString()

	raw, err = a.tokens.NewRefresh(user, jti, a.refreshTTL)
	if err != nil {
		return "", "", err
	}

	return raw, jti, nil
}

func (a *Auth) revokeByEmail(ctx context.Context, email string) error {
	user, err := a.creds.LoginLookup(ctx, "", email)
	if err != nil {
		return err
	}

	return a.sessions.RevokeSessions(ctx, user.ID)
}

func userFromClaims(c token.Claims) models.User {
	return models.User{
		ID:       c.UserID,
		Username: c.Username,
		Email:    c.Email,
		UserType: c.UserType,
	}
}
