package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"club_service/internal/config"
	"club_service/internal/models"
	"club_service/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepo reaches the credential store exclusively through the stored
// procedures installed by the migrations. Procedures report outcomes as a
// (message, success) pair which is converted to an error here so that no
// raw store detail crosses the workflow boundary.
type PostgresRepo struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, cfg *config.Config) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return &PostgresRepo{pool: pool}, nil
}

// LoginLookup resolves a credential row by username or email.
func (r *PostgresRepo) LoginLookup(ctx context.Context, username, email string) (models.User, error) {
	const op = "storage.postgres.LoginLookup"

	query := `
		SELECT user_id, username, email, first_name, last_name,
		       profile_photo_url, user_type, user_status, password_hash
		FROM public.user_login($1, $2);
	`

	var u models.User
	err := r.pool.QueryRow(ctx, query, nullable(username), nullable(email)).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PhotoURL,
		&u.UserType,
		&u.Status,
		&u.PassHash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *PostgresRepo) UserProfile(ctx context.Context, userID int64) (models.User, error) {
	const op = "storage.postgres.UserProfile"

	query := `
		SELECT user_id, username, email, first_name, last_name,
		       profile_photo_url, user_type, user_status
		FROM public.get_user_profile($1);
	`

	var u models.User
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.PhotoURL,
		&u.UserType,
		&u.Status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// CreateUser inserts a new user atomically. Uniqueness of username and
// email is enforced by the store, not by the caller.
func (r *PostgresRepo) CreateUser(ctx context.Context, u models.NewUser) (int64, error) {
	const op = "storage.postgres.CreateUser"

	query := `SELECT message, success, user_id FROM public.insert_user($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`

	var (
		message string
		success bool
		userID  int64
	)

	err := r.pool.QueryRow(ctx, query,
		u.FirstName,
		u.LastName,
		u.Username,
		u.Email,
		nullable(u.Phone),
		string(u.PassHash),
		nullable(u.BirthDate),
		nullable(u.DocNumber),
		nullable(u.DocType),
		nullable(u.Gender),
	).Scan(&message, &success, &userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, storage.ErrUserExists
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if !success {
		return 0, fmt.Errorf("%s: %s", op, message)
	}

	return userID, nil
}

// CreateSession records (userID, jti) as the single active session for the
// user, revoking whatever was active before.
func (r *PostgresRepo) CreateSession(ctx context.Context, userID int64, jti string, expiresAt time.Time) error {
	const op = "storage.postgres.CreateSession"

	var (
		message string
		success bool
	)

	err := r.pool.QueryRow(ctx,
		`CALL public.sp_create_user_session($1, $2, $3, NULL, NULL);`,
		userID, jti, expiresAt,
	).Scan(&message, &success)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !success {
		return fmt.Errorf("%s: %s", op, message)
	}

	return nil
}

// VerifySession checks that (userID, jti) is still the active, non-revoked
// session. A revoked or stale jti fails even while the token's own
// signature and expiry would still verify.
func (r *PostgresRepo) VerifySession(ctx context.Context, userID int64, jti string) error {
	const op = "storage.postgres.VerifySession"

	var (
		message string
		success bool
	)

	err := r.pool.QueryRow(ctx,
		`SELECT message, success FROM public.verify_user_session($1, $2);`,
		userID, jti,
	).Scan(&message, &success)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !success {
		return storage.ErrSessionNotFound
	}

	return nil
}

// RevokeSessions revokes every active session for the user. Revoking an
// already revoked set is not an error.
func (r *PostgresRepo) RevokeSessions(ctx context.Context, userID int64) error {
	const op = "storage.postgres.RevokeSessions"

	var (
		message string
		success bool
	)

	err := r.pool.QueryRow(ctx,
		`CALL public.sp_revoke_user_sessions($1, NULL, NULL);`,
		userID,
	).Scan(&message, &success)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !success {
		return fmt.Errorf("%s: %s", op, message)
	}

	return nil
}

func (r *PostgresRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	const op = "storage.postgres.EmailExists"

	var exists bool

	err := r.pool.QueryRow(ctx, `SELECT public.email_exists($1);`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

func (r *PostgresRepo) InsertResetCode(ctx context.Context, email, code string, ttl time.Duration) error {
	const op = "storage.postgres.InsertResetCode"

	var (
		message string
		success bool
	)

	err := r.pool.QueryRow(ctx,
		`CALL public.sp_insert_reset_code($1, $2, $3, NULL, NULL);`,
		email, code, int64(ttl.Seconds()),
	).Scan(&message, &success)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !success {
		return fmt.Errorf("%s: %s", op, message)
	}

	return nil
}

// CheckResetCode validates a pending code without consuming it. Expired
// codes never validate.
func (r *PostgresRepo) CheckResetCode(ctx context.Context, email, code string) error {
	const op = "storage.postgres.CheckResetCode"

	var valid bool

	err := r.pool.QueryRow(ctx, `SELECT public.check_reset_code($1, $2);`, email, code).Scan(&valid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !valid {
		return storage.ErrCodeInvalid
	}

	return nil
}

// ConsumeResetCode validates and marks the code used in one step, so a
// successful password reset burns it.
func (r *PostgresRepo) ConsumeResetCode(ctx context.Context, email, code string) error {
	const op = "storage.postgres.ConsumeResetCode"

	var consumed bool

	err := r.pool.QueryRow(ctx, `SELECT public.consume_reset_code($1, $2);`, email, code).Scan(&consumed)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !consumed {
		return storage.ErrCodeInvalid
	}

	return nil
}

func (r *PostgresRepo) PasswordHashByUserID(ctx context.Context, userID int64) ([]byte, error) {
	const op = "storage.postgres.PasswordHashByUserID"

	var hash []byte

	err := r.pool.QueryRow(ctx, `SELECT public.get_user_password($1);`, userID).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if hash == nil {
		return nil, storage.ErrUserNotFound
	}

	return hash, nil
}

func (r *PostgresRepo) UpdatePasswordHashByUserID(ctx context.Context, userID int64, hash []byte) error {
	const op = "storage.postgres.UpdatePasswordHashByUserID"

	return r.updatePassword(ctx, op,
		`CALL public.sp_update_user_password_by_userid($1, $2, NULL, NULL);`,
		userID, string(hash))
}

func (r *PostgresRepo) UpdatePasswordHashByEmail(ctx context.Context, email string, hash []byte) error {
	const op = "storage.postgres.UpdatePasswordHashByEmail"

	return r.updatePassword(ctx, op,
		`CALL public.sp_update_user_password_by_email($1, $2, NULL, NULL);`,
		email, string(hash))
}

func (r *PostgresRepo) updatePassword(ctx context.Context, op, query string, args ...any) error {
	var (
		message string
		success bool
	)

	err := r.pool.QueryRow(ctx, query, args...).Scan(&message, &success)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !success {
		return fmt.Errorf("%s: %s", op, message)
	}

	return nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

// DSN builds the connection string used by the pool, the migration runner
// and the event listener's dedicated connection.
func DSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s database=%s sslmode=%s",
		cfg.Postgres.Host,
		cfg.Postgres.Port,
		cfg.Postgres.User,
		cfg.Postgres.Password,
		cfg.Postgres.DBName,
		cfg.Postgres.SSLMode,
	)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}

	return s
}
