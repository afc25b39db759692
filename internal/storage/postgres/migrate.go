package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"club_service/internal/config"
	"club_service/internal/storage/postgres/migrations"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations applies the embedded schema and stored-procedure
// migrations. It opens its own database/sql connection because goose does
// not speak pgxpool.
func RunMigrations(ctx context.Context, cfg *config.Config) error {
	const op = "storage.postgres.RunMigrations"

	db, err := sql.Open("pgx", DSN(cfg))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
