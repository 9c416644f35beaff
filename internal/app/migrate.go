package app

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ndenisov/todoview/internal/config"
)

func MustMigratePostgres() {
	cfg := config.Global().Postgres
	connURL := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.Username, cfg.Password, cfg.Host,
		cfg.Port, cfg.Database, cfg.SSLMode)

	db, err := goose.OpenDBWithDriver("pgx", connURL)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Msg("failed to open migration connection")
		panic(err)
	}
	defer func() { _ = db.Close() }()

	err = goose.Up(db, cfg.MigrationsDir)
	if err != nil {
		globalLogger.Error().
			Err(err).
			Str("dir", cfg.MigrationsDir).
			Msg("failed to run migrations")
		panic(err)
	}
	globalLogger.Info().
		Str("dir", cfg.MigrationsDir).
		Msg("applied migrations")
}
