package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ndenisov/todoview/internal/models"
)

type postgresUserStore struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewPostgresUserStore(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) UserStore {
	return &postgresUserStore{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *postgresUserStore) Create(ctx context.Context, user *models.User) error {
	const insertUserQuery = `
INSERT INTO users (id,
                   username,
                   email,
                   full_name,
                   password,
                   is_active,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	_, err := s.pgPool.Exec(
		ctx,
		insertUserQuery,
		user.ID,
		user.Username,
		user.Email,
		user.FullName,
		user.Password,
		user.IsActive,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrAlreadyExists
		}

		s.logger.Error().
			Err(err).
			Msg("failed to insert user")
		return err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Str("username", user.Username).
		Msg("inserted user")
	return nil
}

func (s *postgresUserStore) GetByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{
		ID: id,
	}

	const selectUserByIDQuery = `
SELECT username,
       email,
       full_name,
       password,
       is_active,
       created_at,
       updated_at
FROM users
WHERE id = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectUserByIDQuery,
		user.ID,
	).Scan(
		&user.Username,
		&user.Email,
		&user.FullName,
		&user.Password,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("user_id", id).
			Msg("failed to select user by id")
		return nil, err
	}
	return user, nil
}

func (s *postgresUserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{
		Username: username,
	}

	const selectUserByUsernameQuery = `
SELECT id,
       email,
       full_name,
       password,
       is_active,
       created_at,
       updated_at
FROM users
WHERE username = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectUserByUsernameQuery,
		user.Username,
	).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.Password,
		&user.IsActive,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("username", username).
			Msg("failed to select user by username")
		return nil, err
	}
	return user, nil
}

func (s *postgresUserStore) Update(ctx context.Context, user *models.User) (*models.User, error) {
	const updateUserQuery = `
UPDATE users
SET username = $1,
    email = $2,
    full_name = $3,
    password = $4,
    is_active = $5,
    updated_at = $6
WHERE id = $7
RETURNING created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		updateUserQuery,
		user.Username,
		user.Email,
		user.FullName,
		user.Password,
		user.IsActive,
		user.UpdatedAt,
		user.ID,
	).Scan(&user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrAlreadyExists
		}

		s.logger.Error().
			Err(err).
			Str("user_id", user.ID).
			Msg("failed to update user")
		return nil, err
	}
	s.logger.Debug().
		Str("user_id", user.ID).
		Msg("updated user")
	return user, nil
}
