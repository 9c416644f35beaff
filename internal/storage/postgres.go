package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ndenisov/todoview/internal/models"
)

type postgresTodoStore struct {
	logger zerolog.Logger
	pgPool *pgxpool.Pool
}

func NewPostgresTodoStore(
	logger zerolog.Logger,
	pgPool *pgxpool.Pool,
) TodoStore {
	return &postgresTodoStore{
		logger: logger,
		pgPool: pgPool,
	}
}

func (s *postgresTodoStore) Create(ctx context.Context, todo *models.Todo) error {
	const insertTodoQuery = `
INSERT INTO todos (id,
                   owner_id,
                   title,
                   description,
                   status,
                   priority,
                   due_date,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err := s.pgPool.Exec(
		ctx,
		insertTodoQuery,
		todo.ID,
		todo.OwnerID,
		todo.Title,
		todo.Description,
		todo.Status,
		todo.Priority,
		todo.DueDate,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert todo")
		return err
	}
	s.logger.Debug().
		Str("todo_id", todo.ID).
		Msg("inserted todo")
	return nil
}

func (s *postgresTodoStore) GetByID(ctx context.Context, ownerID, id string) (*models.Todo, error) {
	todo := &models.Todo{
		ID:      id,
		OwnerID: ownerID,
	}

	const selectTodoByIDQuery = `
SELECT title,
       description,
       status,
       priority,
       due_date,
       created_at,
       updated_at
FROM todos
WHERE id = $1 AND owner_id = $2
`
	err := s.pgPool.QueryRow(
		ctx,
		selectTodoByIDQuery,
		todo.ID,
		todo.OwnerID,
	).Scan(
		&todo.Title,
		&todo.Description,
		&todo.Status,
		&todo.Priority,
		&todo.DueDate,
		&todo.CreatedAt,
		&todo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("todo_id", id).
			Msg("failed to select todo by id")
		return nil, err
	}
	return todo, nil
}

func (s *postgresTodoStore) Update(ctx context.Context, todo *models.Todo) (*models.Todo, error) {
	const updateTodoQuery = `
UPDATE todos
SET title = $1,
    description = $2,
    status = $3,
    priority = $4,
    due_date = $5,
    updated_at = $6
WHERE id = $7 AND owner_id = $8
RETURNING created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		updateTodoQuery,
		todo.Title,
		todo.Description,
		todo.Status,
		todo.Priority,
		todo.DueDate,
		todo.UpdatedAt,
		todo.ID,
		todo.OwnerID,
	).Scan(&todo.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("todo_id", todo.ID).
			Msg("failed to update todo")
		return nil, err
	}
	s.logger.Debug().
		Str("todo_id", todo.ID).
		Msg("updated todo")
	return todo, nil
}

func (s *postgresTodoStore) Delete(ctx context.Context, ownerID, id string) error {
	const deleteTodoQuery = `
DELETE FROM todos
WHERE id = $1 AND owner_id = $2
`
	tag, err := s.pgPool.Exec(
		ctx,
		deleteTodoQuery,
		id,
		ownerID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("todo_id", id).
			Msg("failed to delete todo")
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.logger.Debug().
		Str("todo_id", id).
		Msg("deleted todo")
	return nil
}

func (s *postgresTodoStore) QueryAll(ctx context.Context, ownerID string) ([]models.Todo, error) {
	const selectTodosByOwnerQuery = `
SELECT id,
       title,
       description,
       status,
       priority,
       due_date,
       created_at,
       updated_at
FROM todos
WHERE owner_id = $1
`
	rows, err := s.pgPool.Query(
		ctx,
		selectTodosByOwnerQuery,
		ownerID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("owner_id", ownerID).
			Msg("failed to select todos by owner id")
		return nil, err
	}
	defer rows.Close()

	var todos []models.Todo
	for rows.Next() {
		todo := models.Todo{OwnerID: ownerID}
		err = rows.Scan(
			&todo.ID,
			&todo.Title,
			&todo.Description,
			&todo.Status,
			&todo.Priority,
			&todo.DueDate,
			&todo.CreatedAt,
			&todo.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan todo")
			return nil, err
		}
		todos = append(todos, todo)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}
	return todos, nil
}

func (s *postgresTodoStore) SetCompletion(ctx context.Context, ownerID, id string, completed bool, updatedAt time.Time) (*models.Todo, error) {
	todo := &models.Todo{
		ID:        id,
		OwnerID:   ownerID,
		UpdatedAt: updatedAt,
	}

	// Completing forces status to completed; un-completing only reverts a
	// completed todo to pending. One statement keeps the pair consistent
	// under concurrent toggles.
	const setCompletionQuery = `
UPDATE todos
SET status = CASE
        WHEN $1 THEN 'completed'
        WHEN status = 'completed' THEN 'pending'
        ELSE status
    END,
    updated_at = $2
WHERE id = $3 AND owner_id = $4
RETURNING title, description, status, priority, due_date, created_at
`
	err := s.pgPool.QueryRow(
		ctx,
		setCompletionQuery,
		completed,
		todo.UpdatedAt,
		todo.ID,
		todo.OwnerID,
	).Scan(
		&todo.Title,
		&todo.Description,
		&todo.Status,
		&todo.Priority,
		&todo.DueDate,
		&todo.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		s.logger.Error().
			Err(err).
			Str("todo_id", id).
			Msg("failed to set todo completion")
		return nil, err
	}
	s.logger.Debug().
		Str("todo_id", id).
		Bool("completed", completed).
		Msg("set todo completion")
	return todo, nil
}
