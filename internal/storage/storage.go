package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ndenisov/todoview/internal/models"
)

// ErrNotFound covers both a missing row and a row owned by someone else,
// so callers cannot tell the two apart.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists maps a unique-constraint violation (username or email).
var ErrAlreadyExists = errors.New("already exists")

// TodoStore is the persistence boundary for todos. Every method is scoped
// to one owner; QueryAll is the query engine's only read primitive.
type TodoStore interface {
	Create(ctx context.Context, todo *models.Todo) error
	GetByID(ctx context.Context, ownerID, id string) (*models.Todo, error)
	Update(ctx context.Context, todo *models.Todo) (*models.Todo, error)
	Delete(ctx context.Context, ownerID, id string) error
	QueryAll(ctx context.Context, ownerID string) ([]models.Todo, error)

	// SetCompletion flips the completion state and reconciles status in a
	// single statement, so concurrent toggles can never tear the pair.
	SetCompletion(ctx context.Context, ownerID, id string, completed bool, updatedAt time.Time) (*models.Todo, error)
}

// UserStore is the persistence boundary for user accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
}

// SessionStore is the persistence boundary for refresh sessions.
type SessionStore interface {
	GetByID(ctx context.Context, id string) (*models.Session, error)
	GetByRefreshToken(ctx context.Context, refreshToken, fingerprint string) (*models.Session, error)
	Update(ctx context.Context, session *models.Session) error

	// Replace drops every session of the new session's user and inserts
	// the new one in a single transaction. One live session per user.
	Replace(ctx context.Context, session *models.Session) error
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}
