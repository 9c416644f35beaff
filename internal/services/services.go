package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ndenisov/todoview/internal/models"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserInactive         = errors.New("user inactive")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
	ErrTodoNotFound         = errors.New("todo not found")
)

// ValidationError reports a malformed filter, pagination or body input
// together with the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type AuthService interface {
	// Login authenticates the user by username and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// username doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token doesn't exist or ErrSessionExpired
	// if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register a user with the given username, email and password.
	//
	// It hashes the password, generates a unique ID and creates a
	// session with the given fingerprint and a fresh JWT token pair.
	//
	// It returns ErrUserAlreadyExists if the username
	// or the email is already taken.
	Register(ctx context.Context, params RegisterParams) (*models.User, *LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// GetUserByID returns the user or ErrUserNotFound.
	GetUserByID(ctx context.Context, userID string) (*models.User, error)

	// UpdateProfile patches email and full name. A taken email
	// maps to ErrUserAlreadyExists.
	UpdateProfile(ctx context.Context, params UpdateProfileParams) (*models.User, error)

	// ChangePassword verifies the current password and replaces it.
	// A wrong current password maps to ErrUserPasswordMismatch.
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error

	// ParseJWTToken parses the given JWT token and returns the registered
	// claims or jwt.ErrTokenExpired if the token is expired.
	ParseJWTToken(token string) (*jwt.RegisteredClaims, error)
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
}

// TodoService is the query/view engine plus the CRUD operations around
// it. Every operation is scoped to one owner; a todo that exists under a
// different owner is indistinguishable from one that doesn't exist.
type TodoService interface {
	CreateTodo(ctx context.Context, params CreateTodoParams) (*models.Todo, error)
	GetTodoByID(ctx context.Context, ownerID, todoID string) (*models.Todo, error)
	UpdateTodo(ctx context.Context, params UpdateTodoParams) (*models.Todo, error)
	DeleteTodo(ctx context.Context, ownerID, todoID string) error

	// ListTodos applies the filter conjunctively, orders by created_at
	// descending (ties by id descending) and paginates.
	ListTodos(ctx context.Context, ownerID string, filter TodoFilter) (*TodoPage, error)

	// GetOverdueTodos returns uncompleted todos whose due date lies
	// strictly before now, ascending by due date, unpaginated.
	GetOverdueTodos(ctx context.Context, ownerID string) ([]models.Todo, error)

	// GetTodosDueSoon returns uncompleted todos due within the half-open
	// window [now, now+hours), ascending by due date. A zero hours is not
	// accepted; the handler supplies the configured default.
	GetTodosDueSoon(ctx context.Context, ownerID string, hours int) ([]models.Todo, error)

	// GetTodoStats aggregates the owner's full todo set in one pass.
	GetTodoStats(ctx context.Context, ownerID string) (*models.TodoStats, error)

	// SetTodoCompletion flips the completion state, reconciling status
	// atomically. It returns ErrTodoNotFound for absent and foreign ids
	// alike.
	SetTodoCompletion(ctx context.Context, ownerID, todoID string, completed bool) (*models.Todo, error)
}

type CreateTodoParams struct {
	OwnerID     string
	Title       string
	Description string
	Priority    *models.TodoPriority
	DueDate     *time.Time
}

type UpdateTodoParams struct {
	OwnerID     string
	TodoID      string
	Title       *string
	Description *string
	Status      *models.TodoStatus
	Priority    *models.TodoPriority
	DueDate     *time.Time
	IsCompleted *bool
}

// TodoFilter carries the list query parameters. All predicate fields are
// optional and combined with logical AND. Page and PerPage must be set by
// the caller; defaults are applied at the transport boundary.
type TodoFilter struct {
	Status      *models.TodoStatus
	Priority    *models.TodoPriority
	IsCompleted *bool
	Search      string
	// DueBefore and DueAfter bound the due date inclusively. Todos
	// without a due date never match a due-bounded filter.
	DueBefore *time.Time
	DueAfter  *time.Time
	Page      int
	PerPage   int
}

type TodoPage struct {
	Todos   []models.Todo
	Total   int
	Page    int
	PerPage int
	HasNext bool
	HasPrev bool
}

// TodoLimits bounds the list and due-soon parameters. The defaults are
// applied by the HTTP layer when a parameter is absent; the maxima are
// enforced by the service.
type TodoLimits struct {
	DefaultPageSize     int
	MaxPageSize         int
	DefaultDueSoonHours int
	MaxDueSoonHours     int
}

type LoginParams struct {
	Username    string
	Password    string
	Fingerprint string
}

type RegisterParams struct {
	Username    string
	Email       string
	FullName    string
	Password    string
	Fingerprint string
}

type UpdateProfileParams struct {
	UserID   string
	Email    *string
	FullName *string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}
