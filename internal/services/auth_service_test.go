package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/ndenisov/todoview/internal/models"
	"github.com/ndenisov/todoview/internal/storage"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return storage.ErrAlreadyExists
		}
	}
	s.users[user.ID] = *user
	return nil
}

func (s *fakeUserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := user
	return &copied, nil
}

func (s *fakeUserStore) GetByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Username == username {
			copied := user
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeUserStore) Update(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	for id, other := range s.users {
		if id != user.ID && other.Email == user.Email {
			return nil, storage.ErrAlreadyExists
		}
	}
	user.CreatedAt = existing.CreatedAt
	s.users[user.ID] = *user
	copied := *user
	return &copied, nil
}

type fakeSessionStore struct {
	mu       sync.Mutex
	sessions map[string]models.Session
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]models.Session)}
}

func (s *fakeSessionStore) GetByID(_ context.Context, id string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := session
	return &copied, nil
}

func (s *fakeSessionStore) GetByRefreshToken(_ context.Context, refreshToken, fingerprint string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range s.sessions {
		if session.RefreshToken == refreshToken && session.Fingerprint == fingerprint {
			copied := session
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (s *fakeSessionStore) Update(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[session.ID]
	if !ok {
		return storage.ErrNotFound
	}
	stored.RefreshToken = session.RefreshToken
	stored.ExpiresAt = session.ExpiresAt
	stored.UpdatedAt = session.UpdatedAt
	s.sessions[session.ID] = stored
	return nil
}

func (s *fakeSessionStore) Replace(_ context.Context, session *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.sessions {
		if existing.UserID == session.UserID {
			delete(s.sessions, id)
		}
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *fakeSessionStore) DeleteByUserID(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var affected int64
	for id, existing := range s.sessions {
		if existing.UserID == userID {
			delete(s.sessions, id)
			affected++
		}
	}
	return affected, nil
}

func (s *fakeSessionStore) expire(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session := s.sessions[sessionID]
	session.ExpiresAt = time.Now().Add(-time.Hour)
	s.sessions[sessionID] = session
}

func newTestAuthService(users storage.UserStore, sessions storage.SessionStore) AuthService {
	return NewAuthService(
		zerolog.Nop(),
		users,
		sessions,
		"test",
		[]byte("test-signing-key"),
		15*time.Minute,
		720*time.Hour,
	)
}

func registerTestUser(t *testing.T, svc AuthService, username string) (*models.User, *LoginResult) {
	t.Helper()
	user, result, err := svc.Register(context.Background(), RegisterParams{
		Username:    username,
		Email:       username + "@example.com",
		FullName:    "Test User",
		Password:    "password-one",
		Fingerprint: "fp-1",
	})
	require.NoError(t, err)
	return user, result
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newFakeUserStore(), newFakeSessionStore())

	t.Run("creates an active user with a session", func(t *testing.T) {
		user, result := registerTestUser(t, svc, "alice")
		require.NotEmpty(t, user.ID)
		require.Equal(t, "alice", user.Username)
		require.True(t, user.IsActive)
		require.NotEqual(t, "password-one", user.Password)
		require.NotEmpty(t, result.AccessToken)
		require.NotEmpty(t, result.RefreshToken)

		claims, err := svc.ParseJWTToken(result.AccessToken)
		require.NoError(t, err)
		require.Equal(t, result.SessionID, claims.Subject)
	})

	t.Run("taken username is rejected", func(t *testing.T) {
		_, _, err := svc.Register(ctx, RegisterParams{
			Username: "alice",
			Email:    "other@example.com",
			Password: "password-one",
		})
		require.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("short password is rejected", func(t *testing.T) {
		var validationErr *ValidationError
		_, _, err := svc.Register(ctx, RegisterParams{
			Username: "bob",
			Email:    "bob@example.com",
			Password: "short",
		})
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, "password", validationErr.Field)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	sessions := newFakeSessionStore()
	svc := newTestAuthService(newFakeUserStore(), sessions)
	_, registered := registerTestUser(t, svc, "carol")

	t.Run("valid credentials", func(t *testing.T) {
		result, err := svc.Login(ctx, LoginParams{
			Username:    "carol",
			Password:    "password-one",
			Fingerprint: "fp-1",
		})
		require.NoError(t, err)
		require.NotEmpty(t, result.AccessToken)
	})

	t.Run("login replaces the previous session", func(t *testing.T) {
		_, err := sessions.GetByRefreshToken(ctx, registered.RefreshToken, "fp-1")
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginParams{
			Username: "carol",
			Password: "wrong-password",
		})
		require.ErrorIs(t, err, ErrUserPasswordMismatch)
	})

	t.Run("unknown username", func(t *testing.T) {
		_, err := svc.Login(ctx, LoginParams{
			Username: "nobody",
			Password: "password-one",
		})
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	sessions := newFakeSessionStore()
	svc := newTestAuthService(newFakeUserStore(), sessions)
	_, registered := registerTestUser(t, svc, "dave")

	t.Run("rotates the refresh token", func(t *testing.T) {
		result, err := svc.Refresh(ctx, RefreshParams{
			RefreshToken: registered.RefreshToken,
			Fingerprint:  "fp-1",
		})
		require.NoError(t, err)
		require.NotEqual(t, registered.RefreshToken, result.RefreshToken)

		_, err = svc.Refresh(ctx, RefreshParams{
			RefreshToken: registered.RefreshToken,
			Fingerprint:  "fp-1",
		})
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("unknown fingerprint", func(t *testing.T) {
		_, err := svc.Refresh(ctx, RefreshParams{
			RefreshToken: registered.RefreshToken,
			Fingerprint:  "fp-other",
		})
		require.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("expired session", func(t *testing.T) {
		result, err := svc.Login(ctx, LoginParams{
			Username:    "dave",
			Password:    "password-one",
			Fingerprint: "fp-1",
		})
		require.NoError(t, err)

		sessions.expire(result.SessionID)
		_, err = svc.Refresh(ctx, RefreshParams{
			RefreshToken: result.RefreshToken,
			Fingerprint:  "fp-1",
		})
		require.ErrorIs(t, err, ErrSessionExpired)
	})
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newFakeUserStore(), newFakeSessionStore())
	user, _ := registerTestUser(t, svc, "erin")

	t.Run("wrong current password", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "wrong-password", "password-two")
		require.ErrorIs(t, err, ErrUserPasswordMismatch)
	})

	t.Run("short new password", func(t *testing.T) {
		var validationErr *ValidationError
		err := svc.ChangePassword(ctx, user.ID, "password-one", "short")
		require.ErrorAs(t, err, &validationErr)
		require.Equal(t, "new_password", validationErr.Field)
	})

	t.Run("old password stops working", func(t *testing.T) {
		err := svc.ChangePassword(ctx, user.ID, "password-one", "password-two")
		require.NoError(t, err)

		_, err = svc.Login(ctx, LoginParams{Username: "erin", Password: "password-one"})
		require.ErrorIs(t, err, ErrUserPasswordMismatch)

		_, err = svc.Login(ctx, LoginParams{Username: "erin", Password: "password-two"})
		require.NoError(t, err)
	})
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := newTestAuthService(newFakeUserStore(), newFakeSessionStore())
	user, _ := registerTestUser(t, svc, "frank")
	registerTestUser(t, svc, "grace")

	t.Run("patches only the given fields", func(t *testing.T) {
		email := "frank@new.example.com"
		updated, err := svc.UpdateProfile(ctx, UpdateProfileParams{
			UserID: user.ID,
			Email:  &email,
		})
		require.NoError(t, err)
		require.Equal(t, email, updated.Email)
		require.Equal(t, "Test User", updated.FullName)
		require.Equal(t, "frank", updated.Username)
	})

	t.Run("taken email is rejected", func(t *testing.T) {
		email := "grace@example.com"
		_, err := svc.UpdateProfile(ctx, UpdateProfileParams{
			UserID: user.ID,
			Email:  &email,
		})
		require.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("unknown user", func(t *testing.T) {
		email := "nobody@example.com"
		_, err := svc.UpdateProfile(ctx, UpdateProfileParams{
			UserID: "missing",
			Email:  &email,
		})
		require.ErrorIs(t, err, ErrUserNotFound)
	})
}
