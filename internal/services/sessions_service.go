package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ndenisov/todoview/internal/models"
	"github.com/ndenisov/todoview/internal/storage"
)

type sessionServiceImpl struct {
	logger zerolog.Logger
	store  storage.SessionStore
}

func NewSessionService(
	logger zerolog.Logger,
	store storage.SessionStore,
) SessionService {
	return &sessionServiceImpl{
		logger: logger,
		store:  store,
	}
}

func (s *sessionServiceImpl) GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error) {
	session, err := s.store.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().
				Str("session_id", sessionID).
				Msg("session not found")
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	s.logger.Debug().
		Str("session_id", session.ID).
		Time("expires_at", session.ExpiresAt).
		Msg("selected session by id")
	return session, nil
}
