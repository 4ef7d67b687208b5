// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
)

// sessionTouchInterval limits how often LastAccess is written back.
const sessionTouchInterval = time.Minute

// SessionService issues and validates session tokens.
type SessionService struct {
	SessionRepository domain.SessionRepository
	UserRepository    domain.UserRepository
	Config            ServiceConfig
}

// NewSessionService creates a new SessionService.
func NewSessionService(sessionRepository domain.SessionRepository, userRepository domain.UserRepository, config ServiceConfig) *SessionService {
	return &SessionService{
		SessionRepository: sessionRepository,
		UserRepository:    userRepository,
		Config:            config,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *SessionService) ServiceReady() bool {
	return s.SessionRepository != nil && s.UserRepository != nil
}

func (s *SessionService) checkReady(ctx context.Context) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("session service is not ready", domain.ErrServiceUnavailable)
	}
	return nil
}

// CreateSession issues a new session that is not bound to any user yet.
func (s *SessionService) CreateSession(ctx context.Context) (*models.Session, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}

	now := s.Config.now()
	session := &models.Session{
		Token:      uuid.New().String(),
		LastAccess: now,
		CreatedAt:  now,
	}
	if err := s.SessionRepository.CreateSession(ctx, session); err != nil {
		slog.ErrorContext(ctx, "error creating session", logging.ErrKey, err)
		return nil, err
	}
	return session, nil
}

// Authenticate resolves a session token. The returned user is nil when the
// session is not bound to a user yet.
func (s *SessionService) Authenticate(ctx context.Context, token string) (*models.Session, *models.User, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, nil, err
	}
	if token == "" {
		return nil, nil, domain.NewUnauthorizedError("session token is required", domain.ErrUnauthorized)
	}

	session, rev, err := s.SessionRepository.GetSession(ctx, token)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, nil, domain.NewUnauthorizedError("invalid session", domain.ErrSessionNotFound)
		}
		return nil, nil, err
	}

	now := s.Config.now()
	if session.IsExpired(now, s.Config.sessionTTL()) {
		if err := s.SessionRepository.DeleteSession(ctx, token); err != nil {
			slog.WarnContext(ctx, "failed to delete expired session", logging.ErrKey, err)
		}
		return nil, nil, domain.NewUnauthorizedError("session expired", domain.ErrSessionExpired)
	}

	if now.Sub(session.LastAccess) > sessionTouchInterval {
		session.LastAccess = now
		if err := s.SessionRepository.UpdateSession(ctx, session, rev); err != nil && !errors.Is(err, domain.ErrRevisionMismatch) {
			slog.WarnContext(ctx, "failed to touch session", logging.ErrKey, err)
		}
	}

	if session.UserID == "" {
		return session, nil, nil
	}
	user, err := s.UserRepository.GetUser(ctx, session.UserID)
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, nil, domain.NewUnauthorizedError("session user no longer exists", domain.ErrUserNotFound)
		}
		return nil, nil, err
	}
	return session, user, nil
}

// BindUser attaches userID to the session. A session keeps the first user
// it was bound to.
func (s *SessionService) BindUser(ctx context.Context, token, userID string) error {
	if err := s.checkReady(ctx); err != nil {
		return err
	}

	session, rev, err := s.SessionRepository.GetSession(ctx, token)
	if err != nil {
		return err
	}
	switch session.UserID {
	case userID:
		return nil
	case "":
	default:
		return domain.NewConflictError("session is already bound to a user", domain.ErrForbidden)
	}

	session.UserID = userID
	session.LastAccess = s.Config.now()
	return s.SessionRepository.UpdateSession(ctx, session, rev)
}

// Logout deletes the session.
func (s *SessionService) Logout(ctx context.Context, token string) error {
	if err := s.checkReady(ctx); err != nil {
		return err
	}
	if err := s.SessionRepository.DeleteSession(ctx, token); err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil
		}
		return err
	}
	slog.DebugContext(ctx, "session deleted")
	return nil
}
