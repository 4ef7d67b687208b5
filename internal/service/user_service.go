// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/utils"
)

// RegisterUserInput is the payload for registering a user account.
type RegisterUserInput struct {
	// ID is set when an upstream identity provider already names the user.
	ID        string
	FirstName string
	LastName  string
	Nickname  string
	Email     string
}

// UserService manages user accounts.
type UserService struct {
	UserRepository domain.UserRepository
	Sessions       *SessionService
	Config         ServiceConfig
}

// NewUserService creates a new UserService.
func NewUserService(userRepository domain.UserRepository, sessions *SessionService, config ServiceConfig) *UserService {
	return &UserService{
		UserRepository: userRepository,
		Sessions:       sessions,
		Config:         config,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *UserService) ServiceReady() bool {
	return s.UserRepository != nil && s.Sessions != nil && s.Sessions.ServiceReady()
}

func (s *UserService) checkReady(ctx context.Context) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("user service is not ready", domain.ErrServiceUnavailable)
	}
	return nil
}

func validateNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return "", domain.NewValidationError("nickname is required", domain.ErrValidationFailed)
	}
	if utf8.RuneCountInString(nickname) > constants.MaxNicknameLength {
		return "", domain.NewValidationError("nickname is too long", domain.ErrValidationFailed)
	}
	return nickname, nil
}

// CreateAnonymousUser creates a guest user and binds it to the session.
func (s *UserService) CreateAnonymousUser(ctx context.Context, session *models.Session, nickname string) (*models.User, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if session == nil {
		return nil, domain.NewUnauthorizedError("session required", domain.ErrUnauthorized)
	}
	if session.UserID != "" {
		return nil, domain.NewConflictError("session is already bound to a user", domain.ErrForbidden)
	}
	nickname, err := validateNickname(nickname)
	if err != nil {
		return nil, err
	}

	now := s.Config.now()
	user := &models.User{
		ID:        uuid.New().String(),
		Nickname:  nickname,
		Type:      models.UserTypeAnonymousClient,
		CreatedAt: utils.TimePtr(now),
		UpdatedAt: utils.TimePtr(now),
	}
	if err := s.UserRepository.CreateUser(ctx, user); err != nil {
		slog.ErrorContext(ctx, "error creating anonymous user", logging.ErrKey, err)
		return nil, err
	}
	if err := s.Sessions.BindUser(ctx, session.Token, user.ID); err != nil {
		slog.ErrorContext(ctx, "error binding anonymous user to session", logging.ErrKey, err, "user_id", user.ID)
		return nil, err
	}

	slog.InfoContext(ctx, "created anonymous user", "user_id", user.ID)
	return user, nil
}

// RegisterUser creates a client account. When session is given the new user
// is bound to it.
func (s *UserService) RegisterUser(ctx context.Context, session *models.Session, input RegisterUserInput) (*models.User, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}

	addr, err := mail.ParseAddress(strings.TrimSpace(input.Email))
	if err != nil {
		return nil, domain.NewValidationError("a valid email is required", domain.ErrValidationFailed, err)
	}
	if input.Nickname != "" {
		if input.Nickname, err = validateNickname(input.Nickname); err != nil {
			return nil, err
		}
	}
	if session != nil && session.UserID != "" {
		return nil, domain.NewConflictError("session is already bound to a user", domain.ErrForbidden)
	}

	id := input.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := s.Config.now()
	user := &models.User{
		ID:        id,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Nickname:  input.Nickname,
		Email:     strings.ToLower(addr.Address),
		Type:      models.UserTypeClient,
		CreatedAt: utils.TimePtr(now),
		UpdatedAt: utils.TimePtr(now),
	}

	ctx = logging.AppendCtx(ctx, slog.String("user_id", user.ID))
	if err := s.UserRepository.CreateUser(ctx, user); err != nil {
		slog.ErrorContext(ctx, "error registering user", logging.ErrKey, err)
		return nil, err
	}
	if session != nil {
		if err := s.Sessions.BindUser(ctx, session.Token, user.ID); err != nil {
			slog.ErrorContext(ctx, "error binding user to session", logging.ErrKey, err)
			return nil, err
		}
	}

	slog.InfoContext(ctx, "registered user")
	return user, nil
}

// redactUser hides the email of other users from non-admins.
func redactUser(actor *models.User, user *models.User) *models.User {
	if IsPermitToRead(actor, user.ID) {
		return user
	}
	redacted := *user
	redacted.Email = ""
	return &redacted
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, actor *models.User, userID string) (*models.User, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	user, err := s.UserRepository.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return redactUser(actor, user), nil
}

// FindUserByEmail looks a user up by address. Only admins may search.
func (s *UserService) FindUserByEmail(ctx context.Context, actor *models.User, email string) (*models.User, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !IsAdmin(actor) {
		return nil, domain.NewForbiddenError("access denied", domain.ErrForbidden)
	}
	return s.UserRepository.GetUserByEmail(ctx, email)
}
