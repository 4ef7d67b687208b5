// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
)

// NatsUserRepository is the NATS KV store repository for users.
// Users with an email are indexed by their lower-cased address.
type NatsUserRepository struct {
	*NatsBaseRepository[models.User]
	keyBuilder *KeyBuilder
}

// NewNatsUserRepository creates a new NATS KV store repository for users.
func NewNatsUserRepository(kvStore INatsKeyValue) *NatsUserRepository {
	return &NatsUserRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.User](kvStore, "user"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

func (r *NatsUserRepository) emailIndexKey(email string) string {
	return r.keyBuilder.IndexKeyEncoded(KeyPrefixIndexEmail, strings.ToLower(strings.TrimSpace(email)))
}

// CreateUser stores a new user and its email index.
func (r *NatsUserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		return domain.NewValidationError("user id is required", domain.ErrValidationFailed)
	}

	if user.Email != "" {
		// The index is checked before writing. Two concurrent registrations
		// with the same address can both pass; the later index entry wins.
		existing, err := r.GetIndex(ctx, r.emailIndexKey(user.Email))
		if err == nil && existing != user.ID {
			return domain.NewConflictError(fmt.Sprintf("email '%s' is already registered", user.Email), domain.ErrEmailAlreadyInUse)
		}
		if err != nil && domain.GetErrorType(err) != domain.ErrorTypeNotFound {
			return err
		}
	}

	if err := r.NatsBaseRepository.Create(ctx, r.keyBuilder.EntityKeyEncoded(KeyPrefixUser, user.ID), user); err != nil {
		return err
	}

	if user.Email != "" {
		if err := r.PutIndex(ctx, r.emailIndexKey(user.Email), user.ID); err != nil {
			slog.WarnContext(ctx, "failed to create email index", logging.ErrKey, err, "user_id", user.ID)
		}
	}
	return nil
}

// GetUser retrieves a user by id.
func (r *NatsUserRepository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := r.NatsBaseRepository.Get(ctx, r.keyBuilder.EntityKeyEncoded(KeyPrefixUser, userID))
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, domain.NewNotFoundError(fmt.Sprintf("user '%s' not found", userID), domain.ErrUserNotFound)
		}
		return nil, err
	}
	return user, nil
}

// GetUserByEmail retrieves a user through the email index.
func (r *NatsUserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	userID, err := r.GetIndex(ctx, r.emailIndexKey(email))
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, domain.NewNotFoundError(fmt.Sprintf("user with email '%s' not found", email), domain.ErrUserNotFound)
		}
		return nil, err
	}
	return r.GetUser(ctx, userID)
}

// UserExists checks if a user exists.
func (r *NatsUserRepository) UserExists(ctx context.Context, userID string) (bool, error) {
	return r.NatsBaseRepository.Exists(ctx, r.keyBuilder.EntityKeyEncoded(KeyPrefixUser, userID))
}
