// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
)

// NatsSessionRepository is the NATS KV store repository for sessions.
type NatsSessionRepository struct {
	*NatsBaseRepository[models.Session]
	keyBuilder *KeyBuilder
}

// NewNatsSessionRepository creates a new NATS KV store repository for sessions.
func NewNatsSessionRepository(kvStore INatsKeyValue) *NatsSessionRepository {
	return &NatsSessionRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Session](kvStore, "session"),
		keyBuilder:         NewKeyBuilder(""),
	}
}

func (r *NatsSessionRepository) key(token string) string {
	return r.keyBuilder.EntityKeyEncoded(KeyPrefixSession, token)
}

// CreateSession stores a new session.
func (r *NatsSessionRepository) CreateSession(ctx context.Context, session *models.Session) error {
	if session.Token == "" {
		return domain.NewValidationError("session token is required", domain.ErrValidationFailed)
	}
	return r.NatsBaseRepository.Create(ctx, r.key(session.Token), session)
}

// GetSession retrieves a session and its revision.
func (r *NatsSessionRepository) GetSession(ctx context.Context, token string) (*models.Session, uint64, error) {
	session, rev, err := r.NatsBaseRepository.GetWithRevision(ctx, r.key(token))
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, 0, domain.NewNotFoundError("session not found", domain.ErrSessionNotFound)
		}
		return nil, 0, err
	}
	return session, rev, nil
}

// UpdateSession writes the session if it has not changed since revision.
func (r *NatsSessionRepository) UpdateSession(ctx context.Context, session *models.Session, revision uint64) error {
	return r.NatsBaseRepository.Update(ctx, r.key(session.Token), session, revision)
}

// DeleteSession removes a session regardless of its revision.
func (r *NatsSessionRepository) DeleteSession(ctx context.Context, token string) error {
	_, rev, err := r.GetSession(ctx, token)
	if err != nil {
		return err
	}
	return r.NatsBaseRepository.Delete(ctx, r.key(token), rev)
}
