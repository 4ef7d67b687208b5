// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
)

// MeetingRepository defines the interface for meeting storage operations.
// This interface can be implemented by different storage backends (NATS, PostgreSQL, etc.)
type MeetingRepository interface {
	CreateMeeting(ctx context.Context, meeting *models.Meeting) error
	GetMeeting(ctx context.Context, meetingID string) (*models.Meeting, error)

	// FindOne returns the meeting matching the query, or a not found error.
	FindOne(ctx context.Context, query models.MeetingQuery) (*models.Meeting, error)

	// FindOneAndUpdate applies the mutation only while the stored meeting
	// still matches the query and returns the new state. Concurrent writers
	// never overwrite each other.
	FindOneAndUpdate(ctx context.Context, query models.MeetingQuery, mutate models.MeetingMutation) (*models.Meeting, error)

	ListMeetings(ctx context.Context, filter models.MeetingFilter) ([]*models.Meeting, error)
}

// UserRepository defines the interface for user storage operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UserExists(ctx context.Context, userID string) (bool, error)
}

// SessionRepository defines the interface for session storage operations.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, uint64, error)
	UpdateSession(ctx context.Context, session *models.Session, revision uint64) error
	DeleteSession(ctx context.Context, token string) error
}
