// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/metrics"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/utils"
)

// Defaults for the compare-and-swap loop of FindOneAndUpdate.
const (
	DefaultUpdateAttempts = 8
	DefaultInitialBackoff = 5 * time.Millisecond
	DefaultMaxBackoff     = 200 * time.Millisecond
)

// NatsMeetingRepository is the NATS KV store repository for meetings.
// Conditional updates are implemented as a compare-and-swap on the entry
// revision, so each write applies to exactly the state it was computed from.
type NatsMeetingRepository struct {
	*NatsBaseRepository[models.Meeting]
	keyBuilder *KeyBuilder

	// MaxAttempts bounds the number of compare-and-swap rounds of one update.
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// NewNatsMeetingRepository creates a new NATS KV store repository for meetings.
func NewNatsMeetingRepository(kvStore INatsKeyValue) *NatsMeetingRepository {
	return &NatsMeetingRepository{
		NatsBaseRepository: NewNatsBaseRepository[models.Meeting](kvStore, "meeting"),
		keyBuilder:         NewKeyBuilder(""),
		MaxAttempts:        DefaultUpdateAttempts,
		InitialBackoff:     DefaultInitialBackoff,
		MaxBackoff:         DefaultMaxBackoff,
	}
}

func (r *NatsMeetingRepository) key(meetingID string) string {
	return r.keyBuilder.EntityKeyEncoded(KeyPrefixMeeting, meetingID)
}

// CreateMeeting stores a new meeting.
func (r *NatsMeetingRepository) CreateMeeting(ctx context.Context, meeting *models.Meeting) error {
	if meeting.ID == "" {
		return domain.NewValidationError("meeting id is required", domain.ErrValidationFailed)
	}
	return r.NatsBaseRepository.Create(ctx, r.key(meeting.ID), meeting)
}

// GetMeeting retrieves a meeting by id.
func (r *NatsMeetingRepository) GetMeeting(ctx context.Context, meetingID string) (*models.Meeting, error) {
	meeting, _, err := r.getMeetingWithRevision(ctx, meetingID)
	return meeting, err
}

func (r *NatsMeetingRepository) getMeetingWithRevision(ctx context.Context, meetingID string) (*models.Meeting, uint64, error) {
	meeting, rev, err := r.NatsBaseRepository.GetWithRevision(ctx, r.key(meetingID))
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, 0, domain.NewNotFoundError(fmt.Sprintf("meeting '%s' not found", meetingID), domain.ErrMeetingNotFound)
		}
		return nil, 0, err
	}
	return meeting, rev, nil
}

// FindOne returns the meeting identified by query.ID when it satisfies the query.
func (r *NatsMeetingRepository) FindOne(ctx context.Context, query models.MeetingQuery) (*models.Meeting, error) {
	if query.ID == "" {
		return nil, domain.NewValidationError("meeting id is required", domain.ErrValidationFailed)
	}

	meeting, err := r.GetMeeting(ctx, query.ID)
	if err != nil {
		return nil, err
	}
	if !query.Matches(meeting) {
		return nil, domain.NewNotFoundError(fmt.Sprintf("meeting '%s' not found", query.ID), domain.ErrMeetingNotFound)
	}
	return meeting, nil
}

// FindOneAndUpdate applies mutate to the meeting identified by query.ID while
// it still satisfies the query, and returns the stored result. When another
// writer gets in first the meeting is read again and both the query and the
// mutation are evaluated against the fresh state.
func (r *NatsMeetingRepository) FindOneAndUpdate(ctx context.Context, query models.MeetingQuery, mutate models.MeetingMutation) (*models.Meeting, error) {
	if query.ID == "" {
		return nil, domain.NewValidationError("meeting id is required", domain.ErrValidationFailed)
	}

	attempts := max(r.MaxAttempts, 1)
	for attempt := 0; attempt < attempts; attempt++ {
		meeting, rev, err := r.getMeetingWithRevision(ctx, query.ID)
		if err != nil {
			return nil, err
		}
		if !query.Matches(meeting) {
			return nil, domain.NewNotFoundError(fmt.Sprintf("meeting '%s' not found", query.ID), domain.ErrMeetingNotFound)
		}

		if err := mutate(meeting); err != nil {
			if errors.Is(err, models.ErrNoChange) {
				return meeting, nil
			}
			return nil, err
		}

		err = r.NatsBaseRepository.Update(ctx, r.key(query.ID), meeting, rev)
		if err == nil {
			return meeting, nil
		}
		if !errors.Is(err, domain.ErrRevisionMismatch) {
			return nil, err
		}

		metrics.StoreConflicts.Inc()
		slog.DebugContext(ctx, "meeting modified concurrently, retrying update",
			"meeting_id", query.ID, "attempt", attempt+1, "revision", rev)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.backoff(attempt)):
		}
	}

	slog.WarnContext(ctx, "giving up on contended meeting update",
		"meeting_id", query.ID, "attempts", attempts, logging.ErrKey, domain.ErrRevisionMismatch)
	return nil, domain.NewConflictError(fmt.Sprintf("meeting '%s' is being modified concurrently", query.ID), domain.ErrRevisionMismatch)
}

// backoff returns an exponential delay with ±25% jitter.
func (r *NatsMeetingRepository) backoff(attempt int) time.Duration {
	if r.InitialBackoff <= 0 {
		return 0
	}
	d := float64(r.InitialBackoff) * math.Pow(2, float64(attempt))
	if r.MaxBackoff > 0 && time.Duration(d) > r.MaxBackoff {
		d = float64(r.MaxBackoff)
	}
	jitter := d * 0.25 * (rand.Float64()*2 - 1)
	return time.Duration(d + jitter)
}

// ListMeetings returns the meetings matching the filter.
func (r *NatsMeetingRepository) ListMeetings(ctx context.Context, filter models.MeetingFilter) ([]*models.Meeting, error) {
	meetings, err := r.NatsBaseRepository.ListEntitiesEncoded(ctx, r.keyBuilder.EntityPrefix(KeyPrefixMeeting), r.keyBuilder)
	if err != nil {
		return nil, err
	}

	result := make([]*models.Meeting, 0, len(meetings))
	for _, meeting := range meetings {
		if filter.Matches(meeting) {
			result = append(result, meeting)
		}
	}
	// Newest first.
	slices.SortFunc(result, func(a, b *models.Meeting) int {
		return utils.Value(b.CreatedAt).Compare(utils.Value(a.CreatedAt))
	})
	return result, nil
}
