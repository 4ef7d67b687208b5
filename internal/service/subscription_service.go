// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/infrastructure/eventbus"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
)

// leaveOnCancelTimeout bounds the leave triggered when a subscription closes.
const leaveOnCancelTimeout = 10 * time.Second

// SubscriptionService authorizes event subscriptions and keeps meeting
// presence in line with the subscriber's connection.
type SubscriptionService struct {
	MeetingRepository domain.MeetingRepository
	MeetingService    *MeetingService
	Bus               *eventbus.Bus
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(meetingRepository domain.MeetingRepository, meetingService *MeetingService, bus *eventbus.Bus) *SubscriptionService {
	return &SubscriptionService{
		MeetingRepository: meetingRepository,
		MeetingService:    meetingService,
		Bus:               bus,
	}
}

// ServiceReady checks if the service is ready for use.
func (s *SubscriptionService) ServiceReady() bool {
	return s.MeetingRepository != nil &&
		s.MeetingService != nil &&
		s.Bus != nil
}

// SubscribeMeeting opens the event feed of a meeting for userID, who must be
// the actor and an active participant. Cancelling the subscription makes the
// user leave the meeting.
func (s *SubscriptionService) SubscribeMeeting(ctx context.Context, actor *models.User, meetingID, userID string) (*eventbus.Subscription[models.MeetingEvent], error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("subscription service is not ready", domain.ErrServiceUnavailable)
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if actor.ID != userID {
		return nil, domain.NewForbiddenError("you can only subscribe as yourself", domain.ErrForbidden)
	}
	if err := requireMeetingID(meetingID); err != nil {
		return nil, err
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meetingID))

	meeting, err := s.MeetingRepository.FindOne(ctx, activeMeeting(meetingID))
	if err != nil {
		return nil, err
	}
	if meeting.ActiveParticipant(userID) == nil {
		return nil, domain.NewForbiddenError("you are not in this meeting", domain.ErrForbidden)
	}

	sub := s.Bus.SubscribeMeeting(meetingID, eventbus.WithFilter(s.meetingFilter(meetingID, userID)))

	var left atomic.Bool
	leaveCtx := context.WithoutCancel(ctx)
	sub.OnCancel(func() {
		if !left.CompareAndSwap(false, true) {
			return
		}
		ctx, cancel := context.WithTimeout(leaveCtx, leaveOnCancelTimeout)
		defer cancel()

		_, err := s.MeetingService.LeaveMeeting(ctx, actor, meetingID, userID)
		switch {
		case err == nil:
			slog.DebugContext(ctx, "left meeting after subscription closed", "user_id", userID)
		case domain.GetErrorType(err) == domain.ErrorTypeNotFound:
			// Already left, blocked, or the meeting ended.
		default:
			slog.ErrorContext(ctx, "failed to leave meeting after subscription closed", "user_id", userID, logging.ErrKey, err)
		}
	})

	slog.InfoContext(ctx, "subscribed to meeting events", "user_id", userID)
	return sub, nil
}

// meetingFilter delivers an event when the subscriber is an active
// participant of the meeting as it is stored now, or when the event is the
// one that removed them.
func (s *SubscriptionService) meetingFilter(meetingID, userID string) eventbus.Filter[models.MeetingEvent] {
	return func(ctx context.Context, event models.MeetingEvent) bool {
		if event.MeetingID() != meetingID {
			return false
		}

		meeting, err := s.MeetingRepository.GetMeeting(ctx, meetingID)
		if err != nil {
			slog.WarnContext(ctx, "suppressing meeting event, meeting could not be loaded",
				"meeting_id", meetingID, "user_id", userID, "event_type", event.Type, logging.ErrKey, err)
			return false
		}
		if meeting.ActiveParticipant(userID) != nil {
			return true
		}
		return slices.Contains(event.RemovedUsers(), userID)
	}
}

// SubscribeUser opens the personal event feed of userID.
func (s *SubscriptionService) SubscribeUser(ctx context.Context, actor *models.User, userID string) (*eventbus.Subscription[models.UserEvent], error) {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return nil, domain.NewUnavailableError("subscription service is not ready", domain.ErrServiceUnavailable)
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !IsPermitToRead(actor, userID) {
		return nil, domain.NewForbiddenError("access denied", domain.ErrForbidden)
	}

	slog.DebugContext(ctx, "subscribed to user events", "user_id", userID)
	return s.Bus.SubscribeUser(userID), nil
}
