// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/metrics"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/utils"
)

// IdleMeetingReaper ends meetings that stay empty for a while after the last
// participant left. Checks are guarded on the stored state, so overlapping
// checks for the same meeting are harmless.
type IdleMeetingReaper struct {
	MeetingRepository domain.MeetingRepository
	MeetingEvents     domain.MeetingEventPublisher
	LifecycleSender   domain.MeetingLifecycleSender
	Scheduler         domain.Scheduler
	Config            ServiceConfig

	// checkTimeout bounds a single check run from the scheduler.
	checkTimeout time.Duration
}

// NewIdleMeetingReaper creates a reaper. lifecycleSender may be nil.
func NewIdleMeetingReaper(
	meetingRepository domain.MeetingRepository,
	meetingEvents domain.MeetingEventPublisher,
	lifecycleSender domain.MeetingLifecycleSender,
	scheduler domain.Scheduler,
	config ServiceConfig,
) *IdleMeetingReaper {
	return &IdleMeetingReaper{
		MeetingRepository: meetingRepository,
		MeetingEvents:     meetingEvents,
		LifecycleSender:   lifecycleSender,
		Scheduler:         scheduler,
		Config:            config,
		checkTimeout:      10 * time.Second,
	}
}

// ServiceReady checks if the reaper is ready for use.
func (r *IdleMeetingReaper) ServiceReady() bool {
	return r.MeetingRepository != nil &&
		r.MeetingEvents != nil &&
		r.Scheduler != nil
}

// Schedule submits a one-shot idle check for the meeting after the reap delay.
func (r *IdleMeetingReaper) Schedule(ctx context.Context, meetingID string) {
	if !r.ServiceReady() {
		slog.ErrorContext(ctx, "reaper not initialized", logging.PriorityCritical())
		return
	}

	delay := r.Config.reapDelay()
	// The check outlives the request that scheduled it.
	checkCtx := context.WithoutCancel(ctx)
	r.Scheduler.AfterFunc(delay, func() {
		ctx, cancel := context.WithTimeout(checkCtx, r.checkTimeout)
		defer cancel()
		if _, err := r.Check(ctx, meetingID); err != nil {
			slog.ErrorContext(ctx, "idle meeting check failed", "meeting_id", meetingID, logging.ErrKey, err)
		}
	})

	slog.DebugContext(ctx, "scheduled idle meeting check", "meeting_id", meetingID, "delay", delay)
}

// Check ends the meeting when it is still active and nobody is in it. It
// returns the ended meeting, or nil when there was nothing to do.
func (r *IdleMeetingReaper) Check(ctx context.Context, meetingID string) (*models.Meeting, error) {
	now := r.Config.now()
	query := models.MeetingQuery{ID: meetingID, Active: utils.BoolPtr(true), Idle: true}

	var removed []string
	meeting, err := r.MeetingRepository.FindOneAndUpdate(ctx, query, func(m *models.Meeting) error {
		removed = m.End(now)
		m.UpdatedAt = utils.TimePtr(now)
		return nil
	})
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			// Already ended, repopulated, or deleted.
			metrics.ReapChecks.WithLabelValues("skipped").Inc()
			slog.DebugContext(ctx, "meeting not idle, skipping reap", "meeting_id", meetingID)
			return nil, nil
		}
		metrics.ReapChecks.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.ReapChecks.WithLabelValues("reaped").Inc()
	metrics.MeetingsEnded.WithLabelValues(string(models.EndReasonIdle)).Inc()
	slog.InfoContext(ctx, "ended idle meeting", "meeting_id", meetingID)

	r.MeetingEvents.PublishMeetingEvent(ctx, models.NewMeetingEvent("", meeting, models.EndMeetingPayload{EndedAt: now, RemovedUserIDs: removed}))
	sendMeetingEnded(ctx, r.LifecycleSender, meeting, models.EndReasonIdle)

	return meeting, nil
}

// Sweep schedules an idle check for every active meeting that has nobody in
// it. Checks scheduled by a previous process are lost on restart.
func (r *IdleMeetingReaper) Sweep(ctx context.Context) (int, error) {
	meetings, err := r.MeetingRepository.ListMeetings(ctx, models.MeetingFilter{ActiveOnly: true})
	if err != nil {
		return 0, err
	}

	scheduled := 0
	for _, meeting := range meetings {
		if meeting.ActiveParticipantCount() == 0 {
			r.Schedule(ctx, meeting.ID)
			scheduled++
		}
	}
	if scheduled > 0 {
		slog.InfoContext(ctx, "scheduled idle checks for empty meetings", "count", scheduled)
	}
	return scheduled, nil
}

func sendMeetingEnded(ctx context.Context, sender domain.MeetingLifecycleSender, meeting *models.Meeting, reason models.EndReason) {
	if sender == nil || meeting == nil || meeting.EndedAt == nil {
		return
	}
	msg := models.MeetingEndedMessage{
		MeetingID:        meeting.ID,
		RoomID:           meeting.RoomID,
		EndedAt:          *meeting.EndedAt,
		Reason:           reason,
		ParticipantCount: len(meeting.Participants),
	}
	if err := sender.SendMeetingEnded(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "failed to send meeting ended message", "meeting_id", meeting.ID, logging.ErrKey, err)
	}
}
