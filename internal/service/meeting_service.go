// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/metrics"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/concurrent"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/constants"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/utils"
)

// HostMeetingInput is the payload for hosting a meeting.
type HostMeetingInput struct {
	PassCode string
	Settings models.MediaSettings
}

// JoinMeetingInput is the payload for joining a meeting.
type JoinMeetingInput struct {
	MeetingID string
	PassCode  string
	AllowMic  bool
	AllowCam  bool
}

// BlockUserInput identifies the user to block or unblock in a meeting.
type BlockUserInput struct {
	MeetingID    string
	TargetUserID string
}

// InviteInput identifies who to invite. At least one of UserID and Email is required.
type InviteInput struct {
	MeetingID string
	UserID    string
	Email     string
}

// MeetingService runs the meeting membership operations. Every mutation is a
// conditional update on the stored meeting, so concurrent callers never
// overwrite each other, and events are published after the write succeeded.
type MeetingService struct {
	MeetingRepository domain.MeetingRepository
	UserRepository    domain.UserRepository
	MeetingEvents     domain.MeetingEventPublisher
	UserEvents        domain.UserEventPublisher
	LifecycleSender   domain.MeetingLifecycleSender
	EmailService      domain.EmailService
	Reaper            *IdleMeetingReaper
	Config            ServiceConfig

	joinURLs    *constants.JoinURLGenerator
	invitations *concurrent.WorkerPool
	background  sync.WaitGroup
}

// NewMeetingService creates a new MeetingService.
func NewMeetingService(
	meetingRepository domain.MeetingRepository,
	userRepository domain.UserRepository,
	meetingEvents domain.MeetingEventPublisher,
	userEvents domain.UserEventPublisher,
	lifecycleSender domain.MeetingLifecycleSender,
	emailService domain.EmailService,
	reaper *IdleMeetingReaper,
	config ServiceConfig,
) *MeetingService {
	return &MeetingService{
		MeetingRepository: meetingRepository,
		UserRepository:    userRepository,
		MeetingEvents:     meetingEvents,
		UserEvents:        userEvents,
		LifecycleSender:   lifecycleSender,
		EmailService:      emailService,
		Reaper:            reaper,
		Config:            config,
		joinURLs:          constants.NewJoinURLGenerator(config.LFXEnvironment, config.AppOrigin),
		invitations:       concurrent.NewWorkerPool(config.invitationWorkers()),
	}
}

// ServiceReady checks if the service is ready for use.
func (s *MeetingService) ServiceReady() bool {
	return s.MeetingRepository != nil &&
		s.UserRepository != nil &&
		s.MeetingEvents != nil &&
		s.UserEvents != nil &&
		s.Reaper != nil
}

// Wait blocks until background invitation work has finished.
func (s *MeetingService) Wait() {
	s.background.Wait()
}

func (s *MeetingService) checkReady(ctx context.Context) error {
	if !s.ServiceReady() {
		slog.ErrorContext(ctx, "service not initialized", logging.PriorityCritical())
		return domain.NewUnavailableError("meeting service is not ready", domain.ErrServiceUnavailable)
	}
	return nil
}

func requireActor(actor *models.User) error {
	if actor == nil || actor.ID == "" {
		return domain.NewUnauthorizedError("authentication required", domain.ErrUnauthorized)
	}
	return nil
}

func requireMeetingID(meetingID string) error {
	if strings.TrimSpace(meetingID) == "" {
		return domain.NewValidationError("meeting id is required", domain.ErrValidationFailed)
	}
	return nil
}

func activeMeeting(meetingID string) models.MeetingQuery {
	return models.MeetingQuery{ID: meetingID, Active: utils.BoolPtr(true)}
}

// loadWritableMeeting returns the active meeting after checking that actor
// has write authority over it.
func (s *MeetingService) loadWritableMeeting(ctx context.Context, actor *models.User, meetingID string) (*models.Meeting, error) {
	meeting, err := s.MeetingRepository.FindOne(ctx, activeMeeting(meetingID))
	if err != nil {
		return nil, err
	}
	if !IsPermitToWrite(actor, meeting.Initiator) {
		slog.WarnContext(ctx, "user is not allowed to manage meeting", "meeting_id", meetingID, "user_id", actor.ID)
		return nil, domain.NewForbiddenError("access denied", domain.ErrForbidden)
	}
	return meeting, nil
}

func (s *MeetingService) publish(ctx context.Context, from string, meeting *models.Meeting, payload models.MeetingEventPayload) {
	s.MeetingEvents.PublishMeetingEvent(ctx, models.NewMeetingEvent(from, meeting, payload))
}

// HostMeeting creates a meeting with the actor as its initiator and only participant.
func (s *MeetingService) HostMeeting(ctx context.Context, actor *models.User, input HostMeetingInput) (*models.Meeting, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	now := s.Config.now()
	meeting := &models.Meeting{
		ID:        uuid.New().String(),
		RoomID:    utils.GenerateRoomID(),
		Initiator: actor.ID,
		PassCode:  input.PassCode,
		Participants: []models.Participant{{
			UserID:   actor.ID,
			JoinedAt: now,
			AllowMic: input.Settings.IsMicOn,
			AllowCam: input.Settings.IsCamOn,
		}},
		BlockList: []string{},
		Settings:  input.Settings,
		CreatedAt: utils.TimePtr(now),
		UpdatedAt: utils.TimePtr(now),
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meeting.ID))
	if err := s.MeetingRepository.CreateMeeting(ctx, meeting); err != nil {
		slog.ErrorContext(ctx, "error creating meeting", logging.ErrKey, err)
		return nil, err
	}

	metrics.MeetingsHosted.Inc()
	slog.InfoContext(ctx, "hosted meeting", "initiator", actor.ID)

	if s.LifecycleSender != nil {
		msg := models.MeetingStartedMessage{
			MeetingID: meeting.ID,
			RoomID:    meeting.RoomID,
			Initiator: meeting.Initiator,
			StartedAt: now,
		}
		if err := s.LifecycleSender.SendMeetingStarted(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "failed to send meeting started message", logging.ErrKey, err)
		}
	}

	return meeting, nil
}

// JoinMeeting adds the actor to an active meeting, or reactivates their
// existing record. The block list and pass code are checked against the
// state being written, so a concurrent block cannot be bypassed.
func (s *MeetingService) JoinMeeting(ctx context.Context, actor *models.User, input JoinMeetingInput) (*models.Meeting, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := requireMeetingID(input.MeetingID); err != nil {
		return nil, err
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", input.MeetingID))
	now := s.Config.now()

	meeting, err := s.MeetingRepository.FindOneAndUpdate(ctx, activeMeeting(input.MeetingID), func(m *models.Meeting) error {
		if m.IsBlocked(actor.ID) {
			return domain.NewForbiddenError("you have been blocked in this meeting", domain.ErrUserBlocked)
		}
		if m.PassCode != "" && m.PassCode != input.PassCode {
			return domain.NewForbiddenError("invalid pass code", domain.ErrInvalidPassCode)
		}

		if p, _ := m.Participant(actor.ID); p != nil {
			p.IsLeft = false
			p.LeftAt = nil
			p.JoinedAt = now
			p.AllowMic = input.AllowMic
			p.AllowCam = input.AllowCam
		} else {
			m.Participants = append(m.Participants, models.Participant{
				UserID:   actor.ID,
				JoinedAt: now,
				AllowMic: input.AllowMic,
				AllowCam: input.AllowCam,
			})
		}
		m.UpdatedAt = utils.TimePtr(now)
		return nil
	})
	if err != nil {
		slog.WarnContext(ctx, "user could not join meeting", "user_id", actor.ID, logging.ErrKey, err)
		return nil, err
	}

	slog.InfoContext(ctx, "user joined meeting", "user_id", actor.ID)
	s.publish(ctx, actor.ID, meeting, models.UserJoinedPayload{UserID: actor.ID})
	return meeting, nil
}

// LeaveMeeting marks userID as left. It fails with not found when the user is
// not an active participant of an active meeting, so only the call that made
// the transition emits LEAVE_MEETING.
func (s *MeetingService) LeaveMeeting(ctx context.Context, actor *models.User, meetingID, userID string) (*models.Meeting, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := requireMeetingID(meetingID); err != nil {
		return nil, err
	}
	if !IsPermitToWrite(actor, userID) {
		return nil, domain.NewForbiddenError("access denied", domain.ErrForbidden)
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meetingID))
	now := s.Config.now()

	query := activeMeeting(meetingID)
	query.Participant = userID
	query.ParticipantActive = utils.BoolPtr(true)

	meeting, err := s.MeetingRepository.FindOneAndUpdate(ctx, query, func(m *models.Meeting) error {
		if !m.MarkLeft(userID, now) {
			return models.ErrNoChange
		}
		m.UpdatedAt = utils.TimePtr(now)
		return nil
	})
	if err != nil {
		if domain.GetErrorType(err) == domain.ErrorTypeNotFound {
			return nil, domain.NewNotFoundError("meeting not found or you are not in this meeting", domain.ErrMeetingNotFound)
		}
		return nil, err
	}

	slog.InfoContext(ctx, "user left meeting", "user_id", userID)
	s.publish(ctx, actor.ID, meeting, models.LeaveMeetingPayload{UserID: userID})
	s.Reaper.Schedule(ctx, meetingID)
	return meeting, nil
}

// EndMeeting ends the meeting for everyone. Only the initiator or an admin may end it.
func (s *MeetingService) EndMeeting(ctx context.Context, actor *models.User, meetingID string) (*models.Meeting, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := requireMeetingID(meetingID); err != nil {
		return nil, err
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meetingID))

	existing, err := s.MeetingRepository.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !IsPermitToWrite(actor, existing.Initiator) {
		return nil, domain.NewForbiddenError("access denied", domain.ErrForbidden)
	}

	now := s.Config.now()
	var removed []string
	meeting, err := s.MeetingRepository.FindOneAndUpdate(ctx, models.MeetingQuery{ID: meetingID}, func(m *models.Meeting) error {
		if !m.IsActive() {
			return domain.NewConflictError("meeting already ended", domain.ErrMeetingAlreadyEnded)
		}
		removed = m.End(now)
		m.UpdatedAt = utils.TimePtr(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.MeetingsEnded.WithLabelValues(string(models.EndReasonHost)).Inc()
	slog.InfoContext(ctx, "meeting ended", "ended_by", actor.ID)

	s.publish(ctx, actor.ID, meeting, models.EndMeetingPayload{EndedAt: now, RemovedUserIDs: removed})
	sendMeetingEnded(ctx, s.LifecycleSender, meeting, models.EndReasonHost)
	return meeting, nil
}

// BlockMeetingUser removes the target from the meeting and bars them from rejoining.
func (s *MeetingService) BlockMeetingUser(ctx context.Context, actor *models.User, input BlockUserInput) (*models.Meeting, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := requireMeetingID(input.MeetingID); err != nil {
		return nil, err
	}
	if input.TargetUserID == "" {
		return nil, domain.NewValidationError("target user id is required", domain.ErrValidationFailed)
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", input.MeetingID))

	existing, err := s.loadWritableMeeting(ctx, actor, input.MeetingID)
	if err != nil {
		return nil, err
	}
	if input.TargetUserID == existing.Initiator {
		return nil, domain.NewValidationError("the meeting initiator cannot be blocked", domain.ErrValidationFailed)
	}

	exists, err := s.UserRepository.UserExists(ctx, input.TargetUserID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.NewNotFoundError("target user not found", domain.ErrUserNotFound)
	}

	now := s.Config.now()
	var removed bool
	meeting, err := s.MeetingRepository.FindOneAndUpdate(ctx, activeMeeting(input.MeetingID), func(m *models.Meeting) error {
		if m.IsBlocked(input.TargetUserID) {
			return domain.NewConflictError("user already in block list", domain.ErrUserAlreadyBlocked)
		}
		removed = m.MarkLeft(input.TargetUserID, now)
		m.BlockList = append(m.BlockList, input.TargetUserID)
		m.UpdatedAt = utils.TimePtr(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user blocked from meeting", "target_user_id", input.TargetUserID, "removed", removed)
	s.publish(ctx, actor.ID, meeting, models.BlockUserPayload{UserToBeKickedOut: input.TargetUserID, Removed: removed})
	if removed {
		s.Reaper.Schedule(ctx, input.MeetingID)
	}
	return meeting, nil
}

// UnblockMeetingUser lets a blocked user join again. It emits no event.
func (s *MeetingService) UnblockMeetingUser(ctx context.Context, actor *models.User, input BlockUserInput) (*models.Meeting, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := requireMeetingID(input.MeetingID); err != nil {
		return nil, err
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", input.MeetingID))

	if _, err := s.loadWritableMeeting(ctx, actor, input.MeetingID); err != nil {
		return nil, err
	}

	now := s.Config.now()
	meeting, err := s.MeetingRepository.FindOneAndUpdate(ctx, activeMeeting(input.MeetingID), func(m *models.Meeting) error {
		idx := slices.Index(m.BlockList, input.TargetUserID)
		if idx < 0 {
			return domain.NewConflictError("user not in block list", domain.ErrUserNotInBlockList)
		}
		m.BlockList = slices.Delete(m.BlockList, idx, idx+1)
		m.UpdatedAt = utils.TimePtr(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "user unblocked from meeting", "target_user_id", input.TargetUserID)
	return meeting, nil
}

// ToggleMeetingMedia updates the meeting-level media defaults.
func (s *MeetingService) ToggleMeetingMedia(ctx context.Context, actor *models.User, meetingID string, delta models.MediaSettingsDelta) (*models.Meeting, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := requireMeetingID(meetingID); err != nil {
		return nil, err
	}
	if delta.IsEmpty() {
		return nil, domain.NewValidationError("at least one media setting is required", domain.ErrValidationFailed)
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meetingID))

	if _, err := s.loadWritableMeeting(ctx, actor, meetingID); err != nil {
		return nil, err
	}

	now := s.Config.now()
	meeting, err := s.MeetingRepository.FindOneAndUpdate(ctx, activeMeeting(meetingID), func(m *models.Meeting) error {
		delta.Apply(&m.Settings)
		m.UpdatedAt = utils.TimePtr(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, actor.ID, meeting, models.MeetingSettingsPayload{Delta: delta})
	return meeting, nil
}

// ToggleParticipantMedia updates the media permissions of one active participant.
func (s *MeetingService) ToggleParticipantMedia(ctx context.Context, actor *models.User, meetingID, participantID string, delta models.ParticipantMediaDelta) (*models.Meeting, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := requireMeetingID(meetingID); err != nil {
		return nil, err
	}
	if delta.IsEmpty() {
		return nil, domain.NewValidationError("at least one media permission is required", domain.ErrValidationFailed)
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meetingID))

	if _, err := s.loadWritableMeeting(ctx, actor, meetingID); err != nil {
		return nil, err
	}

	now := s.Config.now()
	meeting, err := s.MeetingRepository.FindOneAndUpdate(ctx, activeMeeting(meetingID), func(m *models.Meeting) error {
		p := m.ActiveParticipant(participantID)
		if p == nil {
			return domain.NewNotFoundError("participant not found", domain.ErrParticipantNotFound)
		}
		delta.Apply(p)
		m.UpdatedAt = utils.TimePtr(now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, actor.ID, meeting, models.ParticipantSettingsPayload{ParticipantID: participantID, Delta: delta})
	return meeting, nil
}

// SendMeetingMessage broadcasts a chat message to the meeting. Messages are not stored.
func (s *MeetingService) SendMeetingMessage(ctx context.Context, actor *models.User, meetingID, content string) (*models.MeetingMessage, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := requireMeetingID(meetingID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, domain.NewValidationError("message content is required", domain.ErrValidationFailed)
	}
	if utf8.RuneCountInString(content) > constants.MaxMessageLength {
		return nil, domain.NewValidationError(
			fmt.Sprintf("message content exceeds %d characters", constants.MaxMessageLength), domain.ErrValidationFailed)
	}

	query := activeMeeting(meetingID)
	query.Participant = actor.ID
	query.ParticipantActive = utils.BoolPtr(true)

	meeting, err := s.MeetingRepository.FindOne(ctx, query)
	if err != nil {
		return nil, err
	}

	msg := models.MeetingMessage{
		ID:      utils.GenerateMessageID(),
		Content: content,
		SentAt:  s.Config.now(),
	}
	s.publish(ctx, actor.ID, meeting, models.MessagePayload{Message: msg})
	return &msg, nil
}

// InviteUserToMeeting notifies a user in-app and/or by email. Notifications
// are delivered in the background and failures are only logged.
func (s *MeetingService) InviteUserToMeeting(ctx context.Context, actor *models.User, input InviteInput) (*models.Meeting, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input.UserID == "" && strings.TrimSpace(input.Email) == "" {
		return nil, domain.NewValidationError("a user id or an email is required", domain.ErrValidationFailed)
	}
	if err := requireMeetingID(input.MeetingID); err != nil {
		return nil, err
	}

	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", input.MeetingID))

	meeting, err := s.loadWritableMeeting(ctx, actor, input.MeetingID)
	if err != nil {
		return nil, err
	}

	var jobs []func(context.Context) error
	if input.UserID != "" {
		if _, err := s.UserRepository.GetUser(ctx, input.UserID); err != nil {
			return nil, err
		}
		event := models.UserEvent{
			Type:      models.EventMeetingInvitation,
			MeetingID: meeting.ID,
			Inviter:   actor.ID,
			PassCode:  meeting.PassCode,
		}
		jobs = append(jobs, func(ctx context.Context) error {
			s.UserEvents.PublishUserEvent(ctx, input.UserID, event)
			metrics.InvitationsSent.WithLabelValues("in_app", "sent").Inc()
			return nil
		})
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		invitation := domain.EmailInvitation{
			RecipientEmail: email,
			InviterName:    actor.DisplayName(),
			MeetingID:      meeting.ID,
			PassCode:       meeting.PassCode,
			JoinLink:       s.joinURLs.MeetingJoinURL(meeting.ID, meeting.PassCode),
		}
		jobs = append(jobs, func(ctx context.Context) error {
			return s.sendInvitationEmail(ctx, invitation)
		})
	}

	bgCtx := context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		for _, err := range s.invitations.RunAll(bgCtx, jobs...) {
			slog.ErrorContext(bgCtx, "failed to deliver meeting invitation", logging.ErrKey, err)
		}
	}()

	slog.InfoContext(ctx, "invited user to meeting", "invitee_id", input.UserID, "by_email", input.Email != "")
	return meeting, nil
}

func (s *MeetingService) sendInvitationEmail(ctx context.Context, invitation domain.EmailInvitation) error {
	if s.EmailService == nil {
		slog.WarnContext(ctx, "email service not configured, skipping invitation email")
		metrics.InvitationsSent.WithLabelValues("email", "skipped").Inc()
		return nil
	}
	if err := s.EmailService.SendMeetingInvitation(ctx, invitation); err != nil {
		metrics.InvitationsSent.WithLabelValues("email", "failed").Inc()
		return fmt.Errorf("send invitation email: %w", err)
	}
	metrics.InvitationsSent.WithLabelValues("email", "sent").Inc()
	return nil
}

// redactFor hides the pass code from users without write authority.
func redactFor(actor *models.User, meeting *models.Meeting) *models.Meeting {
	if meeting.PassCode == "" || IsPermitToWrite(actor, meeting.Initiator) {
		return meeting
	}
	c := meeting.Clone()
	c.PassCode = ""
	return c
}

// GetMeeting returns a meeting. Ended meetings are only visible to their
// participants and admins.
func (s *MeetingService) GetMeeting(ctx context.Context, actor *models.User, meetingID string) (*models.Meeting, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if err := requireMeetingID(meetingID); err != nil {
		return nil, err
	}

	meeting, err := s.MeetingRepository.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	if !meeting.IsActive() && !meeting.IsParticipant(actor.ID) && !IsAdmin(actor) {
		return nil, domain.NewForbiddenError("access denied", domain.ErrForbidden)
	}
	return redactFor(actor, meeting), nil
}

// LookupMeeting returns a meeting for trusted service-to-service callers. The
// pass code is never included.
func (s *MeetingService) LookupMeeting(ctx context.Context, meetingID string) (*models.Meeting, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireMeetingID(meetingID); err != nil {
		return nil, err
	}

	meeting, err := s.MeetingRepository.GetMeeting(ctx, meetingID)
	if err != nil {
		return nil, err
	}
	meeting.PassCode = ""
	return meeting, nil
}

// ListMeetings returns the meetings of a user. Listing without a user filter
// is reserved to admins.
func (s *MeetingService) ListMeetings(ctx context.Context, actor *models.User, filter models.MeetingFilter) ([]*models.Meeting, error) {
	if err := s.checkReady(ctx); err != nil {
		return nil, err
	}
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	if filter.Initiator == "" && filter.Participant == "" && !IsAdmin(actor) {
		return nil, domain.NewForbiddenError("listing all meetings requires admin", domain.ErrForbidden)
	}
	for _, target := range []string{filter.Initiator, filter.Participant} {
		if target != "" && !IsPermitToRead(actor, target) {
			return nil, domain.NewForbiddenError("access denied", domain.ErrForbidden)
		}
	}

	meetings, err := s.MeetingRepository.ListMeetings(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i, meeting := range meetings {
		meetings[i] = redactFor(actor, meeting)
	}
	return meetings, nil
}
