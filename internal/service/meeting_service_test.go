// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/mocks"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/utils"
)

var testNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// meetingTestEnv wires a MeetingService to in-memory repositories.
type meetingTestEnv struct {
	meetings  *store.NatsMeetingRepository
	users     *store.NatsUserRepository
	events    *mocks.RecordingPublisher
	scheduler *mocks.ManualScheduler
	email     *mocks.MockEmailService
	reaper    *IdleMeetingReaper
	svc       *MeetingService

	host  *models.User
	guest *models.User
	admin *models.User
}

func newMeetingTestEnv(t *testing.T) *meetingTestEnv {
	t.Helper()

	env := &meetingTestEnv{
		meetings:  store.NewNatsMeetingRepository(store.NewMemoryKeyValue("meetings")),
		users:     store.NewNatsUserRepository(store.NewMemoryKeyValue("users")),
		events:    mocks.NewRecordingPublisher(),
		scheduler: &mocks.ManualScheduler{},
		email:     &mocks.MockEmailService{},
	}
	env.meetings.InitialBackoff = 0
	env.meetings.MaxAttempts = 1000

	config := ServiceConfig{
		LFXEnvironment: "dev",
		Now:            func() time.Time { return testNow },
	}
	env.reaper = NewIdleMeetingReaper(env.meetings, env.events, nil, env.scheduler, config)
	env.svc = NewMeetingService(env.meetings, env.users, env.events, env.events, nil, env.email, env.reaper, config)

	env.host = env.createUser(t, "host", models.UserTypeClient)
	env.guest = env.createUser(t, "guest", models.UserTypeAnonymousClient)
	env.admin = env.createUser(t, "admin", models.UserTypeAdmin)
	return env
}

func (env *meetingTestEnv) createUser(t *testing.T, id string, userType models.UserType) *models.User {
	t.Helper()
	user := &models.User{ID: id, Nickname: id, Type: userType}
	require.NoError(t, env.users.CreateUser(context.Background(), user))
	return user
}

func (env *meetingTestEnv) hostMeeting(t *testing.T, passCode string) *models.Meeting {
	t.Helper()
	meeting, err := env.svc.HostMeeting(context.Background(), env.host, HostMeetingInput{
		PassCode: passCode,
		Settings: models.MediaSettings{IsMicOn: true, IsCamOn: true},
	})
	require.NoError(t, err)
	return meeting
}

func (env *meetingTestEnv) join(t *testing.T, user *models.User, meetingID, passCode string) *models.Meeting {
	t.Helper()
	meeting, err := env.svc.JoinMeeting(context.Background(), user, JoinMeetingInput{
		MeetingID: meetingID,
		PassCode:  passCode,
		AllowMic:  true,
	})
	require.NoError(t, err)
	return meeting
}

func (env *meetingTestEnv) stored(t *testing.T, meetingID string) *models.Meeting {
	t.Helper()
	meeting, err := env.meetings.GetMeeting(context.Background(), meetingID)
	require.NoError(t, err)
	return meeting
}

func assertErrorType(t *testing.T, err error, expected domain.ErrorType) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, expected, domain.GetErrorType(err), err.Error())
}

func TestMeetingService_ServiceReady(t *testing.T) {
	env := newMeetingTestEnv(t)
	assert.True(t, env.svc.ServiceReady())

	svc := &MeetingService{MeetingRepository: env.meetings}
	assert.False(t, svc.ServiceReady())

	_, err := svc.HostMeeting(context.Background(), env.host, HostMeetingInput{})
	assertErrorType(t, err, domain.ErrorTypeUnavailable)
}

func TestMeetingService_HostMeeting(t *testing.T) {
	env := newMeetingTestEnv(t)

	meeting := env.hostMeeting(t, "1234")

	assert.NotEmpty(t, meeting.ID)
	assert.NotEmpty(t, meeting.RoomID)
	assert.Equal(t, env.host.ID, meeting.Initiator)
	assert.True(t, meeting.IsActive())
	require.Len(t, meeting.Participants, 1)
	assert.Equal(t, env.host.ID, meeting.Participants[0].UserID)
	assert.True(t, meeting.Participants[0].AllowMic)
	assert.Empty(t, meeting.BlockList)
	assert.Empty(t, env.events.MeetingEvents(), "hosting emits no meeting event")

	_, err := env.svc.HostMeeting(context.Background(), nil, HostMeetingInput{})
	assertErrorType(t, err, domain.ErrorTypeUnauthorized)
}

func TestMeetingService_HostMeetingSendsStartedMessage(t *testing.T) {
	env := newMeetingTestEnv(t)
	lifecycle := &mocks.MockLifecycleSender{}
	env.svc.LifecycleSender = lifecycle

	lifecycle.On("SendMeetingStarted", mock.Anything, mock.MatchedBy(func(msg models.MeetingStartedMessage) bool {
		return msg.Initiator == "host" && msg.StartedAt.Equal(testNow)
	})).Return(errors.New("nats down")).Once()

	// A failed notification does not fail the operation.
	meeting := env.hostMeeting(t, "")
	assert.NotNil(t, meeting)
	lifecycle.AssertExpectations(t)
}

func TestMeetingService_JoinMeeting(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(t *testing.T, env *meetingTestEnv, meetingID string)
		meetingID func(meetingID string) string
		actor     func(env *meetingTestEnv) *models.User
		passCode  string
		errType   *domain.ErrorType
		errIs     error
	}{
		{
			name:     "correct pass code",
			passCode: "1234",
		},
		{
			name:     "wrong pass code",
			passCode: "0000",
			errType:  utils.Ptr(domain.ErrorTypeForbidden),
			errIs:    domain.ErrInvalidPassCode,
		},
		{
			name: "blocked user",
			setup: func(t *testing.T, env *meetingTestEnv, meetingID string) {
				_, err := env.svc.BlockMeetingUser(context.Background(), env.host, BlockUserInput{MeetingID: meetingID, TargetUserID: "guest"})
				require.NoError(t, err)
			},
			passCode: "1234",
			errType:  utils.Ptr(domain.ErrorTypeForbidden),
			errIs:    domain.ErrUserBlocked,
		},
		{
			name: "ended meeting",
			setup: func(t *testing.T, env *meetingTestEnv, meetingID string) {
				_, err := env.svc.EndMeeting(context.Background(), env.host, meetingID)
				require.NoError(t, err)
			},
			passCode: "1234",
			errType:  utils.Ptr(domain.ErrorTypeNotFound),
			errIs:    domain.ErrMeetingNotFound,
		},
		{
			name:      "unknown meeting",
			meetingID: func(string) string { return "missing" },
			errType:   utils.Ptr(domain.ErrorTypeNotFound),
		},
		{
			name:      "missing meeting id",
			meetingID: func(string) string { return " " },
			errType:   utils.Ptr(domain.ErrorTypeValidation),
		},
		{
			name:     "unauthenticated",
			actor:    func(*meetingTestEnv) *models.User { return nil },
			passCode: "1234",
			errType:  utils.Ptr(domain.ErrorTypeUnauthorized),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newMeetingTestEnv(t)
			meeting := env.hostMeeting(t, "1234")
			if tt.setup != nil {
				tt.setup(t, env, meeting.ID)
			}
			meetingID := meeting.ID
			if tt.meetingID != nil {
				meetingID = tt.meetingID(meeting.ID)
			}
			actor := env.guest
			if tt.actor != nil {
				actor = tt.actor(env)
			}
			before := len(env.events.MeetingEventsOfType(models.EventUserJoined))

			joined, err := env.svc.JoinMeeting(context.Background(), actor, JoinMeetingInput{MeetingID: meetingID, PassCode: tt.passCode})

			if tt.errType != nil {
				assertErrorType(t, err, *tt.errType)
				if tt.errIs != nil {
					assert.ErrorIs(t, err, tt.errIs)
				}
				assert.Len(t, env.events.MeetingEventsOfType(models.EventUserJoined), before)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, joined.ActiveParticipant("guest"))

			joinedEvents := env.events.MeetingEventsOfType(models.EventUserJoined)
			require.Len(t, joinedEvents, before+1)
			event := joinedEvents[len(joinedEvents)-1]
			assert.Equal(t, "guest", event.From)
			assert.Equal(t, models.UserJoinedPayload{UserID: "guest"}, event.Payload)
			assert.NotNil(t, event.Meeting.ActiveParticipant("guest"))
		})
	}
}

func TestMeetingService_RejoinReusesParticipantRecord(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")

	env.join(t, env.guest, meeting.ID, "")
	_, err := env.svc.LeaveMeeting(ctx, env.guest, meeting.ID, "guest")
	require.NoError(t, err)

	rejoined, err := env.svc.JoinMeeting(ctx, env.guest, JoinMeetingInput{MeetingID: meeting.ID, AllowCam: true})
	require.NoError(t, err)

	assert.Len(t, rejoined.Participants, 2)
	p := rejoined.ActiveParticipant("guest")
	require.NotNil(t, p)
	assert.Nil(t, p.LeftAt)
	assert.True(t, p.AllowCam)
	assert.False(t, p.AllowMic)
}

func TestMeetingService_ConcurrentJoins(t *testing.T) {
	env := newMeetingTestEnv(t)
	meeting := env.hostMeeting(t, "")

	users := []*models.User{env.guest}
	for i := range 5 {
		users = append(users, env.createUser(t, fmt.Sprintf("user-%d", i), models.UserTypeClient))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(users)*4)
	for _, user := range users {
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := env.svc.JoinMeeting(context.Background(), user, JoinMeetingInput{MeetingID: meeting.ID})
				errs <- err
			}()
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored := env.stored(t, meeting.ID)
	assert.Len(t, stored.Participants, len(users)+1, "one record per user")
	seen := map[string]bool{}
	for _, p := range stored.Participants {
		assert.False(t, seen[p.UserID], "duplicate participant %s", p.UserID)
		seen[p.UserID] = true
		assert.False(t, p.IsLeft)
	}
}

func TestMeetingService_LeaveMeeting(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")
	env.join(t, env.guest, meeting.ID, "")

	left, err := env.svc.LeaveMeeting(ctx, env.guest, meeting.ID, "guest")
	require.NoError(t, err)
	p, _ := left.Participant("guest")
	require.NotNil(t, p)
	assert.True(t, p.IsLeft)
	assert.True(t, p.LeftAt.Equal(testNow))

	// Leaving again changes nothing and emits nothing.
	_, err = env.svc.LeaveMeeting(ctx, env.guest, meeting.ID, "guest")
	assertErrorType(t, err, domain.ErrorTypeNotFound)

	leaves := env.events.MeetingEventsOfType(models.EventLeaveMeeting)
	require.Len(t, leaves, 1)
	assert.Equal(t, models.LeaveMeetingPayload{UserID: "guest"}, leaves[0].Payload)
	assert.Len(t, env.scheduler.Pending(), 1)
}

func TestMeetingService_LeaveMeetingPermissions(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")
	env.join(t, env.guest, meeting.ID, "")

	_, err := env.svc.LeaveMeeting(ctx, env.guest, meeting.ID, "host")
	assertErrorType(t, err, domain.ErrorTypeForbidden)

	_, err = env.svc.LeaveMeeting(ctx, env.admin, meeting.ID, "guest")
	require.NoError(t, err)

	_, err = env.svc.LeaveMeeting(ctx, env.admin, meeting.ID, "nobody")
	assertErrorType(t, err, domain.ErrorTypeNotFound)
}

func TestMeetingService_IdleMeetingIsReaped(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")

	_, err := env.svc.LeaveMeeting(ctx, env.host, meeting.ID, "host")
	require.NoError(t, err)

	pending := env.scheduler.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, 30*time.Second, pending[0].Delay)

	assert.Equal(t, 1, env.scheduler.Fire())

	stored := env.stored(t, meeting.ID)
	assert.False(t, stored.IsActive())
	ends := env.events.MeetingEventsOfType(models.EventEndMeeting)
	require.Len(t, ends, 1)
	assert.Empty(t, ends[0].From)

	// A second check finds nothing to do.
	ended, err := env.reaper.Check(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Nil(t, ended)
	assert.Len(t, env.events.MeetingEventsOfType(models.EventEndMeeting), 1)
}

func TestMeetingService_RejoinBeforeReapKeepsMeeting(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")

	_, err := env.svc.LeaveMeeting(ctx, env.host, meeting.ID, "host")
	require.NoError(t, err)
	env.join(t, env.host, meeting.ID, "")

	env.scheduler.Fire()

	assert.True(t, env.stored(t, meeting.ID).IsActive())
	assert.Empty(t, env.events.MeetingEventsOfType(models.EventEndMeeting))
}

func TestIdleMeetingReaper_SendsEndedMessage(t *testing.T) {
	env := newMeetingTestEnv(t)
	lifecycle := &mocks.MockLifecycleSender{}
	env.reaper.LifecycleSender = lifecycle
	meeting := env.hostMeeting(t, "")

	lifecycle.On("SendMeetingEnded", mock.Anything, mock.MatchedBy(func(msg models.MeetingEndedMessage) bool {
		return msg.MeetingID == meeting.ID && msg.Reason == models.EndReasonIdle && msg.ParticipantCount == 1
	})).Return(nil).Once()

	_, err := env.svc.LeaveMeeting(context.Background(), env.host, meeting.ID, "host")
	require.NoError(t, err)
	env.scheduler.Fire()

	lifecycle.AssertExpectations(t)
}

func TestIdleMeetingReaper_Sweep(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()

	empty := env.hostMeeting(t, "")
	_, err := env.svc.LeaveMeeting(ctx, env.host, empty.ID, "host")
	require.NoError(t, err)
	env.scheduler.Fire()
	require.False(t, env.stored(t, empty.ID).IsActive())

	busy := env.hostMeeting(t, "")
	orphan := env.hostMeeting(t, "")
	// Simulate a restart that lost the scheduled check.
	_, err = env.meetings.FindOneAndUpdate(ctx, models.MeetingQuery{ID: orphan.ID}, func(m *models.Meeting) error {
		m.MarkLeft("host", testNow)
		return nil
	})
	require.NoError(t, err)

	scheduled, err := env.reaper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, scheduled)

	env.scheduler.Fire()
	assert.False(t, env.stored(t, orphan.ID).IsActive())
	assert.True(t, env.stored(t, busy.ID).IsActive())
}

func TestMeetingService_EndMeeting(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")
	env.join(t, env.guest, meeting.ID, "")

	_, err := env.svc.EndMeeting(ctx, env.guest, meeting.ID)
	assertErrorType(t, err, domain.ErrorTypeForbidden)

	ended, err := env.svc.EndMeeting(ctx, env.host, meeting.ID)
	require.NoError(t, err)
	require.NotNil(t, ended.EndedAt)
	for _, p := range ended.Participants {
		assert.True(t, p.IsLeft, p.UserID)
	}

	ends := env.events.MeetingEventsOfType(models.EventEndMeeting)
	require.Len(t, ends, 1)
	assert.Equal(t, "host", ends[0].From)
	assert.ElementsMatch(t, []string{"host", "guest"}, ends[0].RemovedUsers())

	// Ended is terminal.
	_, err = env.svc.EndMeeting(ctx, env.host, meeting.ID)
	assertErrorType(t, err, domain.ErrorTypeConflict)
	assert.ErrorIs(t, err, domain.ErrMeetingAlreadyEnded)

	_, err = env.svc.JoinMeeting(ctx, env.guest, JoinMeetingInput{MeetingID: meeting.ID})
	assertErrorType(t, err, domain.ErrorTypeNotFound)
	_, err = env.svc.LeaveMeeting(ctx, env.guest, meeting.ID, "guest")
	assertErrorType(t, err, domain.ErrorTypeNotFound)
	_, err = env.svc.ToggleMeetingMedia(ctx, env.host, meeting.ID, models.MediaSettingsDelta{IsMicOn: utils.BoolPtr(false)})
	assertErrorType(t, err, domain.ErrorTypeNotFound)
	_, err = env.svc.ToggleParticipantMedia(ctx, env.host, meeting.ID, "guest", models.ParticipantMediaDelta{AllowMic: utils.BoolPtr(false)})
	assertErrorType(t, err, domain.ErrorTypeNotFound)

	assert.Len(t, env.events.MeetingEventsOfType(models.EventEndMeeting), 1)
	assert.Empty(t, env.events.MeetingEventsOfType(models.EventToggleParticipantSettings))
}

func TestMeetingService_EndMeetingByAdmin(t *testing.T) {
	env := newMeetingTestEnv(t)
	meeting := env.hostMeeting(t, "")

	_, err := env.svc.EndMeeting(context.Background(), env.admin, meeting.ID)
	require.NoError(t, err)
	assert.False(t, env.stored(t, meeting.ID).IsActive())
}

func TestMeetingService_BlockAndUnblock(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")
	env.join(t, env.guest, meeting.ID, "")

	blocked, err := env.svc.BlockMeetingUser(ctx, env.host, BlockUserInput{MeetingID: meeting.ID, TargetUserID: "guest"})
	require.NoError(t, err)
	assert.True(t, blocked.IsBlocked("guest"))
	assert.Nil(t, blocked.ActiveParticipant("guest"))

	blocks := env.events.MeetingEventsOfType(models.EventBlockUser)
	require.Len(t, blocks, 1)
	assert.Equal(t, []string{"guest"}, blocks[0].RemovedUsers())
	assert.Len(t, env.scheduler.Pending(), 1)

	_, err = env.svc.BlockMeetingUser(ctx, env.host, BlockUserInput{MeetingID: meeting.ID, TargetUserID: "guest"})
	assertErrorType(t, err, domain.ErrorTypeConflict)
	assert.ErrorIs(t, err, domain.ErrUserAlreadyBlocked)

	_, err = env.svc.JoinMeeting(ctx, env.guest, JoinMeetingInput{MeetingID: meeting.ID})
	assert.ErrorIs(t, err, domain.ErrUserBlocked)

	unblocked, err := env.svc.UnblockMeetingUser(ctx, env.host, BlockUserInput{MeetingID: meeting.ID, TargetUserID: "guest"})
	require.NoError(t, err)
	assert.False(t, unblocked.IsBlocked("guest"))

	_, err = env.svc.UnblockMeetingUser(ctx, env.host, BlockUserInput{MeetingID: meeting.ID, TargetUserID: "guest"})
	assertErrorType(t, err, domain.ErrorTypeConflict)
	assert.ErrorIs(t, err, domain.ErrUserNotInBlockList)

	rejoined := env.join(t, env.guest, meeting.ID, "")
	assert.NotNil(t, rejoined.ActiveParticipant("guest"))
	assert.Len(t, rejoined.Participants, 2)
}

func TestMeetingService_BlockMeetingUserErrors(t *testing.T) {
	tests := []struct {
		name    string
		actor   func(env *meetingTestEnv) *models.User
		target  string
		errType domain.ErrorType
	}{
		{"not the host", func(env *meetingTestEnv) *models.User { return env.guest }, "admin", domain.ErrorTypeForbidden},
		{"initiator", func(env *meetingTestEnv) *models.User { return env.admin }, "host", domain.ErrorTypeValidation},
		{"unknown user", func(env *meetingTestEnv) *models.User { return env.host }, "nobody", domain.ErrorTypeNotFound},
		{"missing target", func(env *meetingTestEnv) *models.User { return env.host }, "", domain.ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newMeetingTestEnv(t)
			meeting := env.hostMeeting(t, "")

			_, err := env.svc.BlockMeetingUser(context.Background(), tt.actor(env), BlockUserInput{MeetingID: meeting.ID, TargetUserID: tt.target})
			assertErrorType(t, err, tt.errType)
			assert.Empty(t, env.events.MeetingEventsOfType(models.EventBlockUser))
		})
	}
}

func TestMeetingService_BlockNonParticipant(t *testing.T) {
	env := newMeetingTestEnv(t)
	meeting := env.hostMeeting(t, "")

	blocked, err := env.svc.BlockMeetingUser(context.Background(), env.host, BlockUserInput{MeetingID: meeting.ID, TargetUserID: "guest"})
	require.NoError(t, err)
	assert.True(t, blocked.IsBlocked("guest"))
	assert.Len(t, blocked.Participants, 1)
	assert.Empty(t, env.scheduler.Pending(), "nobody was removed")
}

func TestMeetingService_ToggleMeetingMedia(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")
	env.join(t, env.guest, meeting.ID, "")

	_, err := env.svc.ToggleMeetingMedia(ctx, env.host, meeting.ID, models.MediaSettingsDelta{})
	assertErrorType(t, err, domain.ErrorTypeValidation)

	delta := models.MediaSettingsDelta{IsCamOn: utils.BoolPtr(false)}
	_, err = env.svc.ToggleMeetingMedia(ctx, env.guest, meeting.ID, delta)
	assertErrorType(t, err, domain.ErrorTypeForbidden)

	updated, err := env.svc.ToggleMeetingMedia(ctx, env.host, meeting.ID, delta)
	require.NoError(t, err)
	assert.Equal(t, models.MediaSettings{IsMicOn: true, IsCamOn: false}, updated.Settings)

	events := env.events.MeetingEventsOfType(models.EventToggleMeetingSettings)
	require.Len(t, events, 1)
	assert.Equal(t, models.MeetingSettingsPayload{Delta: delta}, events[0].Payload)
}

func TestMeetingService_ToggleParticipantMedia(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")
	env.join(t, env.guest, meeting.ID, "")

	delta := models.ParticipantMediaDelta{AllowMic: utils.BoolPtr(false)}
	updated, err := env.svc.ToggleParticipantMedia(ctx, env.host, meeting.ID, "guest", delta)
	require.NoError(t, err)
	assert.False(t, updated.ActiveParticipant("guest").AllowMic)

	events := env.events.MeetingEventsOfType(models.EventToggleParticipantSettings)
	require.Len(t, events, 1)
	assert.Equal(t, models.ParticipantSettingsPayload{ParticipantID: "guest", Delta: delta}, events[0].Payload)

	_, err = env.svc.LeaveMeeting(ctx, env.guest, meeting.ID, "guest")
	require.NoError(t, err)
	_, err = env.svc.ToggleParticipantMedia(ctx, env.host, meeting.ID, "guest", delta)
	assertErrorType(t, err, domain.ErrorTypeNotFound)
	assert.ErrorIs(t, err, domain.ErrParticipantNotFound)

	_, err = env.svc.ToggleParticipantMedia(ctx, env.host, meeting.ID, "host", models.ParticipantMediaDelta{})
	assertErrorType(t, err, domain.ErrorTypeValidation)
}

func TestMeetingService_SendMeetingMessage(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")

	tests := []struct {
		name    string
		actor   *models.User
		content string
		errType *domain.ErrorType
	}{
		{"participant", env.host, "hello", nil},
		{"exactly the limit", env.host, strings.Repeat("é", 2000), nil},
		{"empty", env.host, "   ", utils.Ptr(domain.ErrorTypeValidation)},
		{"too long", env.host, strings.Repeat("a", 2001), utils.Ptr(domain.ErrorTypeValidation)},
		{"not a participant", env.guest, "hi", utils.Ptr(domain.ErrorTypeNotFound)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(env.events.MeetingEventsOfType(models.EventMessage))
			msg, err := env.svc.SendMeetingMessage(ctx, tt.actor, meeting.ID, tt.content)
			if tt.errType != nil {
				assertErrorType(t, err, *tt.errType)
				assert.Len(t, env.events.MeetingEventsOfType(models.EventMessage), before)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, msg.ID)
			assert.Equal(t, tt.content, msg.Content)

			messages := env.events.MeetingEventsOfType(models.EventMessage)
			require.Len(t, messages, before+1)
			assert.Equal(t, models.MessagePayload{Message: *msg}, messages[len(messages)-1].Payload)
		})
	}
}

func TestMeetingService_InviteUserToMeeting(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "4321")

	env.email.On("SendMeetingInvitation", mock.Anything, mock.MatchedBy(func(inv domain.EmailInvitation) bool {
		return inv.RecipientEmail == "friend@example.com" &&
			inv.InviterName == "host" &&
			inv.PassCode == "4321" &&
			strings.Contains(inv.JoinLink, "/video-meetings/"+meeting.ID) &&
			strings.Contains(inv.JoinLink, "pass_code=4321")
	})).Return(nil).Once()

	_, err := env.svc.InviteUserToMeeting(ctx, env.host, InviteInput{MeetingID: meeting.ID, UserID: "guest", Email: "friend@example.com"})
	require.NoError(t, err)
	env.svc.Wait()

	invitations := env.events.UserEvents("guest")
	require.Len(t, invitations, 1)
	assert.Equal(t, models.UserEvent{
		Type:      models.EventMeetingInvitation,
		MeetingID: meeting.ID,
		Inviter:   "host",
		PassCode:  "4321",
	}, invitations[0])
	env.email.AssertExpectations(t)
}

func TestMeetingService_InviteUserToMeetingErrors(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")

	_, err := env.svc.InviteUserToMeeting(ctx, env.host, InviteInput{MeetingID: meeting.ID})
	assertErrorType(t, err, domain.ErrorTypeValidation)

	_, err = env.svc.InviteUserToMeeting(ctx, env.host, InviteInput{MeetingID: meeting.ID, UserID: "nobody"})
	assertErrorType(t, err, domain.ErrorTypeNotFound)

	_, err = env.svc.InviteUserToMeeting(ctx, env.guest, InviteInput{MeetingID: meeting.ID, UserID: "admin"})
	assertErrorType(t, err, domain.ErrorTypeForbidden)

	env.svc.Wait()
	assert.Empty(t, env.events.UserEvents("admin"))
}

func TestMeetingService_InviteEmailFailureIsNotReturned(t *testing.T) {
	env := newMeetingTestEnv(t)
	meeting := env.hostMeeting(t, "")
	env.email.On("SendMeetingInvitation", mock.Anything, mock.Anything).Return(errors.New("smtp down")).Once()

	_, err := env.svc.InviteUserToMeeting(context.Background(), env.host, InviteInput{MeetingID: meeting.ID, Email: "x@example.com"})
	require.NoError(t, err)
	env.svc.Wait()
	env.email.AssertExpectations(t)
}

func TestMeetingService_GetMeeting(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "secret")
	outsider := env.createUser(t, "outsider", models.UserTypeClient)

	asHost, err := env.svc.GetMeeting(ctx, env.host, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, "secret", asHost.PassCode)

	asGuest, err := env.svc.GetMeeting(ctx, env.guest, meeting.ID)
	require.NoError(t, err)
	assert.Empty(t, asGuest.PassCode)

	_, err = env.svc.GetMeeting(ctx, env.host, "missing")
	assertErrorType(t, err, domain.ErrorTypeNotFound)

	_, err = env.svc.EndMeeting(ctx, env.host, meeting.ID)
	require.NoError(t, err)

	_, err = env.svc.GetMeeting(ctx, outsider, meeting.ID)
	assertErrorType(t, err, domain.ErrorTypeForbidden)
	_, err = env.svc.GetMeeting(ctx, env.admin, meeting.ID)
	require.NoError(t, err)

	looked, err := env.svc.LookupMeeting(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Empty(t, looked.PassCode)
}

func TestMeetingService_ListMeetings(t *testing.T) {
	env := newMeetingTestEnv(t)
	ctx := context.Background()
	first := env.hostMeeting(t, "p")
	env.hostMeeting(t, "")
	env.join(t, env.guest, first.ID, "p")

	_, err := env.svc.ListMeetings(ctx, env.guest, models.MeetingFilter{})
	assertErrorType(t, err, domain.ErrorTypeForbidden)

	_, err = env.svc.ListMeetings(ctx, env.guest, models.MeetingFilter{Initiator: "host"})
	assertErrorType(t, err, domain.ErrorTypeForbidden)

	all, err := env.svc.ListMeetings(ctx, env.admin, models.MeetingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := env.svc.ListMeetings(ctx, env.guest, models.MeetingFilter{Participant: "guest"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, first.ID, mine[0].ID)
	assert.Empty(t, mine[0].PassCode)
}
