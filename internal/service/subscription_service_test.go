// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/infrastructure/eventbus"
)

type subscriptionTestEnv struct {
	*meetingTestEnv
	bus  *eventbus.Bus
	subs *SubscriptionService
}

// newSubscriptionTestEnv routes meeting events through a real bus.
func newSubscriptionTestEnv(t *testing.T) *subscriptionTestEnv {
	t.Helper()
	env := newMeetingTestEnv(t)
	bus := eventbus.NewBus()
	t.Cleanup(bus.Close)

	env.svc.MeetingEvents = bus
	env.svc.UserEvents = bus
	env.reaper.MeetingEvents = bus

	return &subscriptionTestEnv{
		meetingTestEnv: env,
		bus:            bus,
		subs:           NewSubscriptionService(env.meetings, env.svc, bus),
	}
}

func nextEvent[T any](t *testing.T, sub *eventbus.Subscription[T]) (T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	return sub.Next(ctx)
}

func TestSubscriptionService_SubscribeMeetingAuthorization(t *testing.T) {
	env := newSubscriptionTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")
	ended := env.hostMeeting(t, "")
	_, err := env.svc.EndMeeting(ctx, env.host, ended.ID)
	require.NoError(t, err)

	tests := []struct {
		name      string
		actor     *models.User
		meetingID string
		userID    string
		errType   domain.ErrorType
	}{
		{"unauthenticated", nil, meeting.ID, "host", domain.ErrorTypeUnauthorized},
		{"as someone else", env.guest, meeting.ID, "host", domain.ErrorTypeForbidden},
		{"admin as someone else", env.admin, meeting.ID, "host", domain.ErrorTypeForbidden},
		{"not a participant", env.guest, meeting.ID, "guest", domain.ErrorTypeForbidden},
		{"unknown meeting", env.host, "missing", "host", domain.ErrorTypeNotFound},
		{"ended meeting", env.host, ended.ID, "host", domain.ErrorTypeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := env.subs.SubscribeMeeting(ctx, tt.actor, tt.meetingID, tt.userID)
			assertErrorType(t, err, tt.errType)
			assert.Nil(t, sub)
		})
	}
	assert.Zero(t, env.bus.MeetingSubscriberCount(meeting.ID))
}

func TestSubscriptionService_ParticipantReceivesEvents(t *testing.T) {
	env := newSubscriptionTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")

	sub, err := env.subs.SubscribeMeeting(ctx, env.host, meeting.ID, "host")
	require.NoError(t, err)
	defer sub.Cancel()

	env.join(t, env.guest, meeting.ID, "")
	_, err = env.svc.SendMeetingMessage(ctx, env.guest, meeting.ID, "hi")
	require.NoError(t, err)

	event, err := nextEvent(t, sub)
	require.NoError(t, err)
	assert.Equal(t, models.EventUserJoined, event.Type)
	assert.Equal(t, "guest", event.From)

	event, err = nextEvent(t, sub)
	require.NoError(t, err)
	assert.Equal(t, models.EventMessage, event.Type)
}

func TestSubscriptionService_RemovedUserGetsOnlyTheRemovalEvent(t *testing.T) {
	env := newSubscriptionTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")
	env.join(t, env.guest, meeting.ID, "")

	sub, err := env.subs.SubscribeMeeting(ctx, env.guest, meeting.ID, "guest")
	require.NoError(t, err)

	_, err = env.svc.BlockMeetingUser(ctx, env.host, BlockUserInput{MeetingID: meeting.ID, TargetUserID: "guest"})
	require.NoError(t, err)
	_, err = env.svc.SendMeetingMessage(ctx, env.host, meeting.ID, "after the block")
	require.NoError(t, err)

	event, err := nextEvent(t, sub)
	require.NoError(t, err)
	assert.Equal(t, models.EventBlockUser, event.Type)

	_, err = nextEvent(t, sub)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "a removed user must not see later events")

	sub.Cancel()
	// The user is already out, so the leave on cancel schedules nothing new.
	assert.Len(t, env.scheduler.Pending(), 1)
}

func TestSubscriptionService_EndedMeetingDeliversEndToEveryone(t *testing.T) {
	env := newSubscriptionTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")
	env.join(t, env.guest, meeting.ID, "")

	sub, err := env.subs.SubscribeMeeting(ctx, env.guest, meeting.ID, "guest")
	require.NoError(t, err)
	defer sub.Cancel()

	_, err = env.svc.EndMeeting(ctx, env.host, meeting.ID)
	require.NoError(t, err)

	event, err := nextEvent(t, sub)
	require.NoError(t, err)
	assert.Equal(t, models.EventEndMeeting, event.Type)
}

func TestSubscriptionService_UserWhoAlreadyLeftIsNotSentRemovals(t *testing.T) {
	tests := []struct {
		name   string
		remove func(ctx context.Context, env *subscriptionTestEnv, meetingID string) error
	}{
		{
			name: "blocked after leaving",
			remove: func(ctx context.Context, env *subscriptionTestEnv, meetingID string) error {
				_, err := env.svc.BlockMeetingUser(ctx, env.host, BlockUserInput{MeetingID: meetingID, TargetUserID: "guest"})
				return err
			},
		},
		{
			name: "meeting ended after leaving",
			remove: func(ctx context.Context, env *subscriptionTestEnv, meetingID string) error {
				_, err := env.svc.EndMeeting(ctx, env.host, meetingID)
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newSubscriptionTestEnv(t)
			ctx := context.Background()
			meeting := env.hostMeeting(t, "")
			env.join(t, env.guest, meeting.ID, "")

			sub, err := env.subs.SubscribeMeeting(ctx, env.guest, meeting.ID, "guest")
			require.NoError(t, err)
			defer sub.Cancel()

			// Leaving through the API does not close the subscription.
			_, err = env.svc.LeaveMeeting(ctx, env.guest, meeting.ID, "guest")
			require.NoError(t, err)

			require.NoError(t, tt.remove(ctx, env, meeting.ID))

			_, err = nextEvent(t, sub)
			assert.ErrorIs(t, err, context.DeadlineExceeded, "the guest was no longer in the meeting")
		})
	}
}

func TestSubscriptionService_CancelLeavesMeetingOnce(t *testing.T) {
	env := newSubscriptionTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")
	env.join(t, env.guest, meeting.ID, "")

	hostSub, err := env.subs.SubscribeMeeting(ctx, env.host, meeting.ID, "host")
	require.NoError(t, err)
	defer hostSub.Cancel()

	guestSub, err := env.subs.SubscribeMeeting(ctx, env.guest, meeting.ID, "guest")
	require.NoError(t, err)

	guestSub.Cancel()
	guestSub.Cancel()

	stored := env.stored(t, meeting.ID)
	assert.Nil(t, stored.ActiveParticipant("guest"))
	assert.NotNil(t, stored.ActiveParticipant("host"))

	event, err := nextEvent(t, hostSub)
	require.NoError(t, err)
	assert.Equal(t, models.EventLeaveMeeting, event.Type)
	assert.Equal(t, models.LeaveMeetingPayload{UserID: "guest"}, event.Payload)

	_, err = nextEvent(t, hostSub)
	assert.ErrorIs(t, err, context.DeadlineExceeded, "exactly one leave")

	_, err = guestSub.Next(ctx)
	assert.ErrorIs(t, err, eventbus.ErrSubscriptionClosed)
	assert.Equal(t, 1, env.bus.MeetingSubscriberCount(meeting.ID))
}

func TestSubscriptionService_LastSubscriberDisconnectSchedulesReap(t *testing.T) {
	env := newSubscriptionTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")

	sub, err := env.subs.SubscribeMeeting(ctx, env.host, meeting.ID, "host")
	require.NoError(t, err)
	sub.Cancel()

	require.Len(t, env.scheduler.Pending(), 1)
	env.scheduler.Fire()
	assert.False(t, env.stored(t, meeting.ID).IsActive())
}

func TestSubscriptionService_SubscribeUser(t *testing.T) {
	env := newSubscriptionTestEnv(t)
	ctx := context.Background()
	meeting := env.hostMeeting(t, "")

	_, err := env.subs.SubscribeUser(ctx, env.host, "guest")
	assertErrorType(t, err, domain.ErrorTypeForbidden)

	sub, err := env.subs.SubscribeUser(ctx, env.guest, "guest")
	require.NoError(t, err)
	defer sub.Cancel()

	_, err = env.svc.InviteUserToMeeting(ctx, env.host, InviteInput{MeetingID: meeting.ID, UserID: "guest"})
	require.NoError(t, err)
	env.svc.Wait()

	event, err := nextEvent(t, sub)
	require.NoError(t, err)
	assert.Equal(t, models.EventMeetingInvitation, event.Type)
	assert.Equal(t, meeting.ID, event.MeetingID)
	assert.Equal(t, "host", event.Inviter)
}
