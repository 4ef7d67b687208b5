// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package eventbus

import (
	"context"
	"sync"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
)

// Relay forwards locally published events to other replicas.
type Relay interface {
	RelayMeetingEvent(ctx context.Context, event models.MeetingEvent)
	RelayUserEvent(ctx context.Context, userID string, event models.UserEvent)
}

// Bus carries meeting and user events. It implements the domain publishers.
type Bus struct {
	meetings *Broker[models.MeetingEvent]
	users    *Broker[models.UserEvent]

	mu    sync.RWMutex
	relay Relay
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		meetings: NewBroker("meeting", func(e models.MeetingEvent) string { return string(e.Type) }),
		users:    NewBroker("user", func(e models.UserEvent) string { return string(e.Type) }),
	}
}

// SetRelay installs the relay that receives every local publish.
func (b *Bus) SetRelay(relay Relay) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.relay = relay
}

func (b *Bus) currentRelay() Relay {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.relay
}

// PublishMeetingEvent delivers the event to the meeting channel and relays it.
func (b *Bus) PublishMeetingEvent(ctx context.Context, event models.MeetingEvent) {
	b.DeliverMeetingEvent(event)
	if relay := b.currentRelay(); relay != nil {
		relay.RelayMeetingEvent(ctx, event)
	}
}

// DeliverMeetingEvent delivers the event to local subscribers only.
func (b *Bus) DeliverMeetingEvent(event models.MeetingEvent) int {
	return b.meetings.Publish(models.MeetingChannel(event.MeetingID()), event)
}

// PublishUserEvent delivers the event to the user channel and relays it.
func (b *Bus) PublishUserEvent(ctx context.Context, userID string, event models.UserEvent) {
	b.DeliverUserEvent(userID, event)
	if relay := b.currentRelay(); relay != nil {
		relay.RelayUserEvent(ctx, userID, event)
	}
}

// DeliverUserEvent delivers the event to local subscribers only.
func (b *Bus) DeliverUserEvent(userID string, event models.UserEvent) int {
	return b.users.Publish(models.UserChannel(userID), event)
}

// SubscribeMeeting opens a feed on the channel of meetingID.
func (b *Bus) SubscribeMeeting(meetingID string, opts ...SubscribeOption[models.MeetingEvent]) *Subscription[models.MeetingEvent] {
	return b.meetings.Subscribe(models.MeetingChannel(meetingID), opts...)
}

// SubscribeUser opens a feed on the channel of userID.
func (b *Bus) SubscribeUser(userID string, opts ...SubscribeOption[models.UserEvent]) *Subscription[models.UserEvent] {
	return b.users.Subscribe(models.UserChannel(userID), opts...)
}

// MeetingSubscriberCount returns the local subscribers of a meeting.
func (b *Bus) MeetingSubscriberCount(meetingID string) int {
	return b.meetings.SubscriberCount(models.MeetingChannel(meetingID))
}

// Close cancels every subscription.
func (b *Bus) Close() {
	b.meetings.Close()
	b.users.Close()
}
