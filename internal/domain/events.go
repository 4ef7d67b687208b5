// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
	"time"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
)

// MeetingEventPublisher dispatches events to the subscribers of a meeting channel.
// Publishing never fails and never waits for delivery.
type MeetingEventPublisher interface {
	PublishMeetingEvent(ctx context.Context, event models.MeetingEvent)
}

// UserEventPublisher dispatches events to the personal channel of a user.
type UserEventPublisher interface {
	PublishUserEvent(ctx context.Context, userID string, event models.UserEvent)
}

// Scheduler runs a function once after a delay.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func() bool)
}
