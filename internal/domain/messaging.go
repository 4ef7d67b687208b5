// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
)

// Message represents a domain message interface
type Message interface {
	Subject() string
	Data() []byte
	Respond(data []byte) error
	HasReply() bool
}

// MessageHandler defines how the service handles incoming messages
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg Message)
	HandlerReady() bool
}

// MeetingLifecycleSender notifies other services about meetings starting and ending.
type MeetingLifecycleSender interface {
	SendMeetingStarted(ctx context.Context, data models.MeetingStartedMessage) error
	SendMeetingEnded(ctx context.Context, data models.MeetingEndedMessage) error
}
