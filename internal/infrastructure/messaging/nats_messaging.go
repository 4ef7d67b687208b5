// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
)

// INatsConn is the part of a NATS connection the messaging layer needs.
type INatsConn interface {
	IsConnected() bool
	Publish(subj string, data []byte) error
}

// MessageBuilder is the builder for the message and sends it to the NATS server.
type MessageBuilder struct {
	NatsConn INatsConn
}

// NewMessageBuilder creates a new MessageBuilder.
func NewMessageBuilder(natsConn INatsConn) *MessageBuilder {
	return &MessageBuilder{
		NatsConn: natsConn,
	}
}

// publish sends the message to the NATS server.
func (m *MessageBuilder) publish(ctx context.Context, subject string, data []byte) error {
	err := m.NatsConn.Publish(subject, data)
	if err != nil {
		slog.ErrorContext(ctx, "error sending message to NATS", logging.ErrKey, err, "subject", subject)
		return err
	}
	slog.DebugContext(ctx, "sent message to NATS", "subject", subject)
	return nil
}

func (m *MessageBuilder) publishJSON(ctx context.Context, subject string, data any) error {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		slog.ErrorContext(ctx, "error marshalling data into JSON", logging.ErrKey, err, "subject", subject)
		return err
	}
	return m.publish(ctx, subject, dataBytes)
}

// SendMeetingStarted sends a message about a meeting being hosted.
func (m *MessageBuilder) SendMeetingStarted(ctx context.Context, data models.MeetingStartedMessage) error {
	return m.publishJSON(ctx, models.MeetingStartedSubject, data)
}

// SendMeetingEnded sends a message about a meeting having ended.
func (m *MessageBuilder) SendMeetingEnded(ctx context.Context, data models.MeetingEndedMessage) error {
	return m.publishJSON(ctx, models.MeetingEndedSubject, data)
}
