// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"github.com/nats-io/nats.go"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
)

// NatsMsg adapts a NATS message to domain.Message.
type NatsMsg struct {
	*nats.Msg
}

// Subject returns the subject the message was published on.
func (m *NatsMsg) Subject() string {
	return m.Msg.Subject
}

// Data returns the message payload.
func (m *NatsMsg) Data() []byte {
	return m.Msg.Data
}

// Respond replies to a request.
func (m *NatsMsg) Respond(data []byte) error {
	return m.Msg.Respond(data)
}

// HasReply reports whether the sender is waiting for a reply.
func (m *NatsMsg) HasReply() bool {
	return m.Msg.Reply != ""
}

var _ domain.Message = (*NatsMsg)(nil)
