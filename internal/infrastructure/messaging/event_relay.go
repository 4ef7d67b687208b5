// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/infrastructure/eventbus"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/metrics"
)

// Relayed event kinds, also used as the last subject token.
const (
	relayKindMeeting = "meeting"
	relayKindUser    = "user"
)

// INatsSubscriber is the part of a NATS connection used to receive relayed events.
type INatsSubscriber interface {
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// relayEnvelope is the msgpack payload exchanged between replicas.
type relayEnvelope struct {
	Origin  string                       `msgpack:"origin"`
	Kind    string                       `msgpack:"kind"`
	UserID  string                       `msgpack:"user_id,omitempty"`
	Meeting *models.MeetingEventEnvelope `msgpack:"meeting,omitempty"`
	User    *models.UserEvent            `msgpack:"user,omitempty"`
}

// EventRelay fans events out between service replicas. Local publishes are
// sent to NATS and events from other replicas are delivered to the local bus
// without being sent again.
type EventRelay struct {
	conn   INatsConn
	bus    *eventbus.Bus
	origin string

	mu  sync.Mutex
	sub *nats.Subscription
}

// NewEventRelay creates a relay with a random origin id.
func NewEventRelay(conn INatsConn, bus *eventbus.Bus) *EventRelay {
	return &EventRelay{
		conn:   conn,
		bus:    bus,
		origin: uuid.NewString(),
	}
}

// Origin returns the id this replica stamps on outgoing events.
func (r *EventRelay) Origin() string {
	return r.origin
}

func (r *EventRelay) send(ctx context.Context, env relayEnvelope) {
	if r.conn == nil || !r.conn.IsConnected() {
		slog.WarnContext(ctx, "NATS not connected, event not relayed", "kind", env.Kind)
		return
	}

	env.Origin = r.origin
	data, err := msgpack.Marshal(env)
	if err != nil {
		slog.ErrorContext(ctx, "error encoding relayed event", logging.ErrKey, err, "kind", env.Kind)
		return
	}
	if err := r.conn.Publish(models.EventRelaySubjectPrefix+env.Kind, data); err != nil {
		slog.ErrorContext(ctx, "error relaying event", logging.ErrKey, err, "kind", env.Kind)
		return
	}
	metrics.EventsRelayed.WithLabelValues("out").Inc()
}

// RelayMeetingEvent implements eventbus.Relay.
func (r *EventRelay) RelayMeetingEvent(ctx context.Context, event models.MeetingEvent) {
	env := event.ToEnvelope()
	r.send(ctx, relayEnvelope{Kind: relayKindMeeting, Meeting: &env})
}

// RelayUserEvent implements eventbus.Relay.
func (r *EventRelay) RelayUserEvent(ctx context.Context, userID string, event models.UserEvent) {
	r.send(ctx, relayEnvelope{Kind: relayKindUser, UserID: userID, User: &event})
}

// Start subscribes to the events relayed by other replicas.
func (r *EventRelay) Start(conn INatsSubscriber) error {
	sub, err := conn.Subscribe(models.EventRelayWildcardSubject, func(msg *nats.Msg) {
		if err := r.HandleRelayed(msg.Data); err != nil {
			slog.Error("error handling relayed event", logging.ErrKey, err, "subject", msg.Subject)
		}
	})
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", models.EventRelayWildcardSubject, err)
	}

	r.mu.Lock()
	r.sub = sub
	r.mu.Unlock()
	return nil
}

// Stop unsubscribes from relayed events.
func (r *EventRelay) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sub == nil {
		return nil
	}
	err := r.sub.Unsubscribe()
	r.sub = nil
	return err
}

// HandleRelayed decodes an event from another replica and delivers it to the
// local subscribers. Events stamped with this replica's origin are ignored.
func (r *EventRelay) HandleRelayed(data []byte) error {
	var env relayEnvelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode relayed event: %w", err)
	}
	if env.Origin == r.origin {
		return nil
	}

	switch env.Kind {
	case relayKindMeeting:
		if env.Meeting == nil {
			return fmt.Errorf("relayed meeting event has no payload")
		}
		event, err := models.FromEnvelope(*env.Meeting)
		if err != nil {
			return err
		}
		r.bus.DeliverMeetingEvent(event)
	case relayKindUser:
		if env.User == nil || env.UserID == "" {
			return fmt.Errorf("relayed user event has no payload")
		}
		r.bus.DeliverUserEvent(env.UserID, *env.User)
	default:
		return fmt.Errorf("unknown relayed event kind %q", env.Kind)
	}

	metrics.EventsRelayed.WithLabelValues("in").Inc()
	return nil
}
