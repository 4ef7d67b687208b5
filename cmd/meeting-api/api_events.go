// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/gorilla/websocket"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/infrastructure/eventbus"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/service"
)

const (
	// Time allowed to write a message to the peer.
	wsWriteWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	wsPongWait = 60 * time.Second
	// Send pings to the peer with this period. Must be less than wsPongWait.
	wsPingPeriod = (wsPongWait * 9) / 10
	// Clients only send control frames.
	wsMaxMessageSize = 512
)

// checkOrigin accepts same-host upgrades, requests without an Origin header
// and the configured app origins.
func (s *MeetingsAPI) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if parsed.Host == r.Host {
		return true
	}
	return slices.Contains(s.allowedOrigins, parsed.Scheme+"://"+parsed.Host)
}

func (s *MeetingsAPI) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
}

// SubscribeMeetingEvents streams the events of a meeting to one of its
// participants. Closing the socket makes the participant leave the meeting.
func (s *MeetingsAPI) SubscribeMeetingEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller := actor(r)

	userID := r.URL.Query().Get("user_id")
	if userID == "" && caller != nil {
		userID = caller.ID
	}
	meetingID := s.pathVar(r, "meeting_id")
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meetingID))

	// Authorization happens before the upgrade so failures are plain HTTP errors.
	sub, err := s.subscriptionService.SubscribeMeeting(ctx, caller, meetingID, userID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already replied to the client.
		slog.WarnContext(ctx, "websocket upgrade failed", logging.ErrKey, err)
		sub.Cancel()
		return
	}

	streamEvents(ctx, conn, sub, func(event models.MeetingEvent) any {
		return meetingEventFor(caller, event)
	})
}

// SubscribeUserEvents streams invitations addressed to the user.
func (s *MeetingsAPI) SubscribeUserEvents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sub, err := s.subscriptionService.SubscribeUser(ctx, actor(r), s.pathVar(r, "user_id"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}

	conn, err := s.upgrader().Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(ctx, "websocket upgrade failed", logging.ErrKey, err)
		sub.Cancel()
		return
	}

	streamEvents(ctx, conn, sub, func(event models.UserEvent) any {
		return event
	})
}

// meetingEventFor converts the event to its wire form, hiding the pass code
// from participants who cannot manage the meeting.
func meetingEventFor(caller *models.User, event models.MeetingEvent) models.MeetingEventEnvelope {
	envelope := event.ToEnvelope()
	if envelope.Meeting != nil && envelope.Meeting.PassCode != "" && !service.IsPermitToWrite(caller, envelope.Meeting.Initiator) {
		redacted := *envelope.Meeting
		redacted.PassCode = ""
		envelope.Meeting = &redacted
	}
	return envelope
}

// streamEvents writes subscription items to the socket as JSON until either
// side goes away. The subscription is always cancelled on return.
func streamEvents[T any](parent context.Context, conn *websocket.Conn, sub *eventbus.Subscription[T], encode func(T) any) {
	// The request context is not cancelled for hijacked connections.
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	defer cancel()
	defer sub.Cancel()
	defer func() {
		_ = conn.Close()
	}()

	go readUntilClosed(conn, cancel)
	go keepAlive(ctx, conn)

	for {
		item, err := sub.Next(ctx)
		if err != nil {
			if errors.Is(err, eventbus.ErrSubscriptionClosed) {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "subscription closed"),
					time.Now().Add(wsWriteWait))
			}
			return
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(encode(item)); err != nil {
			slog.DebugContext(ctx, "websocket write failed", logging.ErrKey, err)
			return
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are processed.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(wsMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func keepAlive(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return
			}
		}
	}
}
