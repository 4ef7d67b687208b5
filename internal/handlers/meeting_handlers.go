// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/service"
)

// MeetingHandler answers meeting lookups from other services over NATS.
type MeetingHandler struct {
	meetingService *service.MeetingService
}

func NewMeetingHandler(meetingService *service.MeetingService) *MeetingHandler {
	return &MeetingHandler{
		meetingService: meetingService,
	}
}

func (s *MeetingHandler) HandlerReady() bool {
	return s.meetingService != nil && s.meetingService.ServiceReady()
}

// HandleMessage implements domain.MessageHandler interface
func (s *MeetingHandler) HandleMessage(ctx context.Context, msg domain.Message) {
	subject := msg.Subject()
	ctx = logging.AppendCtx(ctx, slog.String("subject", subject))
	slog.DebugContext(ctx, "handling NATS message")

	handlers := map[string]func(ctx context.Context, msg domain.Message) ([]byte, error){
		models.MeetingGetSubject:            s.HandleMeetingGet,
		models.MeetingGetActiveCountSubject: s.HandleMeetingGetActiveCount,
	}

	handler, ok := handlers[subject]
	if !ok {
		slog.WarnContext(ctx, "unknown subject")
		s.respond(ctx, msg, nil)
		return
	}

	response, err := handler(ctx, msg)
	if err != nil {
		slog.ErrorContext(ctx, "error handling message", logging.ErrKey, err)
		s.respond(ctx, msg, nil)
		return
	}

	if s.respond(ctx, msg, response) {
		slog.DebugContext(ctx, "responded to NATS message", "response_bytes", len(response))
	} else {
		slog.DebugContext(ctx, "handled NATS message (no reply expected)")
	}
}

// respond replies when the message expects a reply and reports whether it did.
func (s *MeetingHandler) respond(ctx context.Context, msg domain.Message, data []byte) bool {
	if !msg.HasReply() {
		return false
	}
	if err := msg.Respond(data); err != nil {
		slog.ErrorContext(ctx, "error responding to NATS message", logging.ErrKey, err)
		return false
	}
	return true
}

func (s *MeetingHandler) lookup(ctx context.Context, msg domain.Message) (*models.Meeting, error) {
	if !s.HandlerReady() {
		slog.ErrorContext(ctx, "NATS KV store not initialized")
		return nil, fmt.Errorf("NATS KV store not initialized")
	}

	meetingID := strings.TrimSpace(string(msg.Data()))
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", meetingID))

	if _, err := uuid.Parse(meetingID); err != nil {
		slog.ErrorContext(ctx, "error parsing meeting ID", logging.ErrKey, err)
		return nil, err
	}

	meeting, err := s.meetingService.LookupMeeting(ctx, meetingID)
	if err != nil {
		slog.ErrorContext(ctx, "error getting meeting from NATS KV", logging.ErrKey, err)
		return nil, err
	}
	return meeting, nil
}

// HandleMeetingGet is the message handler for the get-meeting subject. It
// replies with the meeting as JSON.
func (s *MeetingHandler) HandleMeetingGet(ctx context.Context, msg domain.Message) ([]byte, error) {
	meeting, err := s.lookup(ctx, msg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(meeting)
}

// HandleMeetingGetActiveCount is the message handler for the get-active-count
// subject. It replies with the number of active participants in decimal.
func (s *MeetingHandler) HandleMeetingGetActiveCount(ctx context.Context, msg domain.Message) ([]byte, error) {
	meeting, err := s.lookup(ctx, msg)
	if err != nil {
		return nil, err
	}
	return []byte(strconv.Itoa(meeting.ActiveParticipantCount())), nil
}
