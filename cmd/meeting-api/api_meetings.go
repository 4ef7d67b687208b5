// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/service"
)

type hostMeetingRequest struct {
	PassCode string               `json:"pass_code"`
	Settings models.MediaSettings `json:"settings"`
}

type joinMeetingRequest struct {
	PassCode string `json:"pass_code"`
	AllowMic bool   `json:"allow_mic"`
	AllowCam bool   `json:"allow_cam"`
}

type leaveMeetingRequest struct {
	UserID string `json:"user_id"`
}

type blockUserRequest struct {
	UserID string `json:"user_id"`
}

type sendMessageRequest struct {
	Content string `json:"content"`
}

type inviteRequest struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// HostMeeting starts a meeting owned by the caller.
func (s *MeetingsAPI) HostMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req hostMeetingRequest
	if err := decodeBody(r, &req, false); err != nil {
		handleError(ctx, w, err)
		return
	}

	meeting, err := s.meetingService.HostMeeting(ctx, actor(r), service.HostMeetingInput{
		PassCode: req.PassCode,
		Settings: req.Settings,
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, meeting)
}

// ListMeetings lists meetings, filtered by the initiator, participant and active query parameters.
func (s *MeetingsAPI) ListMeetings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	filter := models.MeetingFilter{
		Initiator:   query.Get("initiator"),
		Participant: query.Get("participant"),
	}
	if raw := query.Get("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			handleError(ctx, w, domain.NewValidationError("active must be a boolean", err))
			return
		}
		filter.ActiveOnly = active
	}

	meetings, err := s.meetingService.ListMeetings(ctx, actor(r), filter)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	if meetings == nil {
		meetings = []*models.Meeting{}
	}
	writeJSON(ctx, w, http.StatusOK, meetings)
}

// GetMeeting returns a single meeting.
func (s *MeetingsAPI) GetMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	meeting, err := s.meetingService.GetMeeting(ctx, actor(r), s.pathVar(r, "meeting_id"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, meeting)
}

// JoinMeeting adds the caller to an active meeting.
func (s *MeetingsAPI) JoinMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req joinMeetingRequest
	if err := decodeBody(r, &req, false); err != nil {
		handleError(ctx, w, err)
		return
	}

	meeting, err := s.meetingService.JoinMeeting(ctx, actor(r), service.JoinMeetingInput{
		MeetingID: s.pathVar(r, "meeting_id"),
		PassCode:  req.PassCode,
		AllowMic:  req.AllowMic,
		AllowCam:  req.AllowCam,
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, meeting)
}

// LeaveMeeting marks the caller, or the given user when an admin asks, as left.
func (s *MeetingsAPI) LeaveMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req leaveMeetingRequest
	if err := decodeBody(r, &req, false); err != nil {
		handleError(ctx, w, err)
		return
	}

	caller := actor(r)
	userID := req.UserID
	if userID == "" && caller != nil {
		userID = caller.ID
	}

	meeting, err := s.meetingService.LeaveMeeting(ctx, caller, s.pathVar(r, "meeting_id"), userID)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, meeting)
}

// EndMeeting ends the meeting for everyone.
func (s *MeetingsAPI) EndMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	meeting, err := s.meetingService.EndMeeting(ctx, actor(r), s.pathVar(r, "meeting_id"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, meeting)
}

// BlockMeetingUser removes a participant and bars them from rejoining.
func (s *MeetingsAPI) BlockMeetingUser(w http.ResponseWriter, r *http.Request) {
	s.changeBlockList(w, r, s.meetingService.BlockMeetingUser)
}

// UnblockMeetingUser lifts a block.
func (s *MeetingsAPI) UnblockMeetingUser(w http.ResponseWriter, r *http.Request) {
	s.changeBlockList(w, r, s.meetingService.UnblockMeetingUser)
}

type blockListOperation func(ctx context.Context, actor *models.User, input service.BlockUserInput) (*models.Meeting, error)

func (s *MeetingsAPI) changeBlockList(w http.ResponseWriter, r *http.Request, operation blockListOperation) {
	ctx := r.Context()
	var req blockUserRequest
	if err := decodeBody(r, &req, true); err != nil {
		handleError(ctx, w, err)
		return
	}

	meeting, err := operation(ctx, actor(r), service.BlockUserInput{
		MeetingID:    s.pathVar(r, "meeting_id"),
		TargetUserID: req.UserID,
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, meeting)
}

// ToggleMeetingMedia changes the meeting-wide microphone and camera defaults.
func (s *MeetingsAPI) ToggleMeetingMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var delta models.MediaSettingsDelta
	if err := decodeBody(r, &delta, true); err != nil {
		handleError(ctx, w, err)
		return
	}

	meeting, err := s.meetingService.ToggleMeetingMedia(ctx, actor(r), s.pathVar(r, "meeting_id"), delta)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, meeting)
}

// ToggleParticipantMedia changes what one participant may publish.
func (s *MeetingsAPI) ToggleParticipantMedia(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var delta models.ParticipantMediaDelta
	if err := decodeBody(r, &delta, true); err != nil {
		handleError(ctx, w, err)
		return
	}

	meeting, err := s.meetingService.ToggleParticipantMedia(ctx, actor(r), s.pathVar(r, "meeting_id"), s.pathVar(r, "user_id"), delta)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, meeting)
}

// SendMeetingMessage posts a chat message to the meeting.
func (s *MeetingsAPI) SendMeetingMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req sendMessageRequest
	if err := decodeBody(r, &req, true); err != nil {
		handleError(ctx, w, err)
		return
	}

	message, err := s.meetingService.SendMeetingMessage(ctx, actor(r), s.pathVar(r, "meeting_id"), req.Content)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, message)
}

// InviteUserToMeeting invites a user by id or email. Delivery happens in the background.
func (s *MeetingsAPI) InviteUserToMeeting(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req inviteRequest
	if err := decodeBody(r, &req, true); err != nil {
		handleError(ctx, w, err)
		return
	}

	meeting, err := s.meetingService.InviteUserToMeeting(ctx, actor(r), service.InviteInput{
		MeetingID: s.pathVar(r, "meeting_id"),
		UserID:    req.UserID,
		Email:     req.Email,
	})
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusAccepted, meeting)
}
