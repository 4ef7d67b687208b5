// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"fmt"
	"slices"
	"time"
)

// MeetingEventType identifies the kind of a [MeetingEvent].
type MeetingEventType string

const (
	EventUserJoined                MeetingEventType = "USER_JOINED"
	EventMessage                   MeetingEventType = "MESSAGE"
	EventBlockUser                 MeetingEventType = "BLOCK_USER"
	EventEndMeeting                MeetingEventType = "END_MEETING"
	EventLeaveMeeting              MeetingEventType = "LEAVE_MEETING"
	EventToggleMeetingSettings     MeetingEventType = "TOGGLE_MEETING_SETTINGS"
	EventToggleParticipantSettings MeetingEventType = "TOGGLE_PARTICIPANT_SETTINGS"
)

// MeetingEventPayload is implemented by the payload of each event kind.
type MeetingEventPayload interface {
	EventType() MeetingEventType
}

// UserJoinedPayload is carried by USER_JOINED.
type UserJoinedPayload struct {
	UserID string
}

// MessagePayload is carried by MESSAGE.
type MessagePayload struct {
	Message MeetingMessage
}

// BlockUserPayload is carried by BLOCK_USER.
type BlockUserPayload struct {
	UserToBeKickedOut string
	// Removed is set when the target was an active participant.
	Removed bool
}

// EndMeetingPayload is carried by END_MEETING.
type EndMeetingPayload struct {
	EndedAt time.Time
	// RemovedUserIDs are the participants that were active when the meeting ended.
	RemovedUserIDs []string
}

// LeaveMeetingPayload is carried by LEAVE_MEETING.
type LeaveMeetingPayload struct {
	UserID string
}

// MeetingSettingsPayload is carried by TOGGLE_MEETING_SETTINGS.
type MeetingSettingsPayload struct {
	Delta MediaSettingsDelta
}

// ParticipantSettingsPayload is carried by TOGGLE_PARTICIPANT_SETTINGS.
type ParticipantSettingsPayload struct {
	ParticipantID string
	Delta         ParticipantMediaDelta
}

func (UserJoinedPayload) EventType() MeetingEventType   { return EventUserJoined }
func (MessagePayload) EventType() MeetingEventType      { return EventMessage }
func (BlockUserPayload) EventType() MeetingEventType    { return EventBlockUser }
func (EndMeetingPayload) EventType() MeetingEventType   { return EventEndMeeting }
func (LeaveMeetingPayload) EventType() MeetingEventType { return EventLeaveMeeting }
func (MeetingSettingsPayload) EventType() MeetingEventType {
	return EventToggleMeetingSettings
}
func (ParticipantSettingsPayload) EventType() MeetingEventType {
	return EventToggleParticipantSettings
}

// MeetingMessage is a chat message sent inside a meeting.
type MeetingMessage struct {
	ID      string    `json:"id" msgpack:"id"`
	Content string    `json:"content" msgpack:"content"`
	SentAt  time.Time `json:"sent_at" msgpack:"sent_at"`
}

// MeetingEvent is dispatched on a meeting channel after a membership change.
type MeetingEvent struct {
	Type    MeetingEventType
	From    string
	Meeting *Meeting
	Payload MeetingEventPayload
}

// NewMeetingEvent builds an event whose type is taken from the payload.
func NewMeetingEvent(from string, meeting *Meeting, payload MeetingEventPayload) MeetingEvent {
	return MeetingEvent{
		Type:    payload.EventType(),
		From:    from,
		Meeting: meeting.Clone(),
		Payload: payload,
	}
}

// MeetingID returns the id of the meeting the event refers to.
func (e MeetingEvent) MeetingID() string {
	if e.Meeting == nil {
		return ""
	}
	return e.Meeting.ID
}

// RemovedUsers returns the users the event took out of the meeting.
func (e MeetingEvent) RemovedUsers() []string {
	switch p := e.Payload.(type) {
	case BlockUserPayload:
		if !p.Removed {
			return nil
		}
		return []string{p.UserToBeKickedOut}
	case EndMeetingPayload:
		return p.RemovedUserIDs
	default:
		return nil
	}
}

// MeetingEventEnvelope is the wire representation of a [MeetingEvent].
type MeetingEventEnvelope struct {
	Type              MeetingEventType       `json:"type" msgpack:"type"`
	From              string                 `json:"from" msgpack:"from"`
	Meeting           *Meeting               `json:"meeting" msgpack:"meeting"`
	UserID            string                 `json:"user_id,omitempty" msgpack:"user_id,omitempty"`
	Message           *MeetingMessage        `json:"message,omitempty" msgpack:"message,omitempty"`
	UserToBeKickedOut string                 `json:"user_to_be_kicked_out,omitempty" msgpack:"user_to_be_kicked_out,omitempty"`
	RemovedUserIDs    []string               `json:"-" msgpack:"removed_user_ids,omitempty"`
	EndedAt           *time.Time             `json:"ended_at,omitempty" msgpack:"ended_at,omitempty"`
	MeetingSettings   *MediaSettingsDelta    `json:"meeting_settings,omitempty" msgpack:"meeting_settings,omitempty"`
	ParticipantID     string                 `json:"participant_id,omitempty" msgpack:"participant_id,omitempty"`
	ParticipantMedia  *ParticipantMediaDelta `json:"participant_settings,omitempty" msgpack:"participant_settings,omitempty"`
}

// ToEnvelope flattens the event for encoding.
func (e MeetingEvent) ToEnvelope() MeetingEventEnvelope {
	env := MeetingEventEnvelope{
		Type:    e.Type,
		From:    e.From,
		Meeting: e.Meeting,
	}
	switch p := e.Payload.(type) {
	case UserJoinedPayload:
		env.UserID = p.UserID
	case MessagePayload:
		msg := p.Message
		env.Message = &msg
	case BlockUserPayload:
		env.UserToBeKickedOut = p.UserToBeKickedOut
		if p.Removed {
			env.RemovedUserIDs = []string{p.UserToBeKickedOut}
		}
	case EndMeetingPayload:
		ended := p.EndedAt
		env.EndedAt = &ended
		env.RemovedUserIDs = p.RemovedUserIDs
	case LeaveMeetingPayload:
		env.UserID = p.UserID
	case MeetingSettingsPayload:
		delta := p.Delta
		env.MeetingSettings = &delta
	case ParticipantSettingsPayload:
		env.ParticipantID = p.ParticipantID
		delta := p.Delta
		env.ParticipantMedia = &delta
	}
	return env
}

// FromEnvelope rebuilds the tagged event from its wire representation.
func FromEnvelope(env MeetingEventEnvelope) (MeetingEvent, error) {
	event := MeetingEvent{
		Type:    env.Type,
		From:    env.From,
		Meeting: env.Meeting,
	}
	switch env.Type {
	case EventUserJoined:
		event.Payload = UserJoinedPayload{UserID: env.UserID}
	case EventMessage:
		if env.Message == nil {
			return MeetingEvent{}, fmt.Errorf("event %s is missing its message", env.Type)
		}
		event.Payload = MessagePayload{Message: *env.Message}
	case EventBlockUser:
		event.Payload = BlockUserPayload{
			UserToBeKickedOut: env.UserToBeKickedOut,
			Removed:           env.UserToBeKickedOut != "" && slices.Contains(env.RemovedUserIDs, env.UserToBeKickedOut),
		}
	case EventEndMeeting:
		var ended time.Time
		if env.EndedAt != nil {
			ended = *env.EndedAt
		} else if env.Meeting != nil && env.Meeting.EndedAt != nil {
			ended = *env.Meeting.EndedAt
		}
		event.Payload = EndMeetingPayload{EndedAt: ended, RemovedUserIDs: env.RemovedUserIDs}
	case EventLeaveMeeting:
		event.Payload = LeaveMeetingPayload{UserID: env.UserID}
	case EventToggleMeetingSettings:
		var delta MediaSettingsDelta
		if env.MeetingSettings != nil {
			delta = *env.MeetingSettings
		}
		event.Payload = MeetingSettingsPayload{Delta: delta}
	case EventToggleParticipantSettings:
		var delta ParticipantMediaDelta
		if env.ParticipantMedia != nil {
			delta = *env.ParticipantMedia
		}
		event.Payload = ParticipantSettingsPayload{ParticipantID: env.ParticipantID, Delta: delta}
	default:
		return MeetingEvent{}, fmt.Errorf("unknown meeting event type %q", env.Type)
	}
	return event, nil
}

// UserEventType identifies the kind of a [UserEvent].
type UserEventType string

const (
	EventMeetingInvitation UserEventType = "MEETING_INVITATION"
)

// UserEvent is dispatched on a user's personal channel.
type UserEvent struct {
	Type      UserEventType `json:"type" msgpack:"type"`
	MeetingID string        `json:"meeting_id" msgpack:"meeting_id"`
	Inviter   string        `json:"inviter" msgpack:"inviter"`
	PassCode  string        `json:"pass_code,omitempty" msgpack:"pass_code,omitempty"`
}

// MeetingChannel returns the event bus channel name for a meeting.
func MeetingChannel(meetingID string) string {
	return "meeting:" + meetingID
}

// UserChannel returns the event bus channel name for a user.
func UserChannel(userID string) string {
	return "user:" + userID
}
