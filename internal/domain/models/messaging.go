// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// NATS subjects that the video meeting service sends messages about.
const (
	// MeetingStartedSubject is the subject for meeting started events.
	// The subject is of the form: lfx.video-meetings.meeting_started
	MeetingStartedSubject = "lfx.video-meetings.meeting_started"

	// MeetingEndedSubject is the subject for meeting ended events.
	// The subject is of the form: lfx.video-meetings.meeting_ended
	MeetingEndedSubject = "lfx.video-meetings.meeting_ended"

	// EventRelaySubjectPrefix prefixes the subjects used to fan events out between replicas.
	// The subject is of the form: lfx.video-meetings.events.<meeting|user>
	EventRelaySubjectPrefix = "lfx.video-meetings.events."
)

// NATS wildcard subjects that the video meeting service handles messages about.
const (
	// VideoMeetingsAPIQueue is the queue group for the video meetings API.
	// The subject is of the form: lfx.video-meetings-api.queue
	VideoMeetingsAPIQueue = "lfx.video-meetings-api.queue"

	// EventRelayWildcardSubject matches every relayed event subject.
	EventRelayWildcardSubject = EventRelaySubjectPrefix + ">"
)

// NATS specific subjects that the video meeting service handles messages about.
const (
	// MeetingGetSubject is the subject for looking up a meeting by id.
	// The subject is of the form: lfx.video-meetings-api.get_meeting
	MeetingGetSubject = "lfx.video-meetings-api.get_meeting"

	// MeetingGetActiveCountSubject is the subject for counting the active participants of a meeting.
	// The subject is of the form: lfx.video-meetings-api.get_active_count
	MeetingGetActiveCountSubject = "lfx.video-meetings-api.get_active_count"
)

// EndReason describes how a meeting ended.
type EndReason string

const (
	// EndReasonHost is used when the host or an admin ended the meeting.
	EndReasonHost EndReason = "host"
	// EndReasonIdle is used when the meeting was reaped after everyone left.
	EndReasonIdle EndReason = "idle"
)

// MeetingStartedMessage is the schema for the message sent when a meeting is hosted.
type MeetingStartedMessage struct {
	MeetingID string    `json:"meeting_id"`
	RoomID    string    `json:"room_id"`
	Initiator string    `json:"initiator"`
	StartedAt time.Time `json:"started_at"`
}

// MeetingEndedMessage is the schema for the message sent when a meeting ends.
type MeetingEndedMessage struct {
	MeetingID        string    `json:"meeting_id"`
	RoomID           string    `json:"room_id"`
	EndedAt          time.Time `json:"ended_at"`
	Reason           EndReason `json:"reason"`
	ParticipantCount int       `json:"participant_count"`
}
