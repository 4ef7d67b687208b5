// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"errors"
	"slices"
	"time"
)

// ErrNoChange is returned by a MeetingMutation when the meeting does not
// need to be written back. The repository returns the current state instead.
var ErrNoChange = errors.New("no change")

// Meeting is the key-value store representation of a meeting.
type Meeting struct {
	ID           string        `json:"id"`
	RoomID       string        `json:"room_id"`
	Initiator    string        `json:"initiator"`
	PassCode     string        `json:"pass_code,omitempty"`
	Participants []Participant `json:"participants"`
	BlockList    []string      `json:"block_list"`
	Settings     MediaSettings `json:"settings"`
	EndedAt      *time.Time    `json:"ended_at,omitempty"`
	CreatedAt    *time.Time    `json:"created_at,omitempty"`
	UpdatedAt    *time.Time    `json:"updated_at,omitempty"`
}

// Participant is a user's membership record within a meeting.
type Participant struct {
	UserID   string     `json:"user_id"`
	JoinedAt time.Time  `json:"joined_at"`
	LeftAt   *time.Time `json:"left_at,omitempty"`
	IsLeft   bool       `json:"is_left"`
	AllowMic bool       `json:"allow_mic"`
	AllowCam bool       `json:"allow_cam"`
}

// MediaSettings holds the meeting-level media defaults.
type MediaSettings struct {
	IsMicOn bool `json:"is_mic_on"`
	IsCamOn bool `json:"is_cam_on"`
}

// MediaSettingsDelta is a partial update of [MediaSettings]. Nil fields are left untouched.
type MediaSettingsDelta struct {
	IsMicOn *bool `json:"is_mic_on,omitempty" msgpack:"is_mic_on,omitempty"`
	IsCamOn *bool `json:"is_cam_on,omitempty" msgpack:"is_cam_on,omitempty"`
}

// IsEmpty reports whether the delta changes nothing.
func (d MediaSettingsDelta) IsEmpty() bool {
	return d.IsMicOn == nil && d.IsCamOn == nil
}

// Apply writes the non-nil fields of the delta onto s.
func (d MediaSettingsDelta) Apply(s *MediaSettings) {
	if d.IsMicOn != nil {
		s.IsMicOn = *d.IsMicOn
	}
	if d.IsCamOn != nil {
		s.IsCamOn = *d.IsCamOn
	}
}

// ParticipantMediaDelta is a partial update of a participant's media permissions.
type ParticipantMediaDelta struct {
	AllowMic *bool `json:"allow_mic,omitempty" msgpack:"allow_mic,omitempty"`
	AllowCam *bool `json:"allow_cam,omitempty" msgpack:"allow_cam,omitempty"`
}

// IsEmpty reports whether the delta changes nothing.
func (d ParticipantMediaDelta) IsEmpty() bool {
	return d.AllowMic == nil && d.AllowCam == nil
}

// Apply writes the non-nil fields of the delta onto p.
func (d ParticipantMediaDelta) Apply(p *Participant) {
	if d.AllowMic != nil {
		p.AllowMic = *d.AllowMic
	}
	if d.AllowCam != nil {
		p.AllowCam = *d.AllowCam
	}
}

// IsActive reports whether the meeting has not ended.
func (m *Meeting) IsActive() bool {
	return m.EndedAt == nil
}

// Participant returns the participant record for userID and its index, or nil and -1.
func (m *Meeting) Participant(userID string) (*Participant, int) {
	for i := range m.Participants {
		if m.Participants[i].UserID == userID {
			return &m.Participants[i], i
		}
	}
	return nil, -1
}

// IsParticipant reports whether userID has ever joined the meeting.
func (m *Meeting) IsParticipant(userID string) bool {
	p, _ := m.Participant(userID)
	return p != nil
}

// ActiveParticipant returns the participant record for userID when it has not left.
func (m *Meeting) ActiveParticipant(userID string) *Participant {
	p, _ := m.Participant(userID)
	if p == nil || p.IsLeft {
		return nil
	}
	return p
}

// ActiveParticipantCount returns the number of participants that have not left.
func (m *Meeting) ActiveParticipantCount() int {
	count := 0
	for _, p := range m.Participants {
		if !p.IsLeft {
			count++
		}
	}
	return count
}

// IsBlocked reports whether userID is on the block list.
func (m *Meeting) IsBlocked(userID string) bool {
	return slices.Contains(m.BlockList, userID)
}

// MarkLeft marks the participant as left at the given time. It returns false
// if the participant is missing or already left.
func (m *Meeting) MarkLeft(userID string, at time.Time) bool {
	p, _ := m.Participant(userID)
	if p == nil || p.IsLeft {
		return false
	}
	p.IsLeft = true
	left := at
	p.LeftAt = &left
	return true
}

// End marks every active participant as left and sets EndedAt. Participants
// that already left keep their original LeftAt.
func (m *Meeting) End(at time.Time) []string {
	var removed []string
	for i := range m.Participants {
		p := &m.Participants[i]
		if !p.IsLeft {
			p.IsLeft = true
			removed = append(removed, p.UserID)
		}
		if p.LeftAt == nil {
			left := at
			p.LeftAt = &left
		}
	}
	ended := at
	m.EndedAt = &ended
	return removed
}

// Clone returns a deep copy of the meeting.
func (m *Meeting) Clone() *Meeting {
	if m == nil {
		return nil
	}
	c := *m
	c.Participants = make([]Participant, len(m.Participants))
	for i, p := range m.Participants {
		c.Participants[i] = p
		if p.LeftAt != nil {
			left := *p.LeftAt
			c.Participants[i].LeftAt = &left
		}
	}
	c.BlockList = slices.Clone(m.BlockList)
	c.EndedAt = clonePtr(m.EndedAt)
	c.CreatedAt = clonePtr(m.CreatedAt)
	c.UpdatedAt = clonePtr(m.UpdatedAt)
	return &c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// MeetingQuery describes the state a stored meeting must be in for a
// conditional read or update to apply. Zero fields are not checked.
type MeetingQuery struct {
	ID                string
	Active            *bool
	Initiator         string
	Participant       string
	ParticipantActive *bool
	// Idle requires the meeting to have no active participant.
	Idle bool
}

// Matches reports whether the meeting satisfies the query.
func (q MeetingQuery) Matches(m *Meeting) bool {
	if m == nil {
		return false
	}
	if q.ID != "" && m.ID != q.ID {
		return false
	}
	if q.Active != nil && m.IsActive() != *q.Active {
		return false
	}
	if q.Initiator != "" && m.Initiator != q.Initiator {
		return false
	}
	if q.Idle && m.ActiveParticipantCount() > 0 {
		return false
	}
	if q.Participant != "" {
		p, _ := m.Participant(q.Participant)
		if p == nil {
			return false
		}
		if q.ParticipantActive != nil && p.IsLeft == *q.ParticipantActive {
			return false
		}
	}
	return true
}

// MeetingMutation modifies a meeting in place as part of a conditional update.
type MeetingMutation func(m *Meeting) error

// MeetingFilter selects meetings for listing.
type MeetingFilter struct {
	Initiator   string
	Participant string
	ActiveOnly  bool
}

// Matches reports whether the meeting satisfies the filter.
func (f MeetingFilter) Matches(m *Meeting) bool {
	if f.ActiveOnly && !m.IsActive() {
		return false
	}
	if f.Initiator != "" && m.Initiator != f.Initiator {
		return false
	}
	if f.Participant != "" && !m.IsParticipant(f.Participant) {
		return false
	}
	return true
}
