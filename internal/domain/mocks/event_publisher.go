// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
)

// RecordingPublisher implements MeetingEventPublisher and UserEventPublisher
// and keeps every published event for assertions.
type RecordingPublisher struct {
	mu            sync.Mutex
	meetingEvents []models.MeetingEvent
	userEvents    map[string][]models.UserEvent
}

// NewRecordingPublisher creates an empty RecordingPublisher.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{userEvents: make(map[string][]models.UserEvent)}
}

func (p *RecordingPublisher) PublishMeetingEvent(ctx context.Context, event models.MeetingEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.meetingEvents = append(p.meetingEvents, event)
}

func (p *RecordingPublisher) PublishUserEvent(ctx context.Context, userID string, event models.UserEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.userEvents[userID] = append(p.userEvents[userID], event)
}

// MeetingEvents returns the meeting events published so far.
func (p *RecordingPublisher) MeetingEvents() []models.MeetingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.MeetingEvent(nil), p.meetingEvents...)
}

// MeetingEventsOfType returns the published meeting events of the given type.
func (p *RecordingPublisher) MeetingEventsOfType(eventType models.MeetingEventType) []models.MeetingEvent {
	var events []models.MeetingEvent
	for _, e := range p.MeetingEvents() {
		if e.Type == eventType {
			events = append(events, e)
		}
	}
	return events
}

// UserEvents returns the events published on the channel of userID.
func (p *RecordingPublisher) UserEvents(userID string) []models.UserEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]models.UserEvent(nil), p.userEvents[userID]...)
}

// ManualScheduler implements Scheduler. Scheduled functions only run when Fire is called.
type ManualScheduler struct {
	mu      sync.Mutex
	pending []ScheduledTask
}

// ScheduledTask is a function waiting in a ManualScheduler.
type ScheduledTask struct {
	Delay time.Duration
	Fn    func()
}

func (s *ManualScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, ScheduledTask{Delay: d, Fn: fn})
	return func() bool { return false }
}

// Pending returns the tasks scheduled and not yet fired.
func (s *ManualScheduler) Pending() []ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ScheduledTask(nil), s.pending...)
}

// Fire runs every pending task in scheduling order and clears the queue.
func (s *ManualScheduler) Fire() int {
	s.mu.Lock()
	tasks := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, task := range tasks {
		task.Fn()
	}
	return len(tasks)
}
