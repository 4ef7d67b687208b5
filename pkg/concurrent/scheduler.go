// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"sync"
	"time"
)

// TimerScheduler runs delayed callbacks on runtime timers. Stop cancels every
// callback that has not fired yet.
type TimerScheduler struct {
	mu      sync.Mutex
	nextID  uint64
	timers  map[uint64]*time.Timer
	stopped bool
}

// NewTimerScheduler returns a ready scheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[uint64]*time.Timer)}
}

// AfterFunc schedules fn to run once after d. The returned function cancels
// the callback and reports whether it was still pending.
func (s *TimerScheduler) AfterFunc(d time.Duration, fn func()) func() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return func() bool { return false }
	}

	s.nextID++
	id := s.nextID
	s.timers[id] = time.AfterFunc(d, func() {
		if !s.release(id) {
			return
		}
		fn()
	})

	return func() bool {
		s.mu.Lock()
		timer, ok := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()
		return ok && timer.Stop()
	}
}

// release forgets the timer and reports whether its callback may still run.
func (s *TimerScheduler) release(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timers[id]; !ok {
		return false
	}
	delete(s.timers, id)
	return !s.stopped
}

// Pending returns the number of callbacks that have not fired or been cancelled.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// Stop cancels all pending callbacks. Later AfterFunc calls are ignored.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}
