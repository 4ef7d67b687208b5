// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package concurrent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerScheduler_Fires(t *testing.T) {
	s := NewTimerScheduler()
	fired := make(chan struct{})

	s.AfterFunc(5*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("callback did not fire")
	}
	assert.Eventually(t, func() bool { return s.Pending() == 0 }, time.Second, time.Millisecond)
}

func TestTimerScheduler_Cancel(t *testing.T) {
	s := NewTimerScheduler()
	fired := make(chan struct{}, 1)

	cancel := s.AfterFunc(50*time.Millisecond, func() { fired <- struct{}{} })
	require.Equal(t, 1, s.Pending())

	assert.True(t, cancel())
	assert.False(t, cancel(), "second cancel is a no-op")
	assert.Equal(t, 0, s.Pending())

	select {
	case <-fired:
		t.Fatal("cancelled callback fired")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTimerScheduler_Stop(t *testing.T) {
	s := NewTimerScheduler()
	fired := make(chan struct{}, 2)

	s.AfterFunc(20*time.Millisecond, func() { fired <- struct{}{} })
	s.AfterFunc(30*time.Millisecond, func() { fired <- struct{}{} })
	s.Stop()

	assert.Equal(t, 0, s.Pending())
	cancel := s.AfterFunc(time.Millisecond, func() { fired <- struct{}{} })
	assert.False(t, cancel())

	select {
	case <-fired:
		t.Fatal("callback fired after Stop")
	case <-time.After(80 * time.Millisecond):
	}
}
