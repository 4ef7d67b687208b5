// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"time"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/constants"
)

type Service interface {
	ServiceReady() bool
}

// ServiceConfig is the configuration for the Services.
type ServiceConfig struct {
	// LFXEnvironment is the environment name for LFX app domain generation.
	LFXEnvironment string
	// AppOrigin overrides the LFX app domain in invitation links, e.g. for local development.
	AppOrigin string
	// ReapDelay is how long an empty meeting stays open before it is ended.
	ReapDelay time.Duration
	// SessionTTL is how long a session stays valid since its last use. Zero uses the default.
	SessionTTL time.Duration
	// InvitationWorkers bounds the concurrent invitation side effects.
	InvitationWorkers int
	// Now returns the current time. Tests override it.
	Now func() time.Time
}

func (c ServiceConfig) now() time.Time {
	if c.Now != nil {
		return c.Now().UTC()
	}
	return time.Now().UTC()
}

func (c ServiceConfig) reapDelay() time.Duration {
	if c.ReapDelay > 0 {
		return c.ReapDelay
	}
	return constants.DefaultMeetingReapDelay
}

func (c ServiceConfig) sessionTTL() time.Duration {
	if c.SessionTTL > 0 {
		return c.SessionTTL
	}
	return constants.DefaultSessionTTL
}

func (c ServiceConfig) invitationWorkers() int {
	if c.InvitationWorkers > 0 {
		return c.InvitationWorkers
	}
	return constants.DefaultInvitationWorkers
}
