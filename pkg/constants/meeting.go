// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import "time"

const (
	// DefaultMeetingReapDelay is how long an empty meeting stays open before it is ended.
	DefaultMeetingReapDelay = 30 * time.Second

	// MaxMessageLength is the maximum number of characters in a meeting message
	MaxMessageLength = 2000

	// MaxNicknameLength is the maximum number of characters in an anonymous user's nickname
	MaxNicknameLength = 64

	// DefaultSessionTTL is how long a session stays valid since its last use
	DefaultSessionTTL = 30 * 24 * time.Hour

	// DefaultInvitationWorkers bounds the concurrent invitation side effects
	DefaultInvitationWorkers = 4
)
