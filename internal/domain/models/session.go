// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import "time"

// Session maps an opaque token to an optional user.
type Session struct {
	Token      string    `json:"token"`
	UserID     string    `json:"user_id,omitempty"`
	LastAccess time.Time `json:"last_access"`
	CreatedAt  time.Time `json:"created_at"`
}

// IsExpired reports whether the session has been idle longer than ttl.
func (s *Session) IsExpired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.LastAccess) > ttl
}
