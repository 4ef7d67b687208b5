// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package domain

import (
	"context"
)

// EmailService defines the interface for sending emails
type EmailService interface {
	SendMeetingInvitation(ctx context.Context, invitation EmailInvitation) error
}

// EmailInvitation contains the data needed to send a meeting invitation email
type EmailInvitation struct {
	RecipientEmail string
	InviterName    string
	MeetingID      string
	PassCode       string // Optional, included in the email when set
	JoinLink       string
}
