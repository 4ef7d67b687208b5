// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
)

// SMTPService implements the EmailService interface using SMTP
type SMTPService struct {
	config    SMTPConfig
	templates Templates
}

// SMTPConfig holds the SMTP server configuration
type SMTPConfig struct {
	Host     string
	Port     int
	From     string
	Username string // Optional for authenticated SMTP
	Password string // Optional for authenticated SMTP
}

// NewSMTPService creates a new SMTP email service
func NewSMTPService(config SMTPConfig) (*SMTPService, error) {
	templates, err := NewTemplates()
	if err != nil {
		return nil, err
	}

	return &SMTPService{
		config:    config,
		templates: templates,
	}, nil
}

// SendMeetingInvitation emails a link that takes the recipient straight into a running meeting.
func (s *SMTPService) SendMeetingInvitation(ctx context.Context, invitation domain.EmailInvitation) error {
	ctx = logging.AppendCtx(ctx, slog.String("recipient_email", invitation.RecipientEmail))
	ctx = logging.AppendCtx(ctx, slog.String("meeting_id", invitation.MeetingID))

	rendered, err := s.templates.RenderInvitation(invitation)
	if err != nil {
		slog.ErrorContext(ctx, "failed to render invitation email", logging.ErrKey, err)
		return err
	}

	subject := invitationSubject(invitation)
	message := buildEmailMessage(invitation.RecipientEmail, subject, rendered.HTML, rendered.Text, s.config)
	err = sendEmailMessage(invitation.RecipientEmail, message, s.config)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send invitation email", logging.ErrKey, err)
		return err
	}

	slog.InfoContext(ctx, "invitation email sent successfully")
	return nil
}

func invitationSubject(invitation domain.EmailInvitation) string {
	if invitation.InviterName == "" {
		return "You are invited to a video meeting"
	}
	return fmt.Sprintf("%s invited you to a video meeting", invitation.InviterName)
}

var _ domain.EmailService = (*SMTPService)(nil)
