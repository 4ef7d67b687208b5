// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
)

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendMeetingInvitation(ctx context.Context, invitation domain.EmailInvitation) error {
	args := m.Called(ctx, invitation)
	return args.Error(0)
}
