// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
)

// MockLifecycleSender implements MeetingLifecycleSender for testing
type MockLifecycleSender struct {
	mock.Mock
}

func (m *MockLifecycleSender) SendMeetingStarted(ctx context.Context, data models.MeetingStartedMessage) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockLifecycleSender) SendMeetingEnded(ctx context.Context, data models.MeetingEndedMessage) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}
