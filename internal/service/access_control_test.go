// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
)

func TestAccessControl(t *testing.T) {
	admin := &models.User{ID: "admin", Type: models.UserTypeAdmin}
	client := &models.User{ID: "u1", Type: models.UserTypeClient}
	guest := &models.User{ID: "g1", Type: models.UserTypeAnonymousClient}

	tests := []struct {
		name     string
		user     *models.User
		target   string
		isAdmin  bool
		expected bool
	}{
		{"nil user", nil, "u1", false, false},
		{"admin on someone else", admin, "u1", true, true},
		{"self", client, "u1", false, true},
		{"other user", client, "u2", false, false},
		{"anonymous self", guest, "g1", false, true},
		{"anonymous other", guest, "u1", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isAdmin, IsAdmin(tt.user))
			assert.Equal(t, tt.expected, IsPermitToWrite(tt.user, tt.target))
			assert.Equal(t, tt.expected, IsPermitToRead(tt.user, tt.target))
		})
	}
}
