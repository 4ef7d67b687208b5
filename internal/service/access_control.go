// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package service

import "github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"

// IsAdmin reports whether the user has the admin role.
func IsAdmin(user *models.User) bool {
	return user != nil && user.Type == models.UserTypeAdmin
}

// IsPermitToWrite reports whether user may modify resources owned by targetUserID.
func IsPermitToWrite(user *models.User, targetUserID string) bool {
	if user == nil {
		return false
	}
	return IsAdmin(user) || user.ID == targetUserID
}

// IsPermitToRead reports whether user may read resources owned by targetUserID.
// It currently follows the write rule.
func IsPermitToRead(user *models.User, targetUserID string) bool {
	if user == nil {
		return false
	}
	return IsAdmin(user) || user.ID == targetUserID
}
