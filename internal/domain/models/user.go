// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package models

import (
	"strings"
	"time"
)

// UserType is the role of a user account.
type UserType string

const (
	UserTypeClient          UserType = "CLIENT"
	UserTypeAdmin           UserType = "ADMIN"
	UserTypeAnonymousClient UserType = "ANONYMOUS_CLIENT"
)

// IsValid reports whether t is a known user type.
func (t UserType) IsValid() bool {
	switch t {
	case UserTypeClient, UserTypeAdmin, UserTypeAnonymousClient:
		return true
	}
	return false
}

// User is the key-value store representation of a user account.
type User struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Nickname  string     `json:"nickname,omitempty"`
	Email     string     `json:"email,omitempty"`
	Type      UserType   `json:"type"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// DisplayName returns the name shown to other users.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Nickname != "" {
		return u.Nickname
	}
	if name := strings.TrimSpace(u.FirstName + " " + u.LastName); name != "" {
		return name
	}
	return u.Email
}

// IsAnonymous reports whether the user was created for a guest session.
func (u *User) IsAnonymous() bool {
	return u != nil && u.Type == UserTypeAnonymousClient
}
