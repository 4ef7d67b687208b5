// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import (
	"testing"
)

func TestHTTPHeaderConstants(t *testing.T) {
	tests := []struct {
		name     string
		constant string
		expected string
	}{
		{name: "AuthorizationHeader", constant: AuthorizationHeader, expected: "authorization"},
		{name: "RequestIDHeader", constant: RequestIDHeader, expected: "X-REQUEST-ID"},
		{name: "SessionTokenHeader", constant: SessionTokenHeader, expected: "X-Session-Token"},
		{name: "SessionTokenQueryParam", constant: SessionTokenQueryParam, expected: "session_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.constant != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.constant)
			}
		})
	}
}

func TestContextIDConstantsAreUnique(t *testing.T) {
	ids := []string{
		string(RequestIDContextID),
		string(AuthorizationContextID),
		string(PrincipalContextID),
		string(SessionContextID),
		string(UserContextID),
	}

	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate context ID %q", id)
		}
		seen[id] = true
	}
}

func TestGetLFXAppDomain(t *testing.T) {
	tests := []struct {
		environment string
		expected    string
	}{
		{"dev", LFXDomainDev},
		{"staging", LFXDomainStaging},
		{"prod", LFXDomainProd},
		{"", LFXDomainProd},
		{"unknown", LFXDomainProd},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			if got := GetLFXAppDomain(tt.environment); got != tt.expected {
				t.Errorf("GetLFXAppDomain(%q) = %q, expected %q", tt.environment, got, tt.expected)
			}
		})
	}
}

func TestJoinURLGenerator_MeetingJoinURL(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		appOrigin   string
		meetingID   string
		passCode    string
		expectedURL string
	}{
		{
			name:        "prod without pass code",
			environment: "prod",
			meetingID:   "123e4567-e89b-12d3-a456-426614174000",
			expectedURL: "https://app.lfx.dev/video-meetings/123e4567-e89b-12d3-a456-426614174000",
		},
		{
			name:        "dev with pass code",
			environment: "dev",
			meetingID:   "m1",
			passCode:    "123456",
			expectedURL: "https://app.dev.lfx.dev/video-meetings/m1?pass_code=123456",
		},
		{
			name:        "custom origin with trailing slash",
			environment: "prod",
			appOrigin:   "http://localhost:4200/",
			meetingID:   "m2",
			passCode:    "a b&c",
			expectedURL: "http://localhost:4200/video-meetings/m2?pass_code=a+b%26c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewJoinURLGenerator(tt.environment, tt.appOrigin)
			if got := g.MeetingJoinURL(tt.meetingID, tt.passCode); got != tt.expectedURL {
				t.Errorf("MeetingJoinURL() = %q, expected %q", got, tt.expectedURL)
			}
		})
	}
}

func TestJoinURLGenerator_Origin(t *testing.T) {
	if got := NewJoinURLGenerator("staging", "").Origin(); got != "https://app.staging.lfx.dev" {
		t.Errorf("unexpected origin %q", got)
	}
	if got := NewJoinURLGenerator("prod", "http://localhost:4200/").Origin(); got != "http://localhost:4200" {
		t.Errorf("unexpected origin %q", got)
	}
}
