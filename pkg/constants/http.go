// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package constants

import (
	"fmt"
	"net/url"
	"strings"
)

// Constants for the HTTP request headers
const (
	// AuthorizationHeader is the header name for the authorization
	AuthorizationHeader string = "authorization"

	// RequestIDHeader is the header name for the request ID
	RequestIDHeader string = "X-REQUEST-ID"

	// SessionTokenHeader carries the session token issued by POST /sessions
	SessionTokenHeader string = "X-Session-Token"

	// SessionTokenQueryParam carries the session token on WebSocket upgrades,
	// where browsers cannot set custom headers.
	SessionTokenQueryParam string = "session_token"
)

// contextRequestID is the type for the request ID context key
type contextRequestID string

// RequestIDContextID is the context ID for the request ID
const RequestIDContextID contextRequestID = "X-REQUEST-ID"

// contextAuthorization is the type for the authorization context key
type contextAuthorization string

// AuthorizationContextID is the context ID for the authorization
const AuthorizationContextID contextAuthorization = "authorization"

// contextPrincipal is the type for the principal context key
type contextPrincipal string

// PrincipalContextID is the context ID for the JWT principal
const PrincipalContextID contextPrincipal = "principal"

type contextSession string

// SessionContextID is the context ID for the authenticated session
const SessionContextID contextSession = "session"

type contextUser string

// UserContextID is the context ID for the user bound to the session
const UserContextID contextUser = "user"

// LFX app domain constants
const (
	// LFXDomainDev is the development domain
	LFXDomainDev = "app.dev.lfx.dev"
	// LFXDomainStaging is the staging domain
	LFXDomainStaging = "app.staging.lfx.dev"
	// LFXDomainProd is the production domain
	LFXDomainProd = "app.lfx.dev"
)

// GetLFXAppDomain returns the appropriate LFX app domain based on the environment
// Environment should be one of: "dev", "staging", "prod"
func GetLFXAppDomain(environment string) string {
	switch environment {
	case "dev":
		return LFXDomainDev
	case "staging":
		return LFXDomainStaging
	default:
		return LFXDomainProd
	}
}

// JoinURLGenerator builds the links that invitations point at.
type JoinURLGenerator struct {
	origin string
}

// NewJoinURLGenerator returns a generator for the given environment. A
// non-empty appOrigin overrides the environment domain.
func NewJoinURLGenerator(environment, appOrigin string) *JoinURLGenerator {
	origin := strings.TrimRight(appOrigin, "/")
	if origin == "" {
		origin = "https://" + GetLFXAppDomain(environment)
	}
	return &JoinURLGenerator{origin: origin}
}

// MeetingJoinURL returns the link for joining a meeting. The pass code is
// only added when set.
func (g *JoinURLGenerator) MeetingJoinURL(meetingID, passCode string) string {
	link := fmt.Sprintf("%s/video-meetings/%s", g.origin, url.PathEscape(meetingID))
	if passCode == "" {
		return link
	}
	return link + "?pass_code=" + url.QueryEscape(passCode)
}

// Origin returns the scheme and host the links point at.
func (g *JoinURLGenerator) Origin() string {
	return g.origin
}
