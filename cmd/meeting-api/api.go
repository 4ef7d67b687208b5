// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	goahttp "goa.design/goa/v3/http"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/infrastructure/auth"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/service"
)

// MeetingsAPI serves the HTTP and WebSocket surface of the service.
type MeetingsAPI struct {
	meetingService      *service.MeetingService
	subscriptionService *service.SubscriptionService
	sessionService      *service.SessionService
	userService         *service.UserService
	// jwtAuth is optional; without it registrations get a generated user id.
	jwtAuth *auth.JWTAuth
	// allowedOrigins are accepted on WebSocket upgrades in addition to same-host requests.
	allowedOrigins []string

	mux goahttp.Muxer
}

// NewMeetingsAPI creates a new MeetingsAPI.
func NewMeetingsAPI(
	meetingService *service.MeetingService,
	subscriptionService *service.SubscriptionService,
	sessionService *service.SessionService,
	userService *service.UserService,
	jwtAuth *auth.JWTAuth,
	allowedOrigins ...string,
) *MeetingsAPI {
	return &MeetingsAPI{
		meetingService:      meetingService,
		subscriptionService: subscriptionService,
		sessionService:      sessionService,
		userService:         userService,
		jwtAuth:             jwtAuth,
		allowedOrigins:      allowedOrigins,
	}
}

// ServiceReady reports whether every service behind the API is ready.
func (s *MeetingsAPI) ServiceReady() bool {
	return s.meetingService != nil && s.meetingService.ServiceReady() &&
		s.subscriptionService != nil && s.subscriptionService.ServiceReady() &&
		s.sessionService != nil && s.sessionService.ServiceReady() &&
		s.userService != nil && s.userService.ServiceReady()
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// statusCode maps a domain error to its HTTP status.
func statusCode(err error) int {
	switch domain.GetErrorType(err) {
	case domain.ErrorTypeValidation:
		return http.StatusBadRequest
	case domain.ErrorTypeNotFound:
		return http.StatusNotFound
	case domain.ErrorTypeConflict:
		return http.StatusConflict
	case domain.ErrorTypeForbidden:
		return http.StatusForbidden
	case domain.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// createResponse creates the error body for the HTTP status code.
func createResponse(code int, err error) *errorResponse {
	message := err.Error()
	if code == http.StatusInternalServerError {
		// Internal details stay in the logs.
		message = domain.ErrInternal.Error()
	}
	return &errorResponse{
		Code:    strconv.Itoa(code),
		Message: message,
	}
}

// handleError logs the error and writes it to the client.
func handleError(ctx context.Context, w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", logging.ErrKey, err, "status", code)
	} else {
		slog.DebugContext(ctx, "request rejected", logging.ErrKey, err, "status", code)
	}
	writeJSON(ctx, w, code, createResponse(code, err))
}

// writeJSON encodes the body with goa's content negotiation.
func writeJSON(ctx context.Context, w http.ResponseWriter, code int, body any) {
	encoder := goahttp.ResponseEncoder(ctx, w)
	w.WriteHeader(code)
	if body == nil {
		return
	}
	if err := encoder.Encode(body); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", logging.ErrKey, err)
	}
}

// decodeBody decodes the request body into v. An empty body leaves v untouched
// unless the body is required.
func decodeBody(r *http.Request, v any, required bool) error {
	err := goahttp.RequestDecoder(r).Decode(v)
	if errors.Is(err, io.EOF) && !required {
		return nil
	}
	if err != nil {
		return domain.NewValidationError("invalid request body", err)
	}
	return nil
}

// actor returns the user bound to the request's session, or nil.
func actor(r *http.Request) *models.User {
	return middleware.UserFromContext(r.Context())
}

// Readyz checks if the service is able to take inbound requests.
func (s *MeetingsAPI) Readyz(w http.ResponseWriter, r *http.Request) {
	if !s.ServiceReady() {
		handleError(r.Context(), w, domain.NewUnavailableError("service not ready", domain.ErrServiceUnavailable))
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK\n"))
}

// Livez checks if the service is alive.
func (s *MeetingsAPI) Livez(w http.ResponseWriter, _ *http.Request) {
	// This always returns as long as the service is still running. As this
	// endpoint is expected to be used as a Kubernetes liveness check, this
	// service must likewise self-detect non-recoverable errors and
	// self-terminate.
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte("OK\n"))
}

// pathVar returns a path parameter of the matched route.
func (s *MeetingsAPI) pathVar(r *http.Request, name string) string {
	if s.mux == nil {
		return ""
	}
	return s.mux.Vars(r)[name]
}

// Mount registers every route on the muxer.
func (s *MeetingsAPI) Mount(mux goahttp.Muxer) {
	s.mux = mux

	mux.Handle(http.MethodGet, "/livez", s.Livez)
	mux.Handle(http.MethodGet, "/readyz", s.Readyz)

	mux.Handle(http.MethodPost, "/sessions", s.CreateSession)
	mux.Handle(http.MethodDelete, "/sessions", s.Logout)

	mux.Handle(http.MethodPost, "/users", s.RegisterUser)
	mux.Handle(http.MethodGet, "/users", s.FindUserByEmail)
	mux.Handle(http.MethodPost, "/users/anonymous", s.CreateAnonymousUser)
	mux.Handle(http.MethodGet, "/users/{user_id}", s.GetUser)
	mux.Handle(http.MethodGet, "/users/{user_id}/events", s.SubscribeUserEvents)
	mux.Handle(http.MethodGet, "/me", s.Me)

	mux.Handle(http.MethodPost, "/meetings", s.HostMeeting)
	mux.Handle(http.MethodGet, "/meetings", s.ListMeetings)
	mux.Handle(http.MethodGet, "/meetings/{meeting_id}", s.GetMeeting)
	mux.Handle(http.MethodPost, "/meetings/{meeting_id}/join", s.JoinMeeting)
	mux.Handle(http.MethodPost, "/meetings/{meeting_id}/leave", s.LeaveMeeting)
	mux.Handle(http.MethodPost, "/meetings/{meeting_id}/end", s.EndMeeting)
	mux.Handle(http.MethodPost, "/meetings/{meeting_id}/block", s.BlockMeetingUser)
	mux.Handle(http.MethodPost, "/meetings/{meeting_id}/unblock", s.UnblockMeetingUser)
	mux.Handle(http.MethodPatch, "/meetings/{meeting_id}/media", s.ToggleMeetingMedia)
	mux.Handle(http.MethodPatch, "/meetings/{meeting_id}/participants/{user_id}/media", s.ToggleParticipantMedia)
	mux.Handle(http.MethodPost, "/meetings/{meeting_id}/messages", s.SendMeetingMessage)
	mux.Handle(http.MethodPost, "/meetings/{meeting_id}/invite", s.InviteUserToMeeting)
	mux.Handle(http.MethodGet, "/meetings/{meeting_id}/events", s.SubscribeMeetingEvents)
}
