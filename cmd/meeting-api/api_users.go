// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"log/slog"
	"net/http"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/middleware"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/service"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/constants"
)

type createAnonymousUserRequest struct {
	Nickname string `json:"nickname"`
}

type registerUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Nickname  string `json:"nickname"`
	Email     string `json:"email"`
}

// CreateSession issues a new session token.
func (s *MeetingsAPI) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, err := s.sessionService.CreateSession(ctx)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	w.Header().Set(constants.SessionTokenHeader, session.Token)
	writeJSON(ctx, w, http.StatusCreated, session)
}

// Logout drops the caller's session.
func (s *MeetingsAPI) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := middleware.SessionToken(r)
	if token == "" {
		handleError(ctx, w, domain.NewUnauthorizedError("session token required", domain.ErrUnauthorized))
		return
	}
	if err := s.sessionService.Logout(ctx, token); err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusNoContent, nil)
}

// CreateAnonymousUser creates a guest user bound to the caller's session.
func (s *MeetingsAPI) CreateAnonymousUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createAnonymousUserRequest
	if err := decodeBody(r, &req, true); err != nil {
		handleError(ctx, w, err)
		return
	}

	user, err := s.userService.CreateAnonymousUser(ctx, middleware.SessionFromContext(ctx), req.Nickname)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, user)
}

// RegisterUser creates a client user. With a valid Heimdall token the user
// takes the token's principal as id.
func (s *MeetingsAPI) RegisterUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req registerUserRequest
	if err := decodeBody(r, &req, true); err != nil {
		handleError(ctx, w, err)
		return
	}

	input := service.RegisterUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Nickname:  req.Nickname,
		Email:     req.Email,
	}

	if token := middleware.BearerTokenFromContext(ctx); token != "" && s.jwtAuth != nil {
		claims, err := s.jwtAuth.ParseClaims(ctx, token, slog.Default())
		if err != nil {
			slog.WarnContext(ctx, "failed to parse principal from JWT token", logging.ErrKey, err)
			handleError(ctx, w, domain.NewUnauthorizedError("invalid authorization token", domain.ErrUnauthorized))
			return
		}
		input.ID = claims.Principal
		if input.Email == "" {
			input.Email = claims.Email
		}
	}

	user, err := s.userService.RegisterUser(ctx, middleware.SessionFromContext(ctx), input)
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusCreated, user)
}

// Me returns the user bound to the caller's session.
func (s *MeetingsAPI) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := actor(r)
	if user == nil {
		handleError(ctx, w, domain.NewUnauthorizedError("authentication required", domain.ErrUnauthorized))
		return
	}
	writeJSON(ctx, w, http.StatusOK, user)
}

// GetUser returns a user; the email is only shown to the user and admins.
func (s *MeetingsAPI) GetUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := s.userService.GetUser(ctx, actor(r), s.pathVar(r, "user_id"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, user)
}

// FindUserByEmail looks a user up by the email query parameter. Admin only.
func (s *MeetingsAPI) FindUserByEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, err := s.userService.FindUserByEmail(ctx, actor(r), r.URL.Query().Get("email"))
	if err != nil {
		handleError(ctx, w, err)
		return
	}
	writeJSON(ctx, w, http.StatusOK, user)
}
