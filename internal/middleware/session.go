// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/constants"
)

// SessionAuthenticator resolves a session token to its session and bound user.
type SessionAuthenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Session, *models.User, error)
}

// SessionToken reads the session token from the header, falling back to the
// query string for WebSocket upgrades.
func SessionToken(r *http.Request) string {
	if token := r.Header.Get(constants.SessionTokenHeader); token != "" {
		return token
	}
	return r.URL.Query().Get(constants.SessionTokenQueryParam)
}

// SessionMiddleware authenticates the session token and stores the session and
// its user in the request context. Requests with a missing or invalid token
// pass through anonymously; operations that need an actor reject them.
func SessionMiddleware(authenticator SessionAuthenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" || isProbe(r) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			session, user, err := authenticator.Authenticate(ctx, token)
			if err != nil {
				slog.DebugContext(ctx, "session token rejected", logging.ErrKey, err)
				next.ServeHTTP(w, r)
				return
			}

			ctx = context.WithValue(ctx, constants.SessionContextID, session)
			if user != nil {
				ctx = context.WithValue(ctx, constants.UserContextID, user)
				ctx = logging.AppendCtx(ctx, slog.String("user_id", user.ID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the authenticated session, or nil.
func SessionFromContext(ctx context.Context) *models.Session {
	session, _ := ctx.Value(constants.SessionContextID).(*models.Session)
	return session
}

// UserFromContext returns the user bound to the authenticated session, or nil.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(constants.UserContextID).(*models.User)
	return user
}
