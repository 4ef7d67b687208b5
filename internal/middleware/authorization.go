// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/linuxfoundation/lfx-v2-video-meeting-service/pkg/constants"
)

// AuthorizationMiddleware stores the bearer token, if any, in the request context.
func AuthorizationMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorization := r.Header.Get(constants.AuthorizationHeader)
			if authorization != "" {
				ctx := context.WithValue(r.Context(), constants.AuthorizationContextID, authorization)
				r = r.WithContext(ctx)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerTokenFromContext returns the token of a "Bearer" authorization header.
func BearerTokenFromContext(ctx context.Context) string {
	authorization, _ := ctx.Value(constants.AuthorizationContextID).(string)
	scheme, token, ok := strings.Cut(authorization, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
