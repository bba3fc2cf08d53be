// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/driftdeck/driftdeck/internal/logging"
)

type contextKey string

const sessionContextKey contextKey = "auth_session_id"

// SessionFromContext returns the authenticated session id, if any.
func SessionFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(sessionContextKey).(uuid.UUID)
	return id, ok
}

// ContextWithSession attaches a session id. Exposed for tests.
func ContextWithSession(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, sessionContextKey, id)
}

// Middleware returns the session-token middleware for the configured mode.
// Mode "none" passes every request through unauthenticated; mode "jwt"
// requires a valid bearer token and rejects everything else with 401.
func Middleware(mode string, manager *JWTManager) func(http.Handler) http.Handler {
	if mode == "none" || manager == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}

			sessionID, err := manager.ValidateToken(token)
			if err != nil {
				logging.Debug().Err(err).Msg("Rejected session token")
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sessionID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}
