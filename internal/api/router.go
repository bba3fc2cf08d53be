// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/driftdeck/driftdeck/internal/auth"
	"github.com/driftdeck/driftdeck/internal/config"
)

// NewRouter builds the chi router with the full middleware stack.
// wsHandler serves GET /ws/stats when non-nil.
func NewRouter(h *Handler, cfg *config.SecurityConfig, wsHandler http.HandlerFunc) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(Metrics)
	r.Use(CORS(cfg.CORSOrigins))
	if cfg.RateLimitReqs > 0 {
		r.Use(RateLimit(cfg.RateLimitReqs, cfg.RateLimitWindow))
	}

	r.Get("/health", h.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Session creation stays open; it is how clients obtain a token.
		r.Post("/sessions", h.HandleCreateSession)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(cfg.AuthMode, h.tokens))

			r.Get("/recommendations", h.HandleRecommendations)
			r.Post("/swipes", h.HandleCreateSwipe)
			r.Get("/sessions/{sessionID}/likes", h.HandleSessionLikes)
			r.Get("/stats", h.HandleStats)
			r.Get("/status", h.HandleStatus)
		})
	})

	if wsHandler != nil {
		r.Get("/ws/stats", wsHandler)
	}

	return r
}
