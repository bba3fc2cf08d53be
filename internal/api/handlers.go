// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/driftdeck/driftdeck/internal/aggregator"
	"github.com/driftdeck/driftdeck/internal/auth"
	"github.com/driftdeck/driftdeck/internal/ingest"
	"github.com/driftdeck/driftdeck/internal/models"
)

// Recommender serves ranked destination lists.
type Recommender interface {
	Recommend(ctx context.Context, sessionID uuid.UUID, prefs models.PreferenceSet) ([]models.Destination, bool, error)
	CacheStats() (hits, misses int64, size int)
}

// Ingestor accepts swipe events.
type Ingestor interface {
	Ingest(ctx context.Context, in ingest.Input) (ingest.Result, error)
	Stats() ingest.Stats
}

// Store is the persistence surface the handlers need.
type Store interface {
	CreateSession(ctx context.Context) (models.Session, error)
	TouchSession(ctx context.Context, id uuid.UUID) error
	GetLikedDestinations(ctx context.Context, sessionID uuid.UUID) ([]models.Destination, error)
	Ping(ctx context.Context) error
}

// StatsSource exposes the live usage counters.
type StatsSource interface {
	Snapshot() aggregator.Snapshot
}

// Handler holds the HTTP handlers and their dependencies.
type Handler struct {
	store       Store
	recommender Recommender
	ingestor    Ingestor
	stats       StatsSource
	tokens      *auth.JWTManager
	authMode    string
	version     string
	startTime   time.Time
	rw          *ResponseWriter
	logger      zerolog.Logger
}

// NewHandler creates the API handler set. tokens may be nil when authMode
// is "none"; stats may be nil when no aggregator is running.
func NewHandler(store Store, recommender Recommender, ingestor Ingestor, stats StatsSource,
	tokens *auth.JWTManager, authMode, version string, logger zerolog.Logger) *Handler {
	return &Handler{
		store:       store,
		recommender: recommender,
		ingestor:    ingestor,
		stats:       stats,
		tokens:      tokens,
		authMode:    authMode,
		version:     version,
		startTime:   time.Now(),
		rw:          NewResponseWriter(logger),
		logger:      logger,
	}
}

// HandleHealth serves GET /health.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	if err := h.store.Ping(r.Context()); err != nil {
		h.rw.ServiceUnavailable(w, r, "database unreachable")
		return
	}
	h.rw.Success(w, r, map[string]interface{}{
		"status":         status,
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	})
}

// HandleCreateSession serves POST /api/v1/sessions. It creates an anonymous
// session and, when JWT auth is enabled, issues a token bound to it.
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.CreateSession(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create session")
		h.rw.DatabaseError(w, r, "failed to create session")
		return
	}

	data := map[string]interface{}{"session": session}
	if h.authMode == "jwt" && h.tokens != nil {
		token, err := h.tokens.GenerateToken(session.ID)
		if err != nil {
			h.logger.Error().Err(err).Str("session_id", session.ID.String()).Msg("Failed to issue token")
			h.rw.InternalError(w, r, "failed to issue token")
			return
		}
		data["token"] = token
	}
	h.rw.Created(w, r, data)
}

// HandleRecommendations serves GET /api/v1/recommendations. Preferences come
// from query parameters: budget, window, and a comma-separated moods list.
// The session ID comes from the auth context when present, else from
// session_id.
func (h *Handler) HandleRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	query := RecommendationsQuery{
		SessionID: q.Get("session_id"),
		Budget:    q.Get("budget"),
		Window:    q.Get("window"),
		Tags:      splitTags(q.Get("moods")),
	}
	if sid, ok := auth.SessionFromContext(r.Context()); ok {
		query.SessionID = sid.String()
	}

	if details, err := validateRequest(&query); err != nil {
		h.rw.ValidationError(w, r, "invalid recommendation query", details)
		return
	}

	sessionID, err := uuid.Parse(query.SessionID)
	if err != nil {
		h.rw.BadRequest(w, r, "invalid session id")
		return
	}

	prefs := models.PreferenceSet{
		BudgetBand: models.BudgetBand(query.Budget),
		TimeWindow: models.TimeWindow(query.Window),
	}
	for _, t := range query.Tags {
		prefs.MoodTags = append(prefs.MoodTags, models.MoodTag(t))
	}

	destinations, cached, err := h.recommender.Recommend(r.Context(), sessionID, prefs)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID.String()).Msg("Recommendation failed")
		h.rw.InternalError(w, r, "failed to compute recommendations")
		return
	}

	h.rw.Success(w, r, map[string]interface{}{
		"destinations": destinations,
		"count":        len(destinations),
		"cached":       cached,
	})
}

// HandleCreateSwipe serves POST /api/v1/swipes. Likes and skips are written
// synchronously before the response; detail taps are validated and queued
// for a batched write, acknowledged with 202.
func (h *Handler) HandleCreateSwipe(w http.ResponseWriter, r *http.Request) {
	var req CreateSwipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.rw.BadRequest(w, r, "invalid request body")
		return
	}
	if details, err := validateRequest(&req); err != nil {
		h.rw.ValidationError(w, r, "invalid swipe request", details)
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		h.rw.BadRequest(w, r, "invalid session id")
		return
	}
	destinationID, err := uuid.Parse(req.DestinationID)
	if err != nil {
		h.rw.BadRequest(w, r, "invalid destination id")
		return
	}
	if sid, ok := auth.SessionFromContext(r.Context()); ok && sid != sessionID {
		h.rw.Unauthorized(w, r, "session id does not match token")
		return
	}

	result, err := h.ingestor.Ingest(r.Context(), ingest.Input{
		SessionID:      sessionID,
		DestinationID:  destinationID,
		Action:         models.SwipeAction(req.Action),
		Direction:      models.SwipeDirection(req.Direction),
		Velocity:       req.Velocity,
		DurationMs:     req.DurationMs,
		ViewDurationMs: req.ViewDurationMs,
	})
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrInvalidInput):
			h.rw.BadRequest(w, r, err.Error())
		case errors.Is(err, ingest.ErrSessionNotFound):
			h.rw.NotFound(w, r, "session not found")
		case errors.Is(err, ingest.ErrDestinationNotFound):
			h.rw.NotFound(w, r, "destination not found")
		case errors.Is(err, ingest.ErrClosed):
			h.rw.ServiceUnavailable(w, r, "ingestion is shut down")
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			h.rw.ServiceUnavailable(w, r, "swipe store temporarily unavailable")
		default:
			h.logger.Error().Err(err).Str("session_id", sessionID.String()).Msg("Swipe persistence failed")
			h.rw.DatabaseError(w, r, "failed to record swipe")
		}
		return
	}

	if err := h.store.TouchSession(r.Context(), sessionID); err != nil {
		// Best-effort activity tracking; the swipe itself is already accepted.
		h.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Failed to touch session")
	}

	if result.Queued {
		h.rw.Accepted(w, r, result)
		return
	}
	h.rw.Created(w, r, result)
}

// HandleSessionLikes serves GET /api/v1/sessions/{sessionID}/likes.
func (h *Handler) HandleSessionLikes(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.rw.BadRequest(w, r, "invalid session id")
		return
	}
	if sid, ok := auth.SessionFromContext(r.Context()); ok && sid != sessionID {
		h.rw.Unauthorized(w, r, "session id does not match token")
		return
	}

	liked, err := h.store.GetLikedDestinations(r.Context(), sessionID)
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", sessionID.String()).Msg("Failed to load likes")
		h.rw.DatabaseError(w, r, "failed to load liked destinations")
		return
	}
	h.rw.Success(w, r, map[string]interface{}{
		"destinations": liked,
		"count":        len(liked),
	})
}

// HandleStats serves GET /api/v1/stats with the live usage snapshot.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	if h.stats == nil {
		h.rw.Success(w, r, aggregator.Snapshot{})
		return
	}
	h.rw.Success(w, r, h.stats.Snapshot())
}

// HandleStatus serves GET /api/v1/status: the operational view of the
// ingestion pipeline and the recommendation cache.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	hits, misses, size := h.recommender.CacheStats()
	h.rw.Success(w, r, map[string]interface{}{
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
		"ingest":         h.ingestor.Stats(),
		"cache": map[string]interface{}{
			"hits":    hits,
			"misses":  misses,
			"entries": size,
		},
	})
}
