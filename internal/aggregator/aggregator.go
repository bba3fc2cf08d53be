// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

// Package aggregator maintains in-memory realtime statistics over the swipe
// stream. It is a sink: recording never blocks or fails the caller, and its
// state is expendable on restart.
package aggregator

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/driftdeck/driftdeck/internal/models"
)

// DestinationCount pairs a destination with its like count.
type DestinationCount struct {
	DestinationID uuid.UUID `json:"destination_id"`
	Likes         int64     `json:"likes"`
}

// Snapshot is a point-in-time view of the aggregated stream.
type Snapshot struct {
	TotalEvents     int64              `json:"total_events"`
	Likes           int64              `json:"likes"`
	Skips           int64              `json:"skips"`
	DetailTaps      int64              `json:"detail_taps"`
	ActiveSessions  int                `json:"active_sessions"`
	TopDestinations []DestinationCount `json:"top_destinations"`
	LastEventAt     time.Time          `json:"last_event_at"`
}

// Aggregator accumulates per-action counts, session activity, and per
// destination like tallies. Safe for concurrent use.
type Aggregator struct {
	mu sync.RWMutex

	totalEvents int64
	likes       int64
	skips       int64
	detailTaps  int64
	lastEventAt time.Time

	sessions  map[uuid.UUID]struct{}
	destLikes map[uuid.UUID]int64

	topN   int
	logger zerolog.Logger
}

// New creates an aggregator reporting up to topN destinations per snapshot.
func New(topN int, logger zerolog.Logger) *Aggregator {
	if topN <= 0 {
		topN = 10
	}
	return &Aggregator{
		sessions:  make(map[uuid.UUID]struct{}),
		destLikes: make(map[uuid.UUID]int64),
		topN:      topN,
		logger:    logger.With().Str("component", "aggregator").Logger(),
	}
}

// RecordEvent folds one event into the running totals. Never errors.
func (a *Aggregator) RecordEvent(event *models.SwipeEvent) {
	if event == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalEvents++
	a.lastEventAt = event.ServerTimestamp
	a.sessions[event.SessionID] = struct{}{}

	switch event.Action {
	case models.ActionLike:
		a.likes++
		a.destLikes[event.DestinationID]++
	case models.ActionSkip:
		a.skips++
	case models.ActionDetailTap:
		a.detailTaps++
	}
}

// Snapshot returns the current totals. Top destinations are ordered by like
// count descending.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()

	top := make([]DestinationCount, 0, len(a.destLikes))
	for id, likes := range a.destLikes {
		top = append(top, DestinationCount{DestinationID: id, Likes: likes})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Likes != top[j].Likes {
			return top[i].Likes > top[j].Likes
		}
		return top[i].DestinationID.String() < top[j].DestinationID.String()
	})
	if len(top) > a.topN {
		top = top[:a.topN]
	}

	return Snapshot{
		TotalEvents:     a.totalEvents,
		Likes:           a.likes,
		Skips:           a.skips,
		DetailTaps:      a.detailTaps,
		ActiveSessions:  len(a.sessions),
		TopDestinations: top,
		LastEventAt:     a.lastEventAt,
	}
}

// Consume drains an event channel into the aggregator until it closes.
// Run on its own goroutine, typically fed by the event bus.
func (a *Aggregator) Consume(events <-chan *models.SwipeEvent) {
	for event := range events {
		a.RecordEvent(event)
	}
	a.logger.Debug().Msg("Event stream closed")
}
