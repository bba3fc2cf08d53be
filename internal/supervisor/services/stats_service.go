// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/driftdeck/driftdeck/internal/aggregator"
)

// SnapshotSource produces usage snapshots.
type SnapshotSource interface {
	Snapshot() aggregator.Snapshot
}

// StatsSink receives periodic usage snapshots.
type StatsSink interface {
	BroadcastStatsUpdate(snapshot aggregator.Snapshot)
}

// StatsBroadcasterService periodically pushes the aggregator's snapshot to
// WebSocket clients so dashboards stay current without polling.
type StatsBroadcasterService struct {
	source   SnapshotSource
	sink     StatsSink
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewStatsBroadcasterService creates the broadcaster. An interval of zero
// falls back to 10 seconds.
func NewStatsBroadcasterService(source SnapshotSource, sink StatsSink, interval time.Duration, logger zerolog.Logger) *StatsBroadcasterService {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &StatsBroadcasterService{
		source:   source,
		sink:     sink,
		interval: interval,
		logger:   logger.With().Str("service", "stats-broadcaster").Logger(),
		name:     "stats-broadcaster",
	}
}

// Serve implements suture.Service.
func (s *StatsBroadcasterService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("Stats broadcaster running")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Stats broadcaster shutting down")
			return ctx.Err()

		case <-ticker.C:
			s.sink.BroadcastStatsUpdate(s.source.Snapshot())
		}
	}
}

// String implements fmt.Stringer for suture's log messages.
func (s *StatsBroadcasterService) String() string {
	return s.name
}
