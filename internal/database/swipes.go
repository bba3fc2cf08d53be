// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/driftdeck/driftdeck/internal/logging"
	"github.com/driftdeck/driftdeck/internal/metrics"
	"github.com/driftdeck/driftdeck/internal/models"
)

// InsertSwipeEvent persists a single event synchronously. Used by the
// fast path.
func (db *DB) InsertSwipeEvent(ctx context.Context, event *models.SwipeEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO swipe_events (
			id, session_id, destination_id, action, direction,
			velocity, duration_ms, view_duration_ms, batch_id, server_timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.SessionID, event.DestinationID,
		string(event.Action), string(event.Direction),
		event.Velocity, event.DurationMs, event.ViewDurationMs,
		event.BatchID, event.ServerTimestamp)
	metrics.RecordDBQuery("insert", "swipe_events", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert swipe event %s: %w", event.ID, err)
	}
	return nil
}

// InsertSwipeEventsBatch persists a batch of events atomically, tagging each
// with the shared batchID. All-or-nothing: any failure rolls the whole
// transaction back and no subset of the batch is observable.
func (db *DB) InsertSwipeEventsBatch(ctx context.Context, events []*models.SwipeEvent, batchID uuid.UUID) (err error) {
	if len(events) == 0 {
		return nil
	}

	start := time.Now()
	defer func() {
		metrics.RecordDBQuery("insert_batch", "swipe_events", time.Since(start), err)
	}()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Str("batch_id", batchID.String()).
					Msg("Transaction rollback failed")
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO swipe_events (
			id, session_id, destination_id, action, direction,
			velocity, duration_ms, view_duration_ms, batch_id, server_timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Failed to close prepared statement")
		}
	}()

	for i, event := range events {
		if event.ID == uuid.Nil {
			event.ID = uuid.New()
		}
		event.BatchID = &batchID

		if _, err = stmt.ExecContext(ctx,
			event.ID, event.SessionID, event.DestinationID,
			string(event.Action), string(event.Direction),
			event.Velocity, event.DurationMs, event.ViewDurationMs,
			event.BatchID, event.ServerTimestamp); err != nil {
			return fmt.Errorf("failed to insert event %d of %d in batch %s: %w", i+1, len(events), batchID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch %s: %w", batchID, err)
	}

	return nil
}

// GetLikedDestinations returns the destinations a session has liked, most
// recent like first.
func (db *DB) GetLikedDestinations(ctx context.Context, sessionID uuid.UUID) ([]models.Destination, error) {
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `
		SELECT d.id, d.name, d.budget_band, d.time_window, d.tags, d.popularity_score, d.created_at
		FROM swipe_events e
		JOIN destinations d ON d.id = e.destination_id
		WHERE e.session_id = ? AND e.action = 'like'
		ORDER BY e.server_timestamp DESC`, sessionID)
	metrics.RecordDBQuery("select", "swipe_events", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query liked destinations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Failed to close liked destination rows")
		}
	}()

	var liked []models.Destination
	for rows.Next() {
		var d models.Destination
		var tags string
		if err := rows.Scan(&d.ID, &d.Name, &d.BudgetBand, &d.TimeWindow, &tags, &d.PopularityScore, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan liked destination: %w", err)
		}
		d.Tags = splitTags(tags)
		liked = append(liked, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("liked destination row iteration failed: %w", err)
	}

	return liked, nil
}

// CountSwipeEvents returns the number of persisted events, optionally
// filtered by action. Empty action counts everything.
func (db *DB) CountSwipeEvents(ctx context.Context, action models.SwipeAction) (int, error) {
	var count int
	var err error
	if action == "" {
		err = db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM swipe_events`).Scan(&count)
	} else {
		err = db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM swipe_events WHERE action = ?`, string(action)).Scan(&count)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count swipe events: %w", err)
	}
	return count, nil
}
