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

	"github.com/driftdeck/driftdeck/internal/metrics"
	"github.com/driftdeck/driftdeck/internal/models"
)

// CreateSession inserts a new session row and returns it.
func (db *DB) CreateSession(ctx context.Context) (models.Session, error) {
	s := models.Session{
		ID:         uuid.New(),
		CreatedAt:  time.Now().UTC(),
		LastSeenAt: time.Now().UTC(),
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, last_seen_at) VALUES (?, ?, ?)`,
		s.ID, s.CreatedAt, s.LastSeenAt)
	metrics.RecordDBQuery("insert", "sessions", time.Since(start), err)
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	return s, nil
}

// SessionExists reports whether a session id resolves.
func (db *DB) SessionExists(ctx context.Context, id uuid.UUID) (bool, error) {
	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE id = ?`, id).Scan(&count)
	metrics.RecordDBQuery("select", "sessions", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to check session existence: %w", err)
	}
	return count > 0, nil
}

// TouchSession updates a session's last_seen_at. Missing sessions are a
// no-op; liveness tracking is best-effort.
func (db *DB) TouchSession(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	_, err := db.conn.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = ? WHERE id = ?`, time.Now().UTC(), id)
	metrics.RecordDBQuery("update", "sessions", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}
