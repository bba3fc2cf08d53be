// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/driftdeck/driftdeck/internal/logging"
	"github.com/driftdeck/driftdeck/internal/metrics"
	"github.com/driftdeck/driftdeck/internal/models"
)

// joinTags encodes a tag set for storage.
func joinTags(tags []models.MoodTag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

// splitTags decodes a stored tag set, preserving order.
func splitTags(s string) []models.MoodTag {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]models.MoodTag, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, models.MoodTag(p))
		}
	}
	return tags
}

// ListDestinations returns the whole destination catalog, ordered by
// popularity descending. One call yields a snapshot sufficient for a full
// ranking pass.
func (db *DB) ListDestinations(ctx context.Context) ([]models.Destination, error) {
	start := time.Now()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, budget_band, time_window, tags, popularity_score, created_at
		FROM destinations
		ORDER BY popularity_score DESC`)
	metrics.RecordDBQuery("select", "destinations", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to query destinations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn().Err(closeErr).Msg("Failed to close destination rows")
		}
	}()

	var catalog []models.Destination
	for rows.Next() {
		var d models.Destination
		var tags string
		if err := rows.Scan(&d.ID, &d.Name, &d.BudgetBand, &d.TimeWindow, &tags, &d.PopularityScore, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan destination: %w", err)
		}
		d.Tags = splitTags(tags)
		catalog = append(catalog, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("destination row iteration failed: %w", err)
	}

	return catalog, nil
}

// InsertDestination adds a destination to the catalog.
func (db *DB) InsertDestination(ctx context.Context, d models.Destination) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}

	start := time.Now()
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO destinations (id, name, budget_band, time_window, tags, popularity_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Name, string(d.BudgetBand), string(d.TimeWindow), joinTags(d.Tags), d.PopularityScore, d.CreatedAt)
	metrics.RecordDBQuery("insert", "destinations", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("failed to insert destination %s: %w", d.Name, err)
	}
	return nil
}

// DestinationExists reports whether a destination id resolves.
func (db *DB) DestinationExists(ctx context.Context, id uuid.UUID) (bool, error) {
	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM destinations WHERE id = ?`, id).Scan(&count)
	metrics.RecordDBQuery("select", "destinations", time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("failed to check destination existence: %w", err)
	}
	return count > 0, nil
}

// CountDestinations returns the catalog size.
func (db *DB) CountDestinations(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM destinations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count destinations: %w", err)
	}
	return count, nil
}

// SeedCatalog inserts the built-in starter catalog when the destinations
// table is empty. Idempotent across restarts.
func (db *DB) SeedCatalog(ctx context.Context) error {
	count, err := db.CountDestinations(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		logging.Debug().Int("destinations", count).Msg("Catalog already seeded")
		return nil
	}

	for _, d := range seedDestinations() {
		if err := db.InsertDestination(ctx, d); err != nil {
			return err
		}
	}

	logging.Info().Int("destinations", len(seedDestinations())).Msg("Catalog seeded")
	return nil
}

// seedDestinations is the starter catalog used for empty databases.
func seedDestinations() []models.Destination {
	mk := func(name string, budget models.BudgetBand, window models.TimeWindow, score float64, tags ...models.MoodTag) models.Destination {
		return models.Destination{
			ID:              uuid.New(),
			Name:            name,
			BudgetBand:      budget,
			TimeWindow:      window,
			Tags:            tags,
			PopularityScore: score,
		}
	}
	return []models.Destination{
		mk("Night Market Crawl", models.BudgetLow, models.WindowEvening, 92, "streetfood", "foodie", "nightlife"),
		mk("Old Town Walking Tour", models.BudgetLow, models.WindowHalfDay, 88, "history", "culture"),
		mk("Harbor Sunset Cruise", models.BudgetMid, models.WindowEvening, 95, "nature", "cocktails"),
		mk("Modern Art Museum", models.BudgetMid, models.WindowHalfDay, 84, "art", "museum"),
		mk("Coastal Cliff Hike", models.BudgetLow, models.WindowFullDay, 90, "hiking", "nature"),
		mk("Chef's Table Tasting", models.BudgetHigh, models.WindowEvening, 97, "foodie"),
		mk("Hot Spring Spa Day", models.BudgetHigh, models.WindowHalfDay, 86, "spa", "wellness"),
		mk("Vintage Market Morning", models.BudgetLow, models.WindowHalfDay, 78, "market", "shopping"),
		mk("Jazz Cellar Session", models.BudgetMid, models.WindowEvening, 89, "livemusic", "nightlife"),
		mk("Mountain Bike Descent", models.BudgetMid, models.WindowFullDay, 82, "adventure", "sports"),
		mk("Botanical Garden Picnic", models.BudgetLow, models.WindowHalfDay, 75, "parks", "nature"),
		mk("Rooftop Cocktail Hour", models.BudgetHigh, models.WindowEvening, 91, "cocktails", "nightlife"),
		mk("Ceramics Workshop", models.BudgetMid, models.WindowHalfDay, 73, "art", "culture"),
		mk("Island Ferry Day Trip", models.BudgetMid, models.WindowFullDay, 87, "beach", "nature"),
		mk("Specialty Coffee Crawl", models.BudgetLow, models.WindowHalfDay, 80, "coffee", "foodie"),
	}
}
