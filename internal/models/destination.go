// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

// Package models defines the core domain types shared across Driftdeck:
// destinations, preference sets, and swipe events.
package models

import (
	"time"

	"github.com/google/uuid"
)

// BudgetBand classifies a destination's price level.
type BudgetBand string

// Budget bands.
const (
	BudgetLow  BudgetBand = "low"
	BudgetMid  BudgetBand = "mid"
	BudgetHigh BudgetBand = "high"
)

// Valid reports whether the budget band is a known value.
func (b BudgetBand) Valid() bool {
	switch b {
	case BudgetLow, BudgetMid, BudgetHigh:
		return true
	}
	return false
}

// TimeWindow classifies how much time a destination visit takes.
type TimeWindow string

// Time windows.
const (
	WindowEvening TimeWindow = "evening"
	WindowHalfDay TimeWindow = "halfday"
	WindowFullDay TimeWindow = "fullday"
)

// Valid reports whether the time window is a known value.
func (w TimeWindow) Valid() bool {
	switch w {
	case WindowEvening, WindowHalfDay, WindowFullDay:
		return true
	}
	return false
}

// MoodTag is a free-form descriptor attached to destinations and requested in
// preference sets (e.g. "foodie", "nightlife", "nature").
type MoodTag string

// Destination is a catalog entry. Attributes are immutable for the duration
// of a ranking computation.
type Destination struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	BudgetBand      BudgetBand `json:"budget_band"`
	TimeWindow      TimeWindow `json:"time_window"`
	Tags            []MoodTag  `json:"tags"`
	PopularityScore float64    `json:"popularity_score"`
	CreatedAt       time.Time  `json:"created_at,omitempty"`
}

// HasTag reports whether the destination carries the given mood tag.
func (d *Destination) HasTag(tag MoodTag) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
