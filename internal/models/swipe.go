// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SwipeAction is the semantic meaning of a swipe.
type SwipeAction string

// Swipe actions.
const (
	ActionLike      SwipeAction = "like"
	ActionSkip      SwipeAction = "skip"
	ActionDetailTap SwipeAction = "detail_tap"
)

// Valid reports whether the action is a known value.
func (a SwipeAction) Valid() bool {
	switch a {
	case ActionLike, ActionSkip, ActionDetailTap:
		return true
	}
	return false
}

// SwipeDirection is the physical gesture that produced the swipe.
type SwipeDirection string

// Swipe directions.
const (
	DirectionLeft  SwipeDirection = "left"
	DirectionRight SwipeDirection = "right"
	DirectionTap   SwipeDirection = "tap"
)

// directionFor maps each action to its single legal direction.
var directionFor = map[SwipeAction]SwipeDirection{
	ActionLike:      DirectionRight,
	ActionSkip:      DirectionLeft,
	ActionDetailTap: DirectionTap,
}

// ValidatePairing checks the action/direction invariant: like pairs with
// right, skip with left, detail_tap with tap. Any other combination is a
// client error.
func ValidatePairing(action SwipeAction, direction SwipeDirection) error {
	if !action.Valid() {
		return fmt.Errorf("unknown action %q", action)
	}
	if want := directionFor[action]; direction != want {
		return fmt.Errorf("action %q requires direction %q, got %q", action, want, direction)
	}
	return nil
}

// SwipeEvent is one recorded swipe. Events are created at ingestion time,
// immutable thereafter, and persisted at most once.
type SwipeEvent struct {
	ID            uuid.UUID      `json:"id"`
	SessionID     uuid.UUID      `json:"session_id"`
	DestinationID uuid.UUID      `json:"destination_id"`
	Action        SwipeAction    `json:"action"`
	Direction     SwipeDirection `json:"direction"`

	// Optional gesture telemetry.
	Velocity       *float64 `json:"velocity,omitempty"`
	DurationMs     *int64   `json:"duration_ms,omitempty"`
	ViewDurationMs *int64   `json:"view_duration_ms,omitempty"`

	// BatchID is set for events persisted through a batch flush. Nil for
	// fast-path events written individually.
	BatchID *uuid.UUID `json:"batch_id,omitempty"`

	ServerTimestamp time.Time `json:"server_timestamp"`
}

// Session is a swiping session. Authentication and user identity live
// outside the core; the session row only anchors swipe events and cache keys.
type Session struct {
	ID         uuid.UUID `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}
