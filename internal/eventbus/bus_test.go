// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/driftdeck/driftdeck/internal/models"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New(16, zerolog.Nop())
	defer func() {
		if err := bus.Close(); err != nil {
			t.Errorf("close failed: %v", err)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := bus.SubscribeSwipes(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	sent := &models.SwipeEvent{
		ID:              uuid.New(),
		SessionID:       uuid.New(),
		DestinationID:   uuid.New(),
		Action:          models.ActionLike,
		Direction:       models.DirectionRight,
		ServerTimestamp: time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := bus.PublishSwipe(sent); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case got := <-events:
		if got.ID != sent.ID || got.Action != sent.Action || got.Direction != sent.Direction {
			t.Errorf("event did not round-trip: got %+v", got)
		}
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}
}

func TestBus_PublishWithoutSubscriberDoesNotBlock(t *testing.T) {
	bus := New(16, zerolog.Nop())
	defer func() { _ = bus.Close() }()

	done := make(chan error, 1)
	go func() {
		done <- bus.PublishSwipe(&models.SwipeEvent{
			ID:              uuid.New(),
			Action:          models.ActionSkip,
			Direction:       models.DirectionLeft,
			ServerTimestamp: time.Now().UTC(),
		})
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("publish failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked with no subscriber")
	}
}

func TestBus_SubscriptionEndsOnCancel(t *testing.T) {
	bus := New(16, zerolog.Nop())
	defer func() { _ = bus.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := bus.SubscribeSwipes(ctx)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	cancel()

	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected channel to close after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after cancel")
	}
}
