// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

// Package eventbus carries accepted swipe events from the ingestion pipeline
// to in-process consumers over a Watermill Go channel pub/sub. Delivery is
// fire-and-forget: a slow or absent consumer never blocks or fails ingestion.
package eventbus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/driftdeck/driftdeck/internal/models"
)

// TopicSwipesAccepted carries every event the pipeline accepted, fast and
// slow path alike.
const TopicSwipesAccepted = "swipes.accepted"

// Bus is an in-process pub/sub for swipe events.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger zerolog.Logger
}

// New creates a bus. bufferSize bounds the per-subscriber channel; a full
// buffer drops into Watermill's blocking publish, so it is sized generously.
func New(bufferSize int64, logger zerolog.Logger) *Bus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            bufferSize,
			BlockPublishUntilSubscriberAck: false,
		},
		NewLoggerAdapter(logger.With().Str("component", "eventbus").Logger()),
	)
	return &Bus{
		pubsub: pubsub,
		logger: logger.With().Str("component", "eventbus").Logger(),
	}
}

// PublishSwipe publishes an accepted event. Errors are returned for logging
// only; callers treat publication as fire-and-forget.
func (b *Bus) PublishSwipe(event *models.SwipeEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal swipe event %s: %w", event.ID, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(TopicSwipesAccepted, msg); err != nil {
		return fmt.Errorf("failed to publish swipe event %s: %w", event.ID, err)
	}
	return nil
}

// SubscribeSwipes returns a channel of accepted events. The subscription ends
// when ctx is cancelled or the bus closes.
func (b *Bus) SubscribeSwipes(ctx context.Context) (<-chan *models.SwipeEvent, error) {
	messages, err := b.pubsub.Subscribe(ctx, TopicSwipesAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", TopicSwipesAccepted, err)
	}

	events := make(chan *models.SwipeEvent)
	go func() {
		defer close(events)
		for msg := range messages {
			var event models.SwipeEvent
			if err := json.Unmarshal(msg.Payload, &event); err != nil {
				b.logger.Error().Err(err).Str("message_id", msg.UUID).Msg("Dropping undecodable swipe message")
				msg.Ack()
				continue
			}
			msg.Ack()

			select {
			case events <- &event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

// Close shuts the bus down, terminating all subscriptions.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
