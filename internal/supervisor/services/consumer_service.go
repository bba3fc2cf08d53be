// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/driftdeck/driftdeck/internal/models"
)

// ErrSubscriptionClosed is returned when the event subscription ends while
// the service is still supposed to run, prompting a supervised restart.
var ErrSubscriptionClosed = errors.New("swipe subscription closed")

// SwipeSource delivers accepted swipe events.
type SwipeSource interface {
	SubscribeSwipes(ctx context.Context) (<-chan *models.SwipeEvent, error)
}

// SwipeSink consumes accepted swipe events.
type SwipeSink interface {
	RecordEvent(event *models.SwipeEvent)
}

// SwipeBroadcaster pushes swipe events to connected WebSocket clients.
type SwipeBroadcaster interface {
	BroadcastSwipe(event *models.SwipeEvent)
}

// SwipeConsumerService bridges the event bus to the usage aggregator and
// the WebSocket hub. Each accepted swipe updates the live counters and is
// pushed to connected clients.
type SwipeConsumerService struct {
	source      SwipeSource
	sink        SwipeSink
	broadcaster SwipeBroadcaster
	logger      zerolog.Logger
	name        string
}

// NewSwipeConsumerService creates the consumer. broadcaster may be nil when
// no WebSocket hub is running.
func NewSwipeConsumerService(source SwipeSource, sink SwipeSink, broadcaster SwipeBroadcaster, logger zerolog.Logger) *SwipeConsumerService {
	return &SwipeConsumerService{
		source:      source,
		sink:        sink,
		broadcaster: broadcaster,
		logger:      logger.With().Str("service", "swipe-consumer").Logger(),
		name:        "swipe-consumer",
	}
}

// Serve implements suture.Service. It subscribes to the swipe topic and
// processes events until the context is canceled. A subscription that ends
// on its own returns ErrSubscriptionClosed so the supervisor restarts it.
func (s *SwipeConsumerService) Serve(ctx context.Context) error {
	events, err := s.source.SubscribeSwipes(ctx)
	if err != nil {
		return err
	}
	s.logger.Info().Msg("Swipe consumer running")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Swipe consumer shutting down")
			return ctx.Err()

		case event, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrSubscriptionClosed
			}
			s.sink.RecordEvent(event)
			if s.broadcaster != nil {
				s.broadcaster.BroadcastSwipe(event)
			}
		}
	}
}

// String implements fmt.Stringer for suture's log messages.
func (s *SwipeConsumerService) String() string {
	return s.name
}
