// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

// Package ingest implements the swipe event ingestion pipeline. Likes and
// skips take the fast path: one synchronous durable write before the response.
// Detail taps take the slow path: existence validation, then a batch queue
// flushed on size or timer, whichever comes first.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/driftdeck/driftdeck/internal/metrics"
	"github.com/driftdeck/driftdeck/internal/models"
)

// Sentinel errors for the API layer to map onto status codes.
var (
	ErrInvalidInput        = errors.New("invalid swipe input")
	ErrSessionNotFound     = errors.New("session not found")
	ErrDestinationNotFound = errors.New("destination not found")
	ErrClosed              = errors.New("pipeline is closed")
)

// Store is the durable authority for swipe events.
type Store interface {
	InsertSwipeEvent(ctx context.Context, event *models.SwipeEvent) error
	InsertSwipeEventsBatch(ctx context.Context, events []*models.SwipeEvent, batchID uuid.UUID) error
	SessionExists(ctx context.Context, id uuid.UUID) (bool, error)
	DestinationExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Publisher fans accepted events out to realtime consumers. Publication is
// fire-and-forget: errors are logged, never surfaced to the client.
type Publisher interface {
	PublishSwipe(event *models.SwipeEvent) error
}

// Config tunes the pipeline.
type Config struct {
	// BatchSize is the queue length that triggers an immediate flush.
	BatchSize int
	// FlushTimeout is the timer armed on first enqueue since the last flush.
	FlushTimeout time.Duration
	// BreakerMaxFailures and BreakerTimeout configure the store breaker.
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:          100,
		FlushTimeout:       5 * time.Second,
		BreakerMaxFailures: 5,
		BreakerTimeout:     30 * time.Second,
	}
}

// Input is a client-submitted swipe before validation.
type Input struct {
	SessionID      uuid.UUID
	DestinationID  uuid.UUID
	Action         models.SwipeAction
	Direction      models.SwipeDirection
	Velocity       *float64
	DurationMs     *int64
	ViewDurationMs *int64
}

// Result reports how an accepted event will be persisted.
type Result struct {
	EventID uuid.UUID `json:"event_id"`
	// Queued is true for slow-path events awaiting a batch flush, false
	// when the durable write already happened.
	Queued bool `json:"queued"`
}

// Stats is the pipeline's observability surface.
type Stats struct {
	EventsReceived int64     `json:"events_received"`
	EventsFlushed  int64     `json:"events_flushed"`
	FlushCount     int64     `json:"flush_count"`
	FailedFlushes  int64     `json:"failed_flushes"`
	EventsDropped  int64     `json:"events_dropped"`
	QueueLength    int       `json:"queue_length"`
	TimerArmed     bool      `json:"timer_armed"`
	LastFlushAt    time.Time `json:"last_flush_at"`
	BreakerState   string    `json:"breaker_state"`
}

// Pipeline ingests swipe events. Safe for concurrent use: the queue and
// timer are guarded by one mutex, and flushes are serialized so events reach
// the store in enqueue order.
type Pipeline struct {
	store     Store
	publisher Publisher
	breaker   *gobreaker.CircuitBreaker[any]
	cfg       Config
	logger    zerolog.Logger

	// mu guards queue and timer.
	mu    sync.Mutex
	queue []*models.SwipeEvent
	timer *time.Timer // nil when unarmed

	// flushMu serializes flushes so timer and size triggers cannot
	// interleave their drains.
	flushMu sync.Mutex
	flushWg sync.WaitGroup

	closed atomic.Bool

	eventsReceived atomic.Int64
	eventsFlushed  atomic.Int64
	flushCount     atomic.Int64
	failedFlushes  atomic.Int64
	eventsDropped  atomic.Int64
	lastFlushAt    atomic.Value // time.Time
}

// NewPipeline creates a pipeline writing through to store, fanning out via
// publisher. publisher may be nil.
func NewPipeline(cfg Config, store Store, publisher Publisher, logger zerolog.Logger) (*Pipeline, error) {
	if store == nil {
		return nil, fmt.Errorf("store required")
	}
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushTimeout <= 0 {
		cfg.FlushTimeout = def.FlushTimeout
	}

	p := &Pipeline{
		store:     store,
		publisher: publisher,
		breaker:   newStoreBreaker(cfg.BreakerMaxFailures, cfg.BreakerTimeout),
		cfg:       cfg,
		logger:    logger.With().Str("component", "ingest").Logger(),
		queue:     make([]*models.SwipeEvent, 0, cfg.BatchSize),
	}
	p.lastFlushAt.Store(time.Time{})
	return p, nil
}

// Ingest validates and routes one swipe. Fast path (like, skip): the durable
// write completes, success or failure, before Ingest returns. Slow path
// (detail_tap): session and destination must resolve, then the event joins
// the batch queue and the response does not wait for persistence.
func (p *Pipeline) Ingest(ctx context.Context, in Input) (Result, error) {
	if p.closed.Load() {
		return Result{}, ErrClosed
	}

	event, err := p.validate(ctx, in)
	if err != nil {
		return Result{}, err
	}

	p.eventsReceived.Add(1)

	if event.Action == models.ActionDetailTap {
		p.fanOut(event)
		p.enqueue(event)
		metrics.SwipesIngestedTotal.WithLabelValues("slow", string(event.Action)).Inc()
		return Result{EventID: event.ID, Queued: true}, nil
	}

	// Fast path: no existence pre-check beyond the write itself. A dangling
	// reference may be written; the slow path guards against that, this one
	// trades it for latency.
	if _, err := p.breaker.Execute(func() (any, error) {
		return nil, p.store.InsertSwipeEvent(ctx, event)
	}); err != nil {
		p.logger.Error().
			Err(err).
			Str("event_id", event.ID.String()).
			Str("action", string(event.Action)).
			Msg("Fast-path write failed")
		return Result{}, fmt.Errorf("failed to persist swipe event: %w", err)
	}

	p.fanOut(event)
	metrics.SwipesIngestedTotal.WithLabelValues("fast", string(event.Action)).Inc()
	return Result{EventID: event.ID, Queued: false}, nil
}

// validate builds a SwipeEvent from an input, rejecting invariant
// violations before any state mutation. The slow path additionally verifies
// the referenced session and destination exist.
func (p *Pipeline) validate(ctx context.Context, in Input) (*models.SwipeEvent, error) {
	if in.SessionID == uuid.Nil {
		metrics.SwipesRejectedTotal.WithLabelValues("missing_session").Inc()
		return nil, fmt.Errorf("%w: session id required", ErrInvalidInput)
	}
	if in.DestinationID == uuid.Nil {
		metrics.SwipesRejectedTotal.WithLabelValues("missing_destination").Inc()
		return nil, fmt.Errorf("%w: destination id required", ErrInvalidInput)
	}
	if err := models.ValidatePairing(in.Action, in.Direction); err != nil {
		metrics.SwipesRejectedTotal.WithLabelValues("pairing").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if in.Action == models.ActionDetailTap {
		ok, err := p.store.SessionExists(ctx, in.SessionID)
		if err != nil {
			return nil, fmt.Errorf("failed to check session: %w", err)
		}
		if !ok {
			metrics.SwipesRejectedTotal.WithLabelValues("unknown_session").Inc()
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, in.SessionID)
		}
		ok, err = p.store.DestinationExists(ctx, in.DestinationID)
		if err != nil {
			return nil, fmt.Errorf("failed to check destination: %w", err)
		}
		if !ok {
			metrics.SwipesRejectedTotal.WithLabelValues("unknown_destination").Inc()
			return nil, fmt.Errorf("%w: %s", ErrDestinationNotFound, in.DestinationID)
		}
	}

	return &models.SwipeEvent{
		ID:              uuid.New(),
		SessionID:       in.SessionID,
		DestinationID:   in.DestinationID,
		Action:          in.Action,
		Direction:       in.Direction,
		Velocity:        in.Velocity,
		DurationMs:      in.DurationMs,
		ViewDurationMs:  in.ViewDurationMs,
		ServerTimestamp: time.Now().UTC(),
	}, nil
}

// fanOut forwards an accepted event to the realtime stream. Never blocks or
// fails the caller.
func (p *Pipeline) fanOut(event *models.SwipeEvent) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.PublishSwipe(event); err != nil {
		p.logger.Warn().Err(err).Str("event_id", event.ID.String()).Msg("Realtime fan-out failed")
	}
}

// enqueue appends a slow-path event to the batch queue, arming the flush
// timer on the first event since the last flush and scheduling an immediate
// flush when the queue reaches capacity.
func (p *Pipeline) enqueue(event *models.SwipeEvent) {
	p.mu.Lock()
	p.queue = append(p.queue, event)
	length := len(p.queue)

	if length >= p.cfg.BatchSize {
		// Size trigger: the flush runs on its own goroutine rather than
		// inside this call. The timer is left alone; the drain clears it.
		p.scheduleFlush("size")
	} else if p.timer == nil {
		p.timer = time.AfterFunc(p.cfg.FlushTimeout, p.timerFired)
		metrics.IngestFlushTimerArmed.Set(1)
	}
	p.mu.Unlock()

	metrics.IngestQueueLength.Set(float64(length))
}

// scheduleFlush starts an async flush. Caller holds mu.
func (p *Pipeline) scheduleFlush(trigger string) {
	p.flushWg.Add(1)
	go func() {
		defer p.flushWg.Done()
		p.flush(trigger)
	}()
}

// timerFired is the AfterFunc callback. A queue already drained by a
// size-triggered flush makes this a no-op.
func (p *Pipeline) timerFired() {
	if p.closed.Load() {
		return
	}
	p.flushWg.Add(1)
	defer p.flushWg.Done()
	p.flush("timer")
}

// flush drains the queue and persists the snapshot in one transaction under
// a shared batch id. The snapshot is removed before the transaction begins:
// events enqueued during the flush start a fresh queue and are never lost or
// double-written. Failed batches are logged and dropped, not requeued.
func (p *Pipeline) flush(trigger string) {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()

	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
		metrics.IngestFlushTimerArmed.Set(0)
	}
	if len(p.queue) == 0 {
		p.mu.Unlock()
		return
	}
	events := p.queue
	p.queue = make([]*models.SwipeEvent, 0, p.cfg.BatchSize)
	p.mu.Unlock()

	metrics.IngestQueueLength.Set(0)

	batchID := uuid.New()
	start := time.Now()

	// The caller's request context is long gone; the flush gets its own
	// deadline and cannot be cancelled once started.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := p.breaker.Execute(func() (any, error) {
		return nil, p.store.InsertSwipeEventsBatch(ctx, events, batchID)
	})
	metrics.RecordFlush(trigger, len(events), time.Since(start), err)

	if err != nil {
		p.failedFlushes.Add(1)
		p.eventsDropped.Add(int64(len(events)))
		p.logger.Error().
			Err(err).
			Str("batch_id", batchID.String()).
			Str("trigger", trigger).
			Int("events", len(events)).
			Msg("Batch flush failed, events dropped")
		return
	}

	p.eventsFlushed.Add(int64(len(events)))
	p.flushCount.Add(1)
	p.lastFlushAt.Store(time.Now().UTC())

	p.logger.Debug().
		Str("batch_id", batchID.String()).
		Str("trigger", trigger).
		Int("events", len(events)).
		Dur("elapsed", time.Since(start)).
		Msg("Batch flushed")
}

// Flush synchronously drains pending events. Used by tests and shutdown.
func (p *Pipeline) Flush() {
	p.flushWg.Wait()
	p.flush("manual")
}

// Close stops the pipeline and flushes pending events. Idempotent.
func (p *Pipeline) Close() error {
	if p.closed.Swap(true) {
		return nil
	}

	p.mu.Lock()
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
		metrics.IngestFlushTimerArmed.Set(0)
	}
	p.mu.Unlock()

	p.flushWg.Wait()
	p.flush("shutdown")
	return nil
}

// QueueLength returns the number of events awaiting flush.
func (p *Pipeline) QueueLength() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// TimerArmed reports whether a flush timer is pending.
func (p *Pipeline) TimerArmed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.timer != nil
}

// Stats returns the pipeline's runtime statistics.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	queueLength := len(p.queue)
	timerArmed := p.timer != nil
	p.mu.Unlock()

	lastFlushAt, _ := p.lastFlushAt.Load().(time.Time)

	return Stats{
		EventsReceived: p.eventsReceived.Load(),
		EventsFlushed:  p.eventsFlushed.Load(),
		FlushCount:     p.flushCount.Load(),
		FailedFlushes:  p.failedFlushes.Load(),
		EventsDropped:  p.eventsDropped.Load(),
		QueueLength:    queueLength,
		TimerArmed:     timerArmed,
		LastFlushAt:    lastFlushAt,
		BreakerState:   p.breaker.State().String(),
	}
}
