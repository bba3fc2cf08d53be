// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package ingest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/driftdeck/driftdeck/internal/models"
)

// mockStore records writes and serves configurable existence answers.
type mockStore struct {
	mu sync.Mutex

	singles []*models.SwipeEvent
	batches [][]*models.SwipeEvent
	batchID uuid.UUID

	sessions     map[uuid.UUID]bool
	destinations map[uuid.UUID]bool

	insertErr error
	batchErr  error
}

func newMockStore() *mockStore {
	return &mockStore{
		sessions:     make(map[uuid.UUID]bool),
		destinations: make(map[uuid.UUID]bool),
	}
}

func (m *mockStore) InsertSwipeEvent(_ context.Context, event *models.SwipeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	m.singles = append(m.singles, event)
	return nil
}

func (m *mockStore) InsertSwipeEventsBatch(_ context.Context, events []*models.SwipeEvent, batchID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.batchErr != nil {
		return m.batchErr
	}
	copied := make([]*models.SwipeEvent, len(events))
	copy(copied, events)
	m.batches = append(m.batches, copied)
	m.batchID = batchID
	return nil
}

func (m *mockStore) SessionExists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[id], nil
}

func (m *mockStore) DestinationExists(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.destinations[id], nil
}

func (m *mockStore) singleCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.singles)
}

func (m *mockStore) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*models.SwipeEvent
}

func (r *recordingPublisher) PublishSwipe(event *models.SwipeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func newTestPipeline(t *testing.T, cfg Config, store Store, pub Publisher) *Pipeline {
	t.Helper()
	p, err := NewPipeline(cfg, store, pub, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func likeInput() Input {
	return Input{
		SessionID:     uuid.New(),
		DestinationID: uuid.New(),
		Action:        models.ActionLike,
		Direction:     models.DirectionRight,
	}
}

func tapInput(store *mockStore) Input {
	session, destination := uuid.New(), uuid.New()
	store.mu.Lock()
	store.sessions[session] = true
	store.destinations[destination] = true
	store.mu.Unlock()
	return Input{
		SessionID:     session,
		DestinationID: destination,
		Action:        models.ActionDetailTap,
		Direction:     models.DirectionTap,
	}
}

func TestIngest_RejectsMismatchedPairings(t *testing.T) {
	store := newMockStore()
	p := newTestPipeline(t, DefaultConfig(), store, nil)

	illegal := []struct {
		action    models.SwipeAction
		direction models.SwipeDirection
	}{
		{models.ActionLike, models.DirectionLeft},
		{models.ActionLike, models.DirectionTap},
		{models.ActionSkip, models.DirectionRight},
		{models.ActionDetailTap, models.DirectionLeft},
	}
	for _, pair := range illegal {
		_, err := p.Ingest(context.Background(), Input{
			SessionID:     uuid.New(),
			DestinationID: uuid.New(),
			Action:        pair.action,
			Direction:     pair.direction,
		})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("pairing %s/%s: expected ErrInvalidInput, got %v", pair.action, pair.direction, err)
		}
	}

	// Nothing reached the store.
	if store.singleCount() != 0 || p.QueueLength() != 0 {
		t.Error("rejected events must not be persisted or queued")
	}
}

func TestIngest_RejectsMissingIDs(t *testing.T) {
	p := newTestPipeline(t, DefaultConfig(), newMockStore(), nil)

	_, err := p.Ingest(context.Background(), Input{
		DestinationID: uuid.New(),
		Action:        models.ActionLike,
		Direction:     models.DirectionRight,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for missing session, got %v", err)
	}
}

func TestIngest_FastPathSynchronousWrite(t *testing.T) {
	store := newMockStore()
	pub := &recordingPublisher{}
	p := newTestPipeline(t, DefaultConfig(), store, pub)

	// Neither session nor destination exists in the store: the fast path
	// writes anyway, with no existence check.
	res, err := p.Ingest(context.Background(), likeInput())
	if err != nil {
		t.Fatalf("fast-path ingest failed: %v", err)
	}
	if res.Queued {
		t.Error("fast-path result must not be queued")
	}
	if res.EventID == uuid.Nil {
		t.Error("expected an assigned event id")
	}

	// The write completed before Ingest returned.
	if store.singleCount() != 1 {
		t.Fatalf("expected 1 synchronous write, got %d", store.singleCount())
	}
	if pub.count() != 1 {
		t.Errorf("expected 1 fan-out event, got %d", pub.count())
	}
	if p.QueueLength() != 0 {
		t.Errorf("fast path must not touch the queue, length %d", p.QueueLength())
	}
}

func TestIngest_FastPathWriteFailureSurfaced(t *testing.T) {
	store := newMockStore()
	store.insertErr = errors.New("disk full")
	pub := &recordingPublisher{}
	p := newTestPipeline(t, DefaultConfig(), store, pub)

	if _, err := p.Ingest(context.Background(), likeInput()); err == nil {
		t.Fatal("expected fast-path write failure to surface")
	}
	// A failed write is not fanned out.
	if pub.count() != 0 {
		t.Errorf("failed event must not be fanned out, got %d", pub.count())
	}
}

func TestIngest_SlowPathValidatesExistence(t *testing.T) {
	store := newMockStore()
	p := newTestPipeline(t, DefaultConfig(), store, nil)

	// Unknown session.
	_, err := p.Ingest(context.Background(), Input{
		SessionID:     uuid.New(),
		DestinationID: uuid.New(),
		Action:        models.ActionDetailTap,
		Direction:     models.DirectionTap,
	})
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}

	// Known session, unknown destination.
	session := uuid.New()
	store.mu.Lock()
	store.sessions[session] = true
	store.mu.Unlock()
	_, err = p.Ingest(context.Background(), Input{
		SessionID:     session,
		DestinationID: uuid.New(),
		Action:        models.ActionDetailTap,
		Direction:     models.DirectionTap,
	})
	if !errors.Is(err, ErrDestinationNotFound) {
		t.Errorf("expected ErrDestinationNotFound, got %v", err)
	}

	if p.QueueLength() != 0 {
		t.Error("rejected taps must not be enqueued")
	}
}

func TestIngest_SlowPathQueuesAndArmsTimer(t *testing.T) {
	store := newMockStore()
	pub := &recordingPublisher{}
	cfg := DefaultConfig()
	cfg.FlushTimeout = time.Hour // keep the timer from firing during the test
	p := newTestPipeline(t, cfg, store, pub)

	res, err := p.Ingest(context.Background(), tapInput(store))
	if err != nil {
		t.Fatalf("slow-path ingest failed: %v", err)
	}
	if !res.Queued {
		t.Error("slow-path result must be queued")
	}
	if p.QueueLength() != 1 {
		t.Errorf("expected queue length 1, got %d", p.QueueLength())
	}
	if !p.TimerArmed() {
		t.Error("first enqueue must arm the flush timer")
	}
	if store.batchCount() != 0 {
		t.Error("no flush should have run yet")
	}
	if pub.count() != 1 {
		t.Errorf("expected fan-out before flush, got %d", pub.count())
	}
}

func TestIngest_SizeTriggeredFlush(t *testing.T) {
	store := newMockStore()
	cfg := DefaultConfig()
	cfg.BatchSize = 100
	cfg.FlushTimeout = time.Hour
	p := newTestPipeline(t, cfg, store, nil)

	ctx := context.Background()
	for i := 0; i < 99; i++ {
		if _, err := p.Ingest(ctx, tapInput(store)); err != nil {
			t.Fatalf("ingest %d failed: %v", i, err)
		}
	}
	if p.QueueLength() != 99 || store.batchCount() != 0 {
		t.Fatalf("expected 99 queued and no flush, got %d queued, %d flushes", p.QueueLength(), store.batchCount())
	}

	// The 100th event hits BatchSize and schedules an immediate flush.
	if _, err := p.Ingest(ctx, tapInput(store)); err != nil {
		t.Fatalf("100th ingest failed: %v", err)
	}
	waitFor(t, func() bool { return store.batchCount() == 1 })

	if p.QueueLength() != 0 {
		t.Errorf("expected empty queue after flush, got %d", p.QueueLength())
	}
	if p.TimerArmed() {
		t.Error("flush must clear the timer")
	}

	store.mu.Lock()
	batch := store.batches[0]
	batchID := store.batchID
	store.mu.Unlock()
	if len(batch) != 100 {
		t.Errorf("expected 100 events in batch, got %d", len(batch))
	}
	if batchID == uuid.Nil {
		t.Error("expected a shared batch id")
	}
}

func TestIngest_TimerTriggeredFlush(t *testing.T) {
	store := newMockStore()
	cfg := DefaultConfig()
	cfg.FlushTimeout = 50 * time.Millisecond
	p := newTestPipeline(t, cfg, store, nil)

	if _, err := p.Ingest(context.Background(), tapInput(store)); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	waitFor(t, func() bool { return store.batchCount() == 1 })

	if p.QueueLength() != 0 {
		t.Errorf("expected empty queue after timer flush, got %d", p.QueueLength())
	}
	if p.TimerArmed() {
		t.Error("timer must be cleared after firing")
	}

	// The next enqueue re-arms the timer.
	if _, err := p.Ingest(context.Background(), tapInput(store)); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if !p.TimerArmed() {
		t.Error("next enqueue must re-arm the timer")
	}
}

func TestIngest_FailedFlushDropsEvents(t *testing.T) {
	store := newMockStore()
	store.batchErr = errors.New("store offline")
	cfg := DefaultConfig()
	cfg.FlushTimeout = 50 * time.Millisecond
	p := newTestPipeline(t, cfg, store, nil)

	if _, err := p.Ingest(context.Background(), tapInput(store)); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	waitFor(t, func() bool { return p.Stats().FailedFlushes == 1 })

	// At-most-once: failed events are dropped, not requeued.
	if p.QueueLength() != 0 {
		t.Errorf("failed events must not be requeued, queue length %d", p.QueueLength())
	}
	stats := p.Stats()
	if stats.EventsDropped != 1 {
		t.Errorf("expected 1 dropped event, got %d", stats.EventsDropped)
	}
	if stats.EventsFlushed != 0 {
		t.Errorf("expected 0 flushed events, got %d", stats.EventsFlushed)
	}
}

func TestIngest_EventsDuringFlushStartFreshQueue(t *testing.T) {
	store := newMockStore()
	cfg := DefaultConfig()
	cfg.BatchSize = 2
	cfg.FlushTimeout = time.Hour
	p := newTestPipeline(t, cfg, store, nil)

	ctx := context.Background()
	if _, err := p.Ingest(ctx, tapInput(store)); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Ingest(ctx, tapInput(store)); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return store.batchCount() == 1 })

	// A third event after the flush starts a fresh queue.
	if _, err := p.Ingest(ctx, tapInput(store)); err != nil {
		t.Fatal(err)
	}
	if p.QueueLength() != 1 {
		t.Errorf("expected fresh queue with 1 event, got %d", p.QueueLength())
	}
	if !p.TimerArmed() {
		t.Error("fresh queue must re-arm the timer")
	}
}

func TestClose_FlushesPending(t *testing.T) {
	store := newMockStore()
	cfg := DefaultConfig()
	cfg.FlushTimeout = time.Hour
	p, err := NewPipeline(cfg, store, nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("failed to create pipeline: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := p.Ingest(context.Background(), tapInput(store)); err != nil {
			t.Fatal(err)
		}
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if store.batchCount() != 1 {
		t.Fatalf("expected shutdown flush, got %d batches", store.batchCount())
	}

	// Ingest after close is rejected.
	if _, err := p.Ingest(context.Background(), likeInput()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// Close is idempotent.
	if err := p.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}

func TestStats(t *testing.T) {
	store := newMockStore()
	cfg := DefaultConfig()
	cfg.FlushTimeout = time.Hour
	p := newTestPipeline(t, cfg, store, nil)

	if _, err := p.Ingest(context.Background(), likeInput()); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Ingest(context.Background(), tapInput(store)); err != nil {
		t.Fatal(err)
	}

	stats := p.Stats()
	if stats.EventsReceived != 2 {
		t.Errorf("expected 2 received, got %d", stats.EventsReceived)
	}
	if stats.QueueLength != 1 {
		t.Errorf("expected queue length 1, got %d", stats.QueueLength)
	}
	if !stats.TimerArmed {
		t.Error("expected timer armed")
	}
	if stats.BreakerState != "closed" {
		t.Errorf("expected closed breaker, got %s", stats.BreakerState)
	}
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
