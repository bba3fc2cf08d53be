// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package recommend

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/driftdeck/driftdeck/internal/models"
)

type stubCatalog struct {
	destinations []models.Destination
	calls        atomic.Int64
	err          error
}

func (s *stubCatalog) ListDestinations(_ context.Context) ([]models.Destination, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.destinations, nil
}

func TestEngine_Recommend_FilterAndRankScenario(t *testing.T) {
	// One mid/foodie/halfday destination (score 90) and one mid/foodie/evening
	// destination (score 95): both pass the half-day filter, and the higher
	// score leads the ranking.
	catalog := &stubCatalog{destinations: []models.Destination{
		dest("halfday spot", models.BudgetMid, models.WindowHalfDay, 90, "foodie"),
		dest("evening spot", models.BudgetMid, models.WindowEvening, 95, "foodie"),
	}}
	engine := NewEngine(DefaultConfig(), catalog, zerolog.Nop())

	prefs := models.PreferenceSet{
		BudgetBand: models.BudgetMid,
		MoodTags:   []models.MoodTag{"foodie"},
		TimeWindow: models.WindowHalfDay,
	}

	ranked, hit, err := engine.Recommend(context.Background(), uuid.New(), prefs)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if hit {
		t.Error("first request should not be a cache hit")
	}
	if len(ranked) != 2 {
		t.Fatalf("expected 2 results, got %d", len(ranked))
	}
	if ranked[0].Name != "evening spot" {
		t.Errorf("expected evening spot first, got %s", ranked[0].Name)
	}
}

func TestEngine_Recommend_CachesPerSessionAndPrefs(t *testing.T) {
	catalog := &stubCatalog{destinations: []models.Destination{
		dest("a", models.BudgetMid, models.WindowEvening, 90, "foodie"),
	}}
	engine := NewEngine(DefaultConfig(), catalog, zerolog.Nop())

	session := uuid.New()
	prefs := models.PreferenceSet{
		BudgetBand: models.BudgetMid,
		MoodTags:   []models.MoodTag{"nightlife", "foodie"},
		TimeWindow: models.WindowEvening,
	}

	if _, hit, err := engine.Recommend(context.Background(), session, prefs); err != nil || hit {
		t.Fatalf("first request: hit=%v err=%v", hit, err)
	}

	// Same preferences with reordered tags must hit the same entry.
	reordered := prefs
	reordered.MoodTags = []models.MoodTag{"foodie", "nightlife"}
	if _, hit, err := engine.Recommend(context.Background(), session, reordered); err != nil || !hit {
		t.Fatalf("reordered-tags request: hit=%v err=%v", hit, err)
	}
	if got := catalog.calls.Load(); got != 1 {
		t.Errorf("expected 1 catalog read, got %d", got)
	}

	// A different session is a separate entry.
	if _, hit, err := engine.Recommend(context.Background(), uuid.New(), prefs); err != nil || hit {
		t.Fatalf("different-session request: hit=%v err=%v", hit, err)
	}
}

func TestEngine_Recommend_RejectsInvalidPrefs(t *testing.T) {
	engine := NewEngine(DefaultConfig(), &stubCatalog{}, zerolog.Nop())

	prefs := models.PreferenceSet{
		BudgetBand: "platinum",
		MoodTags:   []models.MoodTag{"foodie"},
		TimeWindow: models.WindowEvening,
	}
	if _, _, err := engine.Recommend(context.Background(), uuid.New(), prefs); err == nil {
		t.Fatal("expected validation error for unknown budget band")
	}
}

func TestEngine_Recommend_CatalogErrorNotCached(t *testing.T) {
	catalog := &stubCatalog{err: errors.New("store offline")}
	engine := NewEngine(DefaultConfig(), catalog, zerolog.Nop())

	session := uuid.New()
	prefs := models.PreferenceSet{
		BudgetBand: models.BudgetMid,
		MoodTags:   []models.MoodTag{"foodie"},
		TimeWindow: models.WindowEvening,
	}

	if _, _, err := engine.Recommend(context.Background(), session, prefs); err == nil {
		t.Fatal("expected catalog error to propagate")
	}

	// Recovery: the failure must not have poisoned the cache.
	catalog.err = nil
	catalog.destinations = []models.Destination{
		dest("a", models.BudgetMid, models.WindowEvening, 90, "foodie"),
	}
	ranked, _, err := engine.Recommend(context.Background(), session, prefs)
	if err != nil {
		t.Fatalf("Recommend after recovery failed: %v", err)
	}
	if len(ranked) != 1 {
		t.Errorf("expected 1 result after recovery, got %d", len(ranked))
	}
}

func TestEngine_Recommend_EmptyMatchCached(t *testing.T) {
	catalog := &stubCatalog{destinations: []models.Destination{
		dest("a", models.BudgetHigh, models.WindowEvening, 90, "foodie"),
	}}
	engine := NewEngine(DefaultConfig(), catalog, zerolog.Nop())

	session := uuid.New()
	prefs := models.PreferenceSet{
		BudgetBand: models.BudgetLow,
		MoodTags:   []models.MoodTag{"foodie"},
		TimeWindow: models.WindowEvening,
	}

	ranked, _, err := engine.Recommend(context.Background(), session, prefs)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(ranked) != 0 {
		t.Fatalf("expected empty result, got %d", len(ranked))
	}

	// An empty list is a valid, cacheable outcome.
	if _, hit, _ := engine.Recommend(context.Background(), session, prefs); !hit {
		t.Error("expected empty result to be served from cache")
	}
}

func BenchmarkEngine_Recommend(b *testing.B) {
	var destinations []models.Destination
	tags := []models.MoodTag{"foodie", "hiking", "museum", "nightlife"}
	for i := 0; i < 500; i++ {
		destinations = append(destinations, dest("d", models.BudgetMid, models.WindowEvening, float64(i), tags[i%len(tags)]))
	}
	engine := NewEngine(DefaultConfig(), &stubCatalog{destinations: destinations}, zerolog.Nop())

	prefs := models.PreferenceSet{
		BudgetBand: models.BudgetMid,
		MoodTags:   []models.MoodTag{"foodie", "museum"},
		TimeWindow: models.WindowEvening,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Distinct sessions force the full compute path.
		if _, _, err := engine.Recommend(context.Background(), uuid.New(), prefs); err != nil {
			b.Fatal(err)
		}
	}
}
