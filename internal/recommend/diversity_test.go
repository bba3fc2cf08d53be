// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package recommend

import (
	"testing"

	"github.com/driftdeck/driftdeck/internal/models"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		name string
		tags []models.MoodTag
		want Category
	}{
		{"first recognized tag wins", []models.MoodTag{"foodie", "hiking"}, CategoryFood},
		{"unrecognized tags skipped", []models.MoodTag{"mystery", "museum"}, CategoryCulture},
		{"no recognized tag", []models.MoodTag{"mystery", "unknown"}, CategoryOther},
		{"no tags at all", nil, CategoryOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := models.Destination{Tags: tt.tags}
			if got := CategoryOf(d); got != tt.want {
				t.Errorf("CategoryOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRank_BreaksUpCategoryRuns(t *testing.T) {
	// Three food destinations lead on popularity; a nature one is available.
	candidates := []models.Destination{
		dest("f1", models.BudgetMid, models.WindowEvening, 95, "foodie"),
		dest("f2", models.BudgetMid, models.WindowEvening, 90, "foodie"),
		dest("f3", models.BudgetMid, models.WindowEvening, 85, "foodie"),
		dest("n1", models.BudgetMid, models.WindowEvening, 80, "hiking"),
	}

	ranked := Rank(candidates, 20, 2)

	want := []string{"f1", "f2", "n1", "f3"}
	if len(ranked) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(ranked))
	}
	for i, name := range want {
		if ranked[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, ranked[i].Name)
		}
	}
	if v := ScanViolations(ranked); len(v) != 0 {
		t.Errorf("unexpected diversity violations at %v", v)
	}
}

func TestRank_FallsBackWhenNoAlternative(t *testing.T) {
	candidates := []models.Destination{
		dest("f1", models.BudgetMid, models.WindowEvening, 95, "foodie"),
		dest("f2", models.BudgetMid, models.WindowEvening, 90, "foodie"),
		dest("f3", models.BudgetMid, models.WindowEvening, 85, "foodie"),
	}

	ranked := Rank(candidates, 20, 2)

	// All one category: a three-long run beats stalling.
	if len(ranked) != 3 {
		t.Fatalf("expected all 3 candidates ranked, got %d", len(ranked))
	}
	for i, name := range []string{"f1", "f2", "f3"} {
		if ranked[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, ranked[i].Name)
		}
	}
	if v := ScanViolations(ranked); len(v) != 1 || v[0] != 2 {
		t.Errorf("expected a recorded run at position 2, got %v", v)
	}
}

func TestRank_FirstTwoUnconditional(t *testing.T) {
	candidates := []models.Destination{
		dest("f1", models.BudgetMid, models.WindowEvening, 95, "foodie"),
		dest("f2", models.BudgetMid, models.WindowEvening, 90, "foodie"),
		dest("n1", models.BudgetMid, models.WindowEvening, 85, "hiking"),
	}

	ranked := Rank(candidates, 20, 2)

	// The diversity rule never reorders the first two picks.
	if ranked[0].Name != "f1" || ranked[1].Name != "f2" {
		t.Errorf("expected f1, f2 leading, got %s, %s", ranked[0].Name, ranked[1].Name)
	}
}

func TestRank_OutputCap(t *testing.T) {
	var candidates []models.Destination
	for i := 0; i < 30; i++ {
		tag := models.MoodTag("foodie")
		if i%2 == 0 {
			tag = "hiking"
		}
		candidates = append(candidates, dest("d", models.BudgetMid, models.WindowEvening, float64(100-i), tag))
	}

	ranked := Rank(candidates, 20, 2)
	if len(ranked) != 20 {
		t.Errorf("expected output capped at 20, got %d", len(ranked))
	}
}

func TestRank_EmptyInput(t *testing.T) {
	if got := Rank(nil, 20, 2); len(got) != 0 {
		t.Errorf("expected empty output for empty input, got %d", len(got))
	}
}

func TestRank_PreservesPopularityWithinEligible(t *testing.T) {
	// Alternating categories never trip the diversity rule, so the output
	// must be the input order.
	candidates := []models.Destination{
		dest("a", models.BudgetMid, models.WindowEvening, 95, "foodie"),
		dest("b", models.BudgetMid, models.WindowEvening, 90, "hiking"),
		dest("c", models.BudgetMid, models.WindowEvening, 85, "foodie"),
		dest("d", models.BudgetMid, models.WindowEvening, 80, "hiking"),
	}

	ranked := Rank(candidates, 20, 2)
	for i, name := range []string{"a", "b", "c", "d"} {
		if ranked[i].Name != name {
			t.Errorf("position %d: expected %s, got %s", i, name, ranked[i].Name)
		}
	}
}

func TestScanViolations(t *testing.T) {
	list := []models.Destination{
		dest("f1", models.BudgetMid, models.WindowEvening, 95, "foodie"),
		dest("f2", models.BudgetMid, models.WindowEvening, 90, "foodie"),
		dest("f3", models.BudgetMid, models.WindowEvening, 85, "foodie"),
		dest("f4", models.BudgetMid, models.WindowEvening, 80, "foodie"),
		dest("n1", models.BudgetMid, models.WindowEvening, 75, "hiking"),
	}

	got := ScanViolations(list)
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Errorf("expected violations at [2 3], got %v", got)
	}
}
