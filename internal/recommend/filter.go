// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package recommend

import "github.com/driftdeck/driftdeck/internal/models"

// windowCompat maps each requested time window to the destination windows it
// accepts. An evening request tolerates half-day destinations and vice versa;
// a full-day request tolerates half-day destinations but not evening ones.
var windowCompat = map[models.TimeWindow][]models.TimeWindow{
	models.WindowEvening: {models.WindowEvening, models.WindowHalfDay},
	models.WindowHalfDay: {models.WindowHalfDay, models.WindowEvening},
	models.WindowFullDay: {models.WindowFullDay, models.WindowHalfDay},
}

// windowCompatible reports whether a destination window satisfies the
// requested window.
func windowCompatible(requested, destination models.TimeWindow) bool {
	for _, w := range windowCompat[requested] {
		if destination == w {
			return true
		}
	}
	return false
}

// Filter returns the destinations matching a preference set. A destination
// passes when all three predicates hold:
//   - budget band matches exactly
//   - time window is in the requested window's compatibility set
//   - the tag sets intersect (OR semantics across the requested mood tags)
//
// Filter is pure: it never errors, and an empty catalog or an all-miss
// preference set yields an empty slice.
func Filter(catalog []models.Destination, prefs models.PreferenceSet) []models.Destination {
	matched := make([]models.Destination, 0, len(catalog))
	for _, d := range catalog {
		if d.BudgetBand != prefs.BudgetBand {
			continue
		}
		if !windowCompatible(prefs.TimeWindow, d.TimeWindow) {
			continue
		}
		if !anyTagMatch(d, prefs.MoodTags) {
			continue
		}
		matched = append(matched, d)
	}
	return matched
}

func anyTagMatch(d models.Destination, tags []models.MoodTag) bool {
	for _, t := range tags {
		if d.HasTag(t) {
			return true
		}
	}
	return false
}
