// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package recommend

import "github.com/driftdeck/driftdeck/internal/models"

// Rank reorders popularity-sorted candidates so that no more than
// maxConsecutive items in a row share a category, whenever an alternative
// category remains among the unplaced candidates. Output length is capped at
// maxOutput.
//
// Selection is greedy: the first maxConsecutive picks are unconditional, and
// from then on, whenever the trailing maxConsecutive output items share a
// category, the scan skips ahead to the first remaining candidate of a
// different category. If every remaining candidate has the avoided category
// the next one is taken anyway; a longer same-category run beats stalling.
// Within each eligible subset, popularity order is the tie-break.
func Rank(candidates []models.Destination, maxOutput, maxConsecutive int) []models.Destination {
	if maxOutput <= 0 || len(candidates) == 0 {
		return []models.Destination{}
	}
	if maxConsecutive < 1 {
		maxConsecutive = 1
	}

	remaining := make([]models.Destination, len(candidates))
	copy(remaining, candidates)

	out := make([]models.Destination, 0, min(maxOutput, len(remaining)))
	outCats := make([]Category, 0, cap(out))

	for len(remaining) > 0 && len(out) < maxOutput {
		pick := 0
		if avoided, run := trailingRun(outCats, maxConsecutive); run {
			pick = -1
			for i, d := range remaining {
				if CategoryOf(d) != avoided {
					pick = i
					break
				}
			}
			if pick < 0 {
				// No alternative category left.
				pick = 0
			}
		}

		d := remaining[pick]
		out = append(out, d)
		outCats = append(outCats, CategoryOf(d))
		remaining = append(remaining[:pick], remaining[pick+1:]...)
	}

	return out
}

// trailingRun reports whether the last n categories are all equal, and if so
// which category must be avoided on the next pick.
func trailingRun(cats []Category, n int) (Category, bool) {
	if len(cats) < n {
		return "", false
	}
	last := cats[len(cats)-1]
	for i := len(cats) - n; i < len(cats); i++ {
		if cats[i] != last {
			return "", false
		}
	}
	return last, true
}

// ScanViolations returns the positions i where the items at i, i-1, and i-2
// all share a category. Used for monitoring and tests, not enforcement: a
// position can legally appear here when no alternative category existed at
// that step.
func ScanViolations(ranked []models.Destination) []int {
	var violations []int
	for i := 2; i < len(ranked); i++ {
		c := CategoryOf(ranked[i])
		if CategoryOf(ranked[i-1]) == c && CategoryOf(ranked[i-2]) == c {
			violations = append(violations, i)
		}
	}
	return violations
}
