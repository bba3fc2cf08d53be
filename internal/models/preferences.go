// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// PreferenceSet is the filter input for one recommendation request. It also
// serves as the cache-key fingerprint for the request, so its encoding must
// be order-independent with respect to mood tags.
type PreferenceSet struct {
	BudgetBand BudgetBand `json:"budget_band"`
	MoodTags   []MoodTag  `json:"mood_tags"`
	TimeWindow TimeWindow `json:"time_window"`
}

// Validate checks that all fields carry known values and at least one mood
// tag is present.
func (p *PreferenceSet) Validate() error {
	if !p.BudgetBand.Valid() {
		return fmt.Errorf("invalid budget band %q", p.BudgetBand)
	}
	if !p.TimeWindow.Valid() {
		return fmt.Errorf("invalid time window %q", p.TimeWindow)
	}
	if len(p.MoodTags) == 0 {
		return fmt.Errorf("at least one mood tag required")
	}
	return nil
}

// Fingerprint returns a deterministic, order-independent content hash of the
// preference set. Mood tags are canonicalized by sorting before hashing, so
// two requests with the same tags in different order produce the same key.
func (p *PreferenceSet) Fingerprint() string {
	tags := make([]string, len(p.MoodTags))
	for i, t := range p.MoodTags {
		tags[i] = string(t)
	}
	sort.Strings(tags)

	canonical := string(p.BudgetBand) + "|" + string(p.TimeWindow) + "|" + strings.Join(tags, ",")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:16])
}
