// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package recommend

import "github.com/driftdeck/driftdeck/internal/models"

// Category is the coarse grouping used by the diversity rule. Every
// destination maps to exactly one category.
type Category string

// Categories. CategoryOther is the fallback for destinations whose tags are
// all unrecognized.
const (
	CategoryFood      Category = "food"
	CategoryCulture   Category = "culture"
	CategoryNature    Category = "nature"
	CategoryNightlife Category = "nightlife"
	CategoryWellness  Category = "wellness"
	CategoryAdventure Category = "adventure"
	CategoryShopping  Category = "shopping"
	CategoryOther     Category = "other"
)

// tagCategories is the fixed tag to category table. Lookup is closed: tags
// outside this table never produce a new category.
var tagCategories = map[models.MoodTag]Category{
	"foodie":    CategoryFood,
	"coffee":    CategoryFood,
	"streetfood": CategoryFood,

	"culture": CategoryCulture,
	"museum":  CategoryCulture,
	"history": CategoryCulture,
	"art":     CategoryCulture,

	"nature": CategoryNature,
	"hiking": CategoryNature,
	"beach":  CategoryNature,
	"parks":  CategoryNature,

	"nightlife": CategoryNightlife,
	"livemusic": CategoryNightlife,
	"cocktails": CategoryNightlife,

	"wellness": CategoryWellness,
	"spa":      CategoryWellness,

	"adventure": CategoryAdventure,
	"sports":    CategoryAdventure,

	"shopping": CategoryShopping,
	"market":   CategoryShopping,
}

// CategoryOf returns the primary category for a destination: the category of
// the first tag, in the destination's own tag order, that appears in the
// lookup table. Destinations with no recognized tag map to CategoryOther.
func CategoryOf(d models.Destination) Category {
	for _, tag := range d.Tags {
		if cat, ok := tagCategories[tag]; ok {
			return cat
		}
	}
	return CategoryOther
}
