// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

// Package recommend implements the recommendation pipeline: preference
// filtering, diversity-aware ranking, and a memoizing cache in front of both.
package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/driftdeck/driftdeck/internal/cache"
	"github.com/driftdeck/driftdeck/internal/metrics"
	"github.com/driftdeck/driftdeck/internal/models"
)

// CatalogProvider supplies the destination catalog. One call returns a
// snapshot sufficient for a full ranking pass. Typically implemented by the
// database layer.
type CatalogProvider interface {
	ListDestinations(ctx context.Context) ([]models.Destination, error)
}

// Config tunes the engine.
type Config struct {
	// MaxResults caps the ranked output length.
	MaxResults int
	// MaxConsecutive is the same-category run limit enforced during ranking.
	MaxConsecutive int
	// CacheMaxSize is the entry cap before LRU eviction.
	CacheMaxSize int
	// CacheTTL is the entry lifetime, measured from insertion.
	CacheTTL time.Duration
	// CacheSweepPercent is the chance an insert sweeps expired entries.
	CacheSweepPercent int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxResults:        20,
		MaxConsecutive:    2,
		CacheMaxSize:      100,
		CacheTTL:          120 * time.Second,
		CacheSweepPercent: 10,
	}
}

// cacheKey identifies a cached recommendation list. The composite of session
// and preference fingerprint keeps entries per-session without string
// concatenation.
type cacheKey struct {
	sessionID   uuid.UUID
	fingerprint string
}

// Engine computes recommendation lists. It is safe for concurrent use.
type Engine struct {
	cfg     Config
	catalog CatalogProvider
	cache   *cache.LRUCache[cacheKey, []models.Destination]
	logger  zerolog.Logger
}

// NewEngine creates a recommendation engine backed by the given catalog.
func NewEngine(cfg Config, catalog CatalogProvider, logger zerolog.Logger) *Engine {
	def := DefaultConfig()
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.MaxConsecutive <= 0 {
		cfg.MaxConsecutive = def.MaxConsecutive
	}
	if cfg.CacheMaxSize <= 0 {
		cfg.CacheMaxSize = def.CacheMaxSize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = def.CacheTTL
	}

	c := cache.New[cacheKey, []models.Destination](cfg.CacheMaxSize, cfg.CacheTTL, cfg.CacheSweepPercent)
	c.OnEvict = func(_ cacheKey, reason cache.EvictReason) {
		metrics.RecommendationCacheEvictions.WithLabelValues(string(reason)).Inc()
	}

	return &Engine{
		cfg:     cfg,
		catalog: catalog,
		cache:   c,
		logger:  logger.With().Str("component", "recommend").Logger(),
	}
}

// Recommend returns the ranked destination list for a session's preferences.
// The bool result reports whether the list was served from cache. Results are
// memoized per (session, preference fingerprint) so repeated identical
// requests within the TTL skip the catalog read entirely.
func (e *Engine) Recommend(ctx context.Context, sessionID uuid.UUID, prefs models.PreferenceSet) ([]models.Destination, bool, error) {
	if err := prefs.Validate(); err != nil {
		return nil, false, fmt.Errorf("invalid preferences: %w", err)
	}

	key := cacheKey{sessionID: sessionID, fingerprint: prefs.Fingerprint()}

	ranked, hit, err := e.cache.GetOrCompute(key, func() ([]models.Destination, error) {
		return e.compute(ctx, prefs)
	})
	if err != nil {
		return nil, false, err
	}

	if hit {
		metrics.RecommendationCacheHits.Inc()
	} else {
		metrics.RecommendationCacheMisses.Inc()
	}
	_, _, size := e.cache.Stats()
	metrics.RecommendationCacheEntries.Set(float64(size))
	metrics.RecommendationResults.Observe(float64(len(ranked)))

	e.logger.Debug().
		Str("session_id", sessionID.String()).
		Str("fingerprint", key.fingerprint).
		Bool("cache_hit", hit).
		Int("results", len(ranked)).
		Msg("Recommendations served")

	return ranked, hit, nil
}

// compute runs the full pipeline: catalog snapshot, filter, popularity sort,
// diversity ranking.
func (e *Engine) compute(ctx context.Context, prefs models.PreferenceSet) ([]models.Destination, error) {
	start := time.Now()

	catalog, err := e.catalog.ListDestinations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list destinations: %w", err)
	}

	candidates := Filter(catalog, prefs)

	// Rank expects candidates pre-sorted by popularity descending. The sort
	// is stable so catalog order breaks ties deterministically.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].PopularityScore > candidates[j].PopularityScore
	})

	ranked := Rank(candidates, e.cfg.MaxResults, e.cfg.MaxConsecutive)

	metrics.RecommendationComputeDuration.Observe(time.Since(start).Seconds())

	e.logger.Debug().
		Int("catalog_size", len(catalog)).
		Int("filtered", len(candidates)).
		Int("ranked", len(ranked)).
		Dur("elapsed", time.Since(start)).
		Msg("Recommendation list computed")

	return ranked, nil
}

// CacheStats exposes cache hit/miss counts and current size for the
// observability surface.
func (e *Engine) CacheStats() (hits, misses int64, size int) {
	return e.cache.Stats()
}

// InvalidateCache drops every cached list. Used when the catalog changes.
func (e *Engine) InvalidateCache() {
	e.cache.Clear()
	metrics.RecommendationCacheEntries.Set(0)
}
