// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestLRUCache_BasicOperations(t *testing.T) {
	cache := New[string, int](3, time.Minute, 0)

	cache.Add("a", 1)
	cache.Add("b", 2)
	cache.Add("c", 3)

	if v, found := cache.Get("a"); !found || v != 1 {
		t.Errorf("Expected to find key 'a' with value 1, got %d found=%v", v, found)
	}
	if _, found := cache.Get("b"); !found {
		t.Error("Expected to find key 'b'")
	}
	if _, found := cache.Get("missing"); found {
		t.Error("Did not expect to find key 'missing'")
	}

	if cache.Len() != 3 {
		t.Errorf("Expected len 3, got %d", cache.Len())
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	cache := New[string, int](3, time.Minute, 0)

	cache.Add("a", 1)
	cache.Add("b", 2)
	cache.Add("c", 3)

	// Access 'a' to make it most recently used
	cache.Get("a")

	// Add new item, should evict 'b' (least recently used)
	cache.Add("d", 4)

	if _, found := cache.Get("b"); found {
		t.Error("Expected 'b' to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, found := cache.Get(key); !found {
			t.Errorf("Expected %q to be present", key)
		}
	}
}

func TestLRUCache_EvictCallback(t *testing.T) {
	cache := New[string, int](2, time.Minute, 0)

	var evicted []string
	var reasons []EvictReason
	cache.OnEvict = func(key string, reason EvictReason) {
		evicted = append(evicted, key)
		reasons = append(reasons, reason)
	}

	cache.Add("a", 1)
	cache.Add("b", 2)
	cache.Add("c", 3)

	if len(evicted) != 1 || evicted[0] != "a" {
		t.Errorf("Expected capacity eviction of 'a', got %v", evicted)
	}
	if reasons[0] != EvictCapacity {
		t.Errorf("Expected reason %q, got %q", EvictCapacity, reasons[0])
	}
}

func TestLRUCache_TTLExpiration(t *testing.T) {
	cache := New[string, int](10, 50*time.Millisecond, 0)

	cache.Add("a", 1)

	if _, found := cache.Get("a"); !found {
		t.Error("Expected to find key 'a' immediately")
	}

	time.Sleep(60 * time.Millisecond)

	if _, found := cache.Get("a"); found {
		t.Error("Expected key 'a' to be expired")
	}
}

func TestLRUCache_TTLNotExtendedByGet(t *testing.T) {
	cache := New[string, int](10, 80*time.Millisecond, 0)

	cache.Add("a", 1)

	// Keep hitting the entry; hits must not push out its expiry.
	for i := 0; i < 4; i++ {
		time.Sleep(25 * time.Millisecond)
		cache.Get("a")
	}

	if _, found := cache.Get("a"); found {
		t.Error("Expected entry to expire at its original deadline despite hits")
	}
}

func TestLRUCache_AddResetsTTL(t *testing.T) {
	cache := New[string, int](10, 60*time.Millisecond, 0)

	cache.Add("a", 1)
	time.Sleep(40 * time.Millisecond)
	cache.Add("a", 2)
	time.Sleep(40 * time.Millisecond)

	// 80ms after the first insert but only 40ms after the re-insert.
	if v, found := cache.Get("a"); !found || v != 2 {
		t.Errorf("Expected re-inserted entry to be live with value 2, got %d found=%v", v, found)
	}
}

func TestLRUCache_SweepOnInsert(t *testing.T) {
	// sweepPercent 100 sweeps on every insert.
	cache := New[string, int](10, 30*time.Millisecond, 100)

	cache.Add("a", 1)
	cache.Add("b", 2)
	time.Sleep(40 * time.Millisecond)

	cache.Add("c", 3)

	// The insert of 'c' should have swept the expired 'a' and 'b' without
	// either being accessed.
	if cache.Len() != 1 {
		t.Errorf("Expected sweep to leave 1 entry, got %d", cache.Len())
	}
}

func TestLRUCache_CleanupExpired(t *testing.T) {
	cache := New[string, int](10, 30*time.Millisecond, 0)

	cache.Add("a", 1)
	cache.Add("b", 2)
	time.Sleep(40 * time.Millisecond)
	cache.Add("c", 3)

	removed := cache.CleanupExpired()
	if removed != 2 {
		t.Errorf("Expected 2 expired entries removed, got %d", removed)
	}
	if cache.Len() != 1 {
		t.Errorf("Expected 1 entry after cleanup, got %d", cache.Len())
	}
}

func TestLRUCache_GetOrCompute(t *testing.T) {
	cache := New[string, int](10, time.Minute, 0)

	computes := 0
	compute := func() (int, error) {
		computes++
		return 42, nil
	}

	v, hit, err := cache.GetOrCompute("k", compute)
	if err != nil {
		t.Fatalf("GetOrCompute failed: %v", err)
	}
	if hit || v != 42 {
		t.Errorf("Expected computed miss with value 42, got %d hit=%v", v, hit)
	}

	v, hit, err = cache.GetOrCompute("k", compute)
	if err != nil {
		t.Fatalf("GetOrCompute failed: %v", err)
	}
	if !hit || v != 42 {
		t.Errorf("Expected cache hit with value 42, got %d hit=%v", v, hit)
	}
	if computes != 1 {
		t.Errorf("Expected exactly 1 compute, got %d", computes)
	}
}

func TestLRUCache_GetOrCompute_ErrorNotCached(t *testing.T) {
	cache := New[string, int](10, time.Minute, 0)

	wantErr := errors.New("catalog unavailable")
	_, _, err := cache.GetOrCompute("k", func() (int, error) {
		return 0, wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("Expected compute error to propagate, got %v", err)
	}

	// The failed compute must not leave an entry behind.
	if cache.Len() != 0 {
		t.Errorf("Expected empty cache after failed compute, got %d entries", cache.Len())
	}
}

func TestLRUCache_Remove(t *testing.T) {
	cache := New[string, int](10, time.Minute, 0)

	cache.Add("a", 1)

	if !cache.Remove("a") {
		t.Error("Expected Remove to return true for existing key")
	}
	if cache.Remove("a") {
		t.Error("Expected Remove to return false for non-existing key")
	}
}

func TestLRUCache_Stats(t *testing.T) {
	cache := New[string, int](10, time.Minute, 0)

	cache.Add("a", 1)
	cache.Get("a")
	cache.Get("a")
	cache.Get("missing")

	hits, misses, size := cache.Stats()
	if hits != 2 {
		t.Errorf("Expected 2 hits, got %d", hits)
	}
	if misses != 1 {
		t.Errorf("Expected 1 miss, got %d", misses)
	}
	if size != 1 {
		t.Errorf("Expected size 1, got %d", size)
	}
}

func TestLRUCache_ConcurrentAccess(t *testing.T) {
	cache := New[string, int](100, time.Minute, 10)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("key-%d", j%150)
				if j%3 == 0 {
					cache.Add(key, worker)
				} else {
					cache.Get(key)
				}
			}
		}(i)
	}
	wg.Wait()

	if cache.Len() > 100 {
		t.Errorf("Cache exceeded capacity: %d", cache.Len())
	}
}

func BenchmarkLRUCache_Get(b *testing.B) {
	cache := New[string, int](100, time.Minute, 0)
	for i := 0; i < 100; i++ {
		cache.Add(fmt.Sprintf("key-%d", i), i)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Get(fmt.Sprintf("key-%d", i%100))
	}
}

func BenchmarkLRUCache_Add(b *testing.B) {
	cache := New[string, int](100, time.Minute, 10)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cache.Add(fmt.Sprintf("key-%d", i%200), i)
	}
}
