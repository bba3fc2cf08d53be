// Driftdeck - Swipe-Based Destination Recommendations
// Copyright 2026 Driftdeck Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/driftdeck/driftdeck

package ingest

import (
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/driftdeck/driftdeck/internal/logging"
	"github.com/driftdeck/driftdeck/internal/metrics"
)

// newStoreBreaker builds the circuit breaker guarding durable-store writes.
// The breaker opens after maxFailures consecutive failures and probes again
// after timeout.
func newStoreBreaker(maxFailures uint32, timeout time.Duration) *gobreaker.CircuitBreaker[any] {
	if maxFailures == 0 {
		maxFailures = 5
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "swipe-store",
		Timeout: timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			metrics.BreakerState.Set(breakerStateValue(to))
		},
	}

	return gobreaker.NewCircuitBreaker[any](settings)
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}
