package cache

import (
	"math/rand"
	"time"
)

// addJitter spreads out circuit breaker half-open probes so concurrent
// search_builds callers don't all retry the instant the reset timeout
// elapses.
func addJitter(baseTimeout time.Duration, jitterPercent float64) time.Duration {
	if jitterPercent <= 0 || jitterPercent > 1.0 {
		jitterPercent = 0.1
	}

	maxJitter := float64(baseTimeout) * jitterPercent
	jitter := time.Duration(rand.Float64() * maxJitter)

	return baseTimeout + jitter
}
