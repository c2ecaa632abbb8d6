package util

import (
	"math/rand"
	"time"
)

// RandomBetween returns a uniformly distributed integer in [min, max]
// inclusive. Degenerate bounds are clamped rather than rejected: negative
// values become 0, and max < min collapses to min.
func RandomBetween(min, max int) int {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return rand.Intn(max-min+1) + min
}

// RandomSeconds draws an inter-message pacing delay from [min, max] seconds.
func RandomSeconds(min, max int) time.Duration {
	return time.Duration(RandomBetween(min, max)) * time.Second
}

// RandomMillis draws a typing-simulation delay from [min, max] milliseconds.
func RandomMillis(min, max int) time.Duration {
	return time.Duration(RandomBetween(min, max)) * time.Millisecond
}
