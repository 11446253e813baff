package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowStoreAllow(t *testing.T) {
	s := NewWindowStore()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	r := s.Allow("k", 2, time.Minute, start)
	assert.True(t, r.Allowed)
	assert.Equal(t, 1, r.Remaining)
	assert.Equal(t, start.Add(time.Minute), r.ResetAt)

	r = s.Allow("k", 2, time.Minute, start.Add(10*time.Second))
	assert.True(t, r.Allowed)
	assert.Equal(t, 0, r.Remaining)

	r = s.Allow("k", 2, time.Minute, start.Add(20*time.Second))
	assert.False(t, r.Allowed)
	assert.Equal(t, 40, r.RetryAfter(start.Add(20*time.Second)))

	// the first request slides out of the window
	r = s.Allow("k", 2, time.Minute, start.Add(61*time.Second))
	assert.True(t, r.Allowed)

	assert.True(t, s.Allow("other", 1, time.Minute, start).Allowed, "keys are independent")
}

func TestWindowStoreSweep(t *testing.T) {
	s := NewWindowStore()
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.Allow("old", 5, time.Minute, start)
	s.Allow("new", 5, time.Minute, start.Add(50*time.Second))

	assert.Equal(t, 1, s.Sweep(start.Add(90*time.Second)))
	assert.Equal(t, 1, s.Len())
}

func TestRetryAfterIsAtLeastOneSecond(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 1, Result{ResetAt: now}.RetryAfter(now))
	assert.Equal(t, 1, Result{ResetAt: now.Add(200 * time.Millisecond)}.RetryAfter(now))
}
