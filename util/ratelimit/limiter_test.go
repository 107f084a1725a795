package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllowEnforcesBurstPerKey(t *testing.T) {
	now := time.Date(2025, 4, 5, 14, 30, 0, 0, time.UTC)
	l := New(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("alice"))
	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))

	// other callers have their own bucket
	assert.True(t, l.Allow("bob"))

	now = now.Add(time.Second)
	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))
}

func TestDisabledLimiterAllowsEverything(t *testing.T) {
	l := New(0, 1)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("alice"))
	}

	var nilLimiter *UserLimiter
	assert.True(t, nilLimiter.Allow("alice"))
}

func TestPruneDropsIdleBuckets(t *testing.T) {
	now := time.Date(2025, 4, 5, 14, 30, 0, 0, time.UTC)
	l := New(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("alice")
	now = now.Add(30 * time.Second)
	l.Allow("bob")
	now = now.Add(45 * time.Second)

	assert.Equal(t, 1, l.Prune(time.Minute))
	assert.Len(t, l.limiters, 1)
	assert.Contains(t, l.limiters, "bob")
}
