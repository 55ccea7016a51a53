package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterStartsFull(t *testing.T) {
	l := New()

	assert.True(t, l.Allow("k", 2, 1))
	assert.True(t, l.Allow("k", 2, 1))
	assert.False(t, l.Allow("k", 2, 1))
}

func TestLimiterRefills(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("k", 1, 2))
	assert.False(t, l.Allow("k", 1, 2))

	now = now.Add(500 * time.Millisecond)
	assert.True(t, l.Allow("k", 1, 2))
}

func TestLimiterRefillCapped(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	l := New()
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("k", 1, 1))

	// A long idle period must not bank more than capacity.
	now = now.Add(time.Hour)
	assert.True(t, l.Allow("k", 1, 1))
	assert.False(t, l.Allow("k", 1, 1))
}

func TestLimiterKeysIndependent(t *testing.T) {
	l := New()

	assert.True(t, l.Allow("a", 1, 1))
	assert.False(t, l.Allow("a", 1, 1))
	assert.True(t, l.Allow("b", 1, 1))
}
