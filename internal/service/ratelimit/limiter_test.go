package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyedLimiterBurstAndRefill(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewKeyed(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestKeyedLimiterDropsIdleBuckets(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewKeyed(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(time.Hour)
	l.Allow("b")
	_, ok := l.m["a"]
	assert.False(t, ok)
}

func TestUpstreamBackoff(t *testing.T) {
	u := NewUpstream("yahoo", 600)
	assert.Equal(t, minBackoff, u.Backoff())

	u.SignalRateLimited()
	assert.Equal(t, 2*minBackoff, u.Backoff())
	u.SignalRateLimited()
	assert.Equal(t, 4*minBackoff, u.Backoff())

	u.ResetBackoff()
	assert.Equal(t, minBackoff, u.Backoff())
	require.NoError(t, u.Wait(context.Background()))
}

func TestUpstreamWaitHonoursContext(t *testing.T) {
	u := NewUpstream("yahoo", 600)
	u.SignalRateLimited()
	u.mu.Lock()
	u.until = time.Now().Add(time.Hour)
	u.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, u.Wait(ctx), context.DeadlineExceeded)
}
