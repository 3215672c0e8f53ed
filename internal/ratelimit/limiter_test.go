package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestLimiterBlocksAfterMaxAndRecovers(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewLoginLimiter(WithClock(clock.Now))

	for i := 0; i < 5; i++ {
		require.True(t, limiter.Allow("1.2.3.4"), "attempt %d should be allowed", i+1)
		limiter.Record("1.2.3.4")
	}
	assert.False(t, limiter.Allow("1.2.3.4"))
	assert.True(t, limiter.Allow("5.6.7.8"), "keys are independent")

	clock.Advance(15*time.Minute + time.Second)
	assert.True(t, limiter.Allow("1.2.3.4"))
}

func TestLimiterSlidingWindow(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	limiter := NewCommentLimiter(WithClock(clock.Now))

	limiter.Record("ip")
	clock.Advance(5 * time.Minute)
	limiter.Record("ip")
	limiter.Record("ip")
	assert.False(t, limiter.Allow("ip"))

	// the first attempt falls out of the window, the other two stay
	clock.Advance(5 * time.Minute)
	assert.True(t, limiter.Allow("ip"))
	limiter.Record("ip")
	assert.False(t, limiter.Allow("ip"))
}

func TestLimiterAllowDoesNotRecord(t *testing.T) {
	limiter := New(1, time.Minute)
	for i := 0; i < 10; i++ {
		assert.True(t, limiter.Allow("k"))
	}
}

func TestPruneDropsEmptyKeys(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := New(3, time.Minute, WithClock(clock.Now))
	limiter.Record("a")
	limiter.Record("b")
	assert.Equal(t, 2, limiter.Prune())

	clock.Advance(time.Minute)
	assert.Equal(t, 0, limiter.Prune())
}

func TestLimiterConcurrentUse(t *testing.T) {
	limiter := New(1000, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				limiter.Allow("shared")
				limiter.Record("shared")
			}
		}()
	}
	wg.Wait()
	assert.True(t, limiter.Allow("shared"))
	assert.Equal(t, 1, limiter.Prune())
}
