// Package ratelimit counts attempts per key over a sliding window.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter allows at most max attempts per key within window.
type Limiter struct {
	mu       sync.Mutex
	max      int
	window   time.Duration
	attempts map[string][]time.Time
	now      func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		l.now = now
	}
}

// New builds a limiter for max attempts per window.
func New(max int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		max:      max,
		window:   window,
		attempts: make(map[string][]time.Time),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewLoginLimiter allows 5 login attempts per 15 minutes.
func NewLoginLimiter(opts ...Option) *Limiter {
	return New(5, 15*time.Minute, opts...)
}

// NewCommentLimiter allows 3 comments per 10 minutes.
func NewCommentLimiter(opts ...Option) *Limiter {
	return New(3, 10*time.Minute, opts...)
}

// Allow reports whether key has attempts left. It does not record one.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.purge(key, l.now())) < l.max
}

// Record stores an attempt for key.
func (l *Limiter) Record(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.attempts[key] = append(l.purge(key, now), now)
}

// Prune drops expired attempts for every key and returns how many keys remain.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key := range l.attempts {
		l.purge(key, now)
	}
	return len(l.attempts)
}

// Window returns the sliding window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// purge must be called with mu held.
func (l *Limiter) purge(key string, now time.Time) []time.Time {
	entries, ok := l.attempts[key]
	if !ok {
		return nil
	}

	cutoff := now.Add(-l.window)
	kept := entries[:0]
	for _, at := range entries {
		if at.After(cutoff) {
			kept = append(kept, at)
		}
	}
	if len(kept) == 0 {
		delete(l.attempts, key)
		return nil
	}
	l.attempts[key] = kept
	return kept
}
