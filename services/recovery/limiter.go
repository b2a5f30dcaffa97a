package recovery

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces the resend cooldown per composite key.
// All implementations must be safe for concurrent access.
type RateLimiter interface {
	// ShouldBlock reports whether a new issuance for the key is inside
	// the cooldown window, and if so, how long until it reopens
	ShouldBlock(ctx context.Context, key CompositeKey, now time.Time) (bool, time.Duration, error)

	// Mark upserts the last-issued timestamp for the key. It is called
	// optimistically, before the outbound dispatch completes.
	Mark(ctx context.Context, key CompositeKey, now time.Time) error

	// Clear removes the entry; used only by the rollback path
	Clear(ctx context.Context, key CompositeKey) error
}

// MemoryRateLimiter is the single-instance RateLimiter counterpart of
// MemoryCodeStore: a mutex-guarded map of last-issued timestamps.
type MemoryRateLimiter struct {
	mu         sync.Mutex
	lastIssued map[CompositeKey]time.Time
}

// NewMemoryRateLimiter creates an empty in-memory rate limiter
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{
		lastIssued: make(map[CompositeKey]time.Time),
	}
}

func (l *MemoryRateLimiter) ShouldBlock(_ context.Context, key CompositeKey, now time.Time) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	last, ok := l.lastIssued[key]
	if !ok {
		return false, 0, nil
	}
	elapsed := now.Sub(last)
	if elapsed >= ResendCooldown {
		return false, 0, nil
	}
	return true, ResendCooldown - elapsed, nil
}

func (l *MemoryRateLimiter) Mark(_ context.Context, key CompositeKey, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lastIssued[key] = now
	return nil
}

func (l *MemoryRateLimiter) Clear(_ context.Context, key CompositeKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.lastIssued, key)
	return nil
}
