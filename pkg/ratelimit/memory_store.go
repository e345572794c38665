package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the process-local counter backend for single-instance or
// development deployments. A background sweep evicts expired buckets so
// long-running processes do not accumulate dead keys.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter

	sweepInterval time.Duration
	stopSweep     chan struct{}
	stopOnce      sync.Once

	now func() time.Time // injectable for window-boundary tests
}

type counter struct {
	count     int64
	expiresAt time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithSweepInterval sets how often expired buckets are evicted.
func WithSweepInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an in-memory store and starts its cleanup sweep.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		counters:      make(map[string]*counter),
		sweepInterval: time.Minute,
		stopSweep:     make(chan struct{}),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	go s.sweepLoop()

	return s
}

// IncrementAndGet atomically bumps the counter for key's current window.
// A missing or expired bucket is initialized to 1 with the window's
// aligned expiry.
func (s *MemoryStore) IncrementAndGet(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	_, end := windowBounds(now, window)

	c, ok := s.counters[key]
	if !ok || !now.Before(c.expiresAt) {
		c = &counter{count: 1, expiresAt: end}
		s.counters[key] = c
		return 1, end, nil
	}

	c.count++
	return c.count, c.expiresAt, nil
}

func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopSweep:
			return
		}
	}
}

func (s *MemoryStore) sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, c := range s.counters {
		if !now.Before(c.expiresAt) {
			delete(s.counters, key)
		}
	}
}

// Close stops the cleanup sweep. Safe to call more than once.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopSweep) })
	return nil
}
