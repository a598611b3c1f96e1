package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps request logs in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	logs map[string][]time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{logs: make(map[string][]time.Time)}
}

// Hit implements Store.
func (s *MemoryStore) Hit(_ context.Context, key string, now time.Time, window time.Duration, limit int) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := prune(s.logs[key], now, window)
	if len(recent) >= limit {
		s.logs[key] = recent
		return len(recent), false, nil
	}
	recent = append(recent, now)
	s.logs[key] = recent
	return len(recent), true, nil
}

// Sweep drops keys whose logs are empty after pruning and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, log := range s.logs {
		recent := prune(log, now, window)
		if len(recent) == 0 {
			delete(s.logs, key)
			removed++
			continue
		}
		s.logs[key] = recent
	}
	return removed
}

// RunSweeper sweeps idle keys every interval until ctx is done.
func (s *MemoryStore) RunSweeper(ctx context.Context, clock Clock, interval, window time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(clock.Now(), window)
		}
	}
}

// Len returns the number of tracked keys.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

// prune keeps timestamps strictly newer than now-window. Callers read the
// clock before taking the lock, so the log is only roughly ordered.
func prune(log []time.Time, now time.Time, window time.Duration) []time.Time {
	cutoff := now.Add(-window)
	kept := log[:0]
	for _, ts := range log {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
