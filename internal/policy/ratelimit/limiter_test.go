package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

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

type failingStore struct{}

func (failingStore) Hit(context.Context, string, time.Time, time.Duration, int) (int, bool, error) {
	return 0, false, errors.New("store down")
}

func newTestLimiter(t *testing.T, store Store, clock Clock) *Limiter {
	t.Helper()
	l, err := New(store, clock, Config{Window: 60000 * time.Millisecond, Max: 10})
	require.NoError(t, err)
	return l
}

func TestLimiter_EleventhRequestRejected(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l := newTestLimiter(t, NewMemoryStore(), clock)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		dec, err := l.Allow(ctx, "198.51.100.1")
		require.NoError(t, err)
		require.True(t, dec.Allowed, "request %d should pass", i+1)
		require.Equal(t, 10-(i+1), dec.Remaining)
		clock.Advance(time.Second)
	}

	dec, err := l.Allow(ctx, "198.51.100.1")
	require.NoError(t, err)
	require.False(t, dec.Allowed)
	require.Equal(t, 60, dec.RetryAfterSeconds())
	require.Equal(t, 0, dec.Remaining)
}

func TestLimiter_ResetsAfterWindow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l := newTestLimiter(t, NewMemoryStore(), clock)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		dec, err := l.Allow(ctx, "client")
		require.NoError(t, err)
		require.True(t, dec.Allowed)
	}
	dec, err := l.Allow(ctx, "client")
	require.NoError(t, err)
	require.False(t, dec.Allowed)

	clock.Advance(60 * time.Second)
	dec, err = l.Allow(ctx, "client")
	require.NoError(t, err)
	require.True(t, dec.Allowed)
	require.Equal(t, 9, dec.Remaining)
}

func TestLimiter_RejectedCallsDoNotExtendWindow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l, err := New(NewMemoryStore(), clock, Config{Window: 10 * time.Second, Max: 1})
	require.NoError(t, err)
	ctx := context.Background()

	dec, _ := l.Allow(ctx, "k")
	require.True(t, dec.Allowed)
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		dec, _ = l.Allow(ctx, "k")
		require.False(t, dec.Allowed)
	}
	clock.Advance(5 * time.Second)
	dec, _ = l.Allow(ctx, "k")
	require.True(t, dec.Allowed)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l, err := New(NewMemoryStore(), clock, Config{Window: time.Minute, Max: 1})
	require.NoError(t, err)
	ctx := context.Background()

	dec, _ := l.Allow(ctx, "a")
	require.True(t, dec.Allowed)
	dec, _ = l.Allow(ctx, "a")
	require.False(t, dec.Allowed)
	dec, _ = l.Allow(ctx, "b")
	require.True(t, dec.Allowed)
}

func TestLimiter_FailsOpenOnStoreError(t *testing.T) {
	t.Parallel()

	l := newTestLimiter(t, failingStore{}, &fakeClock{now: time.Now()})
	dec, err := l.Allow(context.Background(), "client")
	require.Error(t, err)
	require.True(t, dec.Allowed)
}

func TestLimiter_ConcurrentCallersNeverOverAdmit(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l, err := New(NewMemoryStore(), clock, Config{Window: time.Minute, Max: 25})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dec, err := l.Allow(context.Background(), "shared")
			if err == nil && dec.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 25, allowed)
}

func TestNew_ValidatesArguments(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	_, err := New(nil, clock, Config{Window: time.Second, Max: 1})
	require.Error(t, err)
	_, err = New(NewMemoryStore(), nil, Config{Window: time.Second, Max: 1})
	require.Error(t, err)
	_, err = New(NewMemoryStore(), clock, Config{Window: 0, Max: 1})
	require.Error(t, err)
	_, err = New(NewMemoryStore(), clock, Config{Window: time.Second, Max: 0})
	require.Error(t, err)
}

func ExampleLimiter_Allow() {
	clock := &fakeClock{now: time.Unix(0, 0)}
	l, _ := New(NewMemoryStore(), clock, Config{Window: time.Minute, Max: 2})
	for i := 0; i < 3; i++ {
		dec, _ := l.Allow(context.Background(), "203.0.113.9")
		fmt.Println(dec.Allowed, dec.RetryAfterSeconds())
	}
	// Output:
	// true 0
	// true 0
	// false 60
}
