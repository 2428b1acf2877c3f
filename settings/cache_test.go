package settings

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced clock for aging cache entries.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

type countingFetcher struct {
	calls   atomic.Int32
	setting *StoreSetting
	err     error
	delay   time.Duration
}

func (f *countingFetcher) GetStoreSetting(ctx context.Context) (*StoreSetting, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.setting, nil
}

func newTestCache(fetcher Fetcher) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := NewCache(fetcher)
	c.Now = clock.Now
	return c, clock
}

func TestCache_FreshnessWindow(t *testing.T) {
	fetcher := &countingFetcher{setting: &StoreSetting{GoogleID: "g-id"}}
	c, clock := newTestCache(fetcher)
	ctx := context.Background()

	t.Run("two calls within the window issue one fetch", func(t *testing.T) {
		s, err := c.Get(ctx)
		require.NoError(t, err)
		assert.Equal(t, "g-id", s.GoogleID)

		clock.Advance(3*time.Minute + 59*time.Second)
		_, err = c.Get(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, fetcher.calls.Load())
	})

	t.Run("a call after the window refetches", func(t *testing.T) {
		clock.Advance(time.Second)
		_, err := c.Get(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, fetcher.calls.Load())
	})

	t.Run("refetched value restarts the window", func(t *testing.T) {
		clock.Advance(2 * time.Minute)
		_, err := c.Get(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, fetcher.calls.Load())
	})
}

func TestCache_CustomFreshness(t *testing.T) {
	fetcher := &countingFetcher{setting: &StoreSetting{}}
	c, clock := newTestCache(fetcher)
	c.Freshness = time.Minute

	_, _ = c.Get(context.Background())
	clock.Advance(time.Minute)
	_, _ = c.Get(context.Background())
	assert.EqualValues(t, 2, fetcher.calls.Load())
}

func TestCache_FailuresAreNotCached(t *testing.T) {
	fetcher := &countingFetcher{err: errors.New("backend down")}
	c, _ := newTestCache(fetcher)

	_, err := c.Get(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")

	_, _, ok := c.Peek()
	assert.False(t, ok)

	fetcher.err = nil
	fetcher.setting = &StoreSetting{GithubID: "gh"}
	s, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gh", s.GithubID)
	assert.EqualValues(t, 2, fetcher.calls.Load())
}

func TestCache_NilSettingBecomesEmpty(t *testing.T) {
	c, _ := newTestCache(&countingFetcher{})
	s, err := c.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "", s.FacebookSecret)
}

func TestCache_Invalidate(t *testing.T) {
	fetcher := &countingFetcher{setting: &StoreSetting{}}
	c, _ := newTestCache(fetcher)

	_, _ = c.Get(context.Background())
	c.Invalidate()
	_, _ = c.Get(context.Background())
	assert.EqualValues(t, 2, fetcher.calls.Load())
}

func TestCache_ConcurrentMissesShareOneFetch(t *testing.T) {
	fetcher := &countingFetcher{setting: &StoreSetting{}, delay: 50 * time.Millisecond}
	c, _ := newTestCache(fetcher)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.EqualValues(t, 1, fetcher.calls.Load())
}

func TestCache_Peek(t *testing.T) {
	c, clock := newTestCache(&countingFetcher{setting: &StoreSetting{GoogleID: "x"}})

	_, _, ok := c.Peek()
	assert.False(t, ok)

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	s, fetchedAt, ok := c.Peek()
	require.True(t, ok)
	assert.Equal(t, "x", s.GoogleID)
	assert.Equal(t, clock.Now(), fetchedAt)
}

// blockingFetcher waits for delay or until ctx is done.
type blockingFetcher struct {
	calls atomic.Int32
	delay time.Duration
}

func (f *blockingFetcher) GetStoreSetting(ctx context.Context) (*StoreSetting, error) {
	f.calls.Add(1)
	select {
	case <-time.After(f.delay):
		return &StoreSetting{GoogleID: "g"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestCache_CancelledCallerDoesNotFailOthers(t *testing.T) {
	fetcher := &blockingFetcher{delay: 50 * time.Millisecond}
	c, _ := newTestCache(fetcher)

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Get(firstCtx)
		firstErr <- err
	}()

	// let the first caller start the flight
	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, time.Millisecond)

	secondDone := make(chan struct{})
	var second *StoreSetting
	var secondErr error
	go func() {
		defer close(secondDone)
		second, secondErr = c.Get(context.Background())
	}()

	time.Sleep(5 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-firstErr, context.Canceled)
	<-secondDone
	require.NoError(t, secondErr)
	assert.Equal(t, "g", second.GoogleID)
	assert.EqualValues(t, 1, fetcher.calls.Load())

	cached, _, ok := c.Peek()
	require.True(t, ok)
	assert.Equal(t, "g", cached.GoogleID)
}

func TestCache_FetchTimeout(t *testing.T) {
	fetcher := &blockingFetcher{delay: time.Second}
	c, _ := newTestCache(fetcher)
	c.FetchTimeout = 10 * time.Millisecond

	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	_, _, ok := c.Peek()
	assert.False(t, ok)
}
