package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "ships", Key("ships"))
	assert.Equal(t, "crew:S-1", Key("crew", "S-1"))
	assert.Equal(t, "waypoints:X1:page2", Key("waypoints", "X1", "page2"))
}

func TestFetchCachesWithinTTL(t *testing.T) {
	c := New(time.Minute, time.Minute, nil)
	defer c.Close()

	var calls int32
	fn := func(ctx context.Context) ([]string, error) {
		atomic.AddInt32(&calls, 1)
		return []string{"S-1", "S-2"}, nil
	}
	ctx := context.Background()

	a, err := Fetch(ctx, c, "ships", fn)
	require.NoError(t, err)
	b, err := Fetch(ctx, c, "ships", fn)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestTTLExpiry(t *testing.T) {
	c := New(time.Minute, time.Minute, nil)
	defer c.Close()
	now := time.Now()
	c.now = func() time.Time { return now }

	var calls int32
	fn := func(ctx context.Context) (int, error) { return int(atomic.AddInt32(&calls, 1)), nil }

	v, _ := Fetch(context.Background(), c, "agent", fn)
	assert.Equal(t, 1, v)
	now = now.Add(2 * time.Minute)
	v, _ = Fetch(context.Background(), c, "agent", fn)
	assert.Equal(t, 2, v)
}

func TestErrorsAreNotCached(t *testing.T) {
	c := New(time.Minute, time.Minute, nil)
	defer c.Close()

	boom := errors.New("boom")
	fail := true
	fn := func(ctx context.Context) (string, error) {
		if fail {
			return "", boom
		}
		return "ok", nil
	}

	_, err := Fetch(context.Background(), c, "agent", fn)
	require.ErrorIs(t, err, boom)
	fail = false
	v, err := Fetch(context.Background(), c, "agent", fn)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestConcurrentReadsShareOneCall(t *testing.T) {
	c := New(0, time.Minute, nil)
	defer c.Close()

	var calls int32
	release := make(chan struct{})
	fn := func(ctx context.Context) (string, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "fleet", nil
	}

	var wg sync.WaitGroup
	results := make([]string, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = Fetch(context.Background(), c, "ships", fn)
		}(i)
	}
	// let every goroutine join the flight
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, "fleet", r)
	}
	assert.Equal(t, 0, c.Len(), "ttl of zero keeps nothing")
}

func TestAbandonedCallIsCancelled(t *testing.T) {
	c := New(time.Minute, time.Minute, nil)
	defer c.Close()

	cancelled := make(chan struct{})
	fn := func(ctx context.Context) (string, error) {
		<-ctx.Done()
		close(cancelled)
		return "", ctx.Err()
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error)
	go func() {
		_, err := Fetch(ctx, c, "ships", fn)
		errc <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	require.ErrorIs(t, <-errc, context.Canceled)
	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("upstream call was not cancelled after the only waiter left")
	}

	// a new caller gets a fresh call rather than the cancelled one
	v, err := Fetch(context.Background(), c, "ships", func(ctx context.Context) (string, error) { return "fresh", nil })
	require.NoError(t, err)
	assert.Equal(t, "fresh", v)
}

func TestInvalidate(t *testing.T) {
	c := New(time.Minute, time.Minute, nil)
	defer c.Close()
	ctx := context.Background()
	put := func(key string) {
		_, err := Fetch(ctx, c, key, func(context.Context) (string, error) { return key, nil })
		require.NoError(t, err)
	}
	put("ships")
	put("crew:S-1")
	put("crew:S-2")
	put("security:S-1")

	c.Invalidate("ships")
	assert.Equal(t, 3, c.Len())
	c.InvalidatePrefix("crew:")
	assert.Equal(t, 1, c.Len())
}

func TestIdleEviction(t *testing.T) {
	c := New(time.Minute, 30*time.Millisecond, nil)
	defer c.Close()

	_, err := Fetch(context.Background(), c, "agent", func(context.Context) (int, error) { return 1, nil })
	require.NoError(t, err)
	assert.False(t, c.Evicted())

	assert.Eventually(t, c.Evicted, time.Second, 10*time.Millisecond)

	// next access brings it back
	_, err = Fetch(context.Background(), c, "agent", func(context.Context) (int, error) { return 2, nil })
	require.NoError(t, err)
	assert.False(t, c.Evicted())
}

func TestNilCacheCallsThrough(t *testing.T) {
	v, err := Fetch(context.Background(), nil, "x", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestInvalidateDuringFlightForcesFreshRead(t *testing.T) {
	c := New(time.Minute, time.Minute, nil)
	defer c.Close()

	var status atomic.Value
	status.Store("IN_ORBIT")
	var calls int32
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	fn := func(ctx context.Context) (string, error) {
		n := atomic.AddInt32(&calls, 1)
		s := status.Load().(string)
		if n == 1 {
			started <- struct{}{}
			<-release
		}
		return s, nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var before string
	go func() {
		defer wg.Done()
		before, _ = Fetch(context.Background(), c, "ships", fn)
	}()
	<-started

	// the mutation lands while the first read is still out
	status.Store("DOCKED")
	c.Invalidate("ships")

	after, err := Fetch(context.Background(), c, "ships", fn)
	require.NoError(t, err)
	assert.Equal(t, "DOCKED", after)

	close(release)
	wg.Wait()
	assert.Equal(t, "IN_ORBIT", before)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))

	// the late IN_ORBIT answer was not stored over the fresh one
	again, err := Fetch(context.Background(), c, "ships", fn)
	require.NoError(t, err)
	assert.Equal(t, "DOCKED", again)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestInvalidatePrefixDetachesFlights(t *testing.T) {
	c := New(time.Minute, time.Minute, nil)
	defer c.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	fn := func(ctx context.Context) (int, error) {
		n := atomic.AddInt32(&calls, 1)
		if n == 1 {
			close(started)
			<-release
		}
		return int(n), nil
	}

	done := make(chan int)
	go func() {
		v, _ := Fetch(context.Background(), c, "crew:S-1", fn)
		done <- v
	}()
	<-started
	c.InvalidatePrefix("crew:")

	v, err := Fetch(context.Background(), c, "crew:S-1", fn)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	close(release)
	assert.Equal(t, 1, <-done)
}
