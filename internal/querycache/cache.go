// Package querycache is a keyed cache for backend reads. Concurrent reads of
// the same key share one upstream call, and that call is cancelled once
// nobody is waiting for it any more.
package querycache

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/papaburgs/spacegui/internal/metrics"
)

// DefaultIdle is how long the cache survives without any access.
const DefaultIdle = 2 * time.Minute

type entry struct {
	value any
	at    time.Time
}

type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
	// gen is the key's generation when the call started; group is the
	// singleflight key, unique per generation.
	gen   uint64
	group string
}

// Cache holds successful reads for ttl. Errors are never stored.
type Cache struct {
	ttl  time.Duration
	idle time.Duration

	mu            sync.Mutex
	entries       map[string]entry
	inflight      map[string]*flight
	gens          map[string]uint64
	evictionTimer *time.Timer
	group         singleflight.Group

	metrics *metrics.Metrics
	now     func() time.Time
}

// New makes a cache. ttl of zero still de-duplicates concurrent reads but
// keeps nothing afterwards. idle of zero uses DefaultIdle.
func New(ttl, idle time.Duration, m *metrics.Metrics) *Cache {
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Cache{
		ttl:      ttl,
		idle:     idle,
		entries:  make(map[string]entry),
		inflight: make(map[string]*flight),
		gens:     make(map[string]uint64),
		metrics:  m,
		now:      time.Now,
	}
}

// Key builds a cache key from a resource name and its parameters.
func Key(resource string, params ...string) string {
	if len(params) == 0 {
		return resource
	}
	return resource + ":" + strings.Join(params, ":")
}

// Get returns the cached value for key or runs fetch.
func (c *Cache) Get(ctx context.Context, key string, fetch func(context.Context) (any, error)) (any, error) {
	c.mu.Lock()
	c.resetTimer()
	if c.entries == nil {
		c.entries = make(map[string]entry)
	}
	if e, ok := c.entries[key]; ok && c.ttl > 0 && c.now().Sub(e.at) < c.ttl {
		c.mu.Unlock()
		c.count("hit")
		return e.value, nil
	}
	f, ok := c.inflight[key]
	if !ok {
		gen := c.gens[key]
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel, gen: gen, group: fmt.Sprintf("%s#%d", key, gen)}
		c.inflight[key] = f
	}
	f.waiters++
	c.mu.Unlock()

	ch := c.group.DoChan(f.group, func() (any, error) {
		v, err := fetch(f.ctx)
		if err == nil && c.ttl > 0 {
			c.mu.Lock()
			// a read that started before an invalidation is never stored
			if c.entries != nil && c.gens[key] == f.gen {
				c.entries[key] = entry{value: v, at: c.now()}
			}
			c.mu.Unlock()
		}
		return v, err
	})

	select {
	case r := <-ch:
		c.release(key, f)
		if r.Shared {
			c.count("shared")
		} else {
			c.count("miss")
		}
		return r.Val, r.Err
	case <-ctx.Done():
		c.release(key, f)
		return nil, ctx.Err()
	}
}

func (c *Cache) release(key string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.inflight[key] == f {
		delete(c.inflight, key)
	}
	// the next caller must start a fresh call, not join a cancelled one
	c.group.Forget(f.group)
}

// Fetch is the typed form of Get. A nil cache just calls fn.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return fn(ctx)
	}
	v, err := c.Get(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Invalidate drops the given keys. Reads already in flight for them keep
// serving their current waiters but are neither joined nor stored.
func (c *Cache) Invalidate(keys ...string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		c.drop(k)
	}
}

// InvalidatePrefix drops every key starting with prefix.
func (c *Cache) InvalidatePrefix(prefix string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			c.drop(k)
		}
	}
	for k := range c.inflight {
		if strings.HasPrefix(k, prefix) {
			c.drop(k)
		}
	}
}

// drop must be called with c.mu held.
func (c *Cache) drop(key string) {
	if c.gens == nil {
		c.gens = make(map[string]uint64)
	}
	c.gens[key]++
	delete(c.entries, key)
	delete(c.inflight, key)
}

// Len is the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Evicted reports whether the idle timer has dropped the cache.
func (c *Cache) Evicted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entries == nil
}

// Close stops the idle timer.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.evictionTimer != nil {
		c.evictionTimer.Stop()
	}
}

// evict is called when the timer expires. It releases memory by dropping all entries.
func (c *Cache) evict() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries != nil {
		slog.Info("query cache evicted", "idle", c.idle, "entries", len(c.entries))
		c.entries = nil
	}
}

// resetTimer must be called with c.mu held.
func (c *Cache) resetTimer() {
	if c.evictionTimer != nil {
		c.evictionTimer.Stop()
	}
	c.evictionTimer = time.AfterFunc(c.idle, c.evict)
}

func (c *Cache) count(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}
