package gate

import (
	"container/list"
	"context"
	"log/slog"
	"sync"
	"time"
)

// Gate hands out upstream request slots in arrival order.
// perSecond slots refill every second; once those are used, callers draw on
// a burst pool that refills every minute.
type Gate struct {
	perSecond int
	burst     int

	secondTicker *time.Ticker
	minuteTicker *time.Ticker
	checkTicker  *time.Ticker

	mu          sync.Mutex
	secondCount int
	minuteCount int
	queue       *list.List

	done chan struct{}
	once sync.Once
}

// New starts a gate. Call Close when finished with it.
func New(perSecond, burst int) *Gate {
	g := &Gate{
		perSecond:    perSecond,
		burst:        burst,
		secondTicker: time.NewTicker(time.Second + 20*time.Millisecond),
		minuteTicker: time.NewTicker(time.Minute),
		checkTicker:  time.NewTicker(20 * time.Millisecond),
		queue:        list.New(),
		done:         make(chan struct{}),
	}
	go g.loop()
	return g
}

func (g *Gate) loop() {
	defer func() {
		g.secondTicker.Stop()
		g.minuteTicker.Stop()
		g.checkTicker.Stop()
	}()
	for {
		select {
		case <-g.done:
			return
		case <-g.secondTicker.C:
			g.mu.Lock()
			g.secondCount = 0
			g.mu.Unlock()
		case <-g.minuteTicker.C:
			g.mu.Lock()
			g.minuteCount = 0
			g.mu.Unlock()
		case <-g.checkTicker.C:
			g.release()
		}
	}
}

// release lets through as many waiters as the budgets allow.
func (g *Gate) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for node := g.queue.Front(); node != nil; node = g.queue.Front() {
		switch {
		case g.secondCount < g.perSecond:
			g.secondCount++
		case g.minuteCount < g.burst:
			if g.minuteCount == 0 {
				g.minuteTicker.Reset(time.Minute)
			}
			g.minuteCount++
		default:
			return
		}
		c := g.queue.Remove(node).(chan struct{})
		c <- struct{}{}
	}
}

// Latch blocks until it is safe to make a call, or ctx ends.
func (g *Gate) Latch(ctx context.Context) error {
	c := make(chan struct{}, 1)
	g.mu.Lock()
	node := g.queue.PushBack(c)
	g.mu.Unlock()
	select {
	case <-c:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		// the loop may have granted us a slot while we were giving up
		select {
		case <-c:
		default:
			g.queue.Remove(node)
		}
		g.mu.Unlock()
		slog.Debug("gate wait cancelled", "error", ctx.Err())
		return ctx.Err()
	case <-g.done:
		return context.Canceled
	}
}

// Lock uses up both budgets, nobody gets through until the counters reset.
// Used after the upstream answers 429.
func (g *Gate) Lock() {
	g.mu.Lock()
	g.secondCount = g.perSecond
	g.minuteCount = g.burst
	g.mu.Unlock()
	slog.Warn("gate locked after rate limit response")
}

// Waiting is the number of callers queued on the gate.
func (g *Gate) Waiting() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.queue.Len()
}

func (g *Gate) Close() {
	g.once.Do(func() { close(g.done) })
}
