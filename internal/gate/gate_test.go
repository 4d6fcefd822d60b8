package gate

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGate_Latch_AllowsProceed(t *testing.T) {
	g := New(2, 0)
	defer g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := g.Latch(ctx); err != nil {
		t.Fatalf("Latch did not proceed in time: %v", err)
	}
}

func TestGate_Latch_ContextCancel(t *testing.T) {
	g := New(0, 0)
	defer g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	done := make(chan error)
	go func() {
		done <- g.Latch(ctx)
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("Latch did not return after context cancel")
	}
	if n := g.Waiting(); n != 0 {
		t.Errorf("cancelled waiter left on queue, waiting=%d", n)
	}
}

// TestGateInitialBlast does 20, they should all finish in less than a second
func TestGateInitialBlast(t *testing.T) {
	g := New(2, 20)
	defer g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	count := 0
	for i := 0; i < 20; i++ {
		if err := g.Latch(ctx); err != nil {
			break
		}
		count++
	}
	if count < 20 {
		t.Fatalf("Latch did not let through all 20, count: %d", count)
	}
}

// TestGateInitialBlastTooMany tries to do 100 at once.
// 2 in each of the 3 seconds, plus the burst of 20, give or take a tick.
func TestGateInitialBlastTooMany(t *testing.T) {
	g := New(2, 20)
	defer g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	count := 0
	for i := 0; i < 100; i++ {
		if err := g.Latch(ctx); err != nil {
			break
		}
		count++
	}
	if count > 30 {
		t.Fatalf("Latch let through too many of the 100 blast; count: %d", count)
	}
}

func TestGateLock(t *testing.T) {
	g := New(2, 20)
	defer g.Close()
	g.Lock()

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := g.Latch(ctx); err == nil {
		t.Fatal("expected locked gate to hold the caller")
	}
}

func TestGateClose(t *testing.T) {
	g := New(0, 0)
	errc := make(chan error)
	go func() { errc <- g.Latch(context.Background()) }()
	time.Sleep(30 * time.Millisecond)
	g.Close()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled after Close, got %v", err)
	}
}

func TestGateAfterMinute(t *testing.T) {
	if os.Getenv("GO_TEST_LONG") != "true" {
		t.Skip("Skipping long-running test. Set GO_TEST_LONG=true to run.")
	}
	g := New(2, 20)
	defer g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute+(5*time.Second))
	defer cancel()

	count := 0
	for i := 0; i < 200; i++ {
		if err := g.Latch(ctx); err != nil {
			break
		}
		count++
	}
	// two rounds of the burst plus 2 a second, with a little slack for ticker drift
	est := (2 * 20) + (2 * 65)
	if count > est+4 {
		t.Fatalf("Latch let through unexpected number; estimated: %d; count: %d", est, count)
	}
}
