package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// blockingTask returns a task that signals each start and waits for release
func blockingTask(calls *atomic.Int32, started chan<- struct{}, release <-chan struct{}) Task {
	return func(ctx context.Context) error {
		calls.Add(1)
		started <- struct{}{}
		<-release
		return nil
	}
}

// TestRunRejectsOverlap tests that a second Run during a pass is refused
func TestRunRejectsOverlap(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	c := New("rankings", blockingTask(&calls, started, release))

	done := make(chan error, 1)
	go func() { done <- c.Run(context.Background()) }()
	<-started

	if !c.InFlight() {
		t.Error("InFlight should be true during a pass")
	}
	if err := c.Run(context.Background()); !errors.Is(err, ErrInFlight) {
		t.Errorf("overlapping Run error = %v, want ErrInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if c.InFlight() {
		t.Error("InFlight should be false after the pass")
	}
	if calls.Load() != 1 {
		t.Errorf("task ran %d times, want 1", calls.Load())
	}
}

// TestRequestCoalesces tests that requests during a pass collapse into one
// follow-up pass
func TestRequestCoalesces(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	c := New("resumes", blockingTask(&calls, started, release))

	done := make(chan error, 1)
	go func() { done <- c.Request(context.Background()) }()
	<-started

	for i := 0; i < 3; i++ {
		if err := c.Request(context.Background()); err != nil {
			t.Fatalf("coalesced Request returned %v", err)
		}
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("task ran %d times, want 2", got)
	}
}

// TestRequestNeverLost tests that every request is followed by a pass that
// starts after it, even when requests race with a pass finishing
func TestRequestNeverLost(t *testing.T) {
	var issued, seen atomic.Int64
	c := New("jobs", func(ctx context.Context) error {
		seen.Store(issued.Load())
		time.Sleep(time.Millisecond)
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				issued.Add(1)
				if err := c.Request(context.Background()); err != nil {
					t.Errorf("Request failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	deadline := time.Now().Add(5 * time.Second)
	for c.InFlight() {
		if time.Now().After(deadline) {
			t.Fatal("coordinator never went idle")
		}
		time.Sleep(time.Millisecond)
	}
	if got, want := seen.Load(), issued.Load(); got != want {
		t.Errorf("last pass saw %d requests, want %d", got, want)
	}
}

// TestOnChange tests in-flight transitions
func TestOnChange(t *testing.T) {
	c := New("dashboard", func(ctx context.Context) error { return errors.New("boom") })

	var mu sync.Mutex
	var states []bool
	c.OnChange(func(inFlight bool) {
		mu.Lock()
		states = append(states, inFlight)
		mu.Unlock()
	})

	if err := c.Run(context.Background()); err == nil {
		t.Fatal("expected task error")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(states) != 2 || !states[0] || states[1] {
		t.Errorf("states = %v, want [true false]", states)
	}
}

// TestAfterMutation tests the follow-up refresh after a mutation
func TestAfterMutation(t *testing.T) {
	var refreshes atomic.Int32
	c := New("resumes", func(ctx context.Context) error {
		refreshes.Add(1)
		return nil
	})

	failed := errors.New("delete failed")
	if err := c.AfterMutation(context.Background(), func(context.Context) error { return failed }); !errors.Is(err, failed) {
		t.Errorf("error = %v, want mutation error", err)
	}
	if refreshes.Load() != 0 {
		t.Error("failed mutation must not refresh")
	}

	if err := c.AfterMutation(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("AfterMutation failed: %v", err)
	}
	if refreshes.Load() != 1 {
		t.Errorf("refreshes = %d, want 1", refreshes.Load())
	}
}

// TestSchedule tests timer-triggered passes
func TestSchedule(t *testing.T) {
	ticks := make(chan struct{}, 10)
	c := New("watch", func(ctx context.Context) error {
		ticks <- struct{}{}
		return nil
	})
	defer c.Stop()

	if err := c.Schedule("not a schedule"); err == nil {
		t.Error("expected invalid schedule error")
	}
	if err := c.Schedule("@every 1s"); err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	select {
	case <-ticks:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled pass did not run")
	}
}
