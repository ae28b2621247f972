// Package refresh serializes the refresh passes of a view.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/robfig/cron/v3"
)

// ErrInFlight is returned by Run when a pass is already running
var ErrInFlight = errors.New("refresh already in progress")

// Task is one reconciliation pass of a view
type Task func(ctx context.Context) error

// Coordinator guarantees that at most one pass of its task runs at a time.
// Run refuses overlapping passes; Request coalesces them into a single
// follow-up pass.
type Coordinator struct {
	name string
	task Task

	mu        sync.Mutex
	running   bool
	rerun     bool
	listeners []func(inFlight bool)

	cron  *cron.Cron
	entry cron.EntryID
}

// New creates a coordinator for the named view
func New(name string, task Task) *Coordinator {
	return &Coordinator{name: name, task: task}
}

// InFlight reports whether a pass is running. Refresh controls stay
// disabled while it is true.
func (c *Coordinator) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// OnChange registers a listener for in-flight transitions
func (c *Coordinator) OnChange(fn func(inFlight bool)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Run executes one pass, or returns ErrInFlight without doing anything if a
// pass is already running
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.acquire(false) {
		return ErrInFlight
	}
	return c.drain(ctx)
}

// Request executes a pass now, or, if one is running, schedules exactly one
// more pass after it and returns immediately. Any number of requests made
// during a pass collapse into that single follow-up.
func (c *Coordinator) Request(ctx context.Context) error {
	if !c.acquire(true) {
		return nil
	}
	return c.drain(ctx)
}

// drain runs the task until no follow-up is pending. The guard must be held.
func (c *Coordinator) drain(ctx context.Context) error {
	for {
		err := c.task(ctx)
		if !c.release(true) {
			return err
		}
		if ctx.Err() != nil {
			c.release(false)
			return ctx.Err()
		}
	}
}

// AfterMutation runs fn and, when it succeeds, requests a refresh pass so the
// view reflects the change
func (c *Coordinator) AfterMutation(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return c.Request(ctx)
}

// Schedule triggers a pass on a cron schedule such as "@every 30s".
// Ticks that find a pass running are skipped.
func (c *Coordinator) Schedule(spec string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cron == nil {
		c.cron = cron.New()
		c.cron.Start()
	} else {
		c.cron.Remove(c.entry)
	}

	id, err := c.cron.AddFunc(spec, func() {
		if err := c.Run(context.Background()); err != nil && !errors.Is(err, ErrInFlight) {
			log.Printf("[refresh] scheduled %s refresh failed: %v", c.name, err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	c.entry = id
	log.Printf("[refresh] %s refresh scheduled: %s", c.name, spec)
	return nil
}

// Stop cancels the schedule and waits for a scheduled pass to finish
func (c *Coordinator) Stop() {
	c.mu.Lock()
	cr := c.cron
	c.cron = nil
	c.mu.Unlock()

	if cr != nil {
		<-cr.Stop().Done()
	}
}

// acquire takes the guard. If a pass holds it, acquire reports false and,
// with follow set, asks that pass to run once more.
func (c *Coordinator) acquire(follow bool) bool {
	c.mu.Lock()
	if c.running {
		if follow {
			c.rerun = true
		}
		c.mu.Unlock()
		return false
	}
	c.running = true
	c.rerun = false
	listeners := append(([]func(bool))(nil), c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(true)
	}
	return true
}

// release ends a pass. With keep set and a follow-up requested, the guard
// stays held and release reports true so the caller runs again.
func (c *Coordinator) release(keep bool) bool {
	c.mu.Lock()
	if keep && c.rerun {
		c.rerun = false
		c.mu.Unlock()
		return true
	}
	c.running = false
	c.rerun = false
	listeners := append(([]func(bool))(nil), c.listeners...)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(false)
	}
	return false
}
