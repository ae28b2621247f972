// Package views composes stores, the aggregator and the ranking engine into
// the state behind each screen. Every view owns a refresh coordinator, so a
// view never has two reconciliation passes in flight.
package views

import (
	"context"
	"errors"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/api"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/refresh"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/store"
)

// Notifier presents transient, non-blocking messages to the user
type Notifier interface {
	Error(err error)
	Info(msg string)
}

// LogNotifier writes notifications to the standard logger
type LogNotifier struct{}

func (LogNotifier) Error(err error) { log.Printf("[views] error: %s", api.Message(err)) }
func (LogNotifier) Info(msg string) { log.Printf("[views] %s", msg) }

// NotifierFunc adapts a function to Notifier. Info messages are passed with
// a nil error.
type NotifierFunc func(msg string, err error)

func (f NotifierFunc) Error(err error) { f(api.Message(err), err) }
func (f NotifierFunc) Info(msg string) { f(msg, nil) }

// quiet reports whether err should not reach the user
func quiet(err error) bool {
	return err == nil ||
		errors.Is(err, store.ErrSuperseded) ||
		errors.Is(err, refresh.ErrInFlight) ||
		errors.Is(err, context.Canceled)
}

// fanOut runs fns in parallel. Each failure is reported on its own and none
// cancels the others; the joined failures are returned.
func fanOut(ctx context.Context, n Notifier, fns ...func(context.Context) error) error {
	// the group only joins the goroutines; errors are kept per index so
	// every failure is reported, not just the first
	var g errgroup.Group
	errs := make([]error, len(fns))
	for i, fn := range fns {
		g.Go(func() error {
			errs[i] = fn(ctx)
			return nil
		})
	}
	g.Wait()

	var failed []error
	for _, err := range errs {
		if quiet(err) {
			continue
		}
		n.Error(err)
		failed = append(failed, err)
	}
	return errors.Join(failed...)
}

// refresher adapts a store refresh of page q to fanOut
func refresher[T any](s *store.Store[T], q models.ListQuery) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := s.Refresh(ctx, q)
		return err
	}
}

// closeStores stops a view's refresh schedule and abandons the in-flight
// refresh of each store, leaving their committed contents in place
func closeStores(coord *refresh.Coordinator, stores ...interface{ Cancel() }) {
	coord.Stop()
	for _, s := range stores {
		s.Cancel()
	}
}

// listeners is a set of change callbacks
type listeners struct {
	mu  sync.Mutex
	fns []func()
}

func (l *listeners) add(fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fns = append(l.fns, fn)
}

func (l *listeners) fire() {
	l.mu.Lock()
	fns := append([]func(){}, l.fns...)
	l.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// watch forwards store changes to the view's listeners
func watch[T any](s *store.Store[T], l *listeners) {
	s.OnChange(func(store.Snapshot[T]) { l.fire() })
}

// mutate runs a server mutation through the view's coordinator so the
// follow-up refresh is coalesced with any pass already running. Mutation
// failures are reported here; refresh failures by the pass itself.
func mutate(ctx context.Context, c *refresh.Coordinator, n Notifier, fn func(context.Context) error) error {
	var mutErr error
	err := c.AfterMutation(ctx, func(ctx context.Context) error {
		mutErr = fn(ctx)
		return mutErr
	})
	if !quiet(mutErr) {
		n.Error(mutErr)
	}
	return err
}
