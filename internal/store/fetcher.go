package store

import (
	"context"
	"sync"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

// FetchFunc fetches one page of a collection. Implementations only report
// errors; they never act on them.
type FetchFunc[T any] func(ctx context.Context, q models.ListQuery) (models.Page[T], error)

// Fetcher issues page requests for one collection. The only state it keeps
// is the cancellation func of its most recent request.
type Fetcher[T any] struct {
	fn FetchFunc[T]

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewFetcher wraps fn
func NewFetcher[T any](fn FetchFunc[T]) *Fetcher[T] {
	return &Fetcher[T]{fn: fn}
}

// Fetch requests one page. A request still running from an earlier call is
// cancelled first; callers must not rely on that for correctness.
func (f *Fetcher[T]) Fetch(ctx context.Context, q models.ListQuery) (models.Page[T], error) {
	ctx, cancel := context.WithCancel(ctx)

	f.mu.Lock()
	if f.cancel != nil {
		f.cancel()
	}
	f.gen++
	gen := f.gen
	f.cancel = cancel
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		if f.gen == gen {
			f.cancel = nil
		}
		f.mu.Unlock()
		cancel()
	}()

	return f.fn(ctx, q.Normalized())
}

// Cancel aborts the most recent request, if any
func (f *Fetcher[T]) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}
