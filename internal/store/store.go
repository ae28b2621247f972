// Package store holds the currently loaded page of each server collection.
package store

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

// ErrSuperseded is returned by Refresh when a newer refresh was issued
// before this one completed. Its result was discarded.
var ErrSuperseded = errors.New("refresh superseded by a newer request")

// Status is the load state of a store
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is an immutable copy of a store's contents
type Snapshot[T any] struct {
	Items   []T
	Page    int
	PerPage int
	Pages   int
	Total   int
	Query   models.ListQuery
	Status  Status
	Err     error

	loaded bool
}

// PageData returns the loaded page with its server metadata
func (s Snapshot[T]) PageData() models.Page[T] {
	return models.Page[T]{
		Items:   s.Items,
		Page:    s.Page,
		PerPage: s.PerPage,
		Pages:   s.Pages,
		Total:   s.Total,
	}
}

// Result reports the outcome of the last committed refresh. A failure is
// reported until a later refresh succeeds, including while that refresh is
// still loading, even though stale items are still held. A store that has
// never committed is pending.
func (s Snapshot[T]) Result() models.Result[models.Page[T]] {
	if s.Err != nil {
		return models.Failed[models.Page[T]](s.Err)
	}
	if !s.loaded {
		return models.Pending[models.Page[T]]()
	}
	return models.Ok(s.PageData())
}

// Loaded reports whether at least one refresh has been committed
func (s Snapshot[T]) Loaded() bool {
	return s.loaded
}

// Store holds one page of one collection under one filter. Only Refresh
// (and Remove) mutate it; concurrent refreshes commit in issue order.
type Store[T any] struct {
	name    string
	fetcher *Fetcher[T]

	mu        sync.RWMutex
	seq       uint64
	committed Status
	query     models.ListQuery
	snap      Snapshot[T]

	notifyMu  sync.Mutex
	listeners []func(Snapshot[T])
}

// New creates an idle store backed by fetch
func New[T any](name string, fetch FetchFunc[T]) *Store[T] {
	return &Store[T]{
		name:    name,
		fetcher: NewFetcher(fetch),
	}
}

// Name identifies the store in logs
func (s *Store[T]) Name() string {
	return s.name
}

// OnChange registers a listener called after every visible state change
func (s *Store[T]) OnChange(fn func(Snapshot[T])) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns a copy of the current contents
func (s *Store[T]) Snapshot() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

func (s *Store[T]) copyLocked() Snapshot[T] {
	out := s.snap
	out.Items = append([]T(nil), s.snap.Items...)
	return out
}

// Refresh loads the page selected by q. Only the most recently issued call
// commits; earlier calls that finish later return ErrSuperseded. On failure
// the previous items are kept and the store enters the error state.
func (s *Store[T]) Refresh(ctx context.Context, q models.ListQuery) (Snapshot[T], error) {
	q = q.Normalized()

	s.mu.Lock()
	s.seq++
	token := s.seq
	startedLoading := s.snap.Status != StatusLoading
	s.snap.Status = StatusLoading
	s.snap.Query = q
	s.mu.Unlock()

	if startedLoading {
		s.notify()
	}

	page, err := s.fetcher.Fetch(ctx, q)

	s.mu.Lock()
	if token != s.seq {
		snap := s.copyLocked()
		s.mu.Unlock()
		return snap, ErrSuperseded
	}

	if err != nil {
		s.snap.Status = StatusError
		s.snap.Err = err
		s.snap.loaded = true
		log.Printf("[store] %s refresh failed: %v", s.name, err)
	} else {
		s.snap = Snapshot[T]{
			Items:   append([]T(nil), page.Items...),
			Page:    page.Page,
			PerPage: page.PerPage,
			Pages:   page.Pages,
			Total:   page.Total,
			Query:   q,
			Status:  StatusReady,
			loaded:  true,
		}
	}
	s.committed = s.snap.Status
	s.query = q
	snap := s.copyLocked()
	s.mu.Unlock()

	s.notify()
	return snap, err
}

// Remove drops loaded items matching pred without a server round trip.
// Pagination metadata is left alone until the next refresh.
func (s *Store[T]) Remove(pred func(T) bool) int {
	s.mu.Lock()
	kept := s.snap.Items[:0:0]
	removed := 0
	for _, item := range s.snap.Items {
		if pred(item) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	s.snap.Items = kept
	s.mu.Unlock()

	if removed > 0 {
		s.notify()
	}
	return removed
}

// Cancel abandons the in-flight request, if any. Its result is discarded
// and the store returns to its last committed status and query.
func (s *Store[T]) Cancel() {
	s.mu.Lock()
	if s.snap.Status != StatusLoading {
		s.mu.Unlock()
		return
	}
	s.seq++
	s.snap.Status = s.committed
	s.snap.Query = s.query
	s.mu.Unlock()

	s.fetcher.Cancel()
	s.notify()
}

// notify delivers the latest snapshot, so listeners never observe state
// older than one they have already seen
func (s *Store[T]) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	snap := s.Snapshot()
	for _, fn := range s.listeners {
		fn(snap)
	}
}
