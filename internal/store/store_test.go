package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

func pageOf(items ...string) models.Page[string] {
	return models.Page[string]{Items: items, Page: 1, PerPage: 10, Pages: 1, Total: len(items)}
}

// TestRefreshCommits tests that a successful refresh replaces the contents
func TestRefreshCommits(t *testing.T) {
	s := New[string]("names", func(ctx context.Context, q models.ListQuery) (models.Page[string], error) {
		p := pageOf("a", "b")
		p.Total = 42
		p.Pages = 21
		p.Page = q.Page
		return p, nil
	})

	if got := s.Snapshot().Status; got != StatusIdle {
		t.Fatalf("initial status = %v, want idle", got)
	}

	snap, err := s.Refresh(context.Background(), models.ListQuery{Page: 3, PerPage: 2})
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if snap.Status != StatusReady || len(snap.Items) != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Total != 42 || snap.Pages != 21 || snap.Page != 3 {
		t.Errorf("metadata = total %d pages %d page %d, want server values", snap.Total, snap.Pages, snap.Page)
	}
}

// TestStaleRefreshDiscarded tests that refresh A issued before refresh B
// never overwrites B's data, even when A resolves last
func TestStaleRefreshDiscarded(t *testing.T) {
	releaseA := make(chan struct{})
	startedA := make(chan struct{})

	s := New[string]("names", func(ctx context.Context, q models.ListQuery) (models.Page[string], error) {
		if q.Page == 1 {
			close(startedA)
			<-releaseA
			return pageOf("stale"), nil
		}
		return pageOf("fresh"), nil
	})

	var wg sync.WaitGroup
	var errA error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errA = s.Refresh(context.Background(), models.ListQuery{Page: 1})
	}()
	<-startedA

	if _, err := s.Refresh(context.Background(), models.ListQuery{Page: 2}); err != nil {
		t.Fatalf("refresh B failed: %v", err)
	}
	close(releaseA)
	wg.Wait()

	if !errors.Is(errA, ErrSuperseded) {
		t.Errorf("refresh A error = %v, want ErrSuperseded", errA)
	}
	snap := s.Snapshot()
	if len(snap.Items) != 1 || snap.Items[0] != "fresh" {
		t.Errorf("items = %v, want B's data", snap.Items)
	}
	if snap.Query.Page != 2 {
		t.Errorf("query page = %d, want 2", snap.Query.Page)
	}
}

// TestStaleFailureDiscarded tests that a superseded failure does not flip the
// store into the error state
func TestStaleFailureDiscarded(t *testing.T) {
	releaseA := make(chan struct{})
	startedA := make(chan struct{})

	s := New[string]("names", func(ctx context.Context, q models.ListQuery) (models.Page[string], error) {
		if q.Page == 1 {
			close(startedA)
			<-releaseA
			return models.Page[string]{}, errors.New("boom")
		}
		return pageOf("fresh"), nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Refresh(context.Background(), models.ListQuery{Page: 1})
	}()
	<-startedA
	s.Refresh(context.Background(), models.ListQuery{Page: 2})
	close(releaseA)
	<-done

	if snap := s.Snapshot(); snap.Status != StatusReady || snap.Err != nil {
		t.Errorf("status = %v err = %v, want ready", snap.Status, snap.Err)
	}
}

// TestFailurePreservesItems tests that a failed refresh keeps displayed items
func TestFailurePreservesItems(t *testing.T) {
	fail := false
	s := New[string]("names", func(ctx context.Context, q models.ListQuery) (models.Page[string], error) {
		if fail {
			return models.Page[string]{}, errors.New("network down")
		}
		return pageOf("a", "b", "c"), nil
	})

	if _, err := s.Refresh(context.Background(), models.ListQuery{}); err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}

	fail = true
	snap, err := s.Refresh(context.Background(), models.ListQuery{})
	if err == nil {
		t.Fatal("expected refresh error")
	}
	if snap.Status != StatusError || snap.Err == nil {
		t.Errorf("status = %v, want error", snap.Status)
	}
	if len(snap.Items) != 3 || snap.Total != 3 {
		t.Errorf("items = %v total %d, want previous contents kept", snap.Items, snap.Total)
	}
	if snap.Result().OK() {
		t.Error("Result() should carry the error")
	}
}

// TestLoadingNotifiedOnce tests that overlapping refreshes produce a single
// loading notification
func TestLoadingNotifiedOnce(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)

	s := New[string]("names", func(ctx context.Context, q models.ListQuery) (models.Page[string], error) {
		started <- struct{}{}
		<-release
		return pageOf("x"), nil
	})

	var mu sync.Mutex
	var statuses []Status
	s.OnChange(func(snap Snapshot[string]) {
		mu.Lock()
		statuses = append(statuses, snap.Status)
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Refresh(context.Background(), models.ListQuery{})
		}()
		<-started
	}
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	loading := 0
	for _, st := range statuses {
		if st == StatusLoading {
			loading++
		}
	}
	if loading != 1 {
		t.Errorf("loading notifications = %d (%v), want 1", loading, statuses)
	}
	if statuses[len(statuses)-1] != StatusReady {
		t.Errorf("last status = %v, want ready", statuses[len(statuses)-1])
	}
}

// TestFetcherCancelsPrevious tests that a new fetch cancels the previous one
func TestFetcherCancelsPrevious(t *testing.T) {
	started := make(chan struct{})
	f := NewFetcher[string](func(ctx context.Context, q models.ListQuery) (models.Page[string], error) {
		if q.Page == 1 {
			close(started)
			select {
			case <-ctx.Done():
				return models.Page[string]{}, ctx.Err()
			case <-time.After(5 * time.Second):
				return pageOf("late"), nil
			}
		}
		return pageOf("b"), nil
	})

	errc := make(chan error, 1)
	go func() {
		_, err := f.Fetch(context.Background(), models.ListQuery{Page: 1})
		errc <- err
	}()
	<-started

	if _, err := f.Fetch(context.Background(), models.ListQuery{Page: 2}); err != nil {
		t.Fatalf("second fetch failed: %v", err)
	}
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Errorf("first fetch error = %v, want context.Canceled", err)
	}
}

// TestRemove tests local removal after a delete
func TestRemove(t *testing.T) {
	s := New[string]("names", func(ctx context.Context, q models.ListQuery) (models.Page[string], error) {
		return pageOf("a", "b", "c"), nil
	})
	s.Refresh(context.Background(), models.ListQuery{})

	if n := s.Remove(func(v string) bool { return v == "b" }); n != 1 {
		t.Fatalf("removed %d, want 1", n)
	}
	snap := s.Snapshot()
	if len(snap.Items) != 2 || snap.Items[1] != "c" {
		t.Errorf("items = %v", snap.Items)
	}
	if snap.Total != 3 {
		t.Errorf("total = %d, server total must be kept until refresh", snap.Total)
	}
}

// TestSnapshotIsCopy tests that callers cannot mutate the store through a snapshot
func TestSnapshotIsCopy(t *testing.T) {
	s := New[string]("names", func(ctx context.Context, q models.ListQuery) (models.Page[string], error) {
		return pageOf("a"), nil
	})
	snap, _ := s.Refresh(context.Background(), models.ListQuery{})
	snap.Items[0] = "mutated"

	if got := s.Snapshot().Items[0]; got != "a" {
		t.Errorf("store item = %q, want a", got)
	}
}

// TestResultPendingUntilLoaded tests that an idle store is neither a value
// nor an error
func TestResultPendingUntilLoaded(t *testing.T) {
	s := New[string]("names", func(ctx context.Context, q models.ListQuery) (models.Page[string], error) {
		return pageOf("a"), nil
	})

	r := s.Snapshot().Result()
	if r.OK() || !r.Pending || r.Err != nil {
		t.Fatalf("idle Result() = %+v, want pending", r)
	}

	s.Refresh(context.Background(), models.ListQuery{})
	if r := s.Snapshot().Result(); !r.OK() || r.Value.Total != 1 {
		t.Errorf("loaded Result() = %+v, want total 1", r)
	}
}

// TestResultKeepsErrorWhileReloading tests that a failed source stays failed
// while the next refresh is in flight, and clears once it succeeds
func TestResultKeepsErrorWhileReloading(t *testing.T) {
	boom := errors.New("boom")
	started := make(chan struct{})
	release := make(chan struct{})
	calls := 0

	s := New[string]("names", func(ctx context.Context, q models.ListQuery) (models.Page[string], error) {
		calls++
		if calls == 1 {
			return models.Page[string]{}, boom
		}
		close(started)
		<-release
		return pageOf("a", "b"), nil
	})

	s.Refresh(context.Background(), models.ListQuery{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Refresh(context.Background(), models.ListQuery{})
	}()
	<-started

	snap := s.Snapshot()
	if snap.Status != StatusLoading {
		t.Fatalf("status = %v, want loading", snap.Status)
	}
	if r := snap.Result(); r.OK() || !errors.Is(r.Err, boom) {
		t.Errorf("Result() while reloading = %+v, want boom", r)
	}

	close(release)
	<-done

	if r := s.Snapshot().Result(); !r.OK() || r.Value.Total != 2 {
		t.Errorf("Result() after success = %+v, want total 2", r)
	}
}

// TestCancelRestoresCommittedState tests that cancelling an in-flight
// refresh discards it and puts back the committed status and query
func TestCancelRestoresCommittedState(t *testing.T) {
	started := make(chan struct{})

	s := New[string]("names", func(ctx context.Context, q models.ListQuery) (models.Page[string], error) {
		if q.Page == 2 {
			close(started)
			<-ctx.Done()
			return models.Page[string]{}, ctx.Err()
		}
		return pageOf("a"), nil
	})

	if _, err := s.Refresh(context.Background(), models.ListQuery{Page: 1}); err != nil {
		t.Fatalf("first refresh failed: %v", err)
	}

	errc := make(chan error, 1)
	go func() {
		_, err := s.Refresh(context.Background(), models.ListQuery{Page: 2})
		errc <- err
	}()
	<-started

	s.Cancel()

	if err := <-errc; !errors.Is(err, ErrSuperseded) {
		t.Errorf("cancelled refresh error = %v, want ErrSuperseded", err)
	}
	snap := s.Snapshot()
	if snap.Status != StatusReady || snap.Err != nil {
		t.Errorf("status = %v err = %v, want ready", snap.Status, snap.Err)
	}
	if snap.Query.Page != 1 || len(snap.Items) != 1 {
		t.Errorf("query page = %d items = %v, want page 1 contents", snap.Query.Page, snap.Items)
	}

	// no-op when nothing is loading
	s.Cancel()
	if got := s.Snapshot().Status; got != StatusReady {
		t.Errorf("status after idle Cancel = %v, want ready", got)
	}
}
