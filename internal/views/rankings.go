package views

import (
	"context"
	"fmt"
	"sync"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/ranking"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/refresh"
)

// RankingsAPI is the subset of the API client the rankings screen uses
type RankingsAPI interface {
	JobRankings(ctx context.Context, jobID, limit int) (models.JobRankings, error)
	QueueStatus(ctx context.Context, jobID int) (models.QueueStatus, error)
}

// RankingsState is what the rankings screen renders. Rankings and queue
// status are committed independently, so either may be present while the
// other is still loading or has failed.
type RankingsState struct {
	Job         models.JobPosting
	Rows        []ranking.Row
	RankingsErr error
	RankingsSet bool

	Queue    models.QueueStatus
	QueueErr error
	QueueSet bool

	InFlight bool
}

// RankingsView shows the candidate ranking and scoring queue of one job
type RankingsView struct {
	api    RankingsAPI
	jobID  int
	limit  int
	notify Notifier
	coord  *refresh.Coordinator

	mu    sync.RWMutex
	state RankingsState

	changes listeners
}

// NewRankingsView creates the view for jobID. limit <= 0 uses the server's
// default page of rankings.
func NewRankingsView(client RankingsAPI, jobID, limit int, n Notifier) *RankingsView {
	v := &RankingsView{api: client, jobID: jobID, limit: limit, notify: n}
	v.coord = refresh.New(fmt.Sprintf("rankings/%d", jobID), v.pass)
	v.coord.OnChange(func(bool) { v.changes.fire() })
	return v
}

// JobID returns the job posting this view ranks
func (v *RankingsView) JobID() int {
	return v.jobID
}

// Refresh re-issues the rankings and queue status requests in parallel. While
// that pair is in flight further calls return refresh.ErrInFlight.
func (v *RankingsView) Refresh(ctx context.Context) error {
	return v.coord.Run(ctx)
}

// InFlight reports whether a refresh pair is running
func (v *RankingsView) InFlight() bool {
	return v.coord.InFlight()
}

// Coordinator exposes the view's refresh coordinator for scheduling
func (v *RankingsView) Coordinator() *refresh.Coordinator {
	return v.coord
}

// OnChange registers a callback for any state change
func (v *RankingsView) OnChange(fn func()) {
	v.changes.add(fn)
}

// State returns a copy of the current state
func (v *RankingsView) State() RankingsState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := v.state
	out.Rows = append([]ranking.Row(nil), v.state.Rows...)
	out.InFlight = v.coord.InFlight()
	return out
}

func (v *RankingsView) pass(ctx context.Context) error {
	return fanOut(ctx, v.notify, v.loadRankings, v.loadQueue)
}

func (v *RankingsView) loadRankings(ctx context.Context) error {
	res, err := v.api.JobRankings(ctx, v.jobID, v.limit)

	v.mu.Lock()
	if err != nil {
		v.state.RankingsErr = err
	} else {
		v.state.Job = res.Job
		v.state.Rows = ranking.Rank(res.Rankings)
		v.state.RankingsErr = nil
		v.state.RankingsSet = true
	}
	v.mu.Unlock()

	v.changes.fire()
	return err
}

func (v *RankingsView) loadQueue(ctx context.Context) error {
	q, err := v.api.QueueStatus(ctx, v.jobID)

	v.mu.Lock()
	if err != nil {
		v.state.QueueErr = err
	} else {
		v.state.Queue = q
		v.state.QueueErr = nil
		v.state.QueueSet = true
	}
	v.mu.Unlock()

	v.changes.fire()
	return err
}
