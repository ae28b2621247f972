package views

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/api"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/refresh"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/store"
)

// AdminAPI is the subset of the API client the admin screens use
type AdminAPI interface {
	SystemStats(ctx context.Context) (models.SystemStats, error)
	AdminDashboard(ctx context.Context) (api.DashboardSummary, error)
	ListAllAnalyses(ctx context.Context, q models.ListQuery) (models.Page[models.Analysis], error)
	ReprocessAnalysis(ctx context.Context, id int) error
}

// AdminDashboardState holds the two admin dashboard sources
type AdminDashboardState struct {
	Stats   models.Result[models.SystemStats]
	Summary models.Result[api.DashboardSummary]
	Loaded  bool
}

// AdminDashboardView loads platform statistics and recent jobs in parallel
type AdminDashboardView struct {
	api    AdminAPI
	notify Notifier
	coord  *refresh.Coordinator

	mu    sync.RWMutex
	state AdminDashboardState

	changes listeners
}

// NewAdminDashboardView creates the view
func NewAdminDashboardView(client AdminAPI, n Notifier) *AdminDashboardView {
	v := &AdminDashboardView{api: client, notify: n}
	v.coord = refresh.New("admin-dashboard", v.pass)
	v.coord.OnChange(func(bool) { v.changes.fire() })
	return v
}

// OnChange registers a callback for any state change
func (v *AdminDashboardView) OnChange(fn func()) {
	v.changes.add(fn)
}

// Refresh reloads both sources
func (v *AdminDashboardView) Refresh(ctx context.Context) error {
	return v.coord.Request(ctx)
}

// State returns the latest results
func (v *AdminDashboardView) State() AdminDashboardState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

func (v *AdminDashboardView) pass(ctx context.Context) error {
	return fanOut(ctx, v.notify,
		func(ctx context.Context) error {
			st, err := v.api.SystemStats(ctx)
			v.commit(func(s *AdminDashboardState) {
				if err != nil {
					s.Stats.Err = err
					return
				}
				s.Stats = models.Ok(st)
			})
			return err
		},
		func(ctx context.Context) error {
			sum, err := v.api.AdminDashboard(ctx)
			v.commit(func(s *AdminDashboardState) {
				if err != nil {
					s.Summary.Err = err
					return
				}
				s.Summary = models.Ok(sum)
			})
			return err
		},
	)
}

func (v *AdminDashboardView) commit(fn func(*AdminDashboardState)) {
	v.mu.Lock()
	fn(&v.state)
	v.state.Loaded = true
	v.mu.Unlock()
	v.changes.fire()
}

// AnalysisFilter narrows the admin analyses list. Zero values match all.
type AnalysisFilter struct {
	JobID   int
	Status  models.AnalysisStatus
	Verdict models.Verdict
}

func (f AnalysisFilter) filters() map[string]string {
	out := map[string]string{
		"status":  string(f.Status),
		"verdict": string(f.Verdict),
	}
	if f.JobID > 0 {
		out["job_id"] = strconv.Itoa(f.JobID)
	}
	return out
}

// AdminAnalysesView lists every user's analyses and can requeue them
type AdminAnalysesView struct {
	api    AdminAPI
	notify Notifier
	coord  *refresh.Coordinator

	Analyses *store.Store[models.Analysis]

	mu      sync.Mutex
	page    int
	perPage int
	filter  AnalysisFilter

	changes listeners
}

// NewAdminAnalysesView creates the view
func NewAdminAnalysesView(client AdminAPI, perPage int, n Notifier) *AdminAnalysesView {
	v := &AdminAnalysesView{
		api:      client,
		notify:   n,
		page:     1,
		perPage:  perPage,
		Analyses: store.New[models.Analysis]("admin/analyses", client.ListAllAnalyses),
	}
	v.coord = refresh.New("admin-analyses", v.pass)
	watch(v.Analyses, &v.changes)
	v.coord.OnChange(func(bool) { v.changes.fire() })
	return v
}

// Close abandons any refresh still in flight
func (v *AdminAnalysesView) Close() {
	closeStores(v.coord, v.Analyses)
}

// OnChange registers a callback for any state change
func (v *AdminAnalysesView) OnChange(fn func()) {
	v.changes.add(fn)
}

// Refresh reloads the current page
func (v *AdminAnalysesView) Refresh(ctx context.Context) error {
	return v.coord.Request(ctx)
}

// SetFilter replaces the filter and returns to the first page
func (v *AdminAnalysesView) SetFilter(ctx context.Context, f AnalysisFilter) error {
	v.mu.Lock()
	v.filter = f
	v.page = 1
	v.mu.Unlock()
	return v.coord.Request(ctx)
}

// SetPage moves to another page under the current filter
func (v *AdminAnalysesView) SetPage(ctx context.Context, page int) error {
	v.mu.Lock()
	v.page = page
	v.mu.Unlock()
	return v.coord.Request(ctx)
}

// Reprocess puts an analysis back on the scoring queue
func (v *AdminAnalysesView) Reprocess(ctx context.Context, id int) error {
	return mutate(ctx, v.coord, v.notify, func(ctx context.Context) error {
		if err := v.api.ReprocessAnalysis(ctx, id); err != nil {
			return fmt.Errorf("failed to reprocess analysis %d: %w", id, err)
		}
		v.notify.Info(fmt.Sprintf("Analysis %d queued for reprocessing", id))
		return nil
	})
}

func (v *AdminAnalysesView) pass(ctx context.Context) error {
	return fanOut(ctx, v.notify, refresher(v.Analyses, v.query()))
}

func (v *AdminAnalysesView) query() models.ListQuery {
	v.mu.Lock()
	defer v.mu.Unlock()
	return models.ListQuery{Page: v.page, PerPage: v.perPage, Filters: v.filter.filters()}
}
