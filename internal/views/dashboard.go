package views

import (
	"context"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/aggregate"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/refresh"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/store"
)

// DashboardAPI is the subset of the API client the dashboard uses
type DashboardAPI interface {
	ListJobs(ctx context.Context, q models.ListQuery) (models.Page[models.JobPosting], error)
	ListResumes(ctx context.Context, q models.ListQuery) (models.Page[models.Resume], error)
	ListApplications(ctx context.Context, q models.ListQuery) (models.Page[models.Application], error)
	ListAnalyses(ctx context.Context, q models.ListQuery) (models.Page[models.Analysis], error)
}

// DashboardView is a user's landing page. It loads a small page of each
// collection in parallel and reads totals from the server metadata.
type DashboardView struct {
	notify  Notifier
	coord   *refresh.Coordinator
	perPage int

	Jobs         *store.Store[models.JobPosting]
	Resumes      *store.Store[models.Resume]
	Applications *store.Store[models.Application]
	Analyses     *store.Store[models.Analysis]

	changes listeners
}

// NewDashboardView creates the view; perPage sizes each source page
func NewDashboardView(client DashboardAPI, perPage int, n Notifier) *DashboardView {
	v := &DashboardView{
		notify:       n,
		perPage:      perPage,
		Jobs:         store.New[models.JobPosting]("dashboard/jobs", client.ListJobs),
		Resumes:      store.New[models.Resume]("dashboard/resumes", client.ListResumes),
		Applications: store.New[models.Application]("dashboard/applications", client.ListApplications),
		Analyses:     store.New[models.Analysis]("dashboard/analyses", client.ListAnalyses),
	}
	v.coord = refresh.New("dashboard", v.pass)
	watch(v.Jobs, &v.changes)
	watch(v.Resumes, &v.changes)
	watch(v.Applications, &v.changes)
	watch(v.Analyses, &v.changes)
	v.coord.OnChange(func(bool) { v.changes.fire() })
	return v
}

// OnChange registers a callback for any state change
func (v *DashboardView) OnChange(fn func()) {
	v.changes.add(fn)
}

// Coordinator exposes the view's refresh coordinator for scheduling
func (v *DashboardView) Coordinator() *refresh.Coordinator {
	return v.coord
}

// Refresh reloads all four sources. Sources fail independently.
func (v *DashboardView) Refresh(ctx context.Context) error {
	return v.coord.Request(ctx)
}

// Close abandons any refresh still in flight
func (v *DashboardView) Close() {
	closeStores(v.coord, v.Jobs, v.Resumes, v.Applications, v.Analyses)
}

// Stats aggregates the current store contents
func (v *DashboardView) Stats() aggregate.DashboardStats {
	return aggregate.Dashboard(
		v.Jobs.Snapshot().Result(),
		v.Resumes.Snapshot().Result(),
		v.Applications.Snapshot().Result(),
		v.Analyses.Snapshot().Result(),
	)
}

func (v *DashboardView) pass(ctx context.Context) error {
	q := models.ListQuery{Page: 1, PerPage: v.perPage}
	return fanOut(ctx, v.notify,
		refresher(v.Jobs, q),
		refresher(v.Resumes, q),
		refresher(v.Applications, q),
		refresher(v.Analyses, q),
	)
}
