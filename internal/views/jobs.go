package views

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/refresh"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/store"
)

// JobsAPI is the subset of the API client the jobs screen uses
type JobsAPI interface {
	ListJobs(ctx context.Context, q models.ListQuery) (models.Page[models.JobPosting], error)
	CreateJob(ctx context.Context, job models.NewJob, jdName string, jdPDF io.Reader) (models.JobPosting, error)
}

// JobsView is the searchable job board
type JobsView struct {
	api    JobsAPI
	notify Notifier
	coord  *refresh.Coordinator

	Jobs *store.Store[models.JobPosting]

	mu      sync.Mutex
	page    int
	perPage int
	search  string

	changes listeners
}

// NewJobsView creates the view
func NewJobsView(client JobsAPI, perPage int, n Notifier) *JobsView {
	v := &JobsView{
		api:     client,
		notify:  n,
		page:    1,
		perPage: perPage,
		Jobs:    store.New[models.JobPosting]("jobs", client.ListJobs),
	}
	v.coord = refresh.New("jobs", v.pass)
	watch(v.Jobs, &v.changes)
	v.coord.OnChange(func(bool) { v.changes.fire() })
	return v
}

// Close abandons any refresh still in flight
func (v *JobsView) Close() {
	closeStores(v.coord, v.Jobs)
}

// OnChange registers a callback for any state change
func (v *JobsView) OnChange(fn func()) {
	v.changes.add(fn)
}

// Refresh reloads the current page
func (v *JobsView) Refresh(ctx context.Context) error {
	return v.coord.Request(ctx)
}

// Search filters postings by title, company or description and returns to
// the first page
func (v *JobsView) Search(ctx context.Context, term string) error {
	v.mu.Lock()
	v.search = term
	v.page = 1
	v.mu.Unlock()
	return v.coord.Request(ctx)
}

// SetPage moves to another page of results
func (v *JobsView) SetPage(ctx context.Context, page int) error {
	v.mu.Lock()
	v.page = page
	v.mu.Unlock()
	return v.coord.Request(ctx)
}

// Create publishes a job posting. jdPDF may be nil.
func (v *JobsView) Create(ctx context.Context, job models.NewJob, jdName string, jdPDF io.Reader) (models.JobPosting, error) {
	var out models.JobPosting
	err := mutate(ctx, v.coord, v.notify, func(ctx context.Context) error {
		created, err := v.api.CreateJob(ctx, job, jdName, jdPDF)
		if err != nil {
			return fmt.Errorf("failed to create job: %w", err)
		}
		out = created
		v.notify.Info("Job created: " + created.Title)
		return nil
	})
	return out, err
}

func (v *JobsView) pass(ctx context.Context) error {
	return fanOut(ctx, v.notify, refresher(v.Jobs, v.query()))
}

func (v *JobsView) query() models.ListQuery {
	v.mu.Lock()
	defer v.mu.Unlock()
	return models.ListQuery{
		Page:    v.page,
		PerPage: v.perPage,
		Filters: map[string]string{"search": v.search},
	}
}
