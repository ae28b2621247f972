package views

import (
	"context"
	"fmt"
	"sync"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/aggregate"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/api"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/refresh"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/store"
)

// ApplicationsAPI is the subset of the API client the applications screen uses
type ApplicationsAPI interface {
	ListApplications(ctx context.Context, q models.ListQuery) (models.Page[models.Application], error)
	Apply(ctx context.Context, jobID, resumeID int) (models.Application, error)
	Withdraw(ctx context.Context, app models.Application) error
}

// ApplicationsView is the "My Applications" screen
type ApplicationsView struct {
	api    ApplicationsAPI
	notify Notifier
	coord  *refresh.Coordinator

	Applications *store.Store[models.Application]

	mu      sync.Mutex
	page    int
	perPage int
	status  models.ApplicationStatus

	changes listeners
}

// NewApplicationsView creates the view
func NewApplicationsView(client ApplicationsAPI, perPage int, n Notifier) *ApplicationsView {
	v := &ApplicationsView{
		api:          client,
		notify:       n,
		page:         1,
		perPage:      perPage,
		Applications: store.New[models.Application]("applications", client.ListApplications),
	}
	v.coord = refresh.New("applications", v.pass)
	watch(v.Applications, &v.changes)
	v.coord.OnChange(func(bool) { v.changes.fire() })
	return v
}

// Close abandons any refresh still in flight
func (v *ApplicationsView) Close() {
	closeStores(v.coord, v.Applications)
}

// OnChange registers a callback for any state change
func (v *ApplicationsView) OnChange(fn func()) {
	v.changes.add(fn)
}

// Refresh reloads the current page
func (v *ApplicationsView) Refresh(ctx context.Context) error {
	return v.coord.Request(ctx)
}

// SetFilter narrows the list to one status; "" shows all. The page resets.
func (v *ApplicationsView) SetFilter(ctx context.Context, status models.ApplicationStatus) error {
	v.mu.Lock()
	v.status = status
	v.page = 1
	v.mu.Unlock()
	return v.coord.Request(ctx)
}

// SetPage moves to another page under the current filter
func (v *ApplicationsView) SetPage(ctx context.Context, page int) error {
	v.mu.Lock()
	v.page = page
	v.mu.Unlock()
	return v.coord.Request(ctx)
}

// Filter returns the active status filter
func (v *ApplicationsView) Filter() models.ApplicationStatus {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// CanWithdraw reports whether the withdraw action is offered for app
func (v *ApplicationsView) CanWithdraw(app models.Application) bool {
	return app.CanWithdraw()
}

// Withdraw deletes a pending application. Any other status is rejected with
// api.ErrNotWithdrawable before a request is made.
func (v *ApplicationsView) Withdraw(ctx context.Context, app models.Application) error {
	if !app.CanWithdraw() {
		err := fmt.Errorf("application %d is %s: %w", app.ID, app.Status, api.ErrNotWithdrawable)
		v.notify.Error(err)
		return err
	}
	return mutate(ctx, v.coord, v.notify, func(ctx context.Context) error {
		if err := v.api.Withdraw(ctx, app); err != nil {
			return fmt.Errorf("failed to withdraw application: %w", err)
		}
		v.Applications.Remove(func(a models.Application) bool { return a.ID == app.ID })
		v.notify.Info("Application withdrawn")
		return nil
	})
}

// Apply submits a resume to a job posting
func (v *ApplicationsView) Apply(ctx context.Context, jobID, resumeID int) (models.Application, error) {
	var out models.Application
	err := mutate(ctx, v.coord, v.notify, func(ctx context.Context) error {
		app, err := v.api.Apply(ctx, jobID, resumeID)
		if err != nil {
			return fmt.Errorf("failed to submit application: %w", err)
		}
		out = app
		v.notify.Info("Application submitted")
		return nil
	})
	return out, err
}

// StatusCounts counts the loaded page's applications by status
func (v *ApplicationsView) StatusCounts() map[models.ApplicationStatus]int {
	return aggregate.CountApplicationsByStatus(v.Applications.Snapshot().Items)
}

func (v *ApplicationsView) pass(ctx context.Context) error {
	return fanOut(ctx, v.notify, refresher(v.Applications, v.query()))
}

func (v *ApplicationsView) query() models.ListQuery {
	v.mu.Lock()
	defer v.mu.Unlock()
	return models.ListQuery{
		Page:    v.page,
		PerPage: v.perPage,
		Filters: map[string]string{"status": string(v.status)},
	}
}
