package views

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/aggregate"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/refresh"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/store"
)

// ResumesAPI is the subset of the API client the resumes screen uses
type ResumesAPI interface {
	ListResumes(ctx context.Context, q models.ListQuery) (models.Page[models.Resume], error)
	ListAnalyses(ctx context.Context, q models.ListQuery) (models.Page[models.Analysis], error)
	DeleteResume(ctx context.Context, id int) error
	AnalyzeResume(ctx context.Context, resumeID, jobID int) (models.Analysis, error)
	UploadResume(ctx context.Context, filename string, r io.Reader) (models.Resume, error)
}

// ResumesView is the "My Resumes" screen: one page of resumes joined with
// the loaded analyses
type ResumesView struct {
	api    ResumesAPI
	notify Notifier
	coord  *refresh.Coordinator

	Resumes  *store.Store[models.Resume]
	Analyses *store.Store[models.Analysis]

	mu              sync.Mutex
	page            int
	perPage         int
	analysesPerPage int

	changes listeners
}

// NewResumesView creates the view. analysesPerPage bounds how many of the
// user's analyses are joined onto the resume cards.
func NewResumesView(client ResumesAPI, perPage, analysesPerPage int, n Notifier) *ResumesView {
	v := &ResumesView{
		api:             client,
		notify:          n,
		page:            1,
		perPage:         perPage,
		analysesPerPage: analysesPerPage,
		Resumes:         store.New[models.Resume]("resumes", client.ListResumes),
		Analyses:        store.New[models.Analysis]("analyses", client.ListAnalyses),
	}
	v.coord = refresh.New("resumes", v.pass)
	watch(v.Resumes, &v.changes)
	watch(v.Analyses, &v.changes)
	v.coord.OnChange(func(bool) { v.changes.fire() })
	return v
}

// Close abandons any refresh still in flight
func (v *ResumesView) Close() {
	closeStores(v.coord, v.Resumes, v.Analyses)
}

// OnChange registers a callback for any state change
func (v *ResumesView) OnChange(fn func()) {
	v.changes.add(fn)
}

// Coordinator exposes the view's refresh coordinator for scheduling
func (v *ResumesView) Coordinator() *refresh.Coordinator {
	return v.coord
}

// Refresh reloads resumes and analyses in parallel
func (v *ResumesView) Refresh(ctx context.Context) error {
	return v.coord.Request(ctx)
}

// SetPage moves to another page of resumes
func (v *ResumesView) SetPage(ctx context.Context, page int) error {
	v.mu.Lock()
	v.page = page
	v.mu.Unlock()
	return v.coord.Request(ctx)
}

// Delete removes a resume. It disappears from the list immediately and the
// view is refreshed so its analyses go too.
func (v *ResumesView) Delete(ctx context.Context, resumeID int) error {
	return mutate(ctx, v.coord, v.notify, func(ctx context.Context) error {
		if err := v.api.DeleteResume(ctx, resumeID); err != nil {
			return fmt.Errorf("failed to delete resume: %w", err)
		}
		v.Resumes.Remove(func(r models.Resume) bool { return r.ID == resumeID })
		v.Analyses.Remove(func(a models.Analysis) bool { return a.ResumeID == resumeID })
		v.notify.Info("Resume deleted")
		return nil
	})
}

// Analyze requests scoring of a resume against a job posting
func (v *ResumesView) Analyze(ctx context.Context, resumeID, jobID int) (models.Analysis, error) {
	var out models.Analysis
	err := mutate(ctx, v.coord, v.notify, func(ctx context.Context) error {
		a, err := v.api.AnalyzeResume(ctx, resumeID, jobID)
		if err != nil {
			return fmt.Errorf("failed to request analysis: %w", err)
		}
		out = a
		if a.Status == models.AnalysisFailed {
			v.notify.Info("Analysis could not be queued: " + a.ImprovementSuggestions)
		} else {
			v.notify.Info("Resume added to analysis queue")
		}
		return nil
	})
	return out, err
}

// Upload sends a resume file and refreshes the list
func (v *ResumesView) Upload(ctx context.Context, filename string, r io.Reader) (models.Resume, error) {
	var out models.Resume
	err := mutate(ctx, v.coord, v.notify, func(ctx context.Context) error {
		res, err := v.api.UploadResume(ctx, filename, r)
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", filename, err)
		}
		out = res
		v.notify.Info("Resume uploaded: " + res.OriginalFilename)
		return nil
	})
	return out, err
}

// Cards joins the loaded resumes with the loaded analyses
func (v *ResumesView) Cards() []aggregate.ResumeRollup {
	return aggregate.RollupResumes(v.Resumes.Snapshot().Items, v.Analyses.Snapshot().Items)
}

// Loading reports whether the list should show a loading indicator
func (v *ResumesView) Loading() bool {
	return v.Resumes.Snapshot().Status == store.StatusLoading
}

func (v *ResumesView) pass(ctx context.Context) error {
	return fanOut(ctx, v.notify,
		refresher(v.Resumes, v.resumesQuery()),
		refresher(v.Analyses, v.analysesQuery()),
	)
}

func (v *ResumesView) resumesQuery() models.ListQuery {
	v.mu.Lock()
	defer v.mu.Unlock()
	return models.ListQuery{Page: v.page, PerPage: v.perPage}
}

func (v *ResumesView) analysesQuery() models.ListQuery {
	return models.ListQuery{Page: 1, PerPage: v.analysesPerPage}
}
