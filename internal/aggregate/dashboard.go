package aggregate

import (
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

// Stat is one dashboard figure, or the error that prevented computing it.
// Pending is set while its source has not loaded yet.
type Stat struct {
	Value   int
	Err     error
	Pending bool
}

// OK reports whether the figure is available
func (s Stat) OK() bool {
	return s.Err == nil && !s.Pending
}

// DashboardStats are the figures on a user's dashboard.
//
// TotalJobs, MyResumes and MyApplications come from each collection's server
// total. CompletedAnalyses and PendingAnalyses are counted over the loaded
// page of recent analyses only, so they are recent-page-scoped rather than
// global counts.
type DashboardStats struct {
	TotalJobs         Stat
	MyResumes         Stat
	MyApplications    Stat
	CompletedAnalyses Stat
	PendingAnalyses   Stat

	// RecentAnalyses is the loaded analyses page, nil when it failed
	RecentAnalyses []models.Analysis
}

// Failed returns one error per unavailable source
func (d DashboardStats) Failed() []error {
	var errs []error
	// both analysis figures share one source
	for _, s := range []Stat{d.TotalJobs, d.MyResumes, d.MyApplications, d.CompletedAnalyses} {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return errs
}

// Dashboard combines the four dashboard sources. A failed source only marks
// its own section; the others are still populated.
func Dashboard(
	jobs models.Result[models.Page[models.JobPosting]],
	resumes models.Result[models.Page[models.Resume]],
	applications models.Result[models.Page[models.Application]],
	analyses models.Result[models.Page[models.Analysis]],
) DashboardStats {
	var d DashboardStats

	d.TotalJobs = totalOf(jobs)
	d.MyResumes = totalOf(resumes)
	d.MyApplications = totalOf(applications)

	if !analyses.OK() {
		d.CompletedAnalyses = Stat{Err: analyses.Err, Pending: analyses.Pending}
		d.PendingAnalyses = d.CompletedAnalyses
		return d
	}

	summary := SummarizeResumeAnalyses(analyses.Value.Items)
	d.CompletedAnalyses = Stat{Value: summary.CompletedCount}
	d.PendingAnalyses = Stat{Value: summary.PendingCount}
	d.RecentAnalyses = append([]models.Analysis{}, analyses.Value.Items...)
	return d
}

func totalOf[T any](r models.Result[models.Page[T]]) Stat {
	if !r.OK() {
		return Stat{Err: r.Err, Pending: r.Pending}
	}
	return Stat{Value: r.Value.Total}
}
