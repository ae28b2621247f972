package aggregate

import (
	"errors"
	"math"
	"testing"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

func score(v float64) *float64 { return &v }

func completed(id, resumeID int, s float64) models.Analysis {
	return models.Analysis{ID: id, ResumeID: resumeID, JobID: 7, Status: models.AnalysisCompleted, RelevanceScore: score(s), Verdict: models.VerdictMedium}
}

func withStatus(id, resumeID int, st models.AnalysisStatus) models.Analysis {
	return models.Analysis{ID: id, ResumeID: resumeID, JobID: 7, Status: st}
}

// TestAnalysesForResume tests filtering by resume id in source order
func TestAnalysesForResume(t *testing.T) {
	input := []models.Analysis{
		withStatus(5, 1, models.AnalysisPending),
		withStatus(4, 2, models.AnalysisPending),
		completed(3, 1, 70),
		completed(1, 1, 50),
	}
	before := append([]models.Analysis(nil), input...)

	got := AnalysesForResume(input, 1)
	want := []int{5, 3, 1}
	if len(got) != len(want) {
		t.Fatalf("got %d analyses, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("position %d: id %d, want %d", i, got[i].ID, id)
		}
	}
	for i := range input {
		if input[i].ID != before[i].ID {
			t.Fatal("input was reordered")
		}
	}

	if got := AnalysesForResume(input, 99); got == nil || len(got) != 0 {
		t.Errorf("unknown resume = %v, want empty slice", got)
	}
}

// TestSummarizeResumeAnalyses tests counts and the unrounded mean
func TestSummarizeResumeAnalyses(t *testing.T) {
	tests := []struct {
		name          string
		analyses      []models.Analysis
		wantCompleted int
		wantPending   int
		wantAvg       *float64
		wantLabel     string
	}{
		{
			name:      "empty",
			wantLabel: "",
		},
		{
			name:        "only pending",
			analyses:    []models.Analysis{withStatus(1, 1, models.AnalysisPending)},
			wantPending: 1,
		},
		{
			name: "mixed states",
			analyses: []models.Analysis{
				completed(1, 1, 80),
				completed(2, 1, 85.6),
				withStatus(3, 1, models.AnalysisPending),
				withStatus(4, 1, models.AnalysisProcessing),
				withStatus(5, 1, models.AnalysisFailed),
			},
			wantCompleted: 2,
			wantPending:   1,
			wantAvg:       score(82.8),
			wantLabel:     "82.8",
		},
		{
			name: "rounding happens last",
			analyses: []models.Analysis{
				completed(1, 1, 70.04),
				completed(2, 1, 70.04),
				completed(3, 1, 70.14),
			},
			wantCompleted: 3,
			wantAvg:       score((70.04 + 70.04 + 70.14) / 3),
			wantLabel:     "70.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SummarizeResumeAnalyses(tt.analyses)
			if got.CompletedCount != tt.wantCompleted || got.PendingCount != tt.wantPending {
				t.Errorf("counts = %d/%d, want %d/%d", got.CompletedCount, got.PendingCount, tt.wantCompleted, tt.wantPending)
			}
			switch {
			case tt.wantAvg == nil && got.AverageScore != nil:
				t.Errorf("average = %v, want nil", *got.AverageScore)
			case tt.wantAvg != nil && got.AverageScore == nil:
				t.Errorf("average = nil, want %v", *tt.wantAvg)
			case tt.wantAvg != nil && math.Abs(*got.AverageScore-*tt.wantAvg) > 1e-9:
				t.Errorf("average = %v, want %v", *got.AverageScore, *tt.wantAvg)
			}
			if tt.wantLabel != "" && got.AverageLabel() != tt.wantLabel {
				t.Errorf("label = %q, want %q", got.AverageLabel(), tt.wantLabel)
			}
		})
	}
}

// TestRollupResumes tests the per-resume cards
func TestRollupResumes(t *testing.T) {
	resumes := []models.Resume{{ID: 1, OriginalFilename: "cv.pdf"}, {ID: 2, OriginalFilename: "other.docx"}}
	analyses := []models.Analysis{
		completed(10, 1, 90),
		withStatus(11, 1, models.AnalysisPending),
		completed(12, 1, 70),
		withStatus(13, 1, models.AnalysisProcessing),
	}

	cards := RollupResumes(resumes, analyses)
	if len(cards) != 2 {
		t.Fatalf("got %d cards, want 2", len(cards))
	}

	first := cards[0]
	if len(first.Recent) != RecentAnalysesShown || first.Recent[0].ID != 10 {
		t.Errorf("recent = %+v", first.Recent)
	}
	if !first.HasMore() || first.AnalysisCount != 4 {
		t.Errorf("HasMore = %v count = %d, want true/4", first.HasMore(), first.AnalysisCount)
	}
	if first.Summary.AverageLabel() != "80.0" {
		t.Errorf("average label = %q, want 80.0", first.Summary.AverageLabel())
	}

	second := cards[1]
	if second.HasMore() || second.Summary.CompletedCount != 0 || second.Summary.AverageScore != nil {
		t.Errorf("empty card = %+v", second)
	}
}

// TestDashboardPartialFailure tests that one failing source does not hide
// the others
func TestDashboardPartialFailure(t *testing.T) {
	boom := errors.New("applications unavailable")

	jobs := models.Ok(models.Page[models.JobPosting]{Items: make([]models.JobPosting, 5), Total: 23})
	resumes := models.Ok(models.Page[models.Resume]{Items: make([]models.Resume, 2), Total: 2})
	apps := models.Failed[models.Page[models.Application]](boom)
	analyses := models.Ok(models.Page[models.Analysis]{
		Items: []models.Analysis{
			completed(1, 1, 80),
			withStatus(2, 1, models.AnalysisPending),
			withStatus(3, 1, models.AnalysisPending),
			withStatus(4, 1, models.AnalysisProcessing),
		},
		Total: 40,
	})

	d := Dashboard(jobs, resumes, apps, analyses)

	if !d.TotalJobs.OK() || d.TotalJobs.Value != 23 {
		t.Errorf("TotalJobs = %+v, want server total 23", d.TotalJobs)
	}
	if d.MyResumes.Value != 2 {
		t.Errorf("MyResumes = %+v", d.MyResumes)
	}
	if d.MyApplications.OK() || !errors.Is(d.MyApplications.Err, boom) {
		t.Errorf("MyApplications = %+v, want error marker", d.MyApplications)
	}
	if d.CompletedAnalyses.Value != 1 || d.PendingAnalyses.Value != 2 {
		t.Errorf("analysis counts = %d/%d, want page-scoped 1/2", d.CompletedAnalyses.Value, d.PendingAnalyses.Value)
	}
	if errs := d.Failed(); len(errs) != 1 {
		t.Errorf("Failed() = %v, want one error", errs)
	}
}

// TestDashboardAllFailed tests that every section carries its own error
func TestDashboardAllFailed(t *testing.T) {
	boom := errors.New("offline")
	d := Dashboard(
		models.Failed[models.Page[models.JobPosting]](boom),
		models.Failed[models.Page[models.Resume]](boom),
		models.Failed[models.Page[models.Application]](boom),
		models.Failed[models.Page[models.Analysis]](boom),
	)
	if len(d.Failed()) != 4 {
		t.Errorf("Failed() = %d errors, want 4", len(d.Failed()))
	}
	if d.PendingAnalyses.OK() || d.RecentAnalyses != nil {
		t.Errorf("analysis section should be marked failed: %+v", d)
	}
}

// TestDashboardPending tests that unloaded sources are marked pending, not
// zero and not failed
func TestDashboardPending(t *testing.T) {
	d := Dashboard(
		models.Ok(models.Page[models.JobPosting]{Total: 7}),
		models.Pending[models.Page[models.Resume]](),
		models.Ok(models.Page[models.Application]{}),
		models.Pending[models.Page[models.Analysis]](),
	)
	if !d.TotalJobs.OK() || d.TotalJobs.Value != 7 {
		t.Errorf("TotalJobs = %+v, want 7", d.TotalJobs)
	}
	if d.MyResumes.OK() || !d.MyResumes.Pending {
		t.Errorf("MyResumes = %+v, want pending", d.MyResumes)
	}
	if !d.PendingAnalyses.Pending || !d.CompletedAnalyses.Pending {
		t.Errorf("analysis figures = %+v/%+v, want pending", d.CompletedAnalyses, d.PendingAnalyses)
	}
	if errs := d.Failed(); len(errs) != 0 {
		t.Errorf("Failed() = %v, pending is not a failure", errs)
	}
}

// TestPlaceholders tests orphan reference rendering
func TestPlaceholders(t *testing.T) {
	orphan := completed(1, 9, 50)
	if ResumeName(orphan) != "Resume" || CandidateName(orphan) != "Unknown User" {
		t.Errorf("placeholders = %q/%q", ResumeName(orphan), CandidateName(orphan))
	}

	orphan.Resume = &models.Resume{OriginalFilename: "jane.pdf"}
	orphan.User = &models.User{Username: "jane"}
	if ResumeName(orphan) != "jane.pdf" || CandidateName(orphan) != "jane" {
		t.Errorf("names = %q/%q", ResumeName(orphan), CandidateName(orphan))
	}
}

// TestCountApplicationsByStatus tests the status filter chip counts
func TestCountApplicationsByStatus(t *testing.T) {
	apps := []models.Application{
		{Status: models.ApplicationPending},
		{Status: models.ApplicationPending},
		{Status: models.ApplicationRejected},
	}
	counts := CountApplicationsByStatus(apps)
	if counts[models.ApplicationPending] != 2 || counts[models.ApplicationRejected] != 1 {
		t.Errorf("counts = %v", counts)
	}
	if _, ok := counts[models.ApplicationShortlisted]; !ok {
		t.Error("every status should be present")
	}
}

// TestHighSuitabilityRate tests the admin success rate figure
func TestHighSuitabilityRate(t *testing.T) {
	var st models.SystemStats
	if HighSuitabilityRate(st) != 0 {
		t.Error("empty stats should give 0")
	}
	st.Analyses.Total = 3
	st.Verdicts.High = 1
	if got := HighSuitabilityRate(st); got != 33.3 {
		t.Errorf("rate = %v, want 33.3", got)
	}
}
