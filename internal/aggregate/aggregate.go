// Package aggregate joins independently fetched collections into the
// derived records the screens display. Every function is pure: inputs are
// never modified and nothing touches the network.
package aggregate

import (
	"fmt"
	"math"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

const (
	// RecentAnalysesShown is how many analyses a resume card lists
	RecentAnalysesShown = 3

	missingResumeName = "Resume"
	missingUserName   = "Unknown User"
)

// AnalysesForResume returns the analyses of one resume in source order
func AnalysesForResume(analyses []models.Analysis, resumeID int) []models.Analysis {
	out := []models.Analysis{}
	for _, a := range analyses {
		if a.ResumeID == resumeID {
			out = append(out, a)
		}
	}
	return out
}

// ResumeSummary counts a resume's analyses by state
type ResumeSummary struct {
	CompletedCount int
	PendingCount   int
	// AverageScore is the unrounded mean of completed scores; nil when
	// nothing has completed
	AverageScore *float64
}

// AverageLabel renders the average to one decimal, or "" when absent
func (s ResumeSummary) AverageLabel() string {
	if s.AverageScore == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *s.AverageScore)
}

// SummarizeResumeAnalyses counts completed and pending analyses and averages
// the completed scores. Processing and failed analyses count as neither.
func SummarizeResumeAnalyses(analyses []models.Analysis) ResumeSummary {
	var s ResumeSummary
	var sum float64
	scored := 0

	for _, a := range analyses {
		switch a.Status {
		case models.AnalysisCompleted:
			s.CompletedCount++
			if score, ok := a.Score(); ok {
				sum += score
				scored++
			}
		case models.AnalysisPending:
			s.PendingCount++
		}
	}

	if scored > 0 {
		avg := sum / float64(scored)
		s.AverageScore = &avg
	}
	return s
}

// ResumeRollup is one resume card: the resume, its analysis summary and the
// first few analyses
type ResumeRollup struct {
	Resume  models.Resume
	Summary ResumeSummary
	Recent  []models.Analysis
	// AnalysisCount is the number of loaded analyses for this resume
	AnalysisCount int
}

// HasMore reports whether a "view all" affordance is needed
func (r ResumeRollup) HasMore() bool {
	return r.AnalysisCount > len(r.Recent)
}

// RollupResumes builds one card per resume from the loaded analyses page
func RollupResumes(resumes []models.Resume, analyses []models.Analysis) []ResumeRollup {
	out := make([]ResumeRollup, 0, len(resumes))
	for _, r := range resumes {
		mine := AnalysesForResume(analyses, r.ID)
		recent := mine
		if len(recent) > RecentAnalysesShown {
			recent = recent[:RecentAnalysesShown]
		}
		out = append(out, ResumeRollup{
			Resume:        r,
			Summary:       SummarizeResumeAnalyses(mine),
			Recent:        recent,
			AnalysisCount: len(mine),
		})
	}
	return out
}

// ResumeName returns the resume's file name or a placeholder when the resume
// is no longer available
func ResumeName(a models.Analysis) string {
	if a.Resume == nil || a.Resume.OriginalFilename == "" {
		return missingResumeName
	}
	return a.Resume.OriginalFilename
}

// CandidateName returns the owning user's name or a placeholder
func CandidateName(a models.Analysis) string {
	if a.User == nil || a.User.Username == "" {
		return missingUserName
	}
	return a.User.Username
}

// CountApplicationsByStatus counts loaded applications per status. Every
// known status is present in the result.
func CountApplicationsByStatus(apps []models.Application) map[models.ApplicationStatus]int {
	counts := make(map[models.ApplicationStatus]int, len(models.ApplicationStatuses))
	for _, st := range models.ApplicationStatuses {
		counts[st] = 0
	}
	for _, a := range apps {
		counts[a.Status]++
	}
	return counts
}

// HighSuitabilityRate is the percentage of analyses with a High verdict,
// rounded to one decimal. Zero when there are no analyses.
func HighSuitabilityRate(stats models.SystemStats) float64 {
	if stats.Analyses.Total == 0 {
		return 0
	}
	rate := float64(stats.Verdicts.High) / float64(stats.Analyses.Total) * 100
	return math.Round(rate*10) / 10
}
