package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

// DashboardSummary is the admin dashboard payload
type DashboardSummary struct {
	Stats struct {
		TotalJobs         int `json:"total_jobs"`
		TotalResumes      int `json:"total_resumes"`
		CompletedAnalyses int `json:"completed_analyses"`
		PendingAnalyses   int `json:"pending_analyses"`
	} `json:"stats"`
	RecentJobs []models.JobPosting `json:"recent_jobs"`
}

// SystemStats returns the platform-wide counters
func (c *Client) SystemStats(ctx context.Context) (models.SystemStats, error) {
	var out struct {
		Stats models.SystemStats `json:"stats"`
	}
	if err := c.getJSON(ctx, "/admin/stats", nil, &out); err != nil {
		return models.SystemStats{}, err
	}
	return out.Stats, nil
}

// AdminDashboard returns the dashboard counters and the most recent jobs
func (c *Client) AdminDashboard(ctx context.Context) (DashboardSummary, error) {
	var out DashboardSummary
	if err := c.getJSON(ctx, "/admin/dashboard", nil, &out); err != nil {
		return DashboardSummary{}, err
	}
	return out, nil
}

// JobRankings returns the job and its scored candidates. limit <= 0 uses
// the server default.
func (c *Client) JobRankings(ctx context.Context, jobID, limit int) (models.JobRankings, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}

	var out models.JobRankings
	if err := c.getJSON(ctx, fmt.Sprintf("/admin/jobs/%d/rankings", jobID), query, &out); err != nil {
		return models.JobRankings{}, err
	}
	if out.Rankings == nil {
		out.Rankings = []models.Analysis{}
	}
	normalizeAnalyses(out.Rankings)
	return out, nil
}

// QueueStatus returns the scoring queue counters for a job posting
func (c *Client) QueueStatus(ctx context.Context, jobID int) (models.QueueStatus, error) {
	var out struct {
		QueueStatus models.QueueStatus `json:"queue_status"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/admin/jobs/%d/queue-status", jobID), nil, &out); err != nil {
		return models.QueueStatus{}, err
	}
	return out.QueueStatus, nil
}

// ListAllAnalyses returns one page of every user's analyses. Filters:
// "job_id", "status" and "verdict".
func (c *Client) ListAllAnalyses(ctx context.Context, q models.ListQuery) (models.Page[models.Analysis], error) {
	page, err := listPage[models.Analysis](ctx, c, "/admin/analyses", "analyses", q)
	if err != nil {
		return page, err
	}
	normalizeAnalyses(page.Items)
	return page, nil
}

// ReprocessAnalysis puts an analysis back on the scoring queue
func (c *Client) ReprocessAnalysis(ctx context.Context, id int) error {
	return c.postJSON(ctx, fmt.Sprintf("/admin/analyses/%d/reprocess", id), nil, nil)
}
