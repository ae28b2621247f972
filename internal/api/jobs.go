package api

import (
	"context"
	"fmt"
	"io"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

// ListJobs returns one page of job postings. Supported filters are
// "search" and "is_active".
func (c *Client) ListJobs(ctx context.Context, q models.ListQuery) (models.Page[models.JobPosting], error) {
	return listPage[models.JobPosting](ctx, c, "/jobs/", "jobs", q)
}

// GetJob returns a single job posting
func (c *Client) GetJob(ctx context.Context, id int) (models.JobPosting, error) {
	var out struct {
		Job models.JobPosting `json:"job"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("/jobs/%d", id), nil, &out); err != nil {
		return models.JobPosting{}, err
	}
	return out.Job, nil
}

// CreateJob publishes a job posting. jdPDF is optional; when set it is sent
// as the job description document.
func (c *Client) CreateJob(ctx context.Context, job models.NewJob, jdName string, jdPDF io.Reader) (models.JobPosting, error) {
	fields := map[string]string{
		"title":            job.Title,
		"company":          job.Company,
		"location":         job.Location,
		"description":      job.Description,
		"requirements":     job.Requirements,
		"employment_type":  job.EmploymentType,
		"experience_level": job.ExperienceLevel,
	}

	var out struct {
		Job models.JobPosting `json:"job"`
	}
	if err := c.postMultipart(ctx, "/jobs/", fields, "jd_pdf", jdName, jdPDF, &out); err != nil {
		return models.JobPosting{}, err
	}
	return out.Job, nil
}
