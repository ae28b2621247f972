package api

import (
	"context"
	"fmt"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

// ListApplications returns one page of the current user's applications. The
// "status" filter narrows to one application status.
func (c *Client) ListApplications(ctx context.Context, q models.ListQuery) (models.Page[models.Application], error) {
	return listPage[models.Application](ctx, c, "/applications/", "applications", q)
}

// Apply submits a resume to a job posting
func (c *Client) Apply(ctx context.Context, jobID, resumeID int) (models.Application, error) {
	payload := struct {
		JobID    int `json:"job_id"`
		ResumeID int `json:"resume_id"`
	}{jobID, resumeID}

	var out struct {
		Application models.Application `json:"application"`
	}
	if err := c.postJSON(ctx, "/applications/", payload, &out); err != nil {
		return models.Application{}, err
	}
	return out.Application, nil
}

// Withdraw deletes a pending application. Applications in any other status
// are rejected locally with ErrNotWithdrawable.
func (c *Client) Withdraw(ctx context.Context, app models.Application) error {
	if !app.CanWithdraw() {
		return fmt.Errorf("application %d is %s: %w", app.ID, app.Status, ErrNotWithdrawable)
	}
	return c.deleteResource(ctx, fmt.Sprintf("/applications/%d", app.ID))
}
