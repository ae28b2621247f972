package api

import (
	"context"
	"fmt"
	"io"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

// UploadResume sends a resume file as the multipart "file" field
func (c *Client) UploadResume(ctx context.Context, filename string, r io.Reader) (models.Resume, error) {
	var out struct {
		Resume models.Resume `json:"resume"`
	}
	if err := c.postMultipart(ctx, "/resumes/upload", nil, "file", filename, r, &out); err != nil {
		return models.Resume{}, err
	}
	return out.Resume, nil
}

// ListResumes returns one page of the current user's resumes
func (c *Client) ListResumes(ctx context.Context, q models.ListQuery) (models.Page[models.Resume], error) {
	return listPage[models.Resume](ctx, c, "/resumes/", "resumes", q)
}

// DeleteResume removes a resume; the server cascades to its analyses
func (c *Client) DeleteResume(ctx context.Context, id int) error {
	return c.deleteResource(ctx, fmt.Sprintf("/resumes/%d", id))
}

// AnalyzeResume requests scoring of a resume against a job posting. When the
// pair was already analyzed the existing record is returned. If the server
// accepted the request but could not queue it, the returned analysis is
// marked failed.
func (c *Client) AnalyzeResume(ctx context.Context, resumeID, jobID int) (models.Analysis, error) {
	var out struct {
		Analysis *models.Analysis `json:"analysis"`
		Message  string           `json:"message"`
		Error    string           `json:"error"`
	}
	path := fmt.Sprintf("/resumes/analyze/%d/%d", resumeID, jobID)
	if err := c.postJSON(ctx, path, nil, &out); err != nil {
		return models.Analysis{}, err
	}

	if out.Analysis == nil {
		return models.Analysis{
			ResumeID:               resumeID,
			JobID:                  jobID,
			Status:                 models.AnalysisFailed,
			ImprovementSuggestions: out.Error,
		}, nil
	}

	a := *out.Analysis
	a.Normalize()
	return a, nil
}

// ListAnalyses returns one page of the current user's analyses, newest
// first. The "job_id" filter narrows to one job posting.
func (c *Client) ListAnalyses(ctx context.Context, q models.ListQuery) (models.Page[models.Analysis], error) {
	page, err := listPage[models.Analysis](ctx, c, "/resumes/analyses", "analyses", q)
	if err != nil {
		return page, err
	}
	normalizeAnalyses(page.Items)
	return page, nil
}
