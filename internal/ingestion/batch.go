package ingestion

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

// Uploader sends one resume to the server
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (models.Resume, error)
}

// ProgressCallback is called after each file of a batch
type ProgressCallback func(current, total int, message string)

// FileFailure records why a single file was not uploaded
type FileFailure struct {
	File ResumeFile
	Err  error
}

// ImportReport summarizes a batch upload
type ImportReport struct {
	Uploaded []models.Resume
	Failed   []FileFailure
}

// Summary returns a one-line description of the batch
func (r ImportReport) Summary() string {
	return fmt.Sprintf("%d uploaded, %d failed", len(r.Uploaded), len(r.Failed))
}

// UploadAll validates and uploads each file in order. A failing file is
// recorded and the batch continues; only context cancellation stops it.
// progress may be nil.
func UploadAll(ctx context.Context, up Uploader, files []ResumeFile, progress ProgressCallback) ImportReport {
	report := ImportReport{Uploaded: []models.Resume{}}
	if progress == nil {
		progress = func(int, int, string) {}
	}

	for i, f := range files {
		if ctx.Err() != nil {
			report.Failed = append(report.Failed, FileFailure{File: f, Err: ctx.Err()})
			continue
		}

		resume, err := uploadOne(ctx, up, f)
		if err != nil {
			log.Printf("[ingestion] %s: %v", f.Name, err)
			report.Failed = append(report.Failed, FileFailure{File: f, Err: err})
			progress(i+1, len(files), fmt.Sprintf("Failed %s", f.Name))
			continue
		}
		report.Uploaded = append(report.Uploaded, resume)
		progress(i+1, len(files), fmt.Sprintf("Uploaded %s", f.Name))
	}

	return report
}

func uploadOne(ctx context.Context, up Uploader, f ResumeFile) (models.Resume, error) {
	if err := f.Validate(); err != nil {
		return models.Resume{}, err
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return models.Resume{}, fmt.Errorf("failed to open %s: %w", f.Name, err)
	}
	defer file.Close()

	return up.Upload(ctx, f.Name, file)
}
