package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/apitest"
	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

func newLoggedIn(t *testing.T, admin bool) (*Client, *apitest.Server, models.User) {
	t.Helper()
	srv := apitest.New(t)
	user := srv.AddUser("alice", "secret", admin)

	c, err := NewClient(srv.URL(), 5*time.Second)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, err := c.Login(context.Background(), "alice", "secret"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	return c, srv, user
}

// TestNewClient tests base URL validation
func TestNewClient(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{"http", "http://localhost:5000/api", false},
		{"https with trailing slash", "https://example.com/api/", false},
		{"missing scheme", "localhost:5000", true},
		{"ftp", "ftp://example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.baseURL, time.Second)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewClient(%q) error = %v, wantErr %v", tt.baseURL, err, tt.wantErr)
			}
		})
	}
}

// TestErrorKinds tests the mapping of HTTP statuses onto error kinds
func TestErrorKinds(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorKind
	}{
		{http.StatusUnauthorized, KindAuth},
		{http.StatusNotFound, KindNotFound},
		{http.StatusBadRequest, KindValidation},
		{http.StatusForbidden, KindValidation},
		{http.StatusRequestEntityTooLarge, KindValidation},
		{http.StatusInternalServerError, KindServer},
		{http.StatusServiceUnavailable, KindServer},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := errorFromResponse(tt.status, []byte(`{"error":"boom"}`))
			if err.Kind != tt.want {
				t.Errorf("kind = %v, want %v", err.Kind, tt.want)
			}
			if err.Message != "boom" {
				t.Errorf("message = %q, want server message", err.Message)
			}
		})
	}

	if KindOf(errors.New("dial tcp: refused")) != KindNetwork {
		t.Error("plain errors should classify as network errors")
	}
	wrapped := errors.Join(errors.New("context"), &Error{Kind: KindNotFound})
	if KindOf(wrapped) != KindNotFound {
		t.Error("KindOf should see through wrapping")
	}
}

// TestLoginAndProfile tests that the session cookie authenticates later calls
func TestLoginAndProfile(t *testing.T) {
	c, _, user := newLoggedIn(t, false)

	got, err := c.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if got.ID != user.ID || got.Username != "alice" {
		t.Errorf("Profile = %+v, want %+v", got, user)
	}

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if _, err := c.Profile(context.Background()); !IsAuth(err) {
		t.Errorf("Profile after logout error = %v, want auth error", err)
	}
}

// TestBadCredentials tests that login failures do not trigger the session hook
func TestBadCredentials(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("alice", "secret", false)

	c, err := NewClient(srv.URL(), time.Second)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}

	var hooked atomic.Int32
	c.OnUnauthorized(func(string) { hooked.Add(1) })

	_, err = c.Login(context.Background(), "alice", "wrong")
	if !IsAuth(err) {
		t.Fatalf("Login error = %v, want auth error", err)
	}
	if Message(err) != "Invalid credentials" {
		t.Errorf("Message = %q", Message(err))
	}
	if hooked.Load() != 0 {
		t.Error("unauthorized hook must not fire for the login endpoint")
	}

	if _, err := c.Profile(context.Background()); !IsAuth(err) {
		t.Fatalf("Profile error = %v, want auth error", err)
	}
	if hooked.Load() != 1 {
		t.Errorf("unauthorized hook fired %d times, want 1", hooked.Load())
	}
}

// TestListJobsPagination tests that pagination metadata comes from the server
func TestListJobsPagination(t *testing.T) {
	c, srv, _ := newLoggedIn(t, false)
	for _, title := range []string{"Go Engineer", "Data Analyst", "Go SRE"} {
		srv.AddJob(models.JobPosting{Title: title, Company: "Acme", Description: title + " role"})
	}

	page, err := c.ListJobs(context.Background(), models.ListQuery{Page: 1, PerPage: 2})
	if err != nil {
		t.Fatalf("ListJobs failed: %v", err)
	}
	if page.Total != 3 || page.Pages != 2 || len(page.Items) != 2 {
		t.Errorf("page = total %d pages %d items %d, want 3/2/2", page.Total, page.Pages, len(page.Items))
	}
	if page.Items[0].Title != "Go SRE" {
		t.Errorf("first job = %q, want newest first", page.Items[0].Title)
	}

	filtered, err := c.ListJobs(context.Background(), models.ListQuery{Filters: map[string]string{"search": "go"}})
	if err != nil {
		t.Fatalf("ListJobs with search failed: %v", err)
	}
	if filtered.Total != 2 {
		t.Errorf("search total = %d, want 2", filtered.Total)
	}
}

// TestUploadAndAnalyze tests the resume upload and analysis request flow
func TestUploadAndAnalyze(t *testing.T) {
	c, srv, _ := newLoggedIn(t, false)
	job := srv.AddJob(models.JobPosting{ID: 7, Title: "Backend", Description: "Go"})
	ctx := context.Background()

	resume, err := c.UploadResume(ctx, "cv.pdf", strings.NewReader("%PDF-1.4 test"))
	if err != nil {
		t.Fatalf("UploadResume failed: %v", err)
	}
	if resume.OriginalFilename != "cv.pdf" || resume.FileType != "PDF" {
		t.Errorf("resume = %+v", resume)
	}

	a, err := c.AnalyzeResume(ctx, resume.ID, job.ID)
	if err != nil {
		t.Fatalf("AnalyzeResume failed: %v", err)
	}
	if a.Status != models.AnalysisPending || a.RelevanceScore != nil {
		t.Errorf("new analysis = %+v, want pending without score", a)
	}

	again, err := c.AnalyzeResume(ctx, resume.ID, job.ID)
	if err != nil {
		t.Fatalf("repeated AnalyzeResume failed: %v", err)
	}
	if again.ID != a.ID {
		t.Errorf("repeated analyze returned %d, want existing %d", again.ID, a.ID)
	}

	if _, err := c.UploadResume(ctx, "cv.txt", strings.NewReader("plain")); KindOf(err) != KindValidation {
		t.Errorf("txt upload error = %v, want validation error", err)
	}
}

// TestWithdrawGuard tests that non-pending applications never reach the server
func TestWithdrawGuard(t *testing.T) {
	c, srv, user := newLoggedIn(t, false)
	ctx := context.Background()

	for _, status := range []models.ApplicationStatus{models.ApplicationReviewed, models.ApplicationShortlisted, models.ApplicationRejected} {
		t.Run(string(status), func(t *testing.T) {
			app := srv.AddApplication(models.Application{UserID: user.ID, JobID: 1, ResumeID: 1, Status: status})
			err := c.Withdraw(ctx, app)
			if !errors.Is(err, ErrNotWithdrawable) {
				t.Fatalf("Withdraw error = %v, want ErrNotWithdrawable", err)
			}
			if n := srv.Requests(http.MethodDelete, fmt.Sprintf("/applications/%d", app.ID)); n != 0 {
				t.Errorf("DELETE requests = %d, want 0", n)
			}
		})
	}

	pending := srv.AddApplication(models.Application{UserID: user.ID, JobID: 2, ResumeID: 1})
	if err := c.Withdraw(ctx, pending); err != nil {
		t.Fatalf("Withdraw pending failed: %v", err)
	}
}

// TestRankingsAndQueue tests the admin ranking endpoints
func TestRankingsAndQueue(t *testing.T) {
	c, srv, user := newLoggedIn(t, true)
	ctx := context.Background()
	job := srv.AddJob(models.JobPosting{Title: "Backend", Description: "Go"})
	r1 := srv.AddResume(user.ID, "a.pdf")
	r2 := srv.AddResume(user.ID, "b.pdf")
	a1 := srv.AddAnalysis(models.Analysis{ResumeID: r1.ID, JobID: job.ID})
	a2 := srv.AddAnalysis(models.Analysis{ResumeID: r2.ID, JobID: job.ID})
	srv.AddAnalysis(models.Analysis{ResumeID: r2.ID, JobID: job.ID})
	srv.CompleteAnalysis(a1.ID, 61.5, models.VerdictMedium)
	srv.CompleteAnalysis(a2.ID, 90, models.VerdictHigh, "Kubernetes")

	rankings, err := c.JobRankings(ctx, job.ID, 0)
	if err != nil {
		t.Fatalf("JobRankings failed: %v", err)
	}
	if len(rankings.Rankings) != 2 {
		t.Fatalf("rankings = %d, want 2 completed", len(rankings.Rankings))
	}
	top := rankings.Rankings[0]
	if top.ID != a2.ID || top.Rank == nil || *top.Rank != 1 {
		t.Errorf("top ranking = %+v", top)
	}
	if top.Resume == nil || top.Resume.OriginalFilename != "b.pdf" {
		t.Errorf("top resume projection = %+v", top.Resume)
	}

	q, err := c.QueueStatus(ctx, job.ID)
	if err != nil {
		t.Fatalf("QueueStatus failed: %v", err)
	}
	if q.Pending != 1 || q.Completed != 2 || q.TotalInQueue != 1 || q.EstimatedWaitTime != 2 {
		t.Errorf("queue = %+v", q)
	}

	if _, err := c.QueueStatus(ctx, 999); KindOf(err) != KindNotFound {
		t.Errorf("missing job error = %v, want not found", err)
	}
}

// TestServerFailure tests that injected 5xx responses classify as server errors
func TestServerFailure(t *testing.T) {
	c, srv, _ := newLoggedIn(t, false)
	srv.Fail("/resumes/", http.StatusInternalServerError)

	_, err := c.ListResumes(context.Background(), models.ListQuery{})
	if KindOf(err) != KindServer {
		t.Fatalf("error = %v, want server error", err)
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("error = %#v", err)
	}
}
