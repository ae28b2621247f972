// Package apitest provides an in-memory implementation of the screening
// platform's REST API for tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/Yessha-bapna/AI-Resume-Analyzer/internal/models"
)

const (
	sessionCookie = "access_token_cookie"
	maxUploadSize = 16 << 20
)

type account struct {
	user     models.User
	password string
}

// Server is a fake platform backed by in-memory tables. All mutation hooks
// are safe for concurrent use with in-flight requests.
type Server struct {
	mu           sync.Mutex
	accounts     map[string]*account
	sessions     map[string]int
	jobs         []models.JobPosting
	resumes      []models.Resume
	applications []models.Application
	analyses     []models.Analysis
	rankings     map[int][]models.Analysis
	failures     map[string]int
	blocks       map[string]chan struct{}
	requests     map[string]int
	nextID       int
	now          time.Time

	ts *httptest.Server
}

// New starts a fake platform. The server is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := NewServer()
	t.Cleanup(s.Close)
	return s
}

// NewServer starts a fake platform that the caller must Close
func NewServer() *Server {
	s := &Server{
		accounts: make(map[string]*account),
		sessions: make(map[string]int),
		rankings: make(map[int][]models.Analysis),
		failures: make(map[string]int),
		blocks:   make(map[string]chan struct{}),
		requests: make(map[string]int),
		now:      time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	s.ts = httptest.NewServer(s.Router())
	return s
}

// URL returns the API base URL, including the /api prefix
func (s *Server) URL() string {
	return s.ts.URL + "/api"
}

// Close shuts the server down
func (s *Server) Close() {
	s.mu.Lock()
	for path, ch := range s.blocks {
		close(ch)
		delete(s.blocks, path)
	}
	s.mu.Unlock()
	s.ts.Close()
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/logout", s.handleLogout)
	mux.HandleFunc("GET /api/auth/profile", s.authed(s.handleProfile))

	mux.HandleFunc("GET /api/jobs/{$}", s.authed(s.handleListJobs))
	mux.HandleFunc("POST /api/jobs/{$}", s.authed(s.handleCreateJob))
	mux.HandleFunc("GET /api/jobs/{id}", s.authed(s.handleGetJob))

	mux.HandleFunc("POST /api/resumes/upload", s.authed(s.handleUpload))
	mux.HandleFunc("GET /api/resumes/{$}", s.authed(s.handleListResumes))
	mux.HandleFunc("DELETE /api/resumes/{id}", s.authed(s.handleDeleteResume))
	mux.HandleFunc("POST /api/resumes/analyze/{resume}/{job}", s.authed(s.handleAnalyze))
	mux.HandleFunc("GET /api/resumes/analyses", s.authed(s.handleListAnalyses))

	mux.HandleFunc("GET /api/applications/{$}", s.authed(s.handleListApplications))
	mux.HandleFunc("POST /api/applications/{$}", s.authed(s.handleApply))
	mux.HandleFunc("DELETE /api/applications/{id}", s.authed(s.handleWithdraw))

	mux.HandleFunc("GET /api/admin/stats", s.admin(s.handleStats))
	mux.HandleFunc("GET /api/admin/dashboard", s.admin(s.handleAdminDashboard))
	mux.HandleFunc("GET /api/admin/jobs/{id}/rankings", s.admin(s.handleRankings))
	mux.HandleFunc("GET /api/admin/jobs/{id}/queue-status", s.admin(s.handleQueueStatus))
	mux.HandleFunc("GET /api/admin/analyses", s.admin(s.handleAllAnalyses))
	mux.HandleFunc("POST /api/admin/analyses/{id}/reprocess", s.admin(s.handleReprocess))

	return s.loggingMiddleware(s.faultMiddleware(mux))
}

// AddUser registers an account and returns it
func (s *Server) AddUser(username, password string, admin bool) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, "", password, admin)
}

func (s *Server) addUserLocked(username, email, password string, admin bool) models.User {
	if email == "" {
		email = username + "@example.com"
	}
	u := models.User{
		ID:        s.id(),
		Username:  username,
		Email:     email,
		IsAdmin:   admin,
		CreatedAt: s.stamp(),
	}
	s.accounts[username] = &account{user: u, password: password}
	return u
}

// AddJob stores a job posting. A zero ID is assigned; a non-zero ID is kept.
func (s *Server) AddJob(job models.JobPosting) models.JobPosting {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job.ID == 0 {
		job.ID = s.id()
	} else if job.ID >= s.nextID {
		s.nextID = job.ID
	}
	job.IsActive = true
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.stamp()
	}
	s.jobs = append(s.jobs, job)
	return job
}

// AddResume stores a resume owned by userID
func (s *Server) AddResume(userID int, filename string) models.Resume {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addResumeLocked(userID, filename)
}

func (s *Server) addResumeLocked(userID int, filename string) models.Resume {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	r := models.Resume{
		ID:               s.id(),
		UserID:           userID,
		Filename:         uuid.NewString() + "_" + filename,
		OriginalFilename: filename,
		FileType:         strings.ToUpper(ext),
		UploadedAt:       s.stamp(),
	}
	s.resumes = append(s.resumes, r)
	return r
}

// AddAnalysis stores an analysis as given, assigning an ID when zero
func (s *Server) AddAnalysis(a models.Analysis) models.Analysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.id()
	}
	if a.Status == "" {
		a.Status = models.AnalysisPending
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.stamp()
	}
	s.analyses = append(s.analyses, a)
	return a
}

// AddApplication stores an application as given, assigning an ID when zero
func (s *Server) AddApplication(app models.Application) models.Application {
	s.mu.Lock()
	defer s.mu.Unlock()
	if app.ID == 0 {
		app.ID = s.id()
	}
	if app.Status == "" {
		app.Status = models.ApplicationPending
	}
	if app.AppliedAt.IsZero() {
		app.AppliedAt = s.stamp()
	}
	s.applications = append(s.applications, app)
	return app
}

// CompleteAnalysis simulates the scoring pipeline finishing an analysis
func (s *Server) CompleteAnalysis(id int, score float64, verdict models.Verdict, missing ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.analyses {
		if s.analyses[i].ID != id {
			continue
		}
		done := s.stamp()
		s.analyses[i].Status = models.AnalysisCompleted
		s.analyses[i].RelevanceScore = &score
		s.analyses[i].Verdict = verdict
		s.analyses[i].MissingSkills = missing
		s.analyses[i].CompletedAt = &done
		return
	}
}

// SetAnalysisStatus moves an analysis to another pipeline state
func (s *Server) SetAnalysisStatus(id int, status models.AnalysisStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.analyses {
		if s.analyses[i].ID == id {
			s.analyses[i].Status = status
		}
	}
}

// SetApplicationStatus records a review decision
func (s *Server) SetApplicationStatus(id int, status models.ApplicationStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.applications {
		if s.applications[i].ID == id {
			s.applications[i].Status = status
		}
	}
}

// SetRankings replaces the computed ranking of a job with a fixed list.
// Embedded resume and user projections are still resolved per request.
func (s *Server) SetRankings(jobID int, rankings []models.Analysis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rankings[jobID] = append([]models.Analysis(nil), rankings...)
}

// Fail makes every request to path (without the /api prefix) answer status
// until Recover is called
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = status
}

// Recover removes an injected failure
func (s *Server) Recover(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, path)
}

// Block holds requests to path until the returned release func is called
func (s *Server) Block(path string) (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.blocks[path] = ch
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			if s.blocks[path] == ch {
				delete(s.blocks, path)
			}
			s.mu.Unlock()
			close(ch)
		})
	}
}

// Requests returns how many requests reached method and path
func (s *Server) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[method+" "+path]
}

// Analyses returns a copy of the stored analyses
func (s *Server) Analyses() []models.Analysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Analysis(nil), s.analyses...)
}

func (s *Server) id() int {
	s.nextID++
	return s.nextID
}

// stamp returns a strictly increasing creation time so "newest first"
// ordering is deterministic
func (s *Server) stamp() models.Timestamp {
	s.now = s.now.Add(time.Minute)
	return models.Timestamp{Time: s.now}
}

// faultMiddleware applies injected failures and blocks
func (s *Server) faultMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/api")

		s.mu.Lock()
		s.requests[r.Method+" "+path]++
		status, failing := s.failures[path]
		block := s.blocks[path]
		s.mu.Unlock()

		if block != nil {
			select {
			case <-block:
			case <-r.Context().Done():
				return
			}
		}
		if failing {
			s.respondError(w, status, fmt.Sprintf("injected failure for %s", path))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// authed resolves the session cookie into the calling user
func (s *Server) authed(next func(http.ResponseWriter, *http.Request, models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "Missing session")
			return
		}

		s.mu.Lock()
		userID, ok := s.sessions[cookie.Value]
		var user models.User
		for _, acc := range s.accounts {
			if acc.user.ID == userID {
				user = acc.user
			}
		}
		s.mu.Unlock()

		if !ok || user.ID == 0 {
			s.respondError(w, http.StatusUnauthorized, "Session expired")
			return
		}
		next(w, r, user)
	}
}

func (s *Server) admin(next func(http.ResponseWriter, *http.Request, models.User)) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, user models.User) {
		if !user.IsAdmin {
			s.respondError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next(w, r, user)
	})
}

// ExpireSessions invalidates every issued session cookie
func (s *Server) ExpireSessions() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = make(map[string]int)
}

func (s *Server) startSession(w http.ResponseWriter, user models.User) {
	token := uuid.NewString()
	s.sessions[token] = user.ID
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/", HttpOnly: true})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[creds.Username]
	if !ok || acc.password != creds.Password {
		s.respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	s.startSession(w, acc.user)
	s.respondJSON(w, http.StatusOK, map[string]any{"message": "Login successful", "user": acc.user})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if creds.Username == "" || creds.Email == "" || creds.Password == "" {
		s.respondError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[creds.Username]; exists {
		s.respondError(w, http.StatusBadRequest, "Username already exists")
		return
	}
	u := s.addUserLocked(creds.Username, creds.Email, creds.Password, false)
	s.startSession(w, u)
	s.respondJSON(w, http.StatusCreated, map[string]any{"message": "User registered successfully", "user": u})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request, user models.User) {
	s.respondJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request, _ models.User) {
	search := strings.ToLower(r.URL.Query().Get("search"))
	active := r.URL.Query().Get("is_active") != "false"

	s.mu.Lock()
	var out []models.JobPosting
	for _, j := range s.jobs {
		if j.IsActive != active {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(j.Title+" "+j.Company+" "+j.Description), search) {
			continue
		}
		out = append(out, s.withCountLocked(j))
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, k int) bool { return out[i].CreatedAt.After(out[k].CreatedAt.Time) })
	s.respondPage(w, r, "jobs", out, 10)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request, _ models.User) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobLocked(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"job": s.withCountLocked(j)})
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request, user models.User) {
	if !user.IsAdmin {
		s.respondError(w, http.StatusForbidden, "Admin access required")
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("Failed to parse form: %v", err))
		return
	}
	if r.FormValue("title") == "" || r.FormValue("description") == "" {
		s.respondError(w, http.StatusBadRequest, "Title and description are required")
		return
	}
	if _, header, err := r.FormFile("jd_pdf"); err == nil {
		if strings.ToLower(filepath.Ext(header.Filename)) != ".pdf" {
			s.respondError(w, http.StatusBadRequest, "Only PDF files are allowed for job descriptions")
			return
		}
	}

	job := s.AddJob(models.JobPosting{
		Title:           r.FormValue("title"),
		Company:         r.FormValue("company"),
		Location:        r.FormValue("location"),
		Description:     r.FormValue("description"),
		Requirements:    r.FormValue("requirements"),
		EmploymentType:  r.FormValue("employment_type"),
		ExperienceLevel: r.FormValue("experience_level"),
	})
	s.respondJSON(w, http.StatusCreated, map[string]any{"message": "Job created successfully", "job": job})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, user models.User) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if ext != ".pdf" && ext != ".docx" {
		s.respondError(w, http.StatusBadRequest, "Invalid file type. Only PDF and DOCX files are allowed")
		return
	}
	n, _ := io.Copy(io.Discard, file)
	if n > maxUploadSize {
		s.respondError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	resume := s.AddResume(user.ID, header.Filename)
	s.respondJSON(w, http.StatusCreated, map[string]any{"message": "Resume uploaded successfully", "resume": resume})
}

func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request, user models.User) {
	s.mu.Lock()
	var out []models.Resume
	for _, res := range s.resumes {
		if res.UserID == user.ID {
			out = append(out, res)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, k int) bool { return out[i].UploadedAt.After(out[k].UploadedAt.Time) })
	s.respondPage(w, r, "resumes", out, 10)
}

func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request, user models.User) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, res := range s.resumes {
		if res.ID == id && res.UserID == user.ID {
			idx = i
		}
	}
	if idx < 0 {
		s.respondError(w, http.StatusNotFound, "Resume not found")
		return
	}
	s.resumes = append(s.resumes[:idx], s.resumes[idx+1:]...)

	kept := s.analyses[:0]
	for _, a := range s.analyses {
		if a.ResumeID != id {
			kept = append(kept, a)
		}
	}
	s.analyses = kept

	s.respondJSON(w, http.StatusOK, map[string]string{"message": "Resume deleted successfully"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request, user models.User) {
	resumeID, _ := strconv.Atoi(r.PathValue("resume"))
	jobID, _ := strconv.Atoi(r.PathValue("job"))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resumeLocked(resumeID, user.ID); !ok {
		s.respondError(w, http.StatusNotFound, "Resume not found")
		return
	}
	if _, ok := s.jobLocked(jobID); !ok {
		s.respondError(w, http.StatusNotFound, "Job not found")
		return
	}

	for _, a := range s.analyses {
		if a.ResumeID == resumeID && a.JobID == jobID {
			s.respondJSON(w, http.StatusOK, map[string]any{
				"message":  "Analysis already exists",
				"analysis": s.projectLocked(a),
			})
			return
		}
	}

	a := models.Analysis{
		ID:        s.id(),
		ResumeID:  resumeID,
		JobID:     jobID,
		UserID:    user.ID,
		Status:    models.AnalysisPending,
		CreatedAt: s.stamp(),
	}
	s.analyses = append(s.analyses, a)
	s.respondJSON(w, http.StatusCreated, map[string]any{
		"message":  "Resume added to analysis queue",
		"analysis": s.projectLocked(a),
	})
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request, user models.User) {
	jobID, _ := strconv.Atoi(r.URL.Query().Get("job_id"))

	s.mu.Lock()
	var out []models.Analysis
	for _, a := range s.analyses {
		if _, ok := s.resumeLocked(a.ResumeID, user.ID); !ok {
			continue
		}
		if jobID != 0 && a.JobID != jobID {
			continue
		}
		out = append(out, s.projectLocked(a))
	}
	s.mu.Unlock()

	sortNewestFirst(out)
	s.respondPage(w, r, "analyses", out, 10)
}

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request, user models.User) {
	status := r.URL.Query().Get("status")

	s.mu.Lock()
	var out []models.Application
	for _, app := range s.applications {
		if app.UserID != user.ID {
			continue
		}
		if status != "" && string(app.Status) != status {
			continue
		}
		if res, ok := s.resumeLocked(app.ResumeID, user.ID); ok {
			app.Resume = &res
		}
		if j, ok := s.jobLocked(app.JobID); ok {
			app.Job = &j
		}
		out = append(out, app)
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, k int) bool { return out[i].AppliedAt.After(out[k].AppliedAt.Time) })
	s.respondPage(w, r, "applications", out, 10)
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request, user models.User) {
	var body struct {
		JobID    int `json:"job_id"`
		ResumeID int `json:"resume_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.JobID == 0 || body.ResumeID == 0 {
		s.respondError(w, http.StatusBadRequest, "job_id and resume_id are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobLocked(body.JobID); !ok {
		s.respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	if _, ok := s.resumeLocked(body.ResumeID, user.ID); !ok {
		s.respondError(w, http.StatusNotFound, "Resume not found")
		return
	}
	for _, app := range s.applications {
		if app.UserID == user.ID && app.JobID == body.JobID {
			s.respondError(w, http.StatusBadRequest, "You have already applied for this job")
			return
		}
	}

	app := models.Application{
		ID:        s.id(),
		UserID:    user.ID,
		JobID:     body.JobID,
		ResumeID:  body.ResumeID,
		Status:    models.ApplicationPending,
		AppliedAt: s.stamp(),
	}
	s.applications = append(s.applications, app)
	s.respondJSON(w, http.StatusCreated, map[string]any{"message": "Application submitted successfully", "application": app})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request, user models.User) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, app := range s.applications {
		if app.ID != id || app.UserID != user.ID {
			continue
		}
		if app.Status != models.ApplicationPending {
			s.respondError(w, http.StatusBadRequest, "Cannot withdraw application that has been reviewed")
			return
		}
		s.applications = append(s.applications[:i], s.applications[i+1:]...)
		s.respondJSON(w, http.StatusOK, map[string]string{"message": "Application withdrawn successfully"})
		return
	}
	s.respondError(w, http.StatusNotFound, "Application not found")
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, _ models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st models.SystemStats
	for _, acc := range s.accounts {
		st.Users.Total++
		if acc.user.IsAdmin {
			st.Users.Admins++
		} else {
			st.Users.RegularUsers++
		}
	}
	for _, j := range s.jobs {
		st.Jobs.Total++
		if j.IsActive {
			st.Jobs.Active++
		} else {
			st.Jobs.Inactive++
		}
	}
	for _, a := range s.analyses {
		st.Analyses.Total++
		switch a.Status {
		case models.AnalysisCompleted:
			st.Analyses.Completed++
		case models.AnalysisPending:
			st.Analyses.Pending++
		case models.AnalysisProcessing:
			st.Analyses.Processing++
		case models.AnalysisFailed:
			st.Analyses.Failed++
		}
		switch a.Verdict {
		case models.VerdictHigh:
			st.Verdicts.High++
		case models.VerdictMedium:
			st.Verdicts.Medium++
		case models.VerdictLow:
			st.Verdicts.Low++
		}
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"stats": st})
}

func (s *Server) handleAdminDashboard(w http.ResponseWriter, r *http.Request, _ models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := map[string]int{"total_jobs": 0, "total_resumes": len(s.analyses), "completed_analyses": 0, "pending_analyses": 0}
	var recent []models.JobPosting
	for _, j := range s.jobs {
		if j.IsActive {
			stats["total_jobs"]++
			recent = append(recent, s.withCountLocked(j))
		}
	}
	for _, a := range s.analyses {
		switch a.Status {
		case models.AnalysisCompleted:
			stats["completed_analyses"]++
		case models.AnalysisPending:
			stats["pending_analyses"]++
		}
	}
	sort.SliceStable(recent, func(i, k int) bool { return recent[i].CreatedAt.After(recent[k].CreatedAt.Time) })
	if len(recent) > 5 {
		recent = recent[:5]
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"stats": stats, "recent_jobs": recent})
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request, _ models.User) {
	jobID, _ := strconv.Atoi(r.PathValue("id"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobLocked(jobID)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Job not found")
		return
	}

	var rankings []models.Analysis
	if fixed, ok := s.rankings[jobID]; ok {
		for _, a := range fixed {
			rankings = append(rankings, s.projectLocked(a))
		}
	} else {
		for _, a := range s.analyses {
			if a.JobID == jobID && a.Status == models.AnalysisCompleted {
				rankings = append(rankings, s.projectLocked(a))
			}
		}
		sort.SliceStable(rankings, func(i, k int) bool {
			si, _ := rankings[i].Score()
			sk, _ := rankings[k].Score()
			return si > sk
		})
		for i := range rankings {
			rank := i + 1
			rankings[i].Rank = &rank
		}
	}
	if len(rankings) > limit {
		rankings = rankings[:limit]
	}
	if rankings == nil {
		rankings = []models.Analysis{}
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"job":          s.withCountLocked(job),
		"rankings":     rankings,
		"queue_status": s.queueLocked(jobID),
	})
}

func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request, _ models.User) {
	jobID, _ := strconv.Atoi(r.PathValue("id"))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobLocked(jobID); !ok {
		s.respondError(w, http.StatusNotFound, "Job not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"job_id": jobID, "queue_status": s.queueLocked(jobID)})
}

func (s *Server) handleAllAnalyses(w http.ResponseWriter, r *http.Request, _ models.User) {
	q := r.URL.Query()
	jobID, _ := strconv.Atoi(q.Get("job_id"))
	status := q.Get("status")
	verdict := q.Get("verdict")

	s.mu.Lock()
	var out []models.Analysis
	for _, a := range s.analyses {
		if jobID != 0 && a.JobID != jobID {
			continue
		}
		if status != "" && string(a.Status) != status {
			continue
		}
		if verdict != "" && string(a.Verdict) != verdict {
			continue
		}
		out = append(out, s.projectLocked(a))
	}
	s.mu.Unlock()

	sortNewestFirst(out)
	s.respondPage(w, r, "analyses", out, 20)
}

func (s *Server) handleReprocess(w http.ResponseWriter, r *http.Request, _ models.User) {
	id, _ := strconv.Atoi(r.PathValue("id"))

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.analyses {
		if s.analyses[i].ID != id {
			continue
		}
		s.analyses[i].Status = models.AnalysisPending
		s.analyses[i].RelevanceScore = nil
		s.analyses[i].Verdict = ""
		s.analyses[i].CompletedAt = nil
		s.respondJSON(w, http.StatusOK, map[string]any{"message": "Analysis queued for reprocessing", "analysis_id": id})
		return
	}
	s.respondError(w, http.StatusNotFound, "Analysis not found")
}

func (s *Server) jobLocked(id int) (models.JobPosting, bool) {
	for _, j := range s.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return models.JobPosting{}, false
}

func (s *Server) resumeLocked(id, ownerID int) (models.Resume, bool) {
	for _, r := range s.resumes {
		if r.ID == id && r.UserID == ownerID {
			return r, true
		}
	}
	return models.Resume{}, false
}

func (s *Server) withCountLocked(j models.JobPosting) models.JobPosting {
	j.ApplicationCount = 0
	for _, a := range s.analyses {
		if a.JobID == j.ID {
			j.ApplicationCount++
		}
	}
	return j
}

// projectLocked embeds the resume and its owner the way the platform
// serializes an analysis; both are nil once the resume is gone
func (s *Server) projectLocked(a models.Analysis) models.Analysis {
	a.Resume, a.User = nil, nil
	for _, r := range s.resumes {
		if r.ID != a.ResumeID {
			continue
		}
		res := r
		a.Resume = &res
		for _, acc := range s.accounts {
			if acc.user.ID == r.UserID {
				u := acc.user
				a.User = &u
			}
		}
	}
	return a
}

func (s *Server) queueLocked(jobID int) models.QueueStatus {
	var q models.QueueStatus
	for _, a := range s.analyses {
		if a.JobID != jobID {
			continue
		}
		switch a.Status {
		case models.AnalysisPending:
			q.Pending++
		case models.AnalysisProcessing:
			q.Processing++
		case models.AnalysisCompleted:
			q.Completed++
		}
	}
	q.TotalInQueue = q.Pending + q.Processing
	q.EstimatedWaitTime = q.Pending * 2
	return q
}

func sortNewestFirst(items []models.Analysis) {
	sort.SliceStable(items, func(i, k int) bool { return items[i].CreatedAt.After(items[k].CreatedAt.Time) })
}

// respondPage slices items with the platform's pagination envelope
func (s *Server) respondPage(w http.ResponseWriter, r *http.Request, key string, items any, defaultPerPage int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > 100 {
		perPage = 100
	}

	b, _ := json.Marshal(items)
	var all []json.RawMessage
	_ = json.Unmarshal(b, &all)

	total := len(all)
	pages := int(math.Ceil(float64(total) / float64(perPage)))
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)

	s.respondJSON(w, http.StatusOK, map[string]any{
		key:            append([]json.RawMessage{}, all[start:end]...),
		"total":        total,
		"pages":        pages,
		"current_page": page,
		"per_page":     perPage,
	})
}

// respondJSON sends a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON response: %v", err)
	}
}

// respondError sends an error response
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("[apitest] %s %s %s", r.Method, r.URL.Path, r.Header.Get("X-Request-ID"))
		next.ServeHTTP(w, r)
	})
}
