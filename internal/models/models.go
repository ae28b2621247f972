package models

// User is the account behind the current session
type User struct {
	ID        int       `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt Timestamp `json:"created_at"`
}

// JobPosting represents a job posting created by an administrator
type JobPosting struct {
	ID               int       `json:"id"`
	Title            string    `json:"title"`
	Company          string    `json:"company"`
	Location         string    `json:"location"`
	Description      string    `json:"description"`
	Requirements     string    `json:"requirements"`
	EmploymentType   string    `json:"employment_type"`
	ExperienceLevel  string    `json:"experience_level"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        Timestamp `json:"created_at"`
	ApplicationCount int       `json:"application_count"`
}

// Resume is an uploaded CV owned by one user
type Resume struct {
	ID               int       `json:"id"`
	UserID           int       `json:"user_id"`
	Filename         string    `json:"filename,omitempty"`
	OriginalFilename string    `json:"original_filename"`
	FileType         string    `json:"file_type"` // PDF, DOCX
	UploadedAt       Timestamp `json:"uploaded_at"`
}

// ApplicationStatus is the review state of an application
type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationReviewed    ApplicationStatus = "reviewed"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationRejected    ApplicationStatus = "rejected"
)

// ApplicationStatuses lists the statuses in display order
var ApplicationStatuses = []ApplicationStatus{
	ApplicationPending,
	ApplicationReviewed,
	ApplicationShortlisted,
	ApplicationRejected,
}

// Application links one resume to one job posting
type Application struct {
	ID        int               `json:"id"`
	UserID    int               `json:"user_id"`
	JobID     int               `json:"job_id"`
	ResumeID  int               `json:"resume_id"`
	Status    ApplicationStatus `json:"application_status"`
	AppliedAt Timestamp         `json:"applied_at"`
	Notes     string            `json:"notes,omitempty"`
	Resume    *Resume           `json:"resume,omitempty"`
	Job       *JobPosting       `json:"job,omitempty"`
}

// CanWithdraw reports whether the application may still be withdrawn
func (a Application) CanWithdraw() bool {
	return a.Status == ApplicationPending
}

// AnalysisStatus is the state of a background scoring job
type AnalysisStatus string

const (
	AnalysisPending    AnalysisStatus = "pending"
	AnalysisProcessing AnalysisStatus = "processing"
	AnalysisCompleted  AnalysisStatus = "completed"
	AnalysisFailed     AnalysisStatus = "failed"
)

// Verdict is the suitability label of a completed analysis
type Verdict string

const (
	VerdictHigh   Verdict = "High"
	VerdictMedium Verdict = "Medium"
	VerdictLow    Verdict = "Low"
)

// Analysis is the server's evaluation of one resume against one job posting.
// RelevanceScore and Verdict are only meaningful when Status is completed;
// Normalize enforces that after decoding.
type Analysis struct {
	ID                     int            `json:"id"`
	ResumeID               int            `json:"resume_id"`
	JobID                  int            `json:"job_id"`
	UserID                 int            `json:"user_id,omitempty"`
	Status                 AnalysisStatus `json:"analysis_status"`
	RelevanceScore         *float64       `json:"relevance_score"`
	Verdict                Verdict        `json:"verdict,omitempty"`
	MissingSkills          []string       `json:"missing_skills"`
	ImprovementSuggestions string         `json:"improvement_suggestions"`
	Rank                   *int           `json:"rank,omitempty"`
	CreatedAt              Timestamp      `json:"created_at"`
	CompletedAt            *Timestamp     `json:"analysis_completed_at"`

	// Embedded projections; nil when the referenced record was deleted.
	Resume *Resume `json:"resume,omitempty"`
	User   *User   `json:"user,omitempty"`
}

// Normalize drops fields the server may send that are not defined for the
// analysis' current status. Ranks <= 0 mean "not ranked yet".
func (a *Analysis) Normalize() {
	if a.Status != AnalysisCompleted {
		a.RelevanceScore = nil
		a.Verdict = ""
	}
	if a.Status != AnalysisCompleted && a.Status != AnalysisFailed {
		a.CompletedAt = nil
	}
	if a.Rank != nil && *a.Rank <= 0 {
		a.Rank = nil
	}
	if a.UserID == 0 && a.User != nil {
		a.UserID = a.User.ID
	}
}

// Score returns the relevance score and whether it is present
func (a Analysis) Score() (float64, bool) {
	if a.RelevanceScore == nil {
		return 0, false
	}
	return *a.RelevanceScore, true
}

// QueueStatus summarizes the scoring queue for one job posting
type QueueStatus struct {
	Pending           int `json:"pending"`
	Processing        int `json:"processing"`
	Completed         int `json:"completed"`
	TotalInQueue      int `json:"total_in_queue"`
	EstimatedWaitTime int `json:"estimated_wait_time"` // minutes
}

// ShowWaitTime reports whether the estimated wait should be displayed
func (q QueueStatus) ShowWaitTime() bool {
	return q.EstimatedWaitTime > 0
}

// JobRankings is the ranking payload for one job posting
type JobRankings struct {
	Job      JobPosting `json:"job"`
	Rankings []Analysis `json:"rankings"`
}

// SystemStats holds the administrator's platform-wide counters
type SystemStats struct {
	Users struct {
		Total        int `json:"total"`
		Admins       int `json:"admins"`
		RegularUsers int `json:"regular_users"`
	} `json:"users"`
	Jobs struct {
		Total    int `json:"total"`
		Active   int `json:"active"`
		Inactive int `json:"inactive"`
	} `json:"jobs"`
	Analyses struct {
		Total      int `json:"total"`
		Completed  int `json:"completed"`
		Pending    int `json:"pending"`
		Processing int `json:"processing"`
		Failed     int `json:"failed"`
	} `json:"analyses"`
	Verdicts struct {
		High   int `json:"high"`
		Medium int `json:"medium"`
		Low    int `json:"low"`
	} `json:"verdicts"`
}

// Credentials is the login/registration payload
type Credentials struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// NewJob is the payload for creating a job posting
type NewJob struct {
	Title           string `json:"title"`
	Company         string `json:"company"`
	Location        string `json:"location"`
	Description     string `json:"description"`
	Requirements    string `json:"requirements"`
	EmploymentType  string `json:"employment_type"`
	ExperienceLevel string `json:"experience_level"`
}
