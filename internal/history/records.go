package history

import (
	"strings"
	"time"

	"podscribe/internal/job"
	"podscribe/internal/services"
)

// Record is one job's ledger row. The pipeline mutates it as stages advance
// and persists through Store.Update; UpdateProgress covers the hot path.
type Record struct {
	ID              string
	EpisodeURL      string
	UploadToken     string
	Engine          string
	ModelSize       string
	Status          job.Status
	Title           string
	ErrorKind       string
	ErrorMessage    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	Language        string
	DurationSeconds float64
	ResultJSON      string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	CompletedAt     *time.Time
}

// HealthSummary describes aggregated job counts per key lifecycle states.
type HealthSummary struct {
	Total     int
	Pending   int
	Active    int
	Failed    int
	Completed int
}

// SetProgress updates the progress triple.
func (r *Record) SetProgress(stage, message string, percent float64) {
	r.ProgressStage = stage
	r.ProgressMessage = message
	r.ProgressPercent = percent
}

// SetFailed marks the record failed with a classified error.
func (r *Record) SetFailed(kind services.Kind, message string) {
	r.Status = job.StatusFailed
	r.ErrorKind = string(kind)
	r.ErrorMessage = message
	r.ProgressMessage = message
	now := time.Now().UTC()
	r.CompletedAt = &now
}

// SetCompleted marks the record complete and stores the result payload.
func (r *Record) SetCompleted(resultJSON, language string, durationSeconds float64) {
	r.Status = job.StatusCompleted
	r.ResultJSON = resultJSON
	r.Language = language
	r.DurationSeconds = durationSeconds
	r.ErrorKind = ""
	r.ErrorMessage = ""
	r.ProgressPercent = 100
	now := time.Now().UTC()
	r.CompletedAt = &now
}

// SourceSummary renders the job source for table output.
func (r *Record) SourceSummary() string {
	if r.EpisodeURL != "" {
		return r.EpisodeURL
	}
	if r.UploadToken != "" {
		return "upload:" + trimPath(r.UploadToken)
	}
	return ""
}

func trimPath(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 && idx < len(path)-1 {
		return path[idx+1:]
	}
	return path
}
