package api

import (
	"encoding/json"

	"podscribe/internal/transcript"
)

// dateTimeFormat renders timestamps with millisecond precision and an
// explicit offset so CLI output and API payloads sort lexically.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// TranscribeRequest is the submission body accepted by the transcribe
// endpoints. Exactly one of SpotifyURL or FilePath must be set.
type TranscribeRequest struct {
	SpotifyURL string `json:"spotify_url,omitempty"`
	FilePath   string `json:"file_path,omitempty"`
	Engine     string `json:"engine,omitempty"`
	// Backend is an accepted alias for Engine; Engine wins when both are set.
	Backend   string `json:"backend,omitempty"`
	ModelSize string `json:"model_size,omitempty"`
}

// Progress describes how far a job has advanced through the pipeline.
type Progress struct {
	Stage   string  `json:"stage,omitempty"`
	Percent float64 `json:"percent"`
	Message string  `json:"message,omitempty"`
}

// Job is the external representation of one transcription job.
type Job struct {
	ID              string   `json:"id"`
	Source          string   `json:"source"`
	Engine          string   `json:"engine"`
	ModelSize       string   `json:"model_size"`
	Status          string   `json:"status"`
	Title           string   `json:"title,omitempty"`
	Progress        Progress `json:"progress"`
	ErrorKind       string   `json:"error_kind,omitempty"`
	ErrorMessage    string   `json:"error_message,omitempty"`
	Language        string   `json:"language,omitempty"`
	DurationSeconds float64  `json:"duration_seconds,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	CompletedAt     string   `json:"completed_at,omitempty"`
}

// JobListResponse wraps the job listing payload.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// JobResponse wraps a single job payload.
type JobResponse struct {
	Job Job `json:"job"`
}

// UploadResponse carries the token a later transcribe request presents as
// its file_path.
type UploadResponse struct {
	FilePath string `json:"file_path"`
}

// EpisodeMetadata is the payload returned by the metadata endpoint.
type EpisodeMetadata struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description,omitempty"`
	CoverImage  string `json:"cover_image,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Stream event type markers.
const (
	StreamProgress = "progress"
	StreamError    = "error"
	StreamResult   = "result"
)

// StreamEvent is one server-sent event from the streaming transcribe
// endpoint. Progress events carry Message and Percent, error events carry
// Error, and result events carry Data.
type StreamEvent struct {
	Type    string          `json:"type"`
	Message string          `json:"message,omitempty"`
	Percent float64         `json:"percent,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Terminal reports whether the event ends its stream.
func (e StreamEvent) Terminal() bool {
	return e.Type == StreamError || e.Type == StreamResult
}

// Transcript decodes the payload of a result event.
func (e StreamEvent) Transcript() (*transcript.Transcript, error) {
	return transcript.Decode(string(e.Data))
}

// HealthCheck reports the outcome of one preflight probe.
type HealthCheck struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DependencyStatus reports the availability of one external tool binary.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// JobCounts summarizes ledger occupancy by lifecycle bucket.
type JobCounts struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Active    int `json:"active"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
}

// HealthResponse is the healthz payload.
type HealthResponse struct {
	Status       string             `json:"status"`
	Checks       []HealthCheck      `json:"checks"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Jobs         JobCounts          `json:"jobs"`
}

// RemoveResponse reports whether a job record was deleted.
type RemoveResponse struct {
	Removed bool `json:"removed"`
}

// ClearResponse reports how many job records a clear deleted.
type ClearResponse struct {
	Cleared int64 `json:"cleared"`
}

// NotifyTestResponse reports the outcome of a test notification publish.
type NotifyTestResponse struct {
	Sent   bool   `json:"sent"`
	Detail string `json:"detail,omitempty"`
}

// ErrorResponse is the uniform error body for non-streaming failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
