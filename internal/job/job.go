package job

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"podscribe/internal/services"
)

// Engine selects the speech recognition implementation.
type Engine string

const (
	EngineFaster Engine = "faster"
	EngineOpenAI Engine = "openai"
)

// ModelSize selects the recognition model variant.
type ModelSize string

const (
	ModelTiny   ModelSize = "tiny"
	ModelBase   ModelSize = "base"
	ModelSmall  ModelSize = "small"
	ModelMedium ModelSize = "medium"
	ModelLarge  ModelSize = "large"
)

var engineSet = map[Engine]struct{}{
	EngineFaster: {},
	EngineOpenAI: {},
}

var modelSizeSet = map[ModelSize]struct{}{
	ModelTiny:   {},
	ModelBase:   {},
	ModelSmall:  {},
	ModelMedium: {},
	ModelLarge:  {},
}

// ParseEngine converts a string into a known Engine.
func ParseEngine(value string) (Engine, bool) {
	normalized := Engine(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := engineSet[normalized]
	return normalized, ok
}

// ParseModelSize converts a string into a known ModelSize.
func ParseModelSize(value string) (ModelSize, bool) {
	normalized := ModelSize(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := modelSizeSet[normalized]
	return normalized, ok
}

// Status represents the lifecycle of a job.
type Status string

const (
	StatusPending     Status = "pending"
	StatusMetadata    Status = "metadata"
	StatusAcquiring   Status = "acquiring"
	StatusRecognizing Status = "recognizing"
	StatusSummarizing Status = "summarizing"
	StatusCompleted   Status = "completed"
	StatusFailed      Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusMetadata,
	StatusAcquiring,
	StatusRecognizing,
	StatusSummarizing,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Terminal reports whether the status is an end state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Active reports whether the status reflects an in-flight stage.
func (s Status) Active() bool {
	switch s {
	case StatusMetadata, StatusAcquiring, StatusRecognizing, StatusSummarizing:
		return true
	default:
		return false
	}
}

// Source identifies where the episode audio comes from. Exactly one field is
// set: EpisodeURL for remote references resolved by the metadata and
// acquisition stages, or UploadToken for a previously uploaded file.
type Source struct {
	EpisodeURL  string
	UploadToken string
}

// Validate enforces the one-of constraint.
func (s Source) Validate() error {
	hasURL := strings.TrimSpace(s.EpisodeURL) != ""
	hasToken := strings.TrimSpace(s.UploadToken) != ""
	if hasURL == hasToken {
		return fmt.Errorf("%w: exactly one of episode URL or uploaded file is required", services.ErrInvalidRequest)
	}
	return nil
}

// Uploaded reports whether the source is a previously uploaded file.
func (s Source) Uploaded() bool {
	return strings.TrimSpace(s.UploadToken) != ""
}

// Job is one transcription request moving through the pipeline.
type Job struct {
	ID        string
	Source    Source
	Engine    Engine
	ModelSize ModelSize
	CreatedAt time.Time
}

// New validates the inputs and mints a Job with a fresh identifier.
func New(source Source, engine Engine, modelSize ModelSize) (*Job, error) {
	if err := source.Validate(); err != nil {
		return nil, err
	}
	if _, ok := engineSet[engine]; !ok {
		return nil, fmt.Errorf("%w: unknown recognition engine %q", services.ErrInvalidRequest, string(engine))
	}
	if _, ok := modelSizeSet[modelSize]; !ok {
		return nil, fmt.Errorf("%w: unknown model size %q", services.ErrInvalidRequest, string(modelSize))
	}
	return &Job{
		ID:        uuid.NewString(),
		Source:    source,
		Engine:    engine,
		ModelSize: modelSize,
		CreatedAt: time.Now().UTC(),
	}, nil
}
