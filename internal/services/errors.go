package services

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel markers for job failures. Every fatal condition in the pipeline is
// tagged with exactly one of these so callers can classify the outcome with
// errors.Is without parsing message text. None of them are retried by the core;
// a retry is a new job submitted by the client.
var (
	// ErrLaunchFailure means the external tool could not be started at all
	// (binary missing, permission denied, bad working directory).
	ErrLaunchFailure = errors.New("launch failure")
	// ErrToolFailure means the tool ran and exited non-zero.
	ErrToolFailure = errors.New("tool failure")
	// ErrMalformedOutput means the tool exited zero but violated its output
	// contract (no parseable result payload).
	ErrMalformedOutput = errors.New("malformed output")
	// ErrStageTimeout means the stage exceeded its absolute deadline.
	ErrStageTimeout = errors.New("stage timeout")
	// ErrStageStalled means the stage produced no progress inside its stall window.
	ErrStageStalled = errors.New("stage stalled")
	// ErrMissingInput means a referenced upload path does not exist on disk.
	ErrMissingInput = errors.New("missing input")

	ErrInvalidRequest = errors.New("invalid request")
	ErrUnavailable    = errors.New("unavailable")
)

// Kind is the stable string form of a failure marker, used by the job ledger
// and API error bodies.
type Kind string

const (
	KindLaunchFailure   Kind = "launch_failure"
	KindToolFailure     Kind = "tool_failure"
	KindMalformedOutput Kind = "malformed_output"
	KindStageTimeout    Kind = "stage_timeout"
	KindStageStalled    Kind = "stage_stalled"
	KindMissingInput    Kind = "missing_input"
	KindInvalidRequest  Kind = "invalid_request"
	KindUnavailable     Kind = "unavailable"
	KindInternal        Kind = "internal"
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrToolFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an error to its Kind. Unrecognized errors classify as internal.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrLaunchFailure):
		return KindLaunchFailure
	case errors.Is(err, ErrToolFailure):
		return KindToolFailure
	case errors.Is(err, ErrMalformedOutput):
		return KindMalformedOutput
	case errors.Is(err, ErrStageTimeout):
		return KindStageTimeout
	case errors.Is(err, ErrStageStalled):
		return KindStageStalled
	case errors.Is(err, ErrMissingInput):
		return KindMissingInput
	case errors.Is(err, ErrInvalidRequest):
		return KindInvalidRequest
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	default:
		return KindInternal
	}
}

// Fatal reports whether the error carries one of the pipeline failure markers.
func Fatal(err error) bool {
	return Classify(err) != KindInternal
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "stage failure"
	}
	return strings.Join(parts, ": ")
}
