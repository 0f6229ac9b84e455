package tools

import (
	"encoding/json"
	"strings"
)

// Diagnostic is one parsed stderr line from a stage tool. Tools report either
// fractional progress or a terminal error, one JSON object per line.
type Diagnostic struct {
	// Progress is a completion fraction in [0, 1]. Valid when HasProgress.
	Progress    float64
	HasProgress bool
	// Stage is the tool's own label for what it is doing ("download",
	// "transcribe"); informational only.
	Stage   string
	Message string
	// Err carries the tool-reported error text for {"error": ...} lines.
	Err string
}

// ParseDiagnostic decodes a stderr line. The second return is false for lines
// that are not part of the protocol; those are noise and belong in the
// NoiseBuffer.
func ParseDiagnostic(line string) (Diagnostic, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Diagnostic{}, false
	}
	var payload struct {
		Progress *float64 `json:"progress"`
		Stage    string   `json:"stage"`
		Message  string   `json:"message"`
		Error    *string  `json:"error"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return Diagnostic{}, false
	}
	if payload.Error != nil {
		return Diagnostic{Err: strings.TrimSpace(*payload.Error)}, true
	}
	if payload.Progress == nil {
		return Diagnostic{}, false
	}
	fraction := *payload.Progress
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return Diagnostic{
		Progress:    fraction,
		HasProgress: true,
		Stage:       strings.TrimSpace(payload.Stage),
		Message:     strings.TrimSpace(payload.Message),
	}, true
}

const noiseLimit = 20

// NoiseBuffer retains recent non-protocol stderr lines so a tool failure can
// be reported with the tool's own words. Blank lines and debug chatter
// (lines starting with "DEBUG:") are not retained.
type NoiseBuffer struct {
	lines []string
}

// Add records a noise line, keeping only the most recent entries.
func (b *NoiseBuffer) Add(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "DEBUG:") {
		return
	}
	b.lines = append(b.lines, trimmed)
	if len(b.lines) > noiseLimit {
		b.lines = b.lines[len(b.lines)-noiseLimit:]
	}
}

// Context returns the retained lines as a single string, oldest first.
func (b *NoiseBuffer) Context() string {
	return strings.Join(b.lines, "; ")
}

// Empty reports whether any noise was retained.
func (b *NoiseBuffer) Empty() bool {
	return len(b.lines) == 0
}
