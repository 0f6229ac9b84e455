package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"podscribe/internal/services"
)

// ExtractPayload isolates the structured payload from raw tool stdout. Tools
// are allowed to print banners and warnings around their result, so lines that
// begin with '{' or '[' are preferred and joined in order; when no such line
// exists the whole output is returned trimmed.
func ExtractPayload(raw string) string {
	lines := strings.Split(raw, "\n")
	jsonLines := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonLines = append(jsonLines, trimmed)
		}
	}
	if len(jsonLines) > 0 {
		return strings.Join(jsonLines, "\n")
	}
	return strings.TrimSpace(raw)
}

// DecodeResult extracts the payload from raw stdout and unmarshals it into
// target. A missing or unparseable payload is a contract violation by the
// tool, reported as malformed output.
func DecodeResult(raw string, target any) error {
	payload := ExtractPayload(raw)
	if payload == "" {
		return fmt.Errorf("%w: tool produced no output", services.ErrMalformedOutput)
	}
	if err := json.Unmarshal([]byte(payload), target); err != nil {
		return fmt.Errorf("%w: decode tool output: %v", services.ErrMalformedOutput, err)
	}
	return nil
}
