package tools_test

import (
	"strings"
	"testing"

	"podscribe/internal/tools"
)

func TestParseDiagnosticProgress(t *testing.T) {
	diag, ok := tools.ParseDiagnostic(`{"progress": 0.42, "stage": "download", "message": "3.2 MiB/s"}`)
	if !ok {
		t.Fatal("expected progress line to parse")
	}
	if !diag.HasProgress || diag.Progress != 0.42 {
		t.Fatalf("unexpected progress: %+v", diag)
	}
	if diag.Stage != "download" || diag.Message != "3.2 MiB/s" {
		t.Fatalf("unexpected fields: %+v", diag)
	}
	if diag.Err != "" {
		t.Fatalf("unexpected error text: %q", diag.Err)
	}
}

func TestParseDiagnosticError(t *testing.T) {
	diag, ok := tools.ParseDiagnostic(`{"error": "no audio stream found"}`)
	if !ok {
		t.Fatal("expected error line to parse")
	}
	if diag.Err != "no audio stream found" {
		t.Fatalf("unexpected error text: %q", diag.Err)
	}
	if diag.HasProgress {
		t.Fatal("error line must not carry progress")
	}
}

func TestParseDiagnosticErrorWinsOverProgress(t *testing.T) {
	diag, ok := tools.ParseDiagnostic(`{"progress": 0.5, "error": "disk full"}`)
	if !ok {
		t.Fatal("expected line to parse")
	}
	if diag.Err != "disk full" || diag.HasProgress {
		t.Fatalf("expected error to take precedence: %+v", diag)
	}
}

func TestParseDiagnosticClampsFraction(t *testing.T) {
	diag, ok := tools.ParseDiagnostic(`{"progress": 1.7}`)
	if !ok || diag.Progress != 1 {
		t.Fatalf("expected clamp to 1, got %+v ok=%v", diag, ok)
	}
	diag, ok = tools.ParseDiagnostic(`{"progress": -0.2}`)
	if !ok || diag.Progress != 0 {
		t.Fatalf("expected clamp to 0, got %+v ok=%v", diag, ok)
	}
}

func TestParseDiagnosticRejectsNoise(t *testing.T) {
	for _, line := range []string{
		"",
		"   ",
		"Downloading chunk 4 of 10",
		"DEBUG: trying og:description",
		`{"status": "working"}`,
		`{not json`,
		`["progress", 0.4]`,
	} {
		if _, ok := tools.ParseDiagnostic(line); ok {
			t.Errorf("expected %q to be rejected", line)
		}
	}
}

func TestNoiseBufferFiltersAndBounds(t *testing.T) {
	var buf tools.NoiseBuffer
	if !buf.Empty() {
		t.Fatal("expected new buffer to be empty")
	}

	buf.Add("  ")
	buf.Add("DEBUG: probing feed")
	if !buf.Empty() {
		t.Fatalf("blank and debug lines must be dropped, got %q", buf.Context())
	}

	buf.Add("warning: slow mirror")
	buf.Add("retrying segment 2")
	if got := buf.Context(); got != "warning: slow mirror; retrying segment 2" {
		t.Fatalf("unexpected context: %q", got)
	}

	for i := 0; i < 50; i++ {
		buf.Add("line")
	}
	if n := strings.Count(buf.Context(), "line"); n > 20 {
		t.Fatalf("expected retention cap, got %d lines", n)
	}
	if strings.Contains(buf.Context(), "slow mirror") {
		t.Fatal("expected oldest lines to be evicted")
	}
}
