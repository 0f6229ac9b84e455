package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestUploadStagesFile(t *testing.T) {
	env := setupCLITestEnv(t)

	audioPath := filepath.Join(t.TempDir(), "session.wav")
	if err := os.WriteFile(audioPath, []byte("wav-bytes"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	out, _, err := runCLI(t, []string{"upload", audioPath}, env.addr, env.configPath)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	requireContains(t, out, "Uploaded session.wav")
	requireContains(t, out, "Token: ")
	requireContains(t, out, "podscribe transcribe ")

	if pending := env.uploads.Pending(); pending != 1 {
		t.Fatalf("expected 1 pending upload, got %d", pending)
	}
}

func TestUploadMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"upload", filepath.Join(t.TempDir(), "absent.mp3")}, env.addr, env.configPath); err == nil {
		t.Fatal("expected missing file to fail")
	}
}
