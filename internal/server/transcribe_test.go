package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"podscribe/internal/api"
	"podscribe/internal/job"
	"podscribe/internal/services"
	"podscribe/internal/tools"
	"podscribe/internal/transcript"
)

func (fx *fixture) happyTools() {
	fx.runner.on("metadata-tool", happyMetadata())
	fx.runner.on("acquire-tool", happyAcquire())
	fx.runner.on("recognize-tool", happyRecognize())
	fx.runner.on("summarize-tool", happySummarize())
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestTranscribeStreamHappyPath(t *testing.T) {
	fx := newFixture(t)
	fx.happyTools()

	recorder := httptest.NewRecorder()
	fx.server.handleTranscribeStream(recorder, postJSON("/api/transcribe-stream",
		`{"spotify_url":"https://open.spotify.com/episode/abc","engine":"faster","model_size":"base"}`))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	headers := recorder.Header()
	if got := headers.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := headers.Get("Cache-Control"); got != "no-cache" {
		t.Fatalf("unexpected cache-control %q", got)
	}
	if got := headers.Get("Connection"); got != "keep-alive" {
		t.Fatalf("unexpected connection header %q", got)
	}
	if !recorder.Flushed {
		t.Fatal("expected response flushed incrementally")
	}

	events := decodeStream(t, recorder.Body.String())
	if len(events) == 0 {
		t.Fatal("expected events")
	}
	first := events[0]
	if first.Type != api.StreamProgress || first.Percent != 10 || first.Message != "Fetching episode metadata..." {
		t.Fatalf("unexpected first event: %+v", first)
	}

	terminals := 0
	for _, event := range events {
		if event.Terminal() {
			terminals++
		}
	}
	if terminals != 1 {
		t.Fatalf("expected exactly one terminal event, got %d", terminals)
	}
	last := events[len(events)-1]
	if last.Type != api.StreamResult {
		t.Fatalf("expected result last, got %+v", last)
	}
	result, err := last.Transcript()
	if err != nil {
		t.Fatalf("decode result payload: %v", err)
	}
	if result.Text != "hello world" || result.Summary != "A concise summary." {
		t.Fatalf("unexpected result: %+v", result)
	}

	var previous float64 = -1
	for _, event := range events {
		if event.Type != api.StreamProgress {
			continue
		}
		if event.Percent < previous {
			t.Fatalf("percent regressed: %+v", events)
		}
		previous = event.Percent
	}
}

func TestTranscribeStreamEmitsFailureInBand(t *testing.T) {
	fx := newFixture(t)
	fx.runner.on("metadata-tool", func(_ context.Context, _ tools.Command, _, onStderr func(string)) error {
		onStderr("FATAL: no such episode")
		return fmt.Errorf("%w: metadata-tool exited with status 1", services.ErrToolFailure)
	})

	recorder := httptest.NewRecorder()
	fx.server.handleTranscribeStream(recorder, postJSON("/api/transcribe-stream",
		`{"spotify_url":"https://example.com/nope"}`))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected stream already open with 200, got %d", recorder.Code)
	}
	events := decodeStream(t, recorder.Body.String())
	if len(events) < 2 {
		t.Fatalf("expected entry progress plus terminal error, got %+v", events)
	}
	last := events[len(events)-1]
	if last.Type != api.StreamError {
		t.Fatalf("expected terminal error, got %+v", last)
	}
	if !strings.Contains(last.Error, "exited with status 1") {
		t.Fatalf("unexpected error payload: %q", last.Error)
	}
	for _, event := range events[:len(events)-1] {
		if event.Terminal() {
			t.Fatalf("expected single terminal event, got %+v", events)
		}
	}
}

func TestTranscribeStreamRejectsMalformedBody(t *testing.T) {
	fx := newFixture(t)
	recorder := httptest.NewRecorder()
	fx.server.handleTranscribeStream(recorder, postJSON("/api/transcribe-stream", `{`))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if msg := decodeError(t, recorder); !strings.Contains(msg, "decode request body") {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestTranscribeStreamRejectsUnknownEngine(t *testing.T) {
	fx := newFixture(t)
	recorder := httptest.NewRecorder()
	fx.server.handleTranscribeStream(recorder, postJSON("/api/transcribe-stream",
		`{"spotify_url":"https://example.com/ep","engine":"bogus"}`))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if msg := decodeError(t, recorder); !strings.Contains(msg, `unknown recognition engine "bogus"`) {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestTranscribeStreamRejectsMissingSource(t *testing.T) {
	fx := newFixture(t)
	recorder := httptest.NewRecorder()
	fx.server.handleTranscribeStream(recorder, postJSON("/api/transcribe-stream", `{}`))

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if msg := decodeError(t, recorder); !strings.Contains(msg, "episode URL or uploaded file") {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestTranscribeStreamAppliesConfiguredDefaults(t *testing.T) {
	fx := newFixture(t)
	fx.happyTools()

	recorder := httptest.NewRecorder()
	fx.server.handleTranscribeStream(recorder, postJSON("/api/transcribe-stream",
		`{"spotify_url":"https://example.com/ep"}`))

	call, ok := fx.runner.lastCall("recognize-tool")
	if !ok {
		t.Fatal("expected recognition invoked")
	}
	if call.Argv[2] != "faster" || call.Argv[3] != "base" {
		t.Fatalf("expected configured defaults applied, got %v", call.Argv)
	}
}

func TestTranscribeStreamHonorsBackendAlias(t *testing.T) {
	fx := newFixture(t)
	fx.happyTools()

	recorder := httptest.NewRecorder()
	fx.server.handleTranscribeStream(recorder, postJSON("/api/transcribe-stream",
		`{"spotify_url":"https://example.com/ep","backend":"openai"}`))

	call, ok := fx.runner.lastCall("recognize-tool")
	if !ok {
		t.Fatal("expected recognition invoked")
	}
	if call.Argv[2] != "openai" {
		t.Fatalf("expected backend alias honored, got %v", call.Argv)
	}
}

func TestTranscribeSyncHappyPath(t *testing.T) {
	fx := newFixture(t)
	fx.happyTools()

	recorder := httptest.NewRecorder()
	fx.server.handleTranscribe(recorder, postJSON("/api/transcribe",
		`{"spotify_url":"https://open.spotify.com/episode/abc"}`))

	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if got := recorder.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type %q", got)
	}
	var result transcript.Transcript
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode transcript: %v", err)
	}
	if result.Text != "hello world" || result.Summary != "A concise summary." {
		t.Fatalf("unexpected transcript: %+v", result)
	}
	if len(result.Segments) != 1 || result.Segments[0].End != 1.5 {
		t.Fatalf("unexpected segments: %+v", result.Segments)
	}
}

func TestTranscribeSyncMissingUpload(t *testing.T) {
	fx := newFixture(t)
	missing := filepath.Join(t.TempDir(), "gone.mp3")

	recorder := httptest.NewRecorder()
	fx.server.handleTranscribe(recorder, postJSON("/api/transcribe",
		fmt.Sprintf(`{"file_path":%q}`, missing)))

	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", recorder.Code, recorder.Body.String())
	}
	if msg := decodeError(t, recorder); !strings.Contains(msg, "uploaded file not found") {
		t.Fatalf("unexpected error message %q", msg)
	}
}

func TestTranscribeSyncToolFailure(t *testing.T) {
	fx := newFixture(t)
	fx.runner.on("metadata-tool", func(_ context.Context, _ tools.Command, _, _ func(string)) error {
		return fmt.Errorf("%w: metadata-tool exited with status 1", services.ErrToolFailure)
	})

	recorder := httptest.NewRecorder()
	fx.server.handleTranscribe(recorder, postJSON("/api/transcribe",
		`{"spotify_url":"https://example.com/nope"}`))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", recorder.Code)
	}
	if msg := decodeError(t, recorder); !strings.Contains(msg, "exited with status 1") {
		t.Fatalf("unexpected error message %q", msg)
	}

	records, err := fx.store.List(context.Background(), job.StatusFailed)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected failed ledger record, got %+v", records)
	}
}
