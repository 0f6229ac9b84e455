package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"podscribe/internal/config"
	"podscribe/internal/history"
	"podscribe/internal/job"
	"podscribe/internal/logging"
	"podscribe/internal/pipeline"
	"podscribe/internal/services"
	"podscribe/internal/testsupport"
	"podscribe/internal/tools"
)

type behaviorFunc func(ctx context.Context, cmd tools.Command, onStdout, onStderr func(string)) error

type stubRunner struct {
	mu        sync.Mutex
	behaviors map[string]behaviorFunc
	calls     []tools.Command
}

func newStubRunner() *stubRunner {
	return &stubRunner{behaviors: make(map[string]behaviorFunc)}
}

func (s *stubRunner) on(tool string, fn behaviorFunc) {
	s.behaviors[tool] = fn
}

func (s *stubRunner) Run(ctx context.Context, command tools.Command, onStdout, onStderr func(string)) error {
	s.mu.Lock()
	s.calls = append(s.calls, command)
	fn := s.behaviors[command.Argv[0]]
	s.mu.Unlock()
	if fn == nil {
		return fmt.Errorf("%w: no behavior for %s", services.ErrLaunchFailure, command.Argv[0])
	}
	return fn(ctx, command, onStdout, onStderr)
}

func (s *stubRunner) invoked(tool string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, call := range s.calls {
		if call.Argv[0] == tool {
			return true
		}
	}
	return false
}

type recordingSink struct {
	mu     sync.Mutex
	events []pipeline.Event
}

func (s *recordingSink) Emit(_ context.Context, event pipeline.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) snapshot() []pipeline.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]pipeline.Event, len(s.events))
	copy(cp, s.events)
	return cp
}

func (s *recordingSink) percents() []float64 {
	var out []float64
	for _, event := range s.snapshot() {
		if event.Type == pipeline.EventProgress {
			out = append(out, event.Percent)
		}
	}
	return out
}

func newPipelineConfig(t *testing.T, opts ...testsupport.ConfigOption) *config.Config {
	t.Helper()
	base := []testsupport.ConfigOption{
		testsupport.WithTool("metadata", "metadata-tool"),
		testsupport.WithTool("acquire", "acquire-tool"),
		testsupport.WithTool("recognize", "recognize-tool"),
		testsupport.WithTool("summarize", "summarize-tool"),
	}
	return testsupport.NewConfig(t, append(base, opts...)...)
}

func newTestPipeline(t *testing.T, cfg *config.Config, runner tools.Runner, uploads *job.Registry) (*pipeline.Pipeline, *history.Store) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	p := pipeline.New(cfg, store, uploads, logging.NewNop(), pipeline.WithRunner(runner))
	return p, store
}

func mustJob(t *testing.T, source job.Source) *job.Job {
	t.Helper()
	j, err := job.New(source, job.EngineFaster, job.ModelBase)
	if err != nil {
		t.Fatalf("job.New failed: %v", err)
	}
	return j
}

const transcriptJSON = `{"text":"hello world","segments":[{"id":0,"start":0,"end":1.5,"text":"hello world"}],"language":"en","duration":1.5}`

func happyMetadata() behaviorFunc {
	return func(_ context.Context, _ tools.Command, onStdout, _ func(string)) error {
		onStdout(`{"id":"ep-1","title":"Test Episode"}`)
		return nil
	}
}

func happyAcquire(fractions ...float64) behaviorFunc {
	return func(_ context.Context, cmd tools.Command, onStdout, onStderr func(string)) error {
		for _, fraction := range fractions {
			onStderr(fmt.Sprintf(`{"progress":%v,"stage":"download"}`, fraction))
		}
		outPath := cmd.Argv[len(cmd.Argv)-1]
		if err := os.WriteFile(outPath, []byte("audio-bytes"), 0o644); err != nil {
			return err
		}
		onStdout(fmt.Sprintf(`{"path":%q}`, outPath))
		return nil
	}
}

func happyRecognize() behaviorFunc {
	return func(_ context.Context, _ tools.Command, onStdout, onStderr func(string)) error {
		onStderr(`{"progress":0.5}`)
		onStdout("Loading model...")
		onStdout(transcriptJSON)
		return nil
	}
}

func happySummarize(t *testing.T) behaviorFunc {
	return func(_ context.Context, cmd tools.Command, onStdout, _ func(string)) error {
		if cmd.Stdin == nil {
			t.Error("expected transcript payload on stdin")
		} else {
			payload, err := io.ReadAll(cmd.Stdin)
			if err != nil {
				t.Errorf("read stdin: %v", err)
			}
			if !strings.Contains(string(payload), "hello world") {
				t.Errorf("stdin payload missing transcript text: %s", payload)
			}
		}
		onStdout("A concise summary.")
		return nil
	}
}

func blockUntilCancelled(stderrLines ...string) behaviorFunc {
	return func(ctx context.Context, _ tools.Command, _, onStderr func(string)) error {
		for _, line := range stderrLines {
			onStderr(line)
		}
		<-ctx.Done()
		return ctx.Err()
	}
}

func TestRemoteJobHappyPath(t *testing.T) {
	cfg := newPipelineConfig(t)
	runner := newStubRunner()
	runner.on("metadata-tool", happyMetadata())
	runner.on("acquire-tool", happyAcquire(0.25, 0.75))
	runner.on("recognize-tool", happyRecognize())
	runner.on("summarize-tool", happySummarize(t))

	p, store := newTestPipeline(t, cfg, runner, nil)
	sink := &recordingSink{}
	j := mustJob(t, job.Source{EpisodeURL: "https://open.spotify.com/episode/abc"})

	if err := p.Run(context.Background(), j, sink); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	events := sink.snapshot()
	if len(events) == 0 {
		t.Fatal("expected events")
	}
	last := events[len(events)-1]
	if last.Type != pipeline.EventResult {
		t.Fatalf("expected result as last event, got %+v", last)
	}
	if last.Result == nil || last.Result.Text != "hello world" {
		t.Fatalf("unexpected result payload: %+v", last.Result)
	}
	if last.Result.Summary != "A concise summary." {
		t.Fatalf("expected summary attached, got %q", last.Result.Summary)
	}
	if len(last.Result.Segments) != 1 || last.Result.Segments[0].End != 1.5 {
		t.Fatalf("unexpected segments: %+v", last.Result.Segments)
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

	want := []float64{10, 20, 22.5, 27.5, 30, 30, 62.5, 95, 100}
	got := sink.percents()
	if len(got) != len(want) {
		t.Fatalf("expected percents %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected percents %v, got %v", want, got)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("percent regressed at %d: %v", i, got)
		}
	}
	for _, percent := range got {
		if percent < 0 || percent > 100 {
			t.Fatalf("percent out of bounds: %v", percent)
		}
	}

	record, err := store.GetByID(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if record.Status != job.StatusCompleted {
		t.Fatalf("expected completed record, got %s", record.Status)
	}
	if record.Title != "Test Episode" {
		t.Fatalf("expected title recorded, got %q", record.Title)
	}
	if record.Language != "en" || record.DurationSeconds != 1.5 {
		t.Fatalf("unexpected result metadata: %#v", record)
	}
	if record.ProgressPercent != 100 || record.CompletedAt == nil {
		t.Fatalf("unexpected completion fields: %#v", record)
	}
	if !strings.Contains(record.ResultJSON, "A concise summary.") {
		t.Fatalf("expected result JSON to carry summary: %s", record.ResultJSON)
	}

	assertNoJobDirs(t, cfg)
}

func TestUploadedJobSkipsAcquisition(t *testing.T) {
	cfg := newPipelineConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	registry := job.NewRegistry(cfg.Paths.UploadDir, logging.NewNop())
	token, err := registry.Store("episode.m4a", strings.NewReader("uploaded-audio"))
	if err != nil {
		t.Fatalf("registry.Store failed: %v", err)
	}

	runner := newStubRunner()
	runner.on("recognize-tool", func(_ context.Context, cmd tools.Command, onStdout, _ func(string)) error {
		if cmd.Argv[1] != token {
			t.Errorf("expected recognizer to receive uploaded path %q, got %q", token, cmd.Argv[1])
		}
		onStdout(transcriptJSON)
		return nil
	})
	runner.on("summarize-tool", happySummarize(t))

	p, store := newTestPipeline(t, cfg, runner, registry)
	sink := &recordingSink{}
	j := mustJob(t, job.Source{UploadToken: token})

	if err := p.Run(context.Background(), j, sink); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	percents := sink.percents()
	if len(percents) == 0 || percents[0] != 30 {
		t.Fatalf("expected first event at recognition range start, got %v", percents)
	}
	for _, percent := range percents {
		if percent < 30 {
			t.Fatalf("expected no events below 30 for uploaded job, got %v", percents)
		}
	}
	if runner.invoked("metadata-tool") || runner.invoked("acquire-tool") {
		t.Fatal("expected metadata and acquisition stages to be skipped")
	}

	if registry.Pending() != 0 {
		t.Fatalf("expected upload claimed, %d pending", registry.Pending())
	}
	if _, err := os.Stat(filepath.Dir(token)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected upload directory removed, stat err=%v", err)
	}

	record, err := store.GetByID(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if record.Status != job.StatusCompleted {
		t.Fatalf("expected completed record, got %s", record.Status)
	}
}

func TestUploadedJobMissingInput(t *testing.T) {
	cfg := newPipelineConfig(t)
	runner := newStubRunner()
	p, store := newTestPipeline(t, cfg, runner, nil)
	sink := &recordingSink{}
	missing := filepath.Join(t.TempDir(), "gone.mp3")
	j := mustJob(t, job.Source{UploadToken: missing})

	err := p.Run(context.Background(), j, sink)
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected missing input error, got %v", err)
	}

	events := sink.snapshot()
	if len(events) != 1 || events[0].Type != pipeline.EventError {
		t.Fatalf("expected a single terminal error event, got %+v", events)
	}
	if !strings.Contains(events[0].Err, "uploaded file not found") {
		t.Fatalf("unexpected error message: %q", events[0].Err)
	}

	runner.mu.Lock()
	callCount := len(runner.calls)
	runner.mu.Unlock()
	if callCount != 0 {
		t.Fatalf("expected no child process spawned, got %d calls", callCount)
	}

	record, err := store.GetByID(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if record.Status != job.StatusFailed || record.ErrorKind != string(services.KindMissingInput) {
		t.Fatalf("unexpected record state: %#v", record)
	}

	assertNoJobDirs(t, cfg)
}

func TestToolFailureSurfacesFilteredNoise(t *testing.T) {
	cfg := newPipelineConfig(t)
	runner := newStubRunner()
	runner.on("metadata-tool", func(_ context.Context, _ tools.Command, _, onStderr func(string)) error {
		onStderr("DEBUG: warming cache")
		onStderr("FATAL: no such episode")
		return fmt.Errorf("%w: metadata-tool exited with status 1", services.ErrToolFailure)
	})

	p, store := newTestPipeline(t, cfg, runner, nil)
	sink := &recordingSink{}
	j := mustJob(t, job.Source{EpisodeURL: "https://example.com/nope"})

	err := p.Run(context.Background(), j, sink)
	if !errors.Is(err, services.ErrToolFailure) {
		t.Fatalf("expected tool failure, got %v", err)
	}

	events := sink.snapshot()
	if len(events) != 2 {
		t.Fatalf("expected entry event plus terminal error, got %+v", events)
	}
	terminal := events[1]
	if terminal.Type != pipeline.EventError {
		t.Fatalf("expected terminal error, got %+v", terminal)
	}
	if !strings.Contains(terminal.Err, "exited with status 1") {
		t.Fatalf("expected exit status in message, got %q", terminal.Err)
	}
	if !strings.Contains(terminal.Err, "no such episode") {
		t.Fatalf("expected diagnostic context in message, got %q", terminal.Err)
	}
	if strings.Contains(terminal.Err, "DEBUG:") {
		t.Fatalf("expected benign noise filtered from message, got %q", terminal.Err)
	}

	record, err := store.GetByID(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if record.ErrorKind != string(services.KindToolFailure) {
		t.Fatalf("unexpected error kind %q", record.ErrorKind)
	}

	assertNoJobDirs(t, cfg)
}

func TestDiagnosticErrorKillsStage(t *testing.T) {
	cfg := newPipelineConfig(t)
	audio := filepath.Join(t.TempDir(), "episode.mp3")
	if err := os.WriteFile(audio, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	runner := newStubRunner()
	runner.on("recognize-tool", blockUntilCancelled(`{"error":"model exploded"}`))

	p, store := newTestPipeline(t, cfg, runner, nil)
	sink := &recordingSink{}
	j := mustJob(t, job.Source{UploadToken: audio})

	err := p.Run(context.Background(), j, sink)
	if !errors.Is(err, services.ErrToolFailure) {
		t.Fatalf("expected tool failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "model exploded") {
		t.Fatalf("expected tool-reported message, got %v", err)
	}

	events := sink.snapshot()
	last := events[len(events)-1]
	if last.Type != pipeline.EventError || !strings.Contains(last.Err, "model exploded") {
		t.Fatalf("unexpected terminal event: %+v", last)
	}

	// A bare path that was never registered as an upload is not owned by the
	// job; the file must survive.
	if _, err := os.Stat(audio); err != nil {
		t.Fatalf("expected unowned input file to survive, stat err=%v", err)
	}

	record, err := store.GetByID(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if record.ErrorKind != string(services.KindToolFailure) {
		t.Fatalf("unexpected error kind %q", record.ErrorKind)
	}
}

func TestStallWatchdogTerminatesStage(t *testing.T) {
	cfg := newPipelineConfig(t, testsupport.WithStallWindow(1, 1))
	audio := filepath.Join(t.TempDir(), "episode.mp3")
	if err := os.WriteFile(audio, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	runner := newStubRunner()
	runner.on("recognize-tool", blockUntilCancelled(`{"progress":0.1}`))

	p, store := newTestPipeline(t, cfg, runner, nil)
	sink := &recordingSink{}
	j := mustJob(t, job.Source{UploadToken: audio})

	err := p.Run(context.Background(), j, sink)
	if !errors.Is(err, services.ErrStageStalled) {
		t.Fatalf("expected stage stalled, got %v", err)
	}
	if !strings.Contains(err.Error(), "no progress within") {
		t.Fatalf("unexpected stall message: %v", err)
	}

	record, storeErr := store.GetByID(context.Background(), j.ID)
	if storeErr != nil {
		t.Fatalf("GetByID failed: %v", storeErr)
	}
	if record.ErrorKind != string(services.KindStageStalled) {
		t.Fatalf("unexpected error kind %q", record.ErrorKind)
	}
}

func TestAbsoluteTimeoutTerminatesStage(t *testing.T) {
	cfg := newPipelineConfig(t)
	cfg.Pipeline.RecognizeTimeout = 1
	audio := filepath.Join(t.TempDir(), "episode.mp3")
	if err := os.WriteFile(audio, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	runner := newStubRunner()
	runner.on("recognize-tool", func(ctx context.Context, _ tools.Command, _, onStderr func(string)) error {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		fraction := 0.0
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				fraction += 0.05
				onStderr(fmt.Sprintf(`{"progress":%v}`, fraction))
			}
		}
	})

	p, store := newTestPipeline(t, cfg, runner, nil)
	sink := &recordingSink{}
	j := mustJob(t, job.Source{UploadToken: audio})

	err := p.Run(context.Background(), j, sink)
	if !errors.Is(err, services.ErrStageTimeout) {
		t.Fatalf("expected stage timeout, got %v", err)
	}
	if !strings.Contains(err.Error(), "no completion within") {
		t.Fatalf("unexpected timeout message: %v", err)
	}

	record, storeErr := store.GetByID(context.Background(), j.ID)
	if storeErr != nil {
		t.Fatalf("GetByID failed: %v", storeErr)
	}
	if record.ErrorKind != string(services.KindStageTimeout) {
		t.Fatalf("unexpected error kind %q", record.ErrorKind)
	}
}

func TestClientDisconnectKillsProcessAndCleans(t *testing.T) {
	cfg := newPipelineConfig(t)
	runner := newStubRunner()
	runner.on("metadata-tool", happyMetadata())
	runner.on("acquire-tool", blockUntilCancelled(`{"progress":0.5,"stage":"download"}`))

	p, store := newTestPipeline(t, cfg, runner, nil)
	sink := &recordingSink{}
	j := mustJob(t, job.Source{EpisodeURL: "https://example.com/show"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, j, sink)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		percents := sink.percents()
		if len(percents) > 0 && percents[len(percents)-1] == 25 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for live progress, events=%v", sink.snapshot())
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	err := <-done
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}

	for _, event := range sink.snapshot() {
		if event.Terminal() {
			t.Fatalf("expected no terminal event after disconnect, got %+v", event)
		}
	}

	record, storeErr := store.GetByID(context.Background(), j.ID)
	if storeErr != nil {
		t.Fatalf("GetByID failed: %v", storeErr)
	}
	if record.Status != job.StatusFailed || record.ErrorKind != string(services.KindUnavailable) {
		t.Fatalf("unexpected record state: %#v", record)
	}

	assertNoJobDirs(t, cfg)
}

func TestStageLocalRegressionClamped(t *testing.T) {
	cfg := newPipelineConfig(t)
	runner := newStubRunner()
	runner.on("metadata-tool", happyMetadata())
	runner.on("acquire-tool", happyAcquire(0.75, 0.25))
	runner.on("recognize-tool", happyRecognize())
	runner.on("summarize-tool", happySummarize(t))

	p, _ := newTestPipeline(t, cfg, runner, nil)
	sink := &recordingSink{}
	j := mustJob(t, job.Source{EpisodeURL: "https://example.com/show"})

	if err := p.Run(context.Background(), j, sink); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	percents := sink.percents()
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("percent regressed: %v", percents)
		}
	}
	// The tool's own regression (0.75 then 0.25) is forwarded clamped.
	found := false
	for i := 1; i < len(percents); i++ {
		if percents[i-1] == 27.5 && percents[i] == 27.5 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected clamped repeat of 27.5, got %v", percents)
	}
}

func TestMismatchedStageTagIgnored(t *testing.T) {
	cfg := newPipelineConfig(t)
	runner := newStubRunner()
	runner.on("metadata-tool", happyMetadata())
	runner.on("acquire-tool", func(_ context.Context, cmd tools.Command, onStdout, onStderr func(string)) error {
		onStderr(`{"progress":0.5,"stage":"transcode"}`)
		onStderr(`{"progress":0.75,"stage":"download"}`)
		outPath := cmd.Argv[len(cmd.Argv)-1]
		if err := os.WriteFile(outPath, []byte("audio"), 0o644); err != nil {
			return err
		}
		onStdout(fmt.Sprintf(`{"path":%q}`, outPath))
		return nil
	})
	runner.on("recognize-tool", happyRecognize())
	runner.on("summarize-tool", happySummarize(t))

	p, _ := newTestPipeline(t, cfg, runner, nil)
	sink := &recordingSink{}
	j := mustJob(t, job.Source{EpisodeURL: "https://example.com/show"})

	if err := p.Run(context.Background(), j, sink); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, percent := range sink.percents() {
		if percent == 25 {
			t.Fatalf("expected mismatched stage tag to be ignored, got %v", sink.percents())
		}
	}
	seen := false
	for _, percent := range sink.percents() {
		if percent == 27.5 {
			seen = true
		}
	}
	if !seen {
		t.Fatalf("expected matching stage tag forwarded, got %v", sink.percents())
	}
}

func TestCollectorSynchronousPath(t *testing.T) {
	cfg := newPipelineConfig(t)
	runner := newStubRunner()
	runner.on("metadata-tool", happyMetadata())
	runner.on("acquire-tool", happyAcquire(0.5))
	runner.on("recognize-tool", happyRecognize())
	runner.on("summarize-tool", happySummarize(t))

	p, _ := newTestPipeline(t, cfg, runner, nil)
	collector := &pipeline.Collector{}
	j := mustJob(t, job.Source{EpisodeURL: "https://example.com/show"})

	if err := p.Run(context.Background(), j, collector); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	result, errMsg, terminal := collector.Outcome()
	if !terminal {
		t.Fatal("expected a terminal outcome")
	}
	if errMsg != "" {
		t.Fatalf("unexpected error outcome: %q", errMsg)
	}
	if result == nil || result.Text != "hello world" || result.Summary != "A concise summary." {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestMalformedTranscriptOutput(t *testing.T) {
	cfg := newPipelineConfig(t)
	audio := filepath.Join(t.TempDir(), "episode.mp3")
	if err := os.WriteFile(audio, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}

	runner := newStubRunner()
	runner.on("recognize-tool", func(_ context.Context, _ tools.Command, onStdout, _ func(string)) error {
		onStdout("the model said some words but no JSON")
		return nil
	})

	p, store := newTestPipeline(t, cfg, runner, nil)
	sink := &recordingSink{}
	j := mustJob(t, job.Source{UploadToken: audio})

	err := p.Run(context.Background(), j, sink)
	if !errors.Is(err, services.ErrMalformedOutput) {
		t.Fatalf("expected malformed output, got %v", err)
	}

	record, storeErr := store.GetByID(context.Background(), j.ID)
	if storeErr != nil {
		t.Fatalf("GetByID failed: %v", storeErr)
	}
	if record.ErrorKind != string(services.KindMalformedOutput) {
		t.Fatalf("unexpected error kind %q", record.ErrorKind)
	}
}

// assertNoJobDirs verifies the work dir holds no leftover job workspaces.
func assertNoJobDirs(t *testing.T, cfg *config.Config) {
	t.Helper()
	entries, err := os.ReadDir(cfg.Paths.WorkDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		t.Fatalf("read work dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), "job-") {
			t.Fatalf("leftover workspace %s", entry.Name())
		}
	}
}
