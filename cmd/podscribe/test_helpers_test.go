package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"podscribe/internal/config"
	"podscribe/internal/history"
	"podscribe/internal/job"
	"podscribe/internal/logging"
	"podscribe/internal/pipeline"
	"podscribe/internal/server"
	"podscribe/internal/services"
	"podscribe/internal/testsupport"
	"podscribe/internal/tools"
)

type behaviorFunc func(ctx context.Context, cmd tools.Command, onStdout, onStderr func(string)) error

// stubRunner scripts external tool behavior per binary name.
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

const transcriptJSON = `{"text":"hello world","segments":[{"id":0,"start":0,"end":1.5,"text":"hello world"}],"language":"en","duration":1.5}`

func installHappyPath(runner *stubRunner) {
	runner.on("metadata-tool", func(_ context.Context, _ tools.Command, onStdout, _ func(string)) error {
		onStdout(`{"id":"ep-1","title":"Test Episode"}`)
		return nil
	})
	runner.on("acquire-tool", func(_ context.Context, cmd tools.Command, onStdout, onStderr func(string)) error {
		onStderr(`{"progress":0.5,"stage":"download"}`)
		outPath := cmd.Argv[len(cmd.Argv)-1]
		if err := os.WriteFile(outPath, []byte("audio-bytes"), 0o644); err != nil {
			return err
		}
		onStdout(fmt.Sprintf(`{"path":%q}`, outPath))
		return nil
	})
	runner.on("recognize-tool", func(_ context.Context, _ tools.Command, onStdout, onStderr func(string)) error {
		onStderr(`{"progress":0.5}`)
		onStdout(transcriptJSON)
		return nil
	})
	runner.on("summarize-tool", func(_ context.Context, _ tools.Command, onStdout, _ func(string)) error {
		onStdout("A concise summary.")
		return nil
	})
}

// cliTestEnv runs a real daemon API server for CLI commands to talk to.
type cliTestEnv struct {
	cfg        *config.Config
	store      *history.Store
	uploads    *job.Registry
	runner     *stubRunner
	addr       string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	homeDir := filepath.Join(t.TempDir(), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t,
		testsupport.WithTool("metadata", "metadata-tool"),
		testsupport.WithTool("acquire", "acquire-tool"),
		testsupport.WithTool("recognize", "recognize-tool"),
		testsupport.WithTool("summarize", "summarize-tool"),
		testsupport.WithStubbedBinaries(
			"metadata-tool", "acquire-tool", "recognize-tool", "summarize-tool",
			"podscribe-worker", "podscribe-whisper",
		),
	)
	cfg.Summary.BaseURL = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	configPath := filepath.Join(homeDir, ".config", "podscribe", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	store := testsupport.MustOpenStore(t, cfg)
	uploads := job.NewRegistry(cfg.Paths.UploadDir, logging.NewNop())
	runner := newStubRunner()
	pipe := pipeline.New(cfg, store, uploads, logging.NewNop(), pipeline.WithRunner(runner))

	srv, err := server.New(cfg, pipe, store, uploads, nil, logging.NewNop(), server.WithRunner(runner))
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := srv.Start(ctx); err != nil {
		cancel()
		t.Fatalf("server.Start: %v", err)
	}
	t.Cleanup(func() {
		srv.Stop()
		cancel()
	})

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		uploads:    uploads,
		runner:     runner,
		addr:       srv.Addr(),
		configPath: configPath,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nwork_dir = %q\nupload_dir = %q\nlog_dir = %q\napi_bind = %q\n\n[summary]\nbase_url = \"\"\n",
		cfg.Paths.WorkDir,
		cfg.Paths.UploadDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, addr, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if addr != "" {
		flags = append(flags, "--addr", addr)
	}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func seedJob(t *testing.T, env *cliTestEnv, status job.Status) *history.Record {
	t.Helper()
	record := testsupport.NewJob(t, env.store, job.Source{EpisodeURL: "https://example.com/ep"})
	if status != job.StatusPending {
		record.Status = status
		if err := env.store.Update(context.Background(), record); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}
	return record
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
