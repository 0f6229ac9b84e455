package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"podscribe/internal/language"
	"podscribe/internal/services"
	"podscribe/internal/tools"
	"podscribe/internal/transcript"
)

// resolveUpload claims the uploaded file referenced by the job's token and
// validates it exists. No process is launched on the failure path. Claiming
// transfers ownership: the upload's directory is removed with the workspace.
func (r *run) resolveUpload() (string, error) {
	path := r.job.Source.UploadToken
	if r.pipeline.uploads != nil {
		if upload, ok := r.pipeline.uploads.Claim(path); ok {
			r.workspace.Adopt(upload.Dir)
			path = upload.Path
		}
	}
	if _, err := os.Stat(path); err != nil {
		return "", services.Wrap(services.ErrMissingInput, "upload", "", fmt.Sprintf("uploaded file not found: %s", path), nil)
	}
	return path, nil
}

func (r *run) metadataStage(ctx context.Context) error {
	def := r.defs.metadata
	r.enterStage(ctx, def)

	argv := append(r.pipeline.cfg.MetadataCommand(), r.job.Source.EpisodeURL)
	out, err := r.runStage(ctx, def, tools.Command{Argv: argv})
	if err != nil {
		return err
	}

	var payload struct {
		Title string `json:"title"`
	}
	if err := tools.DecodeResult(out, &payload); err != nil {
		return fmt.Errorf("%s: %w", def.label, err)
	}
	r.record.Title = strings.TrimSpace(payload.Title)
	return nil
}

func (r *run) acquireStage(ctx context.Context) (string, error) {
	def := r.defs.acquire
	r.enterStage(ctx, def)

	dir, err := r.workspace.Dir()
	if err != nil {
		return "", services.Wrap(services.ErrLaunchFailure, def.label, "create workspace", "", err)
	}

	argv := append(r.pipeline.cfg.AcquireCommand(), r.job.Source.EpisodeURL, filepath.Join(dir, "episode.mp3"))
	out, err := r.runStage(ctx, def, tools.Command{Argv: argv, Dir: dir})
	if err != nil {
		return "", err
	}

	var payload struct {
		Path string `json:"path"`
	}
	if err := tools.DecodeResult(out, &payload); err != nil {
		return "", fmt.Errorf("%s: %w", def.label, err)
	}
	if payload.Path == "" {
		return "", services.Wrap(services.ErrMalformedOutput, def.label, "", "tool reported no saved path", nil)
	}
	if _, err := os.Stat(payload.Path); err != nil {
		return "", services.Wrap(services.ErrMalformedOutput, def.label, "", fmt.Sprintf("reported audio file missing: %s", payload.Path), nil)
	}

	r.progress(ctx, def, "Download complete", def.rangeEnd)
	return payload.Path, nil
}

func (r *run) recognizeStage(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	def := r.defs.recognize
	r.enterStage(ctx, def)

	argv := append(r.pipeline.cfg.RecognizeCommand(), audioPath, string(r.job.Engine), string(r.job.ModelSize))
	out, err := r.runStage(ctx, def, tools.Command{Argv: argv})
	if err != nil {
		return nil, err
	}

	result, err := transcript.Decode(out)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", def.label, err)
	}
	// Recognizers report languages unevenly ("en", "eng", "english"); the
	// stored transcript always carries the two-letter code.
	if iso := language.ToISO2(result.Language); iso != "" {
		result.Language = iso
	}
	return result, nil
}

// summarizeStage feeds the transcript to the summarize tool on stdin and
// takes its stdout verbatim: this is the one stage whose result channel is
// plain text, not JSON.
func (r *run) summarizeStage(ctx context.Context, result *transcript.Transcript) (string, error) {
	def := r.defs.summarize
	r.enterStage(ctx, def)

	payload, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode transcript payload: %w", err)
	}
	out, err := r.runStage(ctx, def, tools.Command{Argv: r.pipeline.cfg.SummarizeCommand(), Stdin: bytes.NewReader(payload)})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// relayState accumulates what the diagnostic channel said while the stage
// ran. Fields are written by the runner's scan goroutine and read only after
// the runner returns, which joins that goroutine first.
type relayState struct {
	noise   tools.NoiseBuffer
	toolErr string
}

// runStage launches the stage's external process with the watchdog armed and
// the progress relay attached, blocking until it exits or is terminated.
// It returns the accumulated result channel text.
func (r *run) runStage(ctx context.Context, def stageDef, command tools.Command) (string, error) {
	stageCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	wd := newWatchdog(def, cancel)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		wd.watch(stageCtx)
	}()

	var stdout []string
	rel := &relayState{}

	onStdout := func(line string) {
		stdout = append(stdout, line)
	}
	onStderr := func(line string) {
		diag, ok := tools.ParseDiagnostic(line)
		if !ok {
			rel.noise.Add(line)
			return
		}
		if diag.Err != "" {
			// Terminal for the stage: kill the process rather than wait
			// for it to exit on its own.
			rel.toolErr = diag.Err
			cancel()
			return
		}
		if !def.streams {
			return
		}
		if diag.Stage != "" && def.toolStage != "" && diag.Stage != def.toolStage {
			return
		}
		wd.touch()
		message := diag.Message
		if message == "" && def.liveMessage != nil {
			message = def.liveMessage(diag.Progress)
		}
		r.progress(ctx, def, message, def.percentAt(diag.Progress))
	}

	runErr := r.pipeline.runner.Run(stageCtx, command, onStdout, onStderr)
	cancel()
	wg.Wait()

	if rel.toolErr != "" {
		return "", services.Wrap(services.ErrToolFailure, def.label, "", rel.toolErr, nil)
	}
	if runErr == nil {
		return strings.Join(stdout, "\n"), nil
	}
	if verdict := wd.tripped(); verdict != nil {
		switch {
		case errors.Is(verdict, services.ErrStageStalled):
			return "", services.Wrap(verdict, def.label, "", fmt.Sprintf("no progress within %s", def.stallWindow), nil)
		default:
			return "", services.Wrap(verdict, def.label, "", fmt.Sprintf("no completion within %s", def.timeout), nil)
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", ctxErr
	}
	if noise := rel.noise.Context(); noise != "" && errors.Is(runErr, services.ErrToolFailure) {
		return "", fmt.Errorf("%s: %w (recent output: %s)", def.label, runErr, noise)
	}
	return "", fmt.Errorf("%s: %w", def.label, runErr)
}
