package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"podscribe/internal/config"
	"podscribe/internal/history"
	"podscribe/internal/job"
	"podscribe/internal/logging"
	"podscribe/internal/services"
	"podscribe/internal/tools"
	"podscribe/internal/transcript"
)

// Notifier receives job terminal outcomes. Implementations must be safe for
// concurrent use across jobs.
type Notifier interface {
	JobComplete(ctx context.Context, title string)
	JobFailed(ctx context.Context, title, message string)
}

// Pipeline sequences the four stages for submitted jobs. One Pipeline serves
// all jobs; each Run drives a single job on the caller's goroutine, emitting
// events into the supplied sink. Jobs are fully independent: each owns its
// process tree, scratch directory, and watchdog timers.
type Pipeline struct {
	cfg      *config.Config
	store    *history.Store
	uploads  *job.Registry
	runner   tools.Runner
	notifier Notifier
	logger   *slog.Logger
}

// Option customizes Pipeline construction.
type Option func(*Pipeline)

// WithRunner replaces the exec-backed tool runner; tests use this to script
// tool behavior.
func WithRunner(runner tools.Runner) Option {
	return func(p *Pipeline) {
		p.runner = runner
	}
}

// WithNotifier attaches a terminal-outcome notifier.
func WithNotifier(notifier Notifier) Option {
	return func(p *Pipeline) {
		p.notifier = notifier
	}
}

// New builds a Pipeline. The store records every job's progression; uploads
// resolves uploaded-file tokens and may be nil when uploads are disabled.
func New(cfg *config.Config, store *history.Store, uploads *job.Registry, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	p := &Pipeline{
		cfg:     cfg,
		store:   store,
		uploads: uploads,
		runner:  tools.NewRunner(),
		logger:  logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes one job to its terminal event. It blocks until the job
// completes, fails, or ctx is cancelled; cancellation kills any live child
// process. The workspace is removed on every return path. The returned error
// is nil only when a Terminal Result was emitted.
func (p *Pipeline) Run(ctx context.Context, j *job.Job, sink Sink) error {
	record, err := p.store.NewJob(ctx, j)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "", "record job", "", err)
	}
	return p.resume(ctx, j, record, sink)
}

// resume drives a job that already has a ledger row.
func (p *Pipeline) resume(ctx context.Context, j *job.Job, record *history.Record, sink Sink) error {
	ctx = services.WithJobID(ctx, j.ID)
	r := &run{
		pipeline:  p,
		job:       j,
		record:    record,
		sink:      sink,
		defs:      buildStages(p.cfg, j),
		workspace: job.NewWorkspace(p.cfg.Paths.WorkDir, j.ID, p.logger),
		sampler:   logging.NewProgressSampler(0),
		logger:    logging.WithContext(ctx, p.logger),
	}
	return r.execute(ctx)
}

// run is the per-job execution state. It lives for one Pipeline.Run call.
type run struct {
	pipeline  *Pipeline
	job       *job.Job
	record    *history.Record
	sink      Sink
	defs      stages
	workspace *job.Workspace
	sampler   *logging.ProgressSampler
	logger    *slog.Logger

	mu          sync.Mutex
	lastPercent float64
}

func (r *run) execute(ctx context.Context) error {
	defer r.workspace.Cleanup()

	started := time.Now()
	r.logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("source", r.record.SourceSummary()),
		logging.String("engine", string(r.job.Engine)),
		logging.String("model_size", string(r.job.ModelSize)),
	)

	var (
		audioPath string
		result    *transcript.Transcript
		summary   string
		err       error
	)

	if r.job.Source.Uploaded() {
		audioPath, err = r.resolveUpload()
	} else {
		if err = r.metadataStage(ctx); err == nil {
			audioPath, err = r.acquireStage(ctx)
		}
	}
	if err == nil {
		result, err = r.recognizeStage(ctx, audioPath)
	}
	if err == nil {
		summary, err = r.summarizeStage(ctx, result)
	}
	if err != nil {
		return r.fail(ctx, err)
	}

	result.Summary = summary
	return r.complete(ctx, result, time.Since(started))
}

// fail records and emits the job's single Terminal Error. Cancellation is the
// exception: the client is gone (or the daemon is stopping), so only the
// ledger is updated.
func (r *run) fail(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		r.record.SetFailed(services.KindUnavailable, "job cancelled before completion")
		if storeErr := r.pipeline.store.Update(context.Background(), r.record); storeErr != nil {
			r.logger.Warn("failed to persist cancellation", logging.Error(storeErr))
		}
		r.logger.Info("job cancelled",
			logging.String(logging.FieldEventType, "job_cancelled"),
			logging.String(logging.FieldStage, r.record.ProgressStage),
		)
		return err
	}

	kind := services.Classify(err)
	message := err.Error()
	r.record.SetFailed(kind, message)
	if storeErr := r.pipeline.store.Update(context.Background(), r.record); storeErr != nil {
		r.logger.Warn("failed to persist job failure", logging.Error(storeErr))
	}

	r.logger.Error("job failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String(logging.FieldStage, r.record.ProgressStage),
		logging.String("error_kind", string(kind)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, failureHint(kind)),
	)

	if emitErr := r.sink.Emit(ctx, Event{Type: EventError, Err: message}); emitErr != nil {
		r.logger.Debug("terminal error not delivered", logging.Error(emitErr))
	}
	if r.pipeline.notifier != nil {
		r.pipeline.notifier.JobFailed(context.Background(), r.notificationTitle(), message)
	}
	return err
}

func (r *run) complete(ctx context.Context, result *transcript.Transcript, elapsed time.Duration) error {
	r.progress(ctx, r.defs.summarize, "Complete!", 100)

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return r.fail(ctx, services.Wrap(services.ErrMalformedOutput, "summarize", "encode result", "", err))
	}
	r.record.SetCompleted(string(resultJSON), result.Language, result.Duration)
	if storeErr := r.pipeline.store.Update(context.Background(), r.record); storeErr != nil {
		r.logger.Warn("failed to persist job completion", logging.Error(storeErr))
	}

	r.logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Int("segments", len(result.Segments)),
		logging.String("language", result.Language),
		logging.Duration("job_duration", elapsed),
	)

	if emitErr := r.sink.Emit(ctx, Event{Type: EventResult, Result: result}); emitErr != nil {
		r.logger.Debug("terminal result not delivered", logging.Error(emitErr))
	}
	if r.pipeline.notifier != nil {
		r.pipeline.notifier.JobComplete(context.Background(), r.notificationTitle())
	}
	return nil
}

// enterStage transitions the ledger row and emits the stage's boundary event.
func (r *run) enterStage(ctx context.Context, def stageDef) {
	r.record.Status = def.status
	r.logger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String(logging.FieldStage, def.label),
	)
	r.progress(ctx, def, def.entryMessage, def.entryPercent)
}

// progress clamps percent into the job's monotonic global scale, emits the
// event, and persists the ledger triple. A stage's local regression is never
// forwarded as a global regression.
func (r *run) progress(ctx context.Context, def stageDef, message string, percent float64) {
	r.mu.Lock()
	if percent < r.lastPercent {
		percent = r.lastPercent
	}
	if percent > 100 {
		percent = 100
	}
	r.lastPercent = percent
	r.mu.Unlock()

	if err := r.sink.Emit(ctx, Event{Type: EventProgress, Message: message, Percent: percent}); err != nil {
		r.logger.Debug("progress event not delivered", logging.Error(err))
	}

	r.record.SetProgress(def.label, message, percent)
	if err := r.pipeline.store.UpdateProgress(ctx, r.job.ID, def.label, message, percent); err != nil && !errors.Is(err, context.Canceled) {
		r.logger.Warn("failed to persist progress", logging.Error(err))
	}

	if r.sampler.ShouldLog(percent, def.label) {
		r.logger.Info("progress",
			logging.String(logging.FieldStage, def.label),
			logging.Float64(logging.FieldPercent, percent),
			logging.String("message", message),
		)
	}
}

func (r *run) notificationTitle() string {
	if r.record.Title != "" {
		return r.record.Title
	}
	return r.record.SourceSummary()
}

func failureHint(kind services.Kind) string {
	switch kind {
	case services.KindLaunchFailure:
		return "check that the stage tool is installed and on PATH"
	case services.KindToolFailure:
		return "inspect the tool output captured in the error message"
	case services.KindMalformedOutput:
		return "the tool violated its output contract; check its version"
	case services.KindStageTimeout:
		return "raise the stage timeout in [pipeline] or check the tool"
	case services.KindStageStalled:
		return "the tool stopped reporting progress; check its logs"
	case services.KindMissingInput:
		return "re-upload the file and submit again"
	default:
		return "check the daemon log for details"
	}
}
