package pipeline

import (
	"context"
	"sync"
	"time"

	"podscribe/internal/services"
)

// watchdog enforces a stage's absolute deadline and its rolling stall window.
// Either breach cancels the stage context, which kills the child process, and
// records exactly one verdict; the goroutine exits after the first trip so
// the sibling timer can never fire a second signal.
type watchdog struct {
	timeout     time.Duration
	stallWindow time.Duration
	stallCheck  time.Duration
	cancel      context.CancelFunc

	mu           sync.Mutex
	lastProgress time.Time
	verdict      error
}

func newWatchdog(def stageDef, cancel context.CancelFunc) *watchdog {
	check := def.stallCheck
	if check <= 0 {
		check = 15 * time.Second
	}
	return &watchdog{
		timeout:      def.timeout,
		stallWindow:  def.stallWindow,
		stallCheck:   check,
		cancel:       cancel,
		lastProgress: time.Now(),
	}
}

// touch records a progress signal, resetting the stall clock.
func (w *watchdog) touch() {
	w.mu.Lock()
	w.lastProgress = time.Now()
	w.mu.Unlock()
}

// tripped returns the breach marker, or nil when the stage was never
// terminated by the watchdog.
func (w *watchdog) tripped() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.verdict
}

// watch blocks until the stage context ends or a breach fires. Run it in its
// own goroutine and join it after the stage process exits.
func (w *watchdog) watch(ctx context.Context) {
	var deadline <-chan time.Time
	if w.timeout > 0 {
		timer := time.NewTimer(w.timeout)
		defer timer.Stop()
		deadline = timer.C
	}
	var stallTick <-chan time.Time
	if w.stallWindow > 0 {
		ticker := time.NewTicker(w.stallCheck)
		defer ticker.Stop()
		stallTick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			w.trip(services.ErrStageTimeout)
			return
		case <-stallTick:
			w.mu.Lock()
			idle := time.Since(w.lastProgress)
			w.mu.Unlock()
			if idle >= w.stallWindow {
				w.trip(services.ErrStageStalled)
				return
			}
		}
	}
}

func (w *watchdog) trip(marker error) {
	w.mu.Lock()
	if w.verdict == nil {
		w.verdict = marker
	}
	w.mu.Unlock()
	w.cancel()
}
