package pipeline

import (
	"context"
	"sync"

	"podscribe/internal/transcript"
)

// EventType discriminates the items in a job's outbound event stream.
type EventType string

const (
	EventProgress EventType = "progress"
	EventError    EventType = "error"
	EventResult   EventType = "result"
)

// Event is one item in a job's event stream. Progress events carry Message
// and Percent; the terminal error carries Err; the terminal result carries
// Result. Exactly one terminal event is emitted per job and it is always the
// last one.
type Event struct {
	Type    EventType
	Message string
	Percent float64
	Result  *transcript.Transcript
	Err     string
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Type == EventError || e.Type == EventResult
}

// Sink receives a job's events in emission order. Emit blocks until the
// consumer has accepted the event; a slow consumer delays the pipeline but
// never loses events. Emit returns an error only when the consumer is gone,
// which the pipeline treats as advisory since cancellation arrives through
// the job context.
type Sink interface {
	Emit(ctx context.Context, event Event) error
}

// Collector is a Sink for the synchronous path: it discards progress events
// and retains the terminal outcome.
type Collector struct {
	mu       sync.Mutex
	result   *transcript.Transcript
	errMsg   string
	terminal bool
}

// Emit implements Sink.
func (c *Collector) Emit(_ context.Context, event Event) error {
	if !event.Terminal() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal {
		return nil
	}
	c.terminal = true
	switch event.Type {
	case EventResult:
		c.result = event.Result
	case EventError:
		c.errMsg = event.Err
	}
	return nil
}

// Outcome returns the collected terminal state. The boolean is false when no
// terminal event was observed.
func (c *Collector) Outcome() (*transcript.Transcript, string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.errMsg, c.terminal
}
