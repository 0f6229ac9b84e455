package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"podscribe/internal/api"
	"podscribe/internal/pipeline"
)

// Wire forms of the three stream event types, one JSON object per data:
// line.
type progressEvent struct {
	Type    string  `json:"type"`
	Message string  `json:"message"`
	Percent float64 `json:"percent"`
}

type errorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

type resultEvent struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// eventStream adapts an HTTP response into a pipeline sink emitting
// server-sent events. Emissions after the terminal event are dropped.
type eventStream struct {
	w       http.ResponseWriter
	flusher http.Flusher

	mu       sync.Mutex
	terminal bool
}

// newEventStream writes the event-stream response headers and returns the
// sink. ok is false when the writer cannot flush incrementally.
func newEventStream(w http.ResponseWriter) (*eventStream, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &eventStream{w: w, flusher: flusher}, true
}

// Emit writes one event as a data: line and flushes it to the client.
func (s *eventStream) Emit(_ context.Context, event pipeline.Event) error {
	payload, err := marshalStreamEvent(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminal {
		return nil
	}
	if event.Terminal() {
		s.terminal = true
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// sawTerminal reports whether a terminal event reached the wire.
func (s *eventStream) sawTerminal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminal
}

func marshalStreamEvent(event pipeline.Event) ([]byte, error) {
	switch event.Type {
	case pipeline.EventProgress:
		return json.Marshal(progressEvent{Type: api.StreamProgress, Message: event.Message, Percent: event.Percent})
	case pipeline.EventError:
		return json.Marshal(errorEvent{Type: api.StreamError, Error: event.Err})
	case pipeline.EventResult:
		return json.Marshal(resultEvent{Type: api.StreamResult, Data: event.Result})
	default:
		return nil, fmt.Errorf("unknown event type %q", string(event.Type))
	}
}
