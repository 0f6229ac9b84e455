package main

import (
	"encoding/json"
	"fmt"
	"io"
)

// diagnosticLine is the stderr protocol record the orchestrator parses: one
// JSON object per line, carrying either a progress fraction or a terminal
// error. Everything else written to stderr is treated as noise.
type diagnosticLine struct {
	Progress *float64 `json:"progress,omitempty"`
	Stage    string   `json:"stage,omitempty"`
	Message  string   `json:"message,omitempty"`
	Error    *string  `json:"error,omitempty"`
}

func emitProgress(w io.Writer, fraction float64, stage, message string) {
	emit(w, diagnosticLine{Progress: &fraction, Stage: stage, Message: message})
}

func emitToolError(w io.Writer, message string) {
	emit(w, diagnosticLine{Error: &message})
}

func emit(w io.Writer, line diagnosticLine) {
	payload, err := json.Marshal(line)
	if err != nil {
		return
	}
	fmt.Fprintln(w, string(payload))
}
