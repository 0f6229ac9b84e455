// Package pipeline sequences the four transcription stages for a job.
//
// A run drives metadata lookup, audio acquisition, speech recognition, and
// summarization through external tools, one child process per stage. Each
// stage maps its tool-local progress into a reserved slice of the global
// 0-100 scale and streams events into a caller-supplied sink; the streamed
// and synchronous endpoints share this one orchestration path. A per-stage
// watchdog enforces absolute deadlines and stall windows, and the job's
// workspace is removed on every termination path.
package pipeline
