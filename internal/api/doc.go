// Package api defines the wire contract between the podscribe daemon and its
// clients: the JSON payloads served by the HTTP API, converters from internal
// records to those payloads, and an HTTP client used by the CLI.
//
// # Key Types
//
//   - Job: the external view of a transcription job, including progress and
//     terminal error details.
//   - TranscribeRequest: the submission body accepted by the transcribe
//     endpoints.
//   - StreamEvent: one server-sent event from the streaming transcribe
//     endpoint; exactly one terminal event (result or error) ends a stream.
//   - JobService: read-side facade the HTTP layer exposes over the job ledger.
//   - Client: HTTP client with one method per daemon operation.
//
// # Converters
//
// FromRecord and FromRecords translate history records into Job payloads.
// Timestamps are rendered in UTC with millisecond precision.
//
// # Design Notes
//
// The package deliberately avoids importing the HTTP handler layer so that
// the CLI, tests, and the daemon share one source of truth for payload
// shapes. JSON field names use snake_case throughout, matching the request
// bodies the daemon accepts.
package api
