// Package daemon coordinates the long-running podscribe process.
//
// It wires configuration, the job ledger, the upload registry, and the HTTP
// API server into a single lifecycle with flock-based locking to prevent
// multiple instances. The daemon owns the background sweep of stale uploads
// and exposes a runtime status snapshot.
//
// Keep orchestration logic here: stage execution lives in the pipeline
// package while the daemon focuses on startup, shutdown, and high level
// coordination.
package daemon
