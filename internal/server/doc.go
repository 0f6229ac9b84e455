// Package server implements the daemon HTTP API.
//
// One Server carries every endpoint: job submission in streaming
// (server-sent events) and synchronous forms, multipart uploads, standalone
// metadata lookup, job ledger queries and management, notification tests,
// and health. Handlers map classified job errors onto HTTP statuses; once a
// stream has opened, failures are reported in-band as error events instead.
package server
