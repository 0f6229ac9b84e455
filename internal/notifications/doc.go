// Package notifications delivers job events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Enumerated event types cover job completion and failure so the
// pipeline can emit consistent, user-friendly messages without duplicating
// HTTP glue, and per-event config toggles decide which actually send.
//
// Extend this package if you need alternative transports; the pipeline and
// API server depend only on the simple Service interface.
package notifications
