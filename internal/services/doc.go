// Package services defines shared utilities consumed by the pipeline and the
// API surface.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that tag every fatal
//     pipeline condition (launch failure, tool failure, malformed output,
//     timeout, stall, missing input) for uniform classification.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
