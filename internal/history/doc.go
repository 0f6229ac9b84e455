// Package history persists job records to SQLite so clients can inspect
// in-flight and finished transcriptions after the stream is gone.
package history
