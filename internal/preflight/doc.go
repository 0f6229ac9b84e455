// Package preflight provides readiness checks for the stage tools,
// filesystem paths, and optional services podscribe depends on.
//
// These checks run in three contexts:
//   - The daemon logs a dependency snapshot at startup so a missing tool is
//     visible before the first job fails on it.
//   - The /healthz endpoint reports check results for monitoring.
//   - The CLI "podscribe status" command uses individual check functions
//     (CheckSummarizerFromConfig, CheckDirectoryAccess) to display health
//     when the daemon is unreachable.
//
// Checks are gated by configuration: features left unconfigured are skipped
// or reported as healthy fallbacks rather than failures.
package preflight
