// Package main hosts the podscribe CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into HTTP
// calls against the daemon API: job submission with live progress, ledger
// inspection and cleanup, uploads, metadata lookups, and configuration
// scaffolding. It centralizes configuration resolution, daemon address
// discovery, and output rendering so subcommands can focus on user
// experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
// The one exception is "serve", which embeds the daemon itself so a single
// binary covers both roles.
package main
