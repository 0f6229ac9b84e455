// Package main hosts the bundled stage tools for the podscribe pipeline.
//
// Each subcommand implements one stage tool contract: metadata scrapes an
// episode page, fetch resolves and downloads the episode audio, and summarize
// turns a transcript into a short summary. The orchestrator launches a fresh
// process per stage, reads the result from stdout, and parses stderr for
// one-per-line JSON diagnostics (progress fractions and tool errors); any
// other stderr output is noise.
//
// Speech recognition is deliberately not implemented here: that stage runs a
// genuinely external command such as a whisper wrapper.
package main
