// Package tools runs the external stage tools and speaks their wire contract.
//
// Every pipeline stage shells out to a tool that writes its result to stdout
// and reports liveness on stderr, one JSON object per line: {"progress":
// 0..1, "stage": ..., "message": ...} while working, or {"error": ...} when
// giving up. Stderr lines outside the protocol are noise; they are retained in
// a bounded buffer so failures can quote the tool's own output.
//
// The Runner interface isolates process execution so stage logic can be tested
// with scripted fakes.
package tools
