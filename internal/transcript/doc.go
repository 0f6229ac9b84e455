// Package transcript models recognized speech.
//
// A Transcript is what the recognition tool hands back: full text, timed
// segments (optionally with word alignments), detected language, and audio
// duration. Decode tolerates the banner noise real recognizers print around
// their JSON payload.
package transcript
