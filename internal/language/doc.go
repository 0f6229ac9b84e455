// Package language normalizes the language codes speech recognizers emit.
//
// Recognizers are inconsistent: the same model may report "en", "eng", or
// "english" depending on version and flags. ToISO2 folds all of those onto
// the ISO 639-1 code stored with a transcript, and DisplayName renders the
// stored code for status output.
package language
