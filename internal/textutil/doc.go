// Package textutil provides the text plumbing shared by the summarizer and
// the upload store: TF-IDF fingerprints with cosine similarity for scoring
// transcript sentences, and filename sanitization for user-supplied names.
//
// Fingerprints are normalized term-frequency vectors. Tokenization lowercases
// text, splits on non-alphanumeric runs, and drops short tokens plus a stop
// list of grammatical glue and spoken-word fillers, so vectors track the
// topical words of a transcript rather than its connective tissue. A Corpus
// accumulates document frequencies across related texts (typically the
// sentences of one transcript) and derives the IDF weights applied through
// Fingerprint.WithIDF.
package textutil
