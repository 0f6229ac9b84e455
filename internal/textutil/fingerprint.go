package textutil

import (
	"math"
	"regexp"
	"strings"
)

// tokenSplitPattern splits lowercased text on runs of non-alphanumeric
// characters.
var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

// stopTokens lists grammatical glue plus the fillers common in spoken-word
// transcripts. Tokenize drops them so fingerprints track topical words.
var stopTokens = map[string]struct{}{
	"and": {}, "are": {}, "because": {}, "been": {}, "but": {}, "can": {},
	"could": {}, "did": {}, "does": {}, "for": {}, "from": {}, "had": {},
	"has": {}, "have": {}, "her": {}, "his": {}, "how": {}, "into": {},
	"its": {}, "just": {}, "like": {}, "not": {}, "okay": {}, "our": {},
	"really": {}, "she": {}, "should": {}, "some": {}, "than": {},
	"that": {}, "the": {}, "their": {}, "them": {}, "then": {},
	"there": {}, "these": {}, "they": {}, "this": {}, "those": {},
	"was": {}, "were": {}, "what": {}, "when": {}, "where": {},
	"which": {}, "who": {}, "why": {}, "will": {}, "with": {},
	"would": {}, "yeah": {}, "you": {}, "your": {},
}

// Tokenize lowercases text and splits it into terms, dropping stop tokens and
// tokens shorter than three characters.
func Tokenize(text string) []string {
	raw := tokenSplitPattern.Split(strings.ToLower(text), -1)
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if len(token) < 3 {
			continue
		}
		if _, stop := stopTokens[token]; stop {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// Fingerprint is a normalized term-frequency vector over a piece of text.
type Fingerprint struct {
	terms map[string]float64
	norm  float64
}

// NewFingerprint builds a fingerprint from text. It returns nil when the text
// yields no terms.
func NewFingerprint(text string) *Fingerprint {
	terms := Tokenize(text)
	if len(terms) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(terms))
	for _, term := range terms {
		counts[term]++
	}
	var norm float64
	for _, count := range counts {
		norm += count * count
	}
	return &Fingerprint{terms: counts, norm: math.Sqrt(norm)}
}

// TokenCount reports the number of distinct terms in the fingerprint.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.terms)
}

// WithIDF returns a copy of the fingerprint with each term's count scaled by
// its inverse document frequency. Terms absent from idf keep their raw
// counts; terms that weight to zero are dropped. The result is nil when
// nothing survives, so a sentence made entirely of corpus-wide terms scores
// zero rather than skewing similarity.
func (f *Fingerprint) WithIDF(idf map[string]float64) *Fingerprint {
	if f == nil || len(idf) == 0 {
		return f
	}
	weighted := make(map[string]float64, len(f.terms))
	var norm float64
	for term, count := range f.terms {
		w := count
		if scale, ok := idf[term]; ok {
			w *= scale
		}
		if w == 0 {
			continue
		}
		weighted[term] = w
		norm += w * w
	}
	if len(weighted) == 0 {
		return nil
	}
	return &Fingerprint{terms: weighted, norm: math.Sqrt(norm)}
}

// CosineSimilarity returns the cosine of the angle between two fingerprints:
// 1 for identical term distributions, 0 for disjoint ones or when either side
// is nil or empty.
func CosineSimilarity(a, b *Fingerprint) float64 {
	if a == nil || b == nil || a.norm == 0 || b.norm == 0 {
		return 0
	}
	var dot float64
	for term, weight := range a.terms {
		if other, ok := b.terms[term]; ok {
			dot += weight * other
		}
	}
	if dot == 0 {
		return 0
	}
	return dot / (a.norm * b.norm)
}

// Corpus accumulates document frequencies across fingerprints so IDF weights
// can be derived for a batch of related texts.
type Corpus struct {
	docs    int
	docFreq map[string]int
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add counts fp's distinct terms into the corpus. Nil fingerprints are
// ignored.
func (c *Corpus) Add(fp *Fingerprint) {
	if c == nil || fp == nil {
		return
	}
	c.docs++
	for term := range fp.terms {
		c.docFreq[term]++
	}
}

// IDF computes log((docs+1)/(df+1)) per term. A term present in every
// document weights to zero. Returns nil for an empty corpus.
func (c *Corpus) IDF() map[string]float64 {
	if c == nil || c.docs == 0 {
		return nil
	}
	idf := make(map[string]float64, len(c.docFreq))
	n := float64(c.docs)
	for term, df := range c.docFreq {
		idf[term] = math.Log((n + 1) / (float64(df) + 1))
	}
	return idf
}
