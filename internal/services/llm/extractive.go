package llm

import (
	"regexp"
	"sort"
	"strings"

	"podscribe/internal/textutil"
)

// DefaultMaxSentences bounds extractive summaries when the caller does not
// supply a limit.
const DefaultMaxSentences = 6

var sentenceBoundaryPattern = regexp.MustCompile(`[.!?]+\s+`)

// ExtractiveSummary picks the sentences closest to the transcript's overall
// topic and returns them in their original order, at most maxSentences of
// them. Each sentence is fingerprinted, weighted by IDF over the sentence
// corpus, and scored by cosine similarity against the fingerprint of the
// whole text. It needs no model or network and backs Summarize as the
// fallback path.
func ExtractiveSummary(text string, maxSentences int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if maxSentences <= 0 {
		maxSentences = DefaultMaxSentences
	}

	sentences := splitSentences(text)
	if len(sentences) <= maxSentences {
		return text
	}

	prints := make([]*textutil.Fingerprint, len(sentences))
	corpus := textutil.NewCorpus()
	for i, sentence := range sentences {
		prints[i] = textutil.NewFingerprint(sentence)
		corpus.Add(prints[i])
	}
	idf := corpus.IDF()
	whole := textutil.NewFingerprint(text).WithIDF(idf)

	type scoredSentence struct {
		index int
		score float64
	}
	ranked := make([]scoredSentence, len(sentences))
	for i := range sentences {
		ranked[i] = scoredSentence{
			index: i,
			score: textutil.CosineSimilarity(prints[i].WithIDF(idf), whole),
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	indices := make([]int, 0, maxSentences)
	for _, entry := range ranked[:maxSentences] {
		indices = append(indices, entry.index)
	}
	sort.Ints(indices)

	picked := make([]string, 0, len(indices))
	for _, idx := range indices {
		picked = append(picked, sentences[idx])
	}
	summary := strings.Join(picked, ". ")
	if summary != "" && !strings.HasSuffix(summary, ".") &&
		!strings.HasSuffix(summary, "!") && !strings.HasSuffix(summary, "?") {
		summary += "."
	}
	return summary
}

func splitSentences(text string) []string {
	parts := sentenceBoundaryPattern.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			sentences = append(sentences, trimmed)
		}
	}
	return sentences
}
