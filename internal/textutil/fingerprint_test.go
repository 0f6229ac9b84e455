package textutil

import (
	"math"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "simple words",
			input: "Roasting Coffee",
			want:  []string{"roasting", "coffee"},
		},
		{
			name:  "drops short tokens",
			input: "a to of espresso shot",
			want:  []string{"espresso", "shot"},
		},
		{
			name:  "drops stop tokens and fillers",
			input: "yeah the guest was really just like talking about fermentation",
			want:  []string{"guest", "talking", "about", "fermentation"},
		},
		{
			name:  "handles punctuation",
			input: "Welcome, everyone! Today: microphones?",
			want:  []string{"welcome", "everyone", "today", "microphones"},
		},
		{
			name:  "keeps alphanumerics",
			input: "episode42 track101",
			want:  []string{"episode42", "track101"},
		},
		{
			name:  "empty string",
			input: "",
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize() = %v (len %d), want %v (len %d)",
					got, len(got), tt.want, len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNewFingerprintEmpty(t *testing.T) {
	if fp := NewFingerprint(""); fp != nil {
		t.Error("expected nil for empty text")
	}
	if fp := NewFingerprint("a an it to"); fp != nil {
		t.Error("expected nil for text with only short tokens")
	}
	if fp := NewFingerprint("yeah okay really just"); fp != nil {
		t.Error("expected nil for text with only stop tokens")
	}
}

func TestNewFingerprintNorm(t *testing.T) {
	// "signal signal noise" -> signal:2, noise:1, norm = sqrt(2^2 + 1^2)
	fp := NewFingerprint("signal signal noise")
	if fp == nil {
		t.Fatal("expected fingerprint")
	}
	want := math.Sqrt(5)
	if math.Abs(fp.norm-want) > 0.0001 {
		t.Errorf("norm = %v, want %v", fp.norm, want)
	}
}

func TestFingerprintTokenCount(t *testing.T) {
	tests := []struct {
		name string
		fp   *Fingerprint
		want int
	}{
		{"nil fingerprint", nil, 0},
		{"unique terms", NewFingerprint("microphone preamp compressor"), 3},
		{"repeated terms", NewFingerprint("audio audio levels levels levels"), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fp.TokenCount(); got != tt.want {
				t.Errorf("TokenCount() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarityNilAndZero(t *testing.T) {
	tests := []struct {
		name string
		a    *Fingerprint
		b    *Fingerprint
	}{
		{"both nil", nil, nil},
		{"a nil", nil, NewFingerprint("hello world")},
		{"b nil", NewFingerprint("hello world"), nil},
		{"zero norm", &Fingerprint{terms: map[string]float64{}, norm: 0}, NewFingerprint("hello world")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); got != 0 {
				t.Errorf("CosineSimilarity() = %v, want 0", got)
			}
		})
	}
}

func TestCosineSimilarityIdentical(t *testing.T) {
	text := "The hosts compare three espresso machines over an hour"
	got := CosineSimilarity(NewFingerprint(text), NewFingerprint(text))
	if math.Abs(got-1.0) > 0.0001 {
		t.Errorf("CosineSimilarity(identical) = %v, want ~1.0", got)
	}
}

func TestCosineSimilarityDisjoint(t *testing.T) {
	a := NewFingerprint("apple banana cherry")
	b := NewFingerprint("piano violin trumpet")
	if got := CosineSimilarity(a, b); got != 0 {
		t.Errorf("CosineSimilarity(disjoint) = %v, want 0", got)
	}
}

func TestCosineSimilaritySymmetric(t *testing.T) {
	a := NewFingerprint("transcript summary pipeline")
	b := NewFingerprint("summary pipeline daemon")
	if ab, ba := CosineSimilarity(a, b), CosineSimilarity(b, a); ab != ba {
		t.Errorf("CosineSimilarity not symmetric: (%v, %v)", ab, ba)
	}
}

func TestCorpusIDF(t *testing.T) {
	if idf := NewCorpus().IDF(); idf != nil {
		t.Errorf("empty corpus IDF = %v, want nil", idf)
	}

	corpus := NewCorpus()
	corpus.Add(NewFingerprint("coffee roasting temperature"))
	corpus.Add(NewFingerprint("coffee grinder burrs"))
	corpus.Add(NewFingerprint("coffee brewing ratio"))

	idf := corpus.IDF()
	// "coffee" appears in all three documents: log(4/4) = 0.
	if got := idf["coffee"]; got != 0 {
		t.Errorf("idf[coffee] = %v, want 0", got)
	}
	// "roasting" appears in one document: log(4/2).
	want := math.Log(2)
	if got := idf["roasting"]; math.Abs(got-want) > 0.0001 {
		t.Errorf("idf[roasting] = %v, want %v", got, want)
	}
}

func TestWithIDFDropsUbiquitousTerms(t *testing.T) {
	corpus := NewCorpus()
	docs := []*Fingerprint{
		NewFingerprint("coffee roasting temperature"),
		NewFingerprint("coffee grinder burrs"),
		NewFingerprint("coffee brewing ratio"),
	}
	for _, fp := range docs {
		corpus.Add(fp)
	}
	idf := corpus.IDF()

	weighted := docs[0].WithIDF(idf)
	if weighted == nil {
		t.Fatal("expected weighted fingerprint")
	}
	if got := weighted.TokenCount(); got != 2 {
		t.Errorf("TokenCount() after IDF = %d, want 2", got)
	}

	// A document made entirely of corpus-wide terms weights to nothing.
	if got := NewFingerprint("coffee coffee").WithIDF(idf); got != nil {
		t.Errorf("all-ubiquitous document = %+v, want nil", got)
	}

	// No IDF table leaves the fingerprint untouched.
	if got := docs[0].WithIDF(nil); got != docs[0] {
		t.Error("expected identity for nil idf map")
	}
}

func TestCosineSimilarityTranscriptSegments(t *testing.T) {
	interview := `
		Our guest spent a decade recording field audio in the Arctic.
		She explains how wind shields and parabolic dishes changed her work.
		The conversation turns to archiving decades of tape reels.
	`

	// A second pass over the same segment should match almost exactly.
	interviewAgain := `
		Our guest spent a decade recording field audio in the Arctic.
		She explains how wind shields and parabolic dishes changed her work.
		The conversation turns to archiving decades of tape reels.
	`

	// A mid-roll ad read shares almost no vocabulary with the interview.
	adRead := `
		This episode is sponsored by a mattress company.
		Use our discount code at checkout for twenty percent off.
		Free shipping and a hundred night trial are included.
	`

	interviewFP := NewFingerprint(interview)
	againFP := NewFingerprint(interviewAgain)
	adFP := NewFingerprint(adRead)

	if sim := CosineSimilarity(interviewFP, againFP); sim < 0.99 {
		t.Errorf("repeat segment similarity = %v, want ~1.0", sim)
	}
	if sim := CosineSimilarity(interviewFP, adFP); sim >= 0.5 {
		t.Errorf("ad read similarity = %v, want < 0.5", sim)
	}
}
