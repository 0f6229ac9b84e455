package transcript

import (
	"fmt"
	"strings"

	"podscribe/internal/services"
	"podscribe/internal/tools"
)

// Word is one aligned word within a segment. Only some recognition engines
// emit word timings.
type Word struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Text        string  `json:"text"`
	Probability float64 `json:"probability,omitempty"`
}

// Segment is one timed span of recognized speech.
type Segment struct {
	ID    int     `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
	Words []Word  `json:"words,omitempty"`
}

// Transcript is the complete recognition result for one episode. Summary is
// empty until the summarization stage fills it.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
	Language string    `json:"language,omitempty"`
	Duration float64   `json:"duration,omitempty"`
	Summary  string    `json:"summary,omitempty"`
}

// Decode parses raw recognizer stdout into a Transcript. The recognizer may
// print banners around the JSON payload; extraction strips them. A payload
// that parses but carries no speech at all is treated as malformed.
func Decode(raw string) (*Transcript, error) {
	var t Transcript
	if err := tools.DecodeResult(raw, &t); err != nil {
		return nil, err
	}
	t.normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Validate checks the transcript carries usable content.
func (t *Transcript) Validate() error {
	if strings.TrimSpace(t.Text) == "" && len(t.Segments) == 0 {
		return fmt.Errorf("%w: transcript has no text or segments", services.ErrMalformedOutput)
	}
	return nil
}

// normalize trims segment text and derives the full text from segments when
// the recognizer left it empty.
func (t *Transcript) normalize() {
	parts := make([]string, 0, len(t.Segments))
	for i := range t.Segments {
		t.Segments[i].Text = strings.TrimSpace(t.Segments[i].Text)
		if t.Segments[i].Text != "" {
			parts = append(parts, t.Segments[i].Text)
		}
	}
	t.Text = strings.TrimSpace(t.Text)
	if t.Text == "" && len(parts) > 0 {
		t.Text = strings.Join(parts, " ")
	}
}
