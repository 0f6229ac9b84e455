package textutil

import "testing"

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean name", "episode-042.mp3", "episode-042.mp3"},
		{"separators become dashes", "show/episode:final.mp3", "show-episode-final.mp3"},
		{"unsafe characters removed", `what? "quoted" <tags> | pipe.mp3`, "what quoted tags  pipe.mp3"},
		{"nul removed", "take\x001.wav", "take1.wav"},
		{"whitespace trimmed", "  interview.flac  ", "interview.flac"},
		{"empty input", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFileName(tt.input); got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
