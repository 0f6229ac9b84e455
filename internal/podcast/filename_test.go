package podcast

import "testing"

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		title    string
		fallback string
		want     string
	}{
		{title: "deep work: revisited!", fallback: "episode", want: "Deep Work Revisited"},
		{title: "ep_341-deep.work", fallback: "episode", want: "Ep 341 Deep Work"},
		{title: "  spaced   out  ", fallback: "episode", want: "Spaced Out"},
		{title: "???", fallback: "episode-ep123", want: "episode-ep123"},
		{title: "", fallback: "episode-ep123", want: "episode-ep123"},
	}
	for _, tt := range tests {
		if got := SafeFilename(tt.title, tt.fallback); got != tt.want {
			t.Errorf("SafeFilename(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
