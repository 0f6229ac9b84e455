package podcast

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SafeFilename derives a filesystem-safe base name from an episode title.
// Letters and digits are kept, separator runs collapse to single spaces, and
// the result is title-cased. fallback is returned when nothing survives.
func SafeFilename(title, fallback string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range title {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' || r == ':':
			if !prevSpace && cleaned.Len() > 0 {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	name := strings.TrimSpace(cleaned.String())
	if name == "" {
		return fallback
	}
	return cases.Title(language.Und).String(name)
}
