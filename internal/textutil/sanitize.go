package textutil

import "strings"

// fileNameReplacer turns separator-like characters into dashes so names keep
// their shape, and removes the rest of the characters that are unsafe in file
// names, NUL included.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\x00", "",
)

// SanitizeFileName strips characters that are unsafe in file names while
// keeping the rest of the name intact. It returns an empty string when
// nothing printable survives.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}
