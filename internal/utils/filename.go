package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxFilenameRunes bounds sanitized names so an id suffix and extension still
// fit common 255-byte filesystem limits.
const MaxFilenameRunes = 120

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeFilename makes a title safe to use as a file name in exports.
// Markdown tools treat '#' and square brackets specially, so those are
// dropped or replaced as well.
func SanitizeFilename(filename string) string {
	// Whitespace controls become spaces before the control range is stripped
	filename = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ").Replace(filename)
	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	filename = strings.ReplaceAll(filename, "#", "")
	filename = strings.ReplaceAll(filename, "[", "(")
	filename = strings.ReplaceAll(filename, "]", ")")
	filename = strings.Trim(filename, ". ")

	if utf8.RuneCountInString(filename) > MaxFilenameRunes {
		filename = strings.TrimSpace(string([]rune(filename)[:MaxFilenameRunes]))
	}

	if filename == "" {
		filename = "Untitled"
	}

	return filename
}
