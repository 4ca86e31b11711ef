package services

import (
	"regexp"
	"strings"
)

var (
	// Unicode whitespace, including the separators Go's \s leaves out.
	whitespaceRun = regexp.MustCompile(`[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]+`)
	// Anything that is not a word character, whitespace or . , - ( ) @
	disallowedChar = regexp.MustCompile(`[^\p{L}\p{N}_\s.,\-()@]`)
	pageArtifact   = regexp.MustCompile(`Page\s+\p{Nd}+`)
)

// NormalizeText turns raw extracted text into a single line:
// whitespace runs collapse to one space, characters outside the retained set
// are dropped, "Page N" footers are removed and the result is trimmed.
func NormalizeText(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = disallowedChar.ReplaceAllString(text, "")
	for pageArtifact.MatchString(text) {
		text = pageArtifact.ReplaceAllString(text, "")
	}
	text = strings.TrimSpace(text)

	// Removals above can leave two spaces side by side.
	return whitespaceRun.ReplaceAllString(text, " ")
}
