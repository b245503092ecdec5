// Package caption cleans document captions posted to the file channel.
package caption

import (
	"regexp"
	"strings"
)

var (
	bracketRe = regexp.MustCompile(`\[[^\]]*\]`)
	mentionRe = regexp.MustCompile(`@\w+`)
	spaceRe   = regexp.MustCompile(`\s+`)
)

// Clean strips bracketed spans and @handles from a caption and collapses the
// remaining whitespace to single spaces. The result is trimmed, and the
// function is idempotent.
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = bracketRe.ReplaceAllString(text, "")
	text = mentionRe.ReplaceAllString(text, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}
