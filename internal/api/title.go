package api

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleWordLimit caps how much of a prompt is lifted into a derived title.
const titleWordLimit = 8

var titleCaser = cases.Title(language.English)

// DeriveTitle builds a display title from the opening words of a prompt.
// Used when a project is created without an explicit title.
func DeriveTitle(prompt string) string {
	words := strings.Fields(strings.TrimSpace(prompt))
	if len(words) == 0 {
		return ""
	}
	if len(words) > titleWordLimit {
		words = words[:titleWordLimit]
	}
	snippet := strings.Join(words, " ")
	snippet = strings.TrimRight(snippet, ".,;:!?")
	return titleCaser.String(strings.ToLower(snippet))
}
