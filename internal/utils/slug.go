package utils

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9\s-]+`)
var whitespace = regexp.MustCompile(`\s+`)
var multiDash = regexp.MustCompile(`-+`)

// GenerateSlug lower-cases input, drops everything outside [a-z0-9 -],
// turns whitespace runs into hyphens and collapses repeated hyphens.
// The result never starts or ends with a hyphen, and applying it twice
// gives the same string.
func GenerateSlug(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = nonSlugChars.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, "-")
	s = multiDash.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
