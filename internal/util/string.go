package util

import (
	"regexp"
	"strings"
)

var controlCharsPattern = regexp.MustCompile(`[\x00-\x1F\x7F]`)

var whitespacePattern = regexp.MustCompile(`\s+`)

var parentheticalPattern = regexp.MustCompile(`\([^)]*\)`)

var seasonSuffixPattern = regexp.MustCompile(`(?i)\s*[-:]?\s*season\s*\d*\s*$`)

var episodeSuffixPattern = regexp.MustCompile(`(?i)\s*[-:]\s*episode\b.*$`)

// SanitizeInput strips control characters and collapses whitespace. Returns
// an empty string when nothing printable remains. Length limits are the
// validator's concern.
func SanitizeInput(input string) string {
	withoutControl := controlCharsPattern.ReplaceAllString(input, " ")
	normalized := whitespacePattern.ReplaceAllString(withoutControl, " ")
	return strings.TrimSpace(normalized)
}

// CleanTitle prepares a suggestion title for a metadata search: drops
// parentheticals (usually a year), season/episode suffixes, stray
// punctuation, and collapses whitespace.
func CleanTitle(title string) string {
	cleaned := parentheticalPattern.ReplaceAllString(title, " ")
	cleaned = episodeSuffixPattern.ReplaceAllString(cleaned, "")
	cleaned = seasonSuffixPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.Trim(cleaned, ` .,:;!?"'`)
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}
