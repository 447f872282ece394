package tenk

import (
	"regexp"
	"strings"
)

var (
	styleBlockPattern  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style\s*>`)
	scriptBlockPattern = regexp.MustCompile(`(?is)<script[^>]*>.*?</script\s*>`)
	tagPattern         = regexp.MustCompile(`<[^>]*>`)
	strayAnglePattern  = regexp.MustCompile(`[<>]`)
	numericEntity      = regexp.MustCompile(`&#\d+;`)
	// \s in RE2 is ASCII only; filings are full of U+00A0.
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{0085}]+`)
)

// Clean reduces a raw submission to a flat, single-spaced text.
//
// Reductions, in order: <style> blocks, <script> blocks, remaining tags,
// numeric entities, whitespace runs, then trim. Invalid UTF-8 is dropped.
func Clean(raw []byte) string {
	return CleanString(string(raw))
}

// CleanString is Clean for text already in memory.
func CleanString(s string) string {
	s = strings.ToValidUTF8(s, "")
	s = styleBlockPattern.ReplaceAllString(s, "")
	s = scriptBlockPattern.ReplaceAllString(s, "")
	s = tagPattern.ReplaceAllString(s, " ")
	// A lone "<" or ">" (e.g. "a < b") survives the tag pass.
	s = strayAnglePattern.ReplaceAllString(s, " ")
	s = numericEntity.ReplaceAllString(s, " ")
	return collapseWhitespace(s)
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}
