package tenk

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	minNonSpaceChars   = 5
	minSubstantiveLen  = 10
	maxStubLen         = 50
	acceptLen          = 100
	longSliceLen       = 1000
	maxShortNumRatio   = 0.4
	bodySampleLen      = 3000
	minBodyNonSpace    = 50
	maxBodyShortNums   = 10
	minBodyKeywordHits = 2
)

var (
	tableOfContentsPattern = regexp.MustCompile(`(?i)table\s+of\s+contents`)
	financialIndexPattern  = regexp.MustCompile(`(?i)index\s+to\s+(?:consolidated\s+)?financial\s+statements`)
	itemDotLeaderPattern   = regexp.MustCompile(`(?i)\bitem\s+\d{1,2}[a-c]?\.?[^.]{0,120}?\.{3,}`)
	pageLinePattern        = regexp.MustCompile(`(?im)^\s*page\s+\d+\s*$`)
	pageTokenPattern       = regexp.MustCompile(`(?i)\bpage\s+\d+\b`)
	dotRunPattern          = regexp.MustCompile(`\.{3,}`)
	digitLinePattern       = regexp.MustCompile(`(?m)^\s*\d+\s*$`)
	itemDoubleDotPattern   = regexp.MustCompile(`(?i)\bitem\s+\d{1,2}[a-c]?\.?\s*\.{2,}`)
	shortNumberPattern     = regexp.MustCompile(`^\d{1,3}$`)
	partOnePattern         = regexp.MustCompile(`(?i)\bpart\s+i\b`)
	partTwoPattern         = regexp.MustCompile(`(?i)\bpart\s+ii\b`)
	// A TOC row once whitespace is collapsed: heading, title words, page
	// number, next heading.
	tocRowPattern = regexp.MustCompile(`(?i)\bitem\s+\d{1,2}[a-c]?\.\s+[a-z ,'’&\-\[\]()]{1,120}?\s\d{1,3}\s+item\s+\d`)
	residualTag    = regexp.MustCompile(`<[^>]*>`)
	residualEntity = regexp.MustCompile(`&#?\w+;`)
	allDigits      = regexp.MustCompile(`^\d+$`)
)

var referenceStubPhrases = []string{
	"incorporated by reference",
	"incorporated herein by reference",
	"see proxy statement",
	"refer to proxy statement",
	"refer to form",
	"see form",
	"see item",
	"refer to item",
	"included in item",
	"set forth in item",
	"see the information under",
}

var fillerValues = []string{"none.", "none", "not applicable.", "not applicable", "n/a", "-", "—", "–"}

var substantiveKeywords = []string{
	"company", "business", "revenue", "assets", "products", "management",
	"operations", "services", "customers", "employees",
}

var businessKeywords = []string{
	"company", "business", "operations", "products", "services", "revenue",
	"customers", "markets", "designs", "manufactures", "technology", "fiscal",
	"we are", "we operate", "our mission", "segments", "headquartered",
	"incorporated in", "employees", "subsidiaries",
}

// IsTooShort reports whether s has fewer than five non-whitespace characters.
func IsTooShort(s string) bool {
	return nonSpaceCount(s) < minNonSpaceChars
}

// LooksLikeTOC reports whether s is a table-of-contents fragment rather than
// section body text.
func LooksLikeTOC(s string) bool {
	if len(s) >= longSliceLen {
		strong := countMatches(s,
			tableOfContentsPattern,
			financialIndexPattern,
			itemDotLeaderPattern,
			pageLinePattern,
		)
		return strong >= 2
	}

	if shortNumberRatio(s) > maxShortNumRatio {
		return true
	}

	weak := countMatches(s,
		dotRunPattern,
		pageTokenPattern,
		digitLinePattern,
		tableOfContentsPattern,
		itemDoubleDotPattern,
	)
	return weak >= 2
}

// IsNonSubstantive reports whether s is a placeholder ("None.", a bare
// cross-reference, a page number) rather than real content.
func IsNonSubstantive(s string) bool {
	s = strings.TrimSpace(s)
	n := len(s)
	if n < minSubstantiveLen {
		return true
	}

	lower := strings.ToLower(s)
	if n < maxStubLen && containsAny(lower, referenceStubPhrases) {
		return true
	}
	for _, filler := range fillerValues {
		if lower == filler {
			return true
		}
	}
	if allDigits.MatchString(s) {
		return true
	}

	if n >= acceptLen {
		return false
	}
	return !containsAny(lower, substantiveKeywords)
}

// IsRealBody reports whether a sample taken after an "Item 1." heading reads
// like the start of the business description rather than the index.
func IsRealBody(sample string) bool {
	if len(sample) > bodySampleLen {
		sample = sample[:bodySampleLen]
	}
	sample = residualTag.ReplaceAllString(sample, " ")
	sample = residualEntity.ReplaceAllString(sample, " ")
	sample = collapseWhitespace(sample)

	if nonSpaceCount(sample) < minBodyNonSpace {
		return false
	}
	if shortNumberCount(sample) > maxBodyShortNums {
		return false
	}
	if tableOfContentsPattern.MatchString(sample) ||
		(partOnePattern.MatchString(sample) && partTwoPattern.MatchString(sample)) ||
		tocRowPattern.MatchString(sample) ||
		pageTokenPattern.MatchString(sample) ||
		dotRunPattern.MatchString(sample) {
		return false
	}

	lower := strings.ToLower(sample)
	hits := 0
	for _, kw := range businessKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return hits >= minBodyKeywordHits
}

// =============================================================================
// HELPERS
// =============================================================================

func nonSpaceCount(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func shortNumberCount(s string) int {
	n := 0
	for _, tok := range strings.Fields(s) {
		if shortNumberPattern.MatchString(tok) {
			n++
		}
	}
	return n
}

func shortNumberRatio(s string) float64 {
	tokens := strings.Fields(s)
	if len(tokens) == 0 {
		return 0
	}
	return float64(shortNumberCount(s)) / float64(len(tokens))
}

func countMatches(s string, patterns ...*regexp.Regexp) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(s) {
			n++
		}
	}
	return n
}

func containsAny(lower string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
