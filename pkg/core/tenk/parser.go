package tenk

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTextLen keeps a slot plus the ellipsis inside a MySQL TEXT column.
	MaxTextLen = 65532
	ellipsis   = "..."

	businessSearchWindow = 1000
	appendixLeadIn       = 500
)

var (
	businessWordPattern  = regexp.MustCompile(`\b(?:Business|BUSINESS)\b`)
	exhibitPagePattern   = regexp.MustCompile(`\bF-\d+\b`)
	appendixLabelPattern = regexp.MustCompile(`(?i)index\s+to\s+(?:the\s+)?(?:consolidated\s+)?financial\s+statements`)
)

// =============================================================================
// PARSER
// =============================================================================

// Parser splits cleaned 10-K text into Items. Heading patterns are compiled
// once in NewParser; a Parser is safe for concurrent use.
type Parser struct {
	patterns map[ItemKey]*regexp.Regexp
	logger   *slog.Logger
}

// ParsedFiling is the result of running the whole pipeline on one file.
type ParsedFiling struct {
	Header       Header
	Cleaned      string
	ContentStart int
	Headings     HeadingMap
	Items        ItemRecord
}

// NewParser creates a 10-K parser. A nil logger means slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}

	// Matches variations like:
	//   "ITEM 1. BUSINESS"
	//   "Item 1A. Risk Factors"
	//   "Item 7."
	patterns := make(map[ItemKey]*regexp.Regexp, len(ItemDefinitions))
	for _, def := range ItemDefinitions {
		patternStr := `(?i)\bitem\s+` + regexp.QuoteMeta(def.Number) + `\.(?:\s*(?:` + def.TitlePattern + `))?`
		patterns[def.Key] = regexp.MustCompile(patternStr)
	}

	return &Parser{patterns: patterns, logger: logger}
}

// Parse runs Clean, Locate and Extract over a raw submission.
func (p *Parser) Parse(raw []byte) *ParsedFiling {
	text := strings.ToValidUTF8(string(raw), "")
	cleaned := CleanString(text)
	start := p.ContentStart(cleaned)
	headings := p.locateFrom(cleaned, start)

	return &ParsedFiling{
		Header:       ParseHeader(text),
		Cleaned:      cleaned,
		ContentStart: start,
		Headings:     headings,
		Items:        p.Extract(cleaned, headings),
	}
}

// ContentStart returns the offset where the body begins, past the table of
// contents.
//
// The first "Item 1." whose following text reads like a business description
// wins. Otherwise the offset just after the first "PART I", otherwise a third
// of the text.
func (p *Parser) ContentStart(cleaned string) int {
	for _, m := range p.patterns[Item1].FindAllStringIndex(cleaned, -1) {
		end := m[0] + bodySampleLen
		if end > len(cleaned) {
			end = len(cleaned)
		}
		if IsRealBody(cleaned[m[0]:end]) {
			return m[0]
		}
	}

	if m := partOnePattern.FindStringIndex(cleaned); m != nil {
		p.logger.Debug("no Item 1 body found, falling back to PART I", "offset", m[1])
		return m[1]
	}

	p.logger.Debug("no Item 1 body or PART I found, falling back to one third")
	return len(cleaned) / 3
}

// Locate finds every Item heading at or after the content start.
func (p *Parser) Locate(cleaned string) HeadingMap {
	return p.locateFrom(cleaned, p.ContentStart(cleaned))
}

func (p *Parser) locateFrom(cleaned string, contentStart int) HeadingMap {
	headings := make(HeadingMap, len(ItemDefinitions))
	for _, def := range ItemDefinitions {
		for _, m := range p.patterns[def.Key].FindAllStringIndex(cleaned, -1) {
			if m[0] < contentStart {
				continue
			}
			headings[def.Key] = append(headings[def.Key], Span{Start: m[0], End: m[1]})
		}
	}
	return headings
}

// Extract delimits each Item's body and the financial-statements appendix.
func (p *Parser) Extract(cleaned string, headings HeadingMap) ItemRecord {
	bounds := sortedBoundaries(headings)
	record := make(ItemRecord, len(ItemDefinitions)+1)

	for _, key := range ItemKeys() {
		if text := p.extractItem(cleaned, key, headings[key], bounds); text != "" {
			record[key] = text
		}
	}

	if appendix := p.extractAppendix(cleaned); appendix != "" {
		record[Appendix] = appendix
	}

	return record
}

// extractItem returns the first occurrence of key whose slice survives the
// rejection predicates, or "" when every occurrence is rejected.
func (p *Parser) extractItem(cleaned string, key ItemKey, spans []Span, bounds []boundary) (text string) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("item extraction failed", "item", key, "error", fmt.Sprint(r))
			text = ""
		}
	}()

	for _, span := range spans {
		start := span.End
		if key == Item1 {
			start = businessStart(cleaned, span)
		}
		end := nextBoundary(bounds, key, start, len(cleaned))
		if end <= start {
			continue
		}

		slice := collapseWhitespace(cleaned[start:end])
		if reason := rejectReason(slice); reason != "" {
			p.logger.Debug("rejected item occurrence", "item", key, "offset", span.Start, "reason", reason, "length", len(slice))
			continue
		}
		return Truncate(slice)
	}
	return ""
}

func rejectReason(slice string) string {
	switch {
	case IsTooShort(slice):
		return "too_short"
	case LooksLikeTOC(slice):
		return "table_of_contents"
	case IsNonSubstantive(slice):
		return "non_substantive"
	}
	return ""
}

// businessStart skips past the "Business" title that follows "Item 1." when
// it appears within businessSearchWindow bytes after the heading.
func businessStart(cleaned string, span Span) int {
	end := span.End + businessSearchWindow
	if end > len(cleaned) {
		end = len(cleaned)
	}
	loc := businessWordPattern.FindStringIndex(cleaned[span.Start:end])
	if loc == nil {
		return span.End
	}
	if pos := span.Start + loc[1]; pos > span.End {
		return pos
	}
	return span.End
}

// extractAppendix returns the financial-statements pages (F-1, F-2, ...).
//
// The slice starts 500 bytes before the first F-page token, or at an
// "Index to Financial Statements" label inside that lead-in when present.
func (p *Parser) extractAppendix(cleaned string) string {
	first := exhibitPagePattern.FindStringIndex(cleaned)
	if first == nil {
		return ""
	}

	windowStart := runeCeil(cleaned, first[0]-appendixLeadIn)
	start := windowStart
	if labels := appendixLabelPattern.FindAllStringIndex(cleaned[windowStart:first[0]], -1); len(labels) > 0 {
		start = windowStart + labels[len(labels)-1][0]
	}

	return Truncate(collapseWhitespace(cleaned[start:]))
}

// Truncate caps s at MaxTextLen bytes, cut on a rune boundary, and appends
// an ellipsis when anything was dropped.
func Truncate(s string) string {
	if len(s) <= MaxTextLen {
		return s
	}
	return CutRunes(s, MaxTextLen) + ellipsis
}

// CutRunes returns the longest prefix of s that is at most n bytes and does
// not split a rune.
func CutRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 0 {
		return ""
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// =============================================================================
// BOUNDARIES
// =============================================================================

type boundary struct {
	start int
	key   ItemKey
}

func sortedBoundaries(headings HeadingMap) []boundary {
	bounds := make([]boundary, 0)
	for key, spans := range headings {
		for _, s := range spans {
			bounds = append(bounds, boundary{start: s.Start, key: key})
		}
	}
	sort.Slice(bounds, func(i, j int) bool {
		if bounds[i].start != bounds[j].start {
			return bounds[i].start < bounds[j].start
		}
		return bounds[i].key < bounds[j].key
	})
	return bounds
}

// nextBoundary is the first heading of any other Item starting after pos.
func nextBoundary(bounds []boundary, key ItemKey, pos, fallback int) int {
	i := sort.Search(len(bounds), func(i int) bool { return bounds[i].start > pos })
	for ; i < len(bounds); i++ {
		if bounds[i].key != key {
			return bounds[i].start
		}
	}
	return fallback
}

// runeCeil clamps pos into s and moves it forward to a rune start.
func runeCeil(s string, pos int) int {
	if pos <= 0 {
		return 0
	}
	if pos >= len(s) {
		return len(s)
	}
	for pos < len(s) && !utf8.RuneStart(s[pos]) {
		pos++
	}
	return pos
}
