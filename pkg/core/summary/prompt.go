package summary

import (
	"fmt"
	"strings"

	"finbot/pkg/core/tenk"
)

const systemPrompt = `You are an equity research analyst reading a company's annual report on Form 10-K.
Summarize the section you are given for an investor who has not read it.
Be factual: use only the text provided and keep figures exactly as written.
Respond with a single JSON object and nothing else:
{"summary": "<one paragraph, at most 150 words>", "key_points": ["<point>", "..."]}
Give at most five key points. If the section holds no substantive content, return an empty key_points list and say so in the summary.`

// sectionTitle returns the printed title of key, e.g. "Item 1A. Risk Factors".
func sectionTitle(key tenk.ItemKey) string {
	if key == tenk.Appendix {
		return "Financial Statements Appendix"
	}
	for _, def := range tenk.ItemDefinitions {
		if def.Key == key {
			return fmt.Sprintf("Item %s. %s", def.Number, def.Title)
		}
	}
	return string(key)
}

func buildPrompt(ticker string, key tenk.ItemKey, text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\nSection: %s\n\n", ticker, sectionTitle(key))
	body := tenk.CutRunes(text, MaxPromptBytes)
	b.WriteString(body)
	if len(body) < len(text) {
		b.WriteString("\n\n[section truncated]")
	}
	return b.String()
}
