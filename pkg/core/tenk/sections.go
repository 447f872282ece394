// Package tenk splits a downloaded 10-K submission into its numbered Items.
//
// The pipeline is Clean -> Locate -> Extract. Every position handled by this
// package is a byte offset into the cleaned text.
package tenk

// =============================================================================
// 10-K ITEM DEFINITIONS
// Based on SEC Form 10-K structure
// =============================================================================

// ItemKey names one slot of an ItemRecord. Values double as column names in
// ten_k_filings.
type ItemKey string

const (
	Item1    ItemKey = "item_1"
	Item1A   ItemKey = "item_1a"
	Item1B   ItemKey = "item_1b"
	Item2    ItemKey = "item_2"
	Item3    ItemKey = "item_3"
	Item4    ItemKey = "item_4"
	Item5    ItemKey = "item_5"
	Item6    ItemKey = "item_6"
	Item7    ItemKey = "item_7"
	Item7A   ItemKey = "item_7a"
	Item8    ItemKey = "item_8"
	Item9    ItemKey = "item_9"
	Item9A   ItemKey = "item_9a"
	Item9B   ItemKey = "item_9b"
	Item10   ItemKey = "item_10"
	Item11   ItemKey = "item_11"
	Item12   ItemKey = "item_12"
	Item13   ItemKey = "item_13"
	Item14   ItemKey = "item_14"
	Item15   ItemKey = "item_15"
	Item16   ItemKey = "item_16"
	Appendix ItemKey = "appendix"
)

// ItemDefinition describes one Item heading.
//
// TitlePattern is a regexp fragment (no flags) matching the canonical title.
// It is optional in the heading pattern because many filings omit or reword it.
type ItemDefinition struct {
	Key          ItemKey
	Number       string // "1", "1A", ... as printed after "Item"
	Title        string
	TitlePattern string
}

// ItemDefinitions lists the twenty-one Items in document order.
var ItemDefinitions = []ItemDefinition{
	{Item1, "1", "Business", `Business`},
	{Item1A, "1A", "Risk Factors", `Risk\s+Factors`},
	{Item1B, "1B", "Unresolved Staff Comments", `Unresolved\s+Staff\s+Comments`},
	{Item2, "2", "Properties", `(?:Description\s+of\s+)?Propert(?:y|ies)`},
	{Item3, "3", "Legal Proceedings", `Legal\s+Proceedings`},
	{Item4, "4", "Mine Safety Disclosures", `(?:Mine\s+Safety\s+Disclosures|Submission\s+of\s+Matters\s+to\s+a\s+Vote\s+of\s+Security\s+Holders|\(?Removed\s+and\s+Reserved\)?|\[?Reserved\]?)`},
	{Item5, "5", "Market for Registrant's Common Equity", `Market\s+for\s+(?:the\s+)?Registrant['’]?s\s+Common\s+Equity(?:,?\s+Related\s+Stockholder\s+Matters(?:,?\s+and\s+Issuer\s+Purchases\s+of\s+Equity\s+Securities)?)?`},
	{Item6, "6", "Selected Financial Data", `(?:Selected\s+(?:Consolidated\s+)?Financial\s+Data|\[?Reserved\]?)`},
	{Item7, "7", "Management's Discussion and Analysis", `Management['’]?s\s+Discussion\s+and\s+Analysis(?:\s+of\s+Financial\s+Condition\s+and\s+Results\s+of\s+Operations)?`},
	{Item7A, "7A", "Quantitative and Qualitative Disclosures About Market Risk", `Quantitative\s+and\s+Qualitative\s+Disclosures?\s+(?:About|of)\s+Market\s+Risks?`},
	{Item8, "8", "Financial Statements and Supplementary Data", `(?:Consolidated\s+)?Financial\s+Statements(?:\s+and\s+Supplementa(?:ry|l)\s+Data)?`},
	{Item9, "9", "Changes in and Disagreements with Accountants", `Changes\s+in\s+and\s+Disagreements\s+with\s+Accountants(?:\s+on\s+Accounting\s+and\s+Financial\s+Disclosure)?`},
	{Item9A, "9A", "Controls and Procedures", `Controls\s+and\s+Procedures`},
	{Item9B, "9B", "Other Information", `Other\s+Information`},
	{Item10, "10", "Directors, Executive Officers and Corporate Governance", `Directors,?\s+(?:and\s+)?Executive\s+Officers(?:,?\s+(?:and\s+)?(?:Promoters\s+and\s+Control\s+Persons|Corporate\s+Governance)(?:\s+of\s+the\s+Registrant)?)?`},
	{Item11, "11", "Executive Compensation", `Executive\s+Compensation`},
	{Item12, "12", "Security Ownership of Certain Beneficial Owners and Management", `Security\s+Ownership\s+of\s+Certain\s+Beneficial\s+Owners\s+and\s+Management(?:,?\s+and\s+Related\s+Stockholder\s+Matters)?`},
	{Item13, "13", "Certain Relationships and Related Transactions", `Certain\s+Relationships\s+and\s+Related\s+Transactions(?:,?\s+and\s+Director\s+Independence)?`},
	{Item14, "14", "Principal Accountant Fees and Services", `Principal\s+Account(?:ant|ing)\s+Fees\s+and\s+Services`},
	{Item15, "15", "Exhibits and Financial Statement Schedules", `Exhibits?(?:,\s+Financial\s+Statement\s+Schedules)?(?:\s+and\s+Financial\s+Statement\s+Schedules)?`},
	{Item16, "16", "Form 10-K Summary", `Form\s+10-K\s+Summary`},
}

// ItemKeys returns the twenty-one Item keys in document order.
func ItemKeys() []ItemKey {
	keys := make([]ItemKey, 0, len(ItemDefinitions))
	for _, def := range ItemDefinitions {
		keys = append(keys, def.Key)
	}
	return keys
}

// RecordKeys returns the Item keys followed by Appendix, which is the column
// order of ten_k_filings.
func RecordKeys() []ItemKey {
	return append(ItemKeys(), Appendix)
}

// ItemRecord holds the extracted text per slot. A missing key is an absent
// (NULL) slot; present values are never empty.
type ItemRecord map[ItemKey]string

// Get returns the slot value and whether it is present.
func (r ItemRecord) Get(key ItemKey) (string, bool) {
	v, ok := r[key]
	return v, ok && v != ""
}

// Present counts the non-absent slots.
func (r ItemRecord) Present() int {
	n := 0
	for _, v := range r {
		if v != "" {
			n++
		}
	}
	return n
}

// Span is one heading occurrence in the cleaned text.
type Span struct {
	Start int
	End   int
}

// HeadingMap maps each Item key to its heading occurrences in document order.
// It is built once by Locate and only read afterwards.
type HeadingMap map[ItemKey][]Span
