package tenk

import (
	"fmt"
	"strings"
)

const acmeOpening = "Acme Corporation designs and manufactures precision widgets."

// filingOptions shapes a synthetic EDGAR submission.
type filingOptions struct {
	omitPeriod    bool
	omitBodyItem1 bool
	stubItem13    bool
	item7Override string
	withAppendix  bool
	accession     string
}

func sampleHeader(opts filingOptions) string {
	accession := "0000320193-23-000106"
	if opts.accession != "" {
		accession = opts.accession
	}
	var b strings.Builder
	b.WriteString("<SEC-DOCUMENT>" + accession + ".txt : 20231103\n")
	b.WriteString("<SEC-HEADER>" + accession + ".hdr.sgml : 20231103\n")
	b.WriteString("ACCESSION NUMBER:\t\t" + accession + "\n")
	b.WriteString("CONFORMED SUBMISSION TYPE:\t10-K\n")
	b.WriteString("PUBLIC DOCUMENT COUNT:\t\t95\n")
	if !opts.omitPeriod {
		b.WriteString("CONFORMED PERIOD OF REPORT:\t20230930\n")
	}
	b.WriteString("FILED AS OF DATE:\t\t20231103\n")
	b.WriteString("DATE AS OF CHANGE:\t\t20231103\n\n")
	b.WriteString("FILER:\n\n\tCOMPANY DATA:\t\n")
	b.WriteString("\t\tCOMPANY CONFORMED NAME:\t\t\tACME CORP\n")
	b.WriteString("\t\tCENTRAL INDEX KEY:\t\t\t0000320193\n")
	b.WriteString("</SEC-HEADER>\n")
	return b.String()
}

// tocBlock renders a dot-leader table of contents, one row per Item.
func tocBlock() string {
	var b strings.Builder
	b.WriteString("<p>TABLE OF CONTENTS</p>\n<table>\n")
	b.WriteString("<tr><td>PART I</td></tr>\n")
	page := 4
	for _, def := range ItemDefinitions {
		if def.Key == Item5 {
			b.WriteString("<tr><td>PART II</td></tr>\n")
		}
		if def.Key == Item10 {
			b.WriteString("<tr><td>PART III</td></tr>\n")
		}
		fmt.Fprintf(&b, "<tr><td>Item %s.</td><td>%s</td><td>........</td><td>%d</td></tr>\n", def.Number, def.Title, page)
		page += 7
	}
	b.WriteString("</table>\n")
	return b.String()
}

func genericBody(topic string) string {
	sentence := "The Company discusses " + topic + " in this section, including management commentary on operations, assets and revenue trends that matter to shareholders. "
	return strings.Repeat(sentence, 4)
}

func acmeBusiness() string {
	var b strings.Builder
	b.WriteString(acmeOpening + " Our Company was founded in 1972. ")
	filler := "We operate manufacturing plants that serve industrial customers across several markets, and our business relies on careful engineering of products and services. "
	b.WriteString(strings.Repeat(filler, 24))
	return b.String()
}

func appendixBlock() string {
	var b strings.Builder
	b.WriteString("<p>INDEX TO FINANCIAL STATEMENTS</p>\n")
	b.WriteString("<p>Consolidated Balance Sheets ……… F-3</p>\n")
	b.WriteString("<p>Consolidated Statements of Operations ……… F-4</p>\n")
	for page := 5; page <= 38; page++ {
		fmt.Fprintf(&b, "<tr><td>Schedule row %d</td><td>1,234,567</td><td>2,345,678</td><td>F-%d</td></tr>\n", page, page)
		b.WriteString("<p>Amounts presented in thousands of dollars for the consolidated group.</p>\n")
	}
	return b.String()
}

// sampleFiling returns a full submission: header, cover, TOC, body.
func sampleFiling(opts filingOptions) string {
	var b strings.Builder
	b.WriteString(sampleHeader(opts))
	b.WriteString("<DOCUMENT>\n<TYPE>10-K\n<TEXT>\n<html><head><style>p { margin: 0 }</style>")
	b.WriteString("<script>var tracking = '<Item 1. Business>';</script></head><body>\n")
	b.WriteString("<p>UNITED STATES SECURITIES AND EXCHANGE COMMISSION</p><p>FORM 10-K</p>\n")
	b.WriteString("<p>ANNUAL REPORT PURSUANT TO SECTION 13 OR 15(d) OF THE SECURITIES EXCHANGE ACT</p>\n")
	b.WriteString(tocBlock())
	b.WriteString("<p>PART I</p>\n")

	for _, def := range ItemDefinitions {
		switch def.Key {
		case Item5:
			b.WriteString("<p>PART II</p>\n")
		case Item10:
			b.WriteString("<p>PART III</p>\n")
		case Item15:
			b.WriteString("<p>PART IV</p>\n")
		}

		if def.Key == Item1 && opts.omitBodyItem1 {
			b.WriteString("<p>Overview</p>\n<p>" + acmeBusiness() + "</p>\n")
			continue
		}

		fmt.Fprintf(&b, "<p><b>Item&#160;%s.</b>&#160;&#160;%s</p>\n", def.Number, def.Title)
		switch def.Key {
		case Item1:
			b.WriteString("<p>" + acmeBusiness() + "</p>\n")
		case Item7:
			if opts.item7Override != "" {
				b.WriteString("<p>" + opts.item7Override + "</p>\n")
			} else {
				b.WriteString("<p>" + genericBody(def.Title) + "</p>\n")
			}
		case Item13:
			if opts.stubItem13 {
				b.WriteString("<p>The information required by this Item is incorporated by reference from the Proxy Statement.</p>\n")
			} else {
				b.WriteString("<p>" + genericBody(def.Title) + "</p>\n")
			}
		case Item15:
			b.WriteString("<p>" + genericBody(def.Title) + "</p>\n")
			if opts.withAppendix {
				b.WriteString(appendixBlock())
			}
		case Item16:
			b.WriteString("<p>None.</p>\n")
		default:
			b.WriteString("<p>" + genericBody(def.Title) + "</p>\n")
		}
	}

	b.WriteString("<p>SIGNATURES</p></body></html>\n</TEXT>\n</DOCUMENT>\n</SEC-DOCUMENT>\n")
	return b.String()
}
