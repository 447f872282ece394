package tenk

import (
	"regexp"
	"strings"
	"time"
)

// headerScanLimit bounds the search for SEC header fields; the header always
// precedes the first <DOCUMENT>.
const headerScanLimit = 64 * 1024

var (
	accessionPattern   = regexp.MustCompile(`(?m)^\s*ACCESSION NUMBER:\s*(\S+)`)
	submissionPattern  = regexp.MustCompile(`(?m)^\s*CONFORMED SUBMISSION TYPE:\s*(\S+)`)
	periodPattern      = regexp.MustCompile(`(?m)^\s*CONFORMED PERIOD OF REPORT:\s*(\d{8})`)
	filedPattern       = regexp.MustCompile(`(?m)^\s*FILED AS OF DATE:\s*(\d{8})`)
	companyNamePattern = regexp.MustCompile(`(?m)^\s*COMPANY CONFORMED NAME:[ \t]*(.+?)[ \t]*\r?$`)
	cikPattern         = regexp.MustCompile(`(?m)^\s*CENTRAL INDEX KEY:\s*(\d+)`)
)

// Header is the metadata block at the top of an EDGAR submission text.
// Empty fields were absent or unparseable.
type Header struct {
	AccessionNumber string // SEC document number, e.g. 0000320193-23-000106
	SubmissionType  string
	CompanyName     string
	CIK             string
	ReportDate      string // YYYY-MM-DD
	FiledDate       string // YYYY-MM-DD
}

// ParseHeader reads the submission header fields from raw filing text.
func ParseHeader(raw string) Header {
	region := raw
	if idx := strings.Index(region, "<DOCUMENT>"); idx >= 0 {
		region = region[:idx]
	}
	if len(region) > headerScanLimit {
		region = region[:headerScanLimit]
	}

	return Header{
		AccessionNumber: firstGroup(accessionPattern, region),
		SubmissionType:  firstGroup(submissionPattern, region),
		CompanyName:     firstGroup(companyNamePattern, region),
		CIK:             firstGroup(cikPattern, region),
		ReportDate:      reformatDate(firstGroup(periodPattern, region)),
		FiledDate:       reformatDate(firstGroup(filedPattern, region)),
	}
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// reformatDate turns YYYYMMDD into YYYY-MM-DD; invalid dates become "".
func reformatDate(s string) string {
	if s == "" {
		return ""
	}
	t, err := time.Parse("20060102", s)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}
