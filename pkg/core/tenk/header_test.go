package tenk

import "testing"

func TestParseHeader(t *testing.T) {
	h := ParseHeader(sampleFiling(filingOptions{}))

	want := Header{
		AccessionNumber: "0000320193-23-000106",
		SubmissionType:  "10-K",
		CompanyName:     "ACME CORP",
		CIK:             "0000320193",
		ReportDate:      "2023-09-30",
		FiledDate:       "2023-11-03",
	}
	if h != want {
		t.Errorf("ParseHeader() = %+v, want %+v", h, want)
	}
}

func TestParseHeader_MissingPeriod(t *testing.T) {
	h := ParseHeader(sampleFiling(filingOptions{omitPeriod: true}))
	if h.ReportDate != "" {
		t.Errorf("ReportDate = %q, want empty", h.ReportDate)
	}
	if h.AccessionNumber == "" {
		t.Error("AccessionNumber should still be parsed")
	}
}

func TestParseHeader_IgnoresDocumentBody(t *testing.T) {
	raw := "<SEC-HEADER>\n</SEC-HEADER>\n<DOCUMENT>\nACCESSION NUMBER: 9999999999-99-999999\n</DOCUMENT>"
	if h := ParseHeader(raw); h.AccessionNumber != "" {
		t.Errorf("AccessionNumber = %q, want empty", h.AccessionNumber)
	}
}

func TestReformatDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"20230930", "2023-09-30"},
		{"20240229", "2024-02-29"},
		{"20230230", ""},
		{"2023093", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := reformatDate(tt.in); got != tt.want {
				t.Errorf("reformatDate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
