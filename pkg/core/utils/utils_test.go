package utils

import (
	"errors"
	"strings"
	"testing"
)

type answer struct {
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

func TestSmartParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain json", `{"summary":"Revenue grew.","key_points":["a"]}`, "Revenue grew.", false},
		{"fenced", "```json\n{\"summary\":\"Fenced.\",\"key_points\":[]}\n```", "Fenced.", false},
		{"trailing comma", `{"summary":"Repaired.","key_points":["a","b",],}`, "Repaired.", false},
		{"single quotes", `{'summary': 'Quoted.', 'key_points': []}`, "Quoted.", false},
		{"empty", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got answer
			_, err := SmartParse(tt.input, &got)
			if tt.wantErr {
				if !errors.Is(err, ErrUnparseable) {
					t.Fatalf("SmartParse(%q) error = %v, want ErrUnparseable", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SmartParse(%q) unexpected error: %v", tt.input, err)
			}
			if got.Summary != tt.want {
				t.Errorf("Summary = %q, want %q", got.Summary, tt.want)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{}", "{}"},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1]\n```", "[1]"},
		{"```{\"a\":1}```", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := StripCodeFence(tt.in); got != tt.want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```markdown\n# Title\n```", "# Title"},
		{"```\nbody\n```", "body"},
		{"  plain  ", "plain"},
	}
	for _, tt := range tests {
		if got := CleanMarkdown(tt.in); got != tt.want {
			t.Errorf("CleanMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateMarkdown(t *testing.T) {
	if !ValidateMarkdown("# Risk Factors\n\nSupply chain.") {
		t.Error("expected heading and paragraph to validate")
	}
	if ValidateMarkdown("  \n ") {
		t.Error("blank input should not validate")
	}
}

func TestMarkdownToText(t *testing.T) {
	got := MarkdownToText("## Overview\n\nRevenue **grew** 8%.\n\n- Cloud\n- Devices\n")
	for _, want := range []string{"Overview", "Revenue grew 8%.", "Cloud", "Devices"} {
		if !strings.Contains(got, want) {
			t.Errorf("MarkdownToText output %q missing %q", got, want)
		}
	}
	for _, markup := range []string{"##", "**", "- "} {
		if strings.Contains(got, markup) {
			t.Errorf("MarkdownToText output %q still contains %q", got, markup)
		}
	}
}
