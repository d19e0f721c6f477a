package researcher

import (
	"strings"
	"testing"
)

func TestAddReferences(t *testing.T) {
	report := "Findings cite [one](https://one.example) inline."
	urls := []string{"https://one.example", "https://two.example"}

	got := AddReferences(report, urls)
	if !strings.Contains(got, "## References") {
		t.Fatal("references section missing")
	}
	if !strings.Contains(got, "- [https://two.example](https://two.example)") {
		t.Fatalf("uncited URL missing: %q", got)
	}
	if strings.Count(got, "https://one.example") != 1 {
		t.Fatal("already cited URL must not be listed again")
	}
}

func TestAddReferencesAllCited(t *testing.T) {
	report := "See https://one.example for details."
	got := AddReferences(report, []string{"https://one.example"})
	if got != report {
		t.Fatalf("report changed despite full citation: %q", got)
	}
}

func TestExtractHeaders(t *testing.T) {
	markdown := "# Title\n\nintro\n\n## Section A\n\n```\n# not a header\n```\n\n### Sub B\n"
	got := ExtractHeaders(markdown)
	want := []string{"Title", "Section A", "Sub B"}
	if len(got) != len(want) {
		t.Fatalf("headers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("headers = %v, want %v", got, want)
		}
	}
}

func TestTableOfContents(t *testing.T) {
	markdown := "# My Report\n\n## First Part\n\n## Second-Part!\n"
	got := TableOfContents(markdown)

	if !strings.HasPrefix(got, "## Table of Contents\n\n") {
		t.Fatalf("missing heading: %q", got)
	}
	if !strings.Contains(got, "- [My Report](#my-report)\n") {
		t.Fatalf("top header missing: %q", got)
	}
	if !strings.Contains(got, "  - [First Part](#first-part)\n") {
		t.Fatalf("nested header missing or not indented: %q", got)
	}
	if !strings.Contains(got, "(#second-part)") {
		t.Fatalf("anchor punctuation not stripped: %q", got)
	}
}

func TestTableOfContentsNoHeaders(t *testing.T) {
	if got := TableOfContents("just prose, no headers"); got != "" {
		t.Fatalf("expected empty TOC, got %q", got)
	}
}

func TestHeaderAnchor(t *testing.T) {
	cases := map[string]string{
		"Simple":           "simple",
		"Two Words":        "two-words",
		"Mixed-Case 123":   "mixed-case-123",
		"Drop (symbols)!?": "drop-symbols",
	}
	for in, want := range cases {
		if got := headerAnchor(in); got != want {
			t.Errorf("headerAnchor(%q) = %q, want %q", in, got, want)
		}
	}
}
