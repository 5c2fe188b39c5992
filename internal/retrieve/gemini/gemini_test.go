package gemini

import (
	"strings"
	"testing"

	"github.com/admitpath/college-recommender/internal/recommend"
	"github.com/admitpath/college-recommender/internal/retrieve"
)

func TestParseKnowledge_MapsItemsToRecords(t *testing.T) {
	raw := `{"items": [
		{"text": "Stanford GSB offers a two-year MBA.", "school": "Stanford", "topic": "mba"},
		{"text": "MBA applications typically require the GMAT or GRE.", "school": "", "topic": "admissions"}
	]}`

	records, err := ParseKnowledge(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	first := records[0]
	if first.Text != "Stanford GSB offers a two-year MBA." {
		t.Fatalf("unexpected text: %q", first.Text)
	}
	if first.Metadata["source"] != "knowledge" {
		t.Fatalf("unexpected source: %v", first.Metadata["source"])
	}
	if first.Metadata["school"] != "Stanford" || first.Metadata["topic"] != "mba" {
		t.Fatalf("unexpected metadata: %#v", first.Metadata)
	}

	// Empty school must be omitted, not stored as "".
	if _, ok := records[1].Metadata["school"]; ok {
		t.Fatalf("empty school should be dropped: %#v", records[1].Metadata)
	}
}

func TestParseKnowledge_SkipsBlankItems(t *testing.T) {
	raw := `{"items": [
		{"text": "   ", "school": "X", "topic": "y"},
		{"text": "A real fact.", "school": "", "topic": ""}
	]}`

	records, err := ParseKnowledge(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Text != "A real fact." {
		t.Fatalf("unexpected records: %#v", records)
	}
}

func TestParseKnowledge_EmptyItems(t *testing.T) {
	records, err := ParseKnowledge(`{"items": []}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %#v", records)
	}
}

func TestParseKnowledge_MalformedJSON(t *testing.T) {
	if _, err := ParseKnowledge(`items: nope`); err == nil {
		t.Fatal("expected error for malformed json")
	}
}

func TestBuildSummaryPrompt_CarriesMarkerAndSets(t *testing.T) {
	catalog := []recommend.Record{{Text: "Stanford GSB: MBA (MBA)"}}
	knowledge := []recommend.Record{{Text: "GSB admits roughly 6% of applicants."}}

	prompt := buildSummaryPrompt("Stanford MBA programs", catalog, knowledge)

	if !strings.Contains(prompt, retrieve.NoValidDataMarker) {
		t.Fatal("prompt must instruct the no-data reply")
	}
	if !strings.Contains(prompt, "Stanford MBA programs") {
		t.Fatal("prompt must include the query")
	}
	if !strings.Contains(prompt, "Stanford GSB: MBA (MBA)") {
		t.Fatal("prompt must include catalog records")
	}
	if !strings.Contains(prompt, "GSB admits roughly 6% of applicants.") {
		t.Fatal("prompt must include knowledge records")
	}
}

func TestBuildSummaryPrompt_EmptySetsMarkedNone(t *testing.T) {
	prompt := buildSummaryPrompt("anything", nil, nil)
	if strings.Count(prompt, "(none)") != 2 {
		t.Fatalf("both empty sets should be marked (none):\n%s", prompt)
	}
}
