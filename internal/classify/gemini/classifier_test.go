package gemini

import (
	"testing"

	"github.com/admitpath/college-recommender/internal/classify"
)

func TestParseClassification_College(t *testing.T) {
	got, err := ParseClassification(`{"college_related": true, "safe": true, "category": "college", "response": ""}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Outcome != classify.OutcomeCollege {
		t.Fatalf("outcome = %q, want college", got.Outcome)
	}
	if !got.CollegeRelated || !got.Safe {
		t.Fatalf("unexpected flags: %#v", got)
	}
	if got.Response != "" {
		t.Fatalf("response = %q, want empty", got.Response)
	}
}

func TestParseClassification_Other(t *testing.T) {
	got, err := ParseClassification(`{"college_related": false, "safe": true, "category": "other", "response": "I only help with college questions."}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Outcome != classify.OutcomeOther {
		t.Fatalf("outcome = %q, want other", got.Outcome)
	}
	if got.CollegeRelated {
		t.Fatal("out-of-domain query must not be college related")
	}
	if got.Response == "" {
		t.Fatal("expected a refusal response")
	}
}

func TestParseClassification_UnsafeWinsOverCategory(t *testing.T) {
	// safe=false must override a non-unsafe category label.
	got, err := ParseClassification(`{"college_related": true, "safe": false, "category": "college", "response": "I can't help with that."}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Outcome != classify.OutcomeUnsafe {
		t.Fatalf("outcome = %q, want unsafe", got.Outcome)
	}
	if got.CollegeRelated {
		t.Fatal("unsafe verdicts must not count as college related")
	}
}

func TestParseClassification_NormalizesCategoryCase(t *testing.T) {
	got, err := ParseClassification(`{"college_related": true, "safe": true, "category": " College ", "response": ""}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Outcome != classify.OutcomeCollege {
		t.Fatalf("outcome = %q, want college", got.Outcome)
	}
}

func TestParseClassification_UnknownCategory(t *testing.T) {
	if _, err := ParseClassification(`{"college_related": false, "safe": true, "category": "banana", "response": ""}`); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestParseClassification_MalformedJSON(t *testing.T) {
	if _, err := ParseClassification(`not json`); err == nil {
		t.Fatal("expected error for malformed json")
	}
}
