package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/admitpath/college-recommender/internal/classify"
	"github.com/admitpath/college-recommender/internal/recommend"
	"github.com/admitpath/college-recommender/internal/recommend/pipeline"
	"github.com/admitpath/college-recommender/internal/retrieve"
	"github.com/admitpath/college-recommender/internal/websearch"
)

type fakeClassifier struct {
	calls int
	cls   classify.Classification
	err   error
}

func (f *fakeClassifier) Classify(_ context.Context, _ string) (classify.Classification, error) {
	f.calls++
	return f.cls, f.err
}

type fakeRetriever struct {
	calls  int
	bundle retrieve.Bundle
	err    error
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string) (retrieve.Bundle, error) {
	f.calls++
	return f.bundle, f.err
}

type fakeWeb struct {
	calls int
	rec   websearch.Recommendation
	err   error
}

func (f *fakeWeb) Recommend(_ context.Context, _ string) (websearch.Recommendation, error) {
	f.calls++
	return f.rec, f.err
}

func newPipeline(t *testing.T, c *fakeClassifier, r *fakeRetriever, w *fakeWeb) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.New(c, r, w)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func collegeClassifier() *fakeClassifier {
	return &fakeClassifier{cls: classify.Classification{
		Outcome:        classify.OutcomeCollege,
		CollegeRelated: true,
		Safe:           true,
	}}
}

func record(text string) recommend.Record {
	return recommend.Record{Text: text, Metadata: map[string]any{"source": "catalog"}}
}

func TestRun_ComparisonEarlyExit(t *testing.T) {
	t.Parallel()

	c := collegeClassifier()
	r := &fakeRetriever{}
	w := &fakeWeb{}
	p := newPipeline(t, c, r, w)

	for _, query := range []string{
		"Stanford vs MIT",
		"Compare Harvard and Yale business schools",
		"Which university has a better ranking?",
	} {
		res := p.Run(context.Background(), query)
		if !res.Early() {
			t.Fatalf("%q: expected early exit, got %#v", query, res)
		}
		if res.EarlyResponse != pipeline.ComparisonResponse {
			t.Fatalf("%q: unexpected response %q", query, res.EarlyResponse)
		}
	}
	if c.calls != 0 || r.calls != 0 || w.calls != 0 {
		t.Fatalf("expected no service calls, got classifier=%d retriever=%d web=%d", c.calls, r.calls, w.calls)
	}
}

func TestRun_OutOfDomainEarlyExit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		cls          classify.Classification
		wantResponse string
	}{
		{
			name:         "other with service message",
			cls:          classify.Classification{Outcome: classify.OutcomeOther, Safe: true, Response: "I only know colleges."},
			wantResponse: "I only know colleges.",
		},
		{
			name:         "other without message",
			cls:          classify.Classification{Outcome: classify.OutcomeOther, Safe: true},
			wantResponse: pipeline.RejectionResponse,
		},
		{
			name:         "unsafe",
			cls:          classify.Classification{Outcome: classify.OutcomeUnsafe, Safe: false},
			wantResponse: pipeline.RejectionResponse,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeClassifier{cls: tt.cls}
			r := &fakeRetriever{}
			w := &fakeWeb{}
			p := newPipeline(t, c, r, w)

			res := p.Run(context.Background(), "how do I cook pasta")
			if !res.Early() || res.EarlyResponse != tt.wantResponse {
				t.Fatalf("unexpected result: %#v", res)
			}
			if r.calls != 0 || w.calls != 0 {
				t.Fatalf("expected no retrieval calls, got retriever=%d web=%d", r.calls, w.calls)
			}
		})
	}
}

func TestRun_ClassifierFailureDenies(t *testing.T) {
	t.Parallel()

	c := &fakeClassifier{err: errors.New("upstream 503")}
	r := &fakeRetriever{}
	w := &fakeWeb{}
	p := newPipeline(t, c, r, w)

	res := p.Run(context.Background(), "good universities for physics")
	if !res.Early() || res.EarlyResponse != pipeline.RejectionResponse {
		t.Fatalf("expected fail-safe rejection, got %#v", res)
	}
	if r.calls != 0 || w.calls != 0 {
		t.Fatalf("expected no retrieval calls, got retriever=%d web=%d", r.calls, w.calls)
	}
}

func TestRun_PrimarySuccessSkipsFallback(t *testing.T) {
	t.Parallel()

	c := collegeClassifier()
	r := &fakeRetriever{bundle: retrieve.Bundle{
		Summary: "Stanford GSB offers an MBA with a finance focus.",
		Catalog: []recommend.Record{record("Stanford GSB: MBA (finance)")},
	}}
	w := &fakeWeb{}
	p := newPipeline(t, c, r, w)

	res := p.Run(context.Background(), "What MBA programs does Stanford offer for finance specialization?")
	if res.Early() {
		t.Fatalf("unexpected early exit: %#v", res)
	}
	out := res.FinalOutput
	if out.FallbackUsed {
		t.Fatalf("expected fallback_used=false, got %#v", out)
	}
	if len(out.Web) != 0 || out.Web == nil {
		t.Fatalf("expected empty web results, got %#v", out.Web)
	}
	if out.FallbackMessage != "" {
		t.Fatalf("unexpected fallback message %q", out.FallbackMessage)
	}
	if out.Combined == nil || *out.Combined != "Stanford GSB offers an MBA with a finance focus." {
		t.Fatalf("unexpected combined output: %#v", out.Combined)
	}
	if len(out.Catalog) != 1 || len(out.Knowledge) != 0 {
		t.Fatalf("unexpected result sets: %#v", out)
	}
	if w.calls != 0 {
		t.Fatalf("expected no web calls, got %d", w.calls)
	}
	if r.calls != 1 {
		t.Fatalf("expected 1 retriever call, got %d", r.calls)
	}
}

func TestRun_EmptyResultsTriggerFallbackOnce(t *testing.T) {
	t.Parallel()

	c := collegeClassifier()
	r := &fakeRetriever{bundle: retrieve.Bundle{Summary: retrieve.NoValidDataMarker + " for this query."}}
	w := &fakeWeb{rec: websearch.Recommendation{
		Response:        "Consider Wharton and Booth for finance MBAs.",
		SourcesExamined: 7,
	}}
	p := newPipeline(t, c, r, w)

	res := p.Run(context.Background(), "niche finance MBA programs")
	if res.Early() {
		t.Fatalf("unexpected early exit: %#v", res)
	}
	if w.calls != 1 {
		t.Fatalf("expected exactly one web call, got %d", w.calls)
	}

	out := res.FinalOutput
	if !out.FallbackUsed || out.FallbackMessage != pipeline.FallbackMessage {
		t.Fatalf("unexpected fallback state: %#v", out)
	}
	if len(out.Web) != 1 {
		t.Fatalf("expected exactly one web record, got %#v", out.Web)
	}
	web := out.Web[0]
	if web.Text != "Consider Wharton and Booth for finance MBAs." {
		t.Fatalf("unexpected web text %q", web.Text)
	}
	if web.Metadata["source"] != recommend.WebFallbackSource {
		t.Fatalf("unexpected web metadata: %#v", web.Metadata)
	}
	if web.Metadata["results_analyzed"] != 7 {
		t.Fatalf("unexpected results_analyzed: %#v", web.Metadata)
	}
}

func TestRun_SentinelInSummaryTriggersFallback(t *testing.T) {
	t.Parallel()

	c := collegeClassifier()
	r := &fakeRetriever{bundle: retrieve.Bundle{
		Summary: "Cross-check failed: " + retrieve.NoValidDataMarker + " in either source.",
		Catalog: []recommend.Record{record("stale row")},
	}}
	w := &fakeWeb{rec: websearch.Recommendation{Response: "web answer", SourcesExamined: 2}}
	p := newPipeline(t, c, r, w)

	res := p.Run(context.Background(), "college with underwater basket weaving major")
	if res.Early() {
		t.Fatalf("unexpected early exit: %#v", res)
	}
	if w.calls != 1 {
		t.Fatalf("expected one web call, got %d", w.calls)
	}
	if !res.FinalOutput.FallbackUsed {
		t.Fatalf("expected fallback_used=true, got %#v", res.FinalOutput)
	}
}

func TestRun_PrimaryFailureRoutesToFallback(t *testing.T) {
	t.Parallel()

	c := collegeClassifier()
	r := &fakeRetriever{err: errors.New("warehouse timeout")}
	w := &fakeWeb{rec: websearch.Recommendation{Response: "web answer", SourcesExamined: 3}}
	p := newPipeline(t, c, r, w)

	res := p.Run(context.Background(), "What MBA programs does Stanford offer for finance specialization?")
	if res.Early() {
		t.Fatalf("unexpected early exit: %#v", res)
	}
	if w.calls != 1 {
		t.Fatalf("expected one web call, got %d", w.calls)
	}

	out := res.FinalOutput
	if out.Combined != nil {
		t.Fatalf("expected nil combined output after primary failure, got %#v", out.Combined)
	}
	if len(out.Catalog) != 0 || len(out.Knowledge) != 0 {
		t.Fatalf("expected empty result sets, got %#v", out)
	}
	if !out.FallbackUsed || out.FallbackMessage != pipeline.FallbackMessage {
		t.Fatalf("unexpected fallback state: %#v", out)
	}
}

func TestRun_PrimaryFailureMessageSurvivesWhenWebNeverRan(t *testing.T) {
	t.Parallel()

	// The sentinel-free, non-empty bundle never triggers fallback, so the
	// generic error message can only appear via primary failure + fallback.
	// Here primary fails and fallback also fails: the message is dropped
	// because fallback_used ends up false.
	c := collegeClassifier()
	r := &fakeRetriever{err: errors.New("warehouse down")}
	w := &fakeWeb{err: errors.New("search quota exhausted")}
	p := newPipeline(t, c, r, w)

	res := p.Run(context.Background(), "best CS colleges in the midwest")
	if res.Early() {
		t.Fatalf("unexpected early exit: %#v", res)
	}

	out := res.FinalOutput
	if out.FallbackUsed {
		t.Fatalf("expected fallback_used=false when fallback also fails, got %#v", out)
	}
	if len(out.Web) != 0 || out.Web == nil {
		t.Fatalf("expected empty web results, got %#v", out.Web)
	}
	if out.FallbackMessage != "" {
		t.Fatalf("expected no fallback message, got %q", out.FallbackMessage)
	}
}

func TestRun_Idempotent(t *testing.T) {
	t.Parallel()

	build := func() *pipeline.Pipeline {
		c := collegeClassifier()
		r := &fakeRetriever{bundle: retrieve.Bundle{
			Summary:   "summary",
			Catalog:   []recommend.Record{record("row")},
			Knowledge: []recommend.Record{{Text: "fact", Metadata: map[string]any{"source": "knowledge"}}},
		}}
		w := &fakeWeb{}
		return newPipeline(t, c, r, w)
	}

	const query = "What MBA programs does Stanford offer for finance specialization?"
	first := build().Run(context.Background(), query)
	second := build().Run(context.Background(), query)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ:\n%#v\n%#v", first, second)
	}

	b1, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b2, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b1) != string(b2) {
		t.Fatalf("serialized results differ:\n%s\n%s", b1, b2)
	}
}

func TestIsComparisonQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		query string
		want  bool
	}{
		{"Stanford vs MIT", true},
		{"stanford VERSUS mit", true},
		{"what is the difference between BA and BS", true},
		{"is Harvard better than Yale", true},
		{"college ranking 2025", true},
		{"What MBA programs does Stanford offer?", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := pipeline.IsComparisonQuery(tt.query); got != tt.want {
			t.Fatalf("IsComparisonQuery(%q) = %t, want %t", tt.query, got, tt.want)
		}
	}
}
