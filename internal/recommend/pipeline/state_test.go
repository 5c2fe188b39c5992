package pipeline

import (
	"context"
	"reflect"
	"testing"

	"github.com/admitpath/college-recommender/internal/classify"
	"github.com/admitpath/college-recommender/internal/recommend"
	"github.com/admitpath/college-recommender/internal/retrieve"
	"github.com/admitpath/college-recommender/internal/websearch"
)

type staticClassifier struct{ cls classify.Classification }

func (s staticClassifier) Classify(_ context.Context, _ string) (classify.Classification, error) {
	return s.cls, nil
}

type staticRetriever struct {
	bundle retrieve.Bundle
	err    error
}

func (s staticRetriever) Retrieve(_ context.Context, _ string) (retrieve.Bundle, error) {
	return s.bundle, s.err
}

func TestMerge_PartialUpdatesOnly(t *testing.T) {
	st := State{UserQuery: "q"}

	st = merge(st, update{isComparisonQuery: boolPtr(false)})
	if st.Version != 1 || st.IsComparisonQuery {
		t.Fatalf("unexpected state: %#v", st)
	}

	// An empty update touches nothing but still counts as a merge.
	prev := st
	st = merge(st, update{})
	if st.Version != 2 {
		t.Fatalf("expected version bump, got %d", st.Version)
	}
	st.Version = prev.Version
	if !reflect.DeepEqual(st, prev) {
		t.Fatalf("empty update changed state: %#v vs %#v", st, prev)
	}
}

func TestMerge_SetToNilCombined(t *testing.T) {
	st := State{UserQuery: "q"}
	st = merge(st, update{combinedSet: true, combined: strPtr("text")})
	if st.Combined == nil || *st.Combined != "text" {
		t.Fatalf("unexpected combined: %#v", st.Combined)
	}
	st = merge(st, update{combinedSet: true, combined: nil})
	if st.Combined != nil {
		t.Fatalf("expected combined reset to nil, got %#v", st.Combined)
	}
}

func TestNextPhase_TransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		current Phase
		st      State
		want    Phase
	}{
		{"start", PhaseStart, State{}, PhaseComparisonCheck},
		{"comparison hit", PhaseComparisonCheck, State{IsComparisonQuery: true}, PhaseEarlyExit},
		{"comparison miss", PhaseComparisonCheck, State{}, PhaseClassification},
		{"rejected", PhaseClassification, State{IsCollegeRelated: false, SafetyCheckPassed: true}, PhaseEarlyExit},
		{"unsafe", PhaseClassification, State{IsCollegeRelated: true, SafetyCheckPassed: false}, PhaseEarlyExit},
		{"accepted", PhaseClassification, State{IsCollegeRelated: true, SafetyCheckPassed: true}, PhasePrimaryRetrieval},
		{"after retrieval", PhasePrimaryRetrieval, State{}, PhaseAdequacyCheck},
		{"fallback", PhaseAdequacyCheck, State{ShouldFallback: true}, PhaseFallbackRetrieval},
		{"no fallback", PhaseAdequacyCheck, State{}, PhaseCompile},
		{"after fallback", PhaseFallbackRetrieval, State{}, PhaseCompile},
		{"compile done", PhaseCompile, State{}, PhaseDone},
	}
	for _, tt := range tests {
		if got := nextPhase(tt.current, tt.st); got != tt.want {
			t.Fatalf("%s: nextPhase(%s) = %s, want %s", tt.name, tt.current, got, tt.want)
		}
	}
}

func TestRun_StateInvariants(t *testing.T) {
	p, err := New(
		staticClassifier{cls: classify.Classification{Outcome: classify.OutcomeCollege, CollegeRelated: true, Safe: true}},
		staticRetriever{bundle: retrieve.Bundle{Summary: "s", Catalog: []recommend.Record{{Text: "row"}}}},
		websearch.RecommenderFunc(func(_ context.Context, _ string) (websearch.Recommendation, error) {
			t.Fatal("web recommender must not run")
			return websearch.Recommendation{}, nil
		}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	st, phase := p.run(context.Background(), "mba programs")
	if phase != PhaseDone {
		t.Fatalf("expected done, got %s", phase)
	}
	if st.ShouldFallback {
		t.Fatalf("expected should_fallback=false, got %#v", st)
	}
	if st.FinalOutput == nil || st.EarlyResponse != "" {
		t.Fatalf("exactly one of early/final must be set: %#v", st)
	}
	// comparison, classification, retrieval, adequacy, compile.
	if st.Version != 5 {
		t.Fatalf("expected 5 merged stage updates, got %d", st.Version)
	}
}

func TestRun_EarlyExitStateInvariants(t *testing.T) {
	p, err := New(
		staticClassifier{cls: classify.Classification{Outcome: classify.OutcomeOther, Safe: true}},
		staticRetriever{},
		websearch.RecommenderFunc(func(_ context.Context, _ string) (websearch.Recommendation, error) {
			return websearch.Recommendation{}, nil
		}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	st, phase := p.run(context.Background(), "weather tomorrow")
	if phase != PhaseEarlyExit {
		t.Fatalf("expected early_exit, got %s", phase)
	}
	if st.FinalOutput != nil || st.EarlyResponse == "" {
		t.Fatalf("exactly one of early/final must be set: %#v", st)
	}
	if st.Combined != nil || st.Catalog != nil || st.Knowledge != nil {
		t.Fatalf("retrieval state must stay untouched on early exit: %#v", st)
	}
}
