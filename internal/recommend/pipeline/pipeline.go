// Package pipeline is the decision core of the recommender: an explicit
// finite-state machine that classifies a query, short-circuits disallowed
// input, runs primary multi-source retrieval, falls back to web search when
// primary results are empty or invalid, and compiles one output record.
//
// One Pipeline serves any number of concurrent invocations; each Run owns
// its State exclusively and shares nothing with other runs.
package pipeline

import (
	"context"
	"fmt"

	"github.com/admitpath/college-recommender/internal/classify"
	"github.com/admitpath/college-recommender/internal/recommend"
	"github.com/admitpath/college-recommender/internal/retrieve"
	"github.com/admitpath/college-recommender/internal/websearch"
)

// Pipeline wires the decision stages to their external collaborators.
type Pipeline struct {
	classifier classify.Classifier
	retriever  retrieve.Retriever
	web        websearch.Recommender
}

func New(classifier classify.Classifier, retriever retrieve.Retriever, web websearch.Recommender) (*Pipeline, error) {
	if classifier == nil {
		return nil, fmt.Errorf("classifier is required")
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if web == nil {
		return nil, fmt.Errorf("web recommender is required")
	}
	return &Pipeline{classifier: classifier, retriever: retriever, web: web}, nil
}

type stageFunc func(context.Context, State) update

func (p *Pipeline) stageFor(phase Phase) stageFunc {
	switch phase {
	case PhaseComparisonCheck:
		return p.comparisonStage
	case PhaseClassification:
		return p.classificationStage
	case PhasePrimaryRetrieval:
		return p.primaryStage
	case PhaseAdequacyCheck:
		return p.adequacyStage
	case PhaseFallbackRetrieval:
		return p.fallbackStage
	case PhaseCompile:
		return p.compileStage
	default:
		return nil
	}
}

// Run executes one full invocation for the query. It always returns a
// well-formed Result: policy rejections surface as EarlyResponse and
// service failures degrade inside the stages, so no error escapes to the
// caller.
func (p *Pipeline) Run(ctx context.Context, query string) recommend.Result {
	st, phase := p.run(ctx, query)
	if phase == PhaseEarlyExit {
		return recommend.Result{EarlyResponse: st.EarlyResponse}
	}
	return recommend.Result{FinalOutput: st.FinalOutput}
}

// run drives the machine from start to a terminal phase and returns the
// final state alongside it. Split out so tests can inspect the state.
func (p *Pipeline) run(ctx context.Context, query string) (State, Phase) {
	st := State{UserQuery: query}
	phase := PhaseStart
	for !phase.Terminal() {
		if stage := p.stageFor(phase); stage != nil {
			st = merge(st, stage(ctx, st))
		}
		phase = nextPhase(phase, st)
	}
	return st, phase
}
