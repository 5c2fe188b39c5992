package pipeline

import (
	"context"
	"strings"

	"github.com/admitpath/college-recommender/internal/classify"
	"github.com/admitpath/college-recommender/internal/recommend"
	"github.com/admitpath/college-recommender/internal/retrieve"
)

// Fixed user-facing messages. These are part of the observable contract;
// tests assert them verbatim.
const (
	// ComparisonResponse is returned for comparison-style queries.
	ComparisonResponse = "I specialize in college recommendations, not comparisons. Please ask about specific programs or colleges."
	// RejectionResponse is returned for out-of-domain or unsafe queries when
	// the classification service supplies no message of its own.
	RejectionResponse = "Sorry I can't do that. I can assist you with college recommendations."
	// PrimaryFailureMessage records that primary retrieval failed outright.
	PrimaryFailureMessage = "Error processing your request"
	// FallbackMessage explains why web results are being shown.
	FallbackMessage = "We're using web search results as a fallback since we couldn't find relevant information in our databases."
)

// comparisonMarkers is the fixed allow-list for comparison detection.
// Matching is a case-insensitive substring check over the raw query.
var comparisonMarkers = []string{
	"compare", "vs", "versus", "difference", "better", "worse", "ranking",
}

// IsComparisonQuery reports whether the query asks for a comparison.
func IsComparisonQuery(query string) bool {
	q := strings.ToLower(query)
	for _, marker := range comparisonMarkers {
		if strings.Contains(q, marker) {
			return true
		}
	}
	return false
}

func (p *Pipeline) comparisonStage(_ context.Context, st State) update {
	if IsComparisonQuery(st.UserQuery) {
		return update{
			isComparisonQuery: boolPtr(true),
			earlyResponse:     strPtr(ComparisonResponse),
		}
	}
	return update{isComparisonQuery: boolPtr(false)}
}

// classificationStage delegates to the classification service. Service
// failures never propagate: they degrade to an out-of-domain rejection so a
// broken classifier denies rather than letting queries through.
func (p *Pipeline) classificationStage(ctx context.Context, st State) update {
	cls, err := p.classifier.Classify(ctx, st.UserQuery)
	if err != nil {
		return update{
			isCollegeRelated:  boolPtr(false),
			safetyCheckPassed: boolPtr(false),
			earlyResponse:     strPtr(RejectionResponse),
		}
	}

	if cls.Outcome != classify.OutcomeCollege {
		response := strings.TrimSpace(cls.Response)
		if response == "" {
			response = RejectionResponse
		}
		return update{
			isCollegeRelated:  boolPtr(false),
			safetyCheckPassed: boolPtr(cls.Safe),
			earlyResponse:     strPtr(response),
		}
	}

	return update{
		isCollegeRelated:  boolPtr(true),
		safetyCheckPassed: boolPtr(true),
	}
}

// primaryStage invokes primary retrieval. Failure is deliberately folded
// into the same shape as "no data found": empty sets plus the generic error
// message, which routes the invocation to fallback evaluation. No retries
// here.
func (p *Pipeline) primaryStage(ctx context.Context, st State) update {
	bundle, err := p.retriever.Retrieve(ctx, st.UserQuery)
	if err != nil {
		return update{
			combinedSet:     true,
			combined:        nil,
			catalog:         []recommend.Record{},
			catalogSet:      true,
			knowledge:       []recommend.Record{},
			knowledgeSet:    true,
			fallbackUsed:    boolPtr(true),
			fallbackMessage: strPtr(PrimaryFailureMessage),
		}
	}

	summary := bundle.Summary
	return update{
		combinedSet:  true,
		combined:     &summary,
		catalog:      orEmpty(bundle.Catalog),
		catalogSet:   true,
		knowledge:    orEmpty(bundle.Knowledge),
		knowledgeSet: true,
		fallbackUsed: boolPtr(false),
	}
}

// adequacyStage decides whether the primary results are usable. Pure.
func (p *Pipeline) adequacyStage(_ context.Context, st State) update {
	noData := len(st.Catalog) == 0 && len(st.Knowledge) == 0
	sentinel := st.Combined != nil && strings.Contains(*st.Combined, retrieve.NoValidDataMarker)
	return update{shouldFallback: boolPtr(noData || sentinel)}
}

// fallbackStage invokes the web-search service. Note the asymmetry with the
// primary stage: a failing fallback leaves fallback_used false, because
// there is nothing further to fall back to.
func (p *Pipeline) fallbackStage(ctx context.Context, st State) update {
	rec, err := p.web.Recommend(ctx, st.UserQuery)
	if err != nil {
		return update{
			web:          []recommend.Record{},
			webSet:       true,
			fallbackUsed: boolPtr(false),
		}
	}

	return update{
		web: []recommend.Record{{
			Text: rec.Response,
			Metadata: map[string]any{
				"source":           recommend.WebFallbackSource,
				"results_analyzed": rec.SourcesExamined,
			},
		}},
		webSet:          true,
		fallbackUsed:    boolPtr(true),
		fallbackMessage: strPtr(FallbackMessage),
	}
}

// compileStage assembles the final output record. Pure, terminal, never
// fails; web results only appear when the fallback path actually ran.
func (p *Pipeline) compileStage(_ context.Context, st State) update {
	out := &recommend.Output{
		Query:     st.UserQuery,
		Combined:  st.Combined,
		Catalog:   orEmpty(st.Catalog),
		Knowledge: orEmpty(st.Knowledge),
		Web:       []recommend.Record{},
	}
	if st.FallbackUsed {
		out.Web = orEmpty(st.Web)
		out.FallbackUsed = true
		out.FallbackMessage = st.FallbackMessage
	}
	return update{finalOutput: out}
}

func orEmpty(records []recommend.Record) []recommend.Record {
	if records == nil {
		return []recommend.Record{}
	}
	return records
}
