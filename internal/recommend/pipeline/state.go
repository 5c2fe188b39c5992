package pipeline

import "github.com/admitpath/college-recommender/internal/recommend"

// State is the per-invocation value threaded through the stages. The driver
// owns the only copy; stages receive it by value and hand back partial
// updates, so fields written once stay written.
type State struct {
	UserQuery string

	IsComparisonQuery bool
	IsCollegeRelated  bool
	SafetyCheckPassed bool

	// EarlyResponse is non-empty only on an early-exit path.
	EarlyResponse string

	// Combined is nil when primary retrieval failed outright; otherwise it
	// points at the combined summary (which may contain the no-valid-data
	// sentinel).
	Combined  *string
	Catalog   []recommend.Record
	Knowledge []recommend.Record

	// ShouldFallback is derived by the adequacy check and consumed by the
	// very next transition; nothing downstream reads it.
	ShouldFallback bool

	FallbackUsed    bool
	FallbackMessage string
	Web             []recommend.Record

	FinalOutput *recommend.Output

	// Version counts merges applied by the driver.
	Version int
}

// update is a stage's partial write-set. Pointer fields and the *Set flags
// distinguish "leave alone" from "set" (including set-to-nil / set-to-empty).
type update struct {
	isComparisonQuery *bool
	isCollegeRelated  *bool
	safetyCheckPassed *bool
	earlyResponse     *string

	combined    *string
	combinedSet bool

	catalog      []recommend.Record
	catalogSet   bool
	knowledge    []recommend.Record
	knowledgeSet bool

	shouldFallback  *bool
	fallbackUsed    *bool
	fallbackMessage *string

	web    []recommend.Record
	webSet bool

	finalOutput *recommend.Output
}

func merge(st State, up update) State {
	if up.isComparisonQuery != nil {
		st.IsComparisonQuery = *up.isComparisonQuery
	}
	if up.isCollegeRelated != nil {
		st.IsCollegeRelated = *up.isCollegeRelated
	}
	if up.safetyCheckPassed != nil {
		st.SafetyCheckPassed = *up.safetyCheckPassed
	}
	if up.earlyResponse != nil {
		st.EarlyResponse = *up.earlyResponse
	}
	if up.combinedSet {
		st.Combined = up.combined
	}
	if up.catalogSet {
		st.Catalog = up.catalog
	}
	if up.knowledgeSet {
		st.Knowledge = up.knowledge
	}
	if up.shouldFallback != nil {
		st.ShouldFallback = *up.shouldFallback
	}
	if up.fallbackUsed != nil {
		st.FallbackUsed = *up.fallbackUsed
	}
	if up.fallbackMessage != nil {
		st.FallbackMessage = *up.fallbackMessage
	}
	if up.webSet {
		st.Web = up.web
	}
	if up.finalOutput != nil {
		st.FinalOutput = up.finalOutput
	}
	st.Version++
	return st
}

func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }
