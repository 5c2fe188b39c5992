// Package recommend holds the shared data model for the college
// recommendation pipeline: the structured records produced by the retrieval
// services and the compiled output returned to callers.
package recommend

// Record is a single structured retrieval result.
//
// MVP: free text plus a small metadata map so catalog rows, knowledge-base
// passages, and web fallback results all share one shape.
type Record struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Output is the compiled result of one full pipeline invocation.
//
// Combined is nil when the primary retrieval service failed outright.
type Output struct {
	Query           string   `json:"query"`
	Combined        *string  `json:"combined_output"`
	Catalog         []Record `json:"catalog"`
	Knowledge       []Record `json:"knowledge"`
	Web             []Record `json:"web"`
	FallbackUsed    bool     `json:"fallback_used"`
	FallbackMessage string   `json:"fallback_message,omitempty"`
}

// Result is what Pipeline.Run hands back: exactly one of EarlyResponse or
// FinalOutput is set.
type Result struct {
	EarlyResponse string  `json:"early_response,omitempty"`
	FinalOutput   *Output `json:"final_output,omitempty"`
}

// Early reports whether the invocation terminated before primary retrieval.
func (r Result) Early() bool {
	return r.FinalOutput == nil
}

// WebFallbackSource tags the single record produced by the web fallback path.
const WebFallbackSource = "web_search_fallback"
