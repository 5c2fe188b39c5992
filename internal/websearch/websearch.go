// Package websearch defines the web-search fallback contract used when
// primary retrieval comes back empty or invalid.
package websearch

import "context"

// Recommendation is the fallback service's answer for one query.
type Recommendation struct {
	// Response is the synthesized recommendation text.
	Response string
	// SourcesExamined counts the web sources consulted to produce it.
	SourcesExamined int
}

// Recommender produces a recommendation from live web results.
type Recommender interface {
	Recommend(ctx context.Context, query string) (Recommendation, error)
}

// RecommenderFunc adapts a function to the Recommender interface.
type RecommenderFunc func(ctx context.Context, query string) (Recommendation, error)

func (f RecommenderFunc) Recommend(ctx context.Context, query string) (Recommendation, error) {
	return f(ctx, query)
}
