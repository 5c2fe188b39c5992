// Package retrieve defines the primary multi-source retrieval contract and
// the combined service that fans a query out across the program catalog and
// the admissions knowledge base.
package retrieve

import (
	"context"

	"github.com/admitpath/college-recommender/internal/recommend"
)

// NoValidDataMarker is the sentinel the combined service embeds in its
// summary when no source produced usable data. The pipeline's adequacy
// check matches this exact substring; producer and checker share this
// constant so the coupling stays in one place.
const NoValidDataMarker = "No valid data found"

// Bundle is the primary retrieval result: a combined textual summary plus
// the two structured result sets it was built from.
type Bundle struct {
	Summary   string
	Catalog   []recommend.Record
	Knowledge []recommend.Record
}

// Retriever is the primary retrieval service contract.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (Bundle, error)
}

// Source answers a query from one backing system (catalog or knowledge base).
type Source interface {
	Lookup(ctx context.Context, query string) ([]recommend.Record, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, query string) ([]recommend.Record, error)

func (f SourceFunc) Lookup(ctx context.Context, query string) ([]recommend.Record, error) {
	return f(ctx, query)
}

// Summarizer produces the combined textual summary over both result sets.
type Summarizer interface {
	Summarize(ctx context.Context, query string, catalog, knowledge []recommend.Record) (string, error)
}
