package retrieve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/admitpath/college-recommender/internal/recommend"
	"github.com/admitpath/college-recommender/internal/worker"
)

// Options bound the combined service's source fan-out.
type Options struct {
	MaxRetries     int
	RequestTimeout time.Duration
	RateLimitRPS   float64
}

// Service implements Retriever over a catalog source and a knowledge-base
// source queried concurrently, with an optional LLM summarizer producing
// the combined output.
type Service struct {
	catalog    Source
	knowledge  Source
	summarizer Summarizer
	opts       Options
}

func NewService(catalog, knowledge Source, summarizer Summarizer, opts Options) *Service {
	return &Service{
		catalog:    catalog,
		knowledge:  knowledge,
		summarizer: summarizer,
		opts:       opts,
	}
}

type sourceJob struct {
	name string
	src  Source
}

// Retrieve queries both sources and builds the combined summary.
//
// A single failing source degrades to an empty result set; Retrieve only
// errors when no source produced a usable answer path (both sources failed,
// or the summarizer did).
func (s *Service) Retrieve(ctx context.Context, query string) (Bundle, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Bundle{}, fmt.Errorf("empty query")
	}

	jobs := []sourceJob{
		{name: "catalog", src: s.catalog},
		{name: "knowledge", src: s.knowledge},
	}

	outcomes, err := worker.RunAll(ctx, jobs, func(ctx context.Context, j sourceJob) ([]recommend.Record, error) {
		if j.src == nil {
			return nil, nil
		}
		return j.src.Lookup(ctx, query)
	}, worker.Options{
		Workers:        len(jobs),
		MaxRetries:     s.opts.MaxRetries,
		RequestTimeout: s.opts.RequestTimeout,
		RateLimitRPS:   s.opts.RateLimitRPS,
		FailurePolicy:  worker.FailurePolicyPartialOutput,
	})
	if err != nil {
		return Bundle{}, err
	}

	var bundle Bundle
	var sourceErrs []error
	for _, o := range outcomes {
		if o.Err != nil {
			sourceErrs = append(sourceErrs, fmt.Errorf("%s: %w", o.Input.name, o.Err))
			continue
		}
		switch o.Input.name {
		case "catalog":
			bundle.Catalog = o.Output
		case "knowledge":
			bundle.Knowledge = o.Output
		}
	}
	if len(sourceErrs) == len(jobs) {
		return Bundle{}, fmt.Errorf("all retrieval sources failed: %v", sourceErrs)
	}

	if len(bundle.Catalog) == 0 && len(bundle.Knowledge) == 0 {
		// Skip the summarizer entirely; the sentinel is the contract for
		// "nothing usable came back".
		bundle.Summary = NoValidDataMarker + " for this query."
		return bundle, nil
	}

	summary, err := s.summarize(ctx, query, bundle)
	if err != nil {
		return Bundle{}, err
	}
	bundle.Summary = summary
	return bundle, nil
}

func (s *Service) summarize(ctx context.Context, query string, b Bundle) (string, error) {
	if s.summarizer != nil {
		return s.summarizer.Summarize(ctx, query, b.Catalog, b.Knowledge)
	}

	// No summarizer configured: deterministic plain-text rollup.
	var sb strings.Builder
	fmt.Fprintf(&sb, "Results for %q:\n", query)
	appendSection(&sb, "Program catalog", b.Catalog)
	appendSection(&sb, "Knowledge base", b.Knowledge)
	return strings.TrimSpace(sb.String()), nil
}

func appendSection(sb *strings.Builder, title string, records []recommend.Record) {
	if len(records) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, r := range records {
		fmt.Fprintf(sb, "- %s\n", strings.TrimSpace(r.Text))
	}
}
