// Package app drives pipeline invocations for the CLI: single ask mode and
// batch mode over a CSV of queries, with traced logging around every
// external service call.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/admitpath/college-recommender/internal/classify"
	"github.com/admitpath/college-recommender/internal/recommend"
	"github.com/admitpath/college-recommender/internal/recommend/pipeline"
	"github.com/admitpath/college-recommender/internal/retrieve"
	"github.com/admitpath/college-recommender/internal/websearch"
	"github.com/admitpath/college-recommender/internal/worker"
)

// Runner holds the raw collaborators; each run wraps them in traced
// decorators bound to a fresh run ID.
type Runner struct {
	classifier classify.Classifier
	retriever  retrieve.Retriever
	web        websearch.Recommender
	logger     *log.Logger
}

func NewRunner(classifier classify.Classifier, retriever retrieve.Retriever, web websearch.Recommender, logger *log.Logger) (*Runner, error) {
	if classifier == nil || retriever == nil || web == nil {
		return nil, fmt.Errorf("classifier, retriever, and web recommender are required")
	}
	if logger == nil {
		logger = log.New(os.Stdout, "", log.LstdFlags)
	}
	return &Runner{classifier: classifier, retriever: retriever, web: web, logger: logger}, nil
}

func (r *Runner) buildPipeline(runID string) (*pipeline.Pipeline, error) {
	return pipeline.New(
		&tracedClassifier{next: r.classifier, logger: r.logger, runID: runID},
		&tracedRetriever{next: r.retriever, logger: r.logger, runID: runID},
		&tracedWeb{next: r.web, logger: r.logger, runID: runID},
	)
}

// RunAsk executes one invocation and writes the result as indented JSON.
func (r *Runner) RunAsk(ctx context.Context, query string, out io.Writer) error {
	runID := newRunID()
	p, err := r.buildPipeline(runID)
	if err != nil {
		return err
	}

	start := time.Now()
	r.logger.Printf("run=%s ask start: query=%q", runID, query)
	res := p.Run(ctx, query)
	r.logger.Printf(
		"run=%s ask complete: early=%t fallbackUsed=%t duration=%s",
		runID,
		res.Early(),
		res.FinalOutput != nil && res.FinalOutput.FallbackUsed,
		time.Since(start).Round(time.Millisecond),
	)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// RunBatch reads a CSV of queries, runs each through its own pipeline
// invocation via the worker pool, and writes result rows to outputPath.
// Invocations share no state, so they parallelize freely.
func (r *Runner) RunBatch(ctx context.Context, inputPath, outputPath string, opts worker.Options) error {
	runID := newRunID()
	runStart := time.Now()

	inF, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = inF.Close()
	}()

	queries, err := ReadQueriesCSV(inF)
	if err != nil {
		return err
	}
	r.logger.Printf("run=%s batch start: queries=%d workers=%d rateLimitRPS=%g", runID, len(queries), opts.Workers, opts.RateLimitRPS)

	p, err := r.buildPipeline(runID)
	if err != nil {
		return err
	}

	outcomes, err := worker.RunAll(ctx, queries, func(ctx context.Context, query string) (recommend.Result, error) {
		// Run never fails; per-query degradation is inside the pipeline.
		return p.Run(ctx, query), nil
	}, opts)
	if err != nil {
		return err
	}

	rows := make([]Row, 0, len(outcomes))
	early := 0
	fellBack := 0
	for _, o := range outcomes {
		row := toRow(o.Input, o.Output)
		if row.Status == statusEarly {
			early++
		}
		if row.FallbackUsed {
			fellBack++
		}
		rows = append(rows, row)
	}

	outF, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = outF.Close()
	}()
	if err := WriteResultsCSV(outF, rows); err != nil {
		return err
	}
	if err := outF.Close(); err != nil {
		return err
	}

	r.logger.Printf(
		"run=%s batch complete: queries=%d early=%d fallback=%d duration=%s",
		runID,
		len(rows),
		early,
		fellBack,
		time.Since(runStart).Round(time.Millisecond),
	)
	return nil
}

func newRunID() string {
	return fmt.Sprintf("run-%d", time.Now().UnixNano())
}
