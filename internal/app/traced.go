package app

import (
	"context"
	"log"
	"time"

	"github.com/admitpath/college-recommender/internal/classify"
	"github.com/admitpath/college-recommender/internal/retrieve"
	"github.com/admitpath/college-recommender/internal/util"
	"github.com/admitpath/college-recommender/internal/websearch"
)

// The traced decorators log one request/response line pair per external
// service call. Error strings pass through RedactSecrets before logging.

type tracedClassifier struct {
	next   classify.Classifier
	logger *log.Logger
	runID  string
}

func (t *tracedClassifier) Classify(ctx context.Context, query string) (classify.Classification, error) {
	t.logger.Printf("run=%s classify request: query=%q", t.runID, query)
	start := time.Now()
	out, err := t.next.Classify(ctx, query)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		t.logger.Printf("run=%s classify response: duration=%s status=error error=%q", t.runID, elapsed, util.RedactSecrets(err.Error()))
		return out, err
	}
	t.logger.Printf(
		"run=%s classify response: duration=%s status=ok outcome=%s collegeRelated=%t safe=%t",
		t.runID, elapsed, out.Outcome, out.CollegeRelated, out.Safe,
	)
	return out, nil
}

type tracedRetriever struct {
	next   retrieve.Retriever
	logger *log.Logger
	runID  string
}

func (t *tracedRetriever) Retrieve(ctx context.Context, query string) (retrieve.Bundle, error) {
	t.logger.Printf("run=%s retrieve request: query=%q", t.runID, query)
	start := time.Now()
	out, err := t.next.Retrieve(ctx, query)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		t.logger.Printf("run=%s retrieve response: duration=%s status=error error=%q", t.runID, elapsed, util.RedactSecrets(err.Error()))
		return out, err
	}
	t.logger.Printf(
		"run=%s retrieve response: duration=%s status=ok catalog=%d knowledge=%d summaryLen=%d",
		t.runID, elapsed, len(out.Catalog), len(out.Knowledge), len(out.Summary),
	)
	return out, nil
}

type tracedWeb struct {
	next   websearch.Recommender
	logger *log.Logger
	runID  string
}

func (t *tracedWeb) Recommend(ctx context.Context, query string) (websearch.Recommendation, error) {
	t.logger.Printf("run=%s websearch request: query=%q", t.runID, query)
	start := time.Now()
	out, err := t.next.Recommend(ctx, query)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		t.logger.Printf("run=%s websearch response: duration=%s status=error error=%q", t.runID, elapsed, util.RedactSecrets(err.Error()))
		return out, err
	}
	t.logger.Printf(
		"run=%s websearch response: duration=%s status=ok sourcesExamined=%d responseLen=%d",
		t.runID, elapsed, out.SourcesExamined, len(out.Response),
	)
	return out, nil
}
