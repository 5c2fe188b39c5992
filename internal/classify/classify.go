// Package classify defines the query classification contract used by the
// pipeline's gate stage.
package classify

import (
	"context"
	"strings"
)

// Outcome is the tri-state classification verdict.
type Outcome string

const (
	OutcomeCollege Outcome = "college"
	OutcomeOther   Outcome = "other"
	OutcomeUnsafe  Outcome = "unsafe"
)

// Classification is the verdict for one query.
//
// Response carries an optional service-supplied refusal message; the gate
// substitutes a fixed rejection when it is empty.
type Classification struct {
	Outcome        Outcome
	CollegeRelated bool
	Safe           bool
	Response       string
}

// Classifier decides whether a query is in-domain and safe to answer.
type Classifier interface {
	Classify(ctx context.Context, query string) (Classification, error)
}

// Stub is a deterministic keyword classifier for tests and local runs
// without an API key.
type Stub struct{}

var stubCollegeMarkers = []string{
	"college", "university", "universities", "mba", "program", "degree",
	"major", "admission", "campus", "tuition", "scholarship",
}

func (Stub) Classify(_ context.Context, query string) (Classification, error) {
	q := strings.ToLower(query)
	for _, marker := range stubCollegeMarkers {
		if strings.Contains(q, marker) {
			return Classification{
				Outcome:        OutcomeCollege,
				CollegeRelated: true,
				Safe:           true,
			}, nil
		}
	}
	return Classification{Outcome: OutcomeOther, Safe: true}, nil
}
