package app

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/admitpath/college-recommender/internal/recommend"
)

const (
	statusEarly = "early"
	statusFinal = "final"
)

// Row is the stable batch output schema.
type Row struct {
	Query           string
	Status          string
	EarlyResponse   string
	Combined        string
	CatalogCount    int
	KnowledgeCount  int
	FallbackUsed    bool
	FallbackMessage string
	// Web is the JSON-encoded fallback records, empty when none.
	Web string
}

// Header returns the stable CSV header for Row.
func Header() []string {
	return []string{
		"query",
		"status",
		"early_response",
		"combined_output",
		"catalog_count",
		"knowledge_count",
		"fallback_used",
		"fallback_message",
		"web",
	}
}

// ReadQueriesCSV reads a CSV file and returns the values from the "query"
// column, skipping blank entries.
func ReadQueriesCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	queryIdx := -1
	for i, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), "query") {
			queryIdx = i
			break
		}
	}
	if queryIdx < 0 {
		return nil, fmt.Errorf("missing required column %q", "query")
	}

	var queries []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if queryIdx >= len(rec) {
			return nil, fmt.Errorf("row has %d columns, want at least %d", len(rec), queryIdx+1)
		}
		if q := strings.TrimSpace(rec[queryIdx]); q != "" {
			queries = append(queries, q)
		}
	}
	return queries, nil
}

// WriteResultsCSV writes rows with the stable header.
func WriteResultsCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, row := range rows {
		rec := []string{
			row.Query,
			row.Status,
			row.EarlyResponse,
			row.Combined,
			strconv.Itoa(row.CatalogCount),
			strconv.Itoa(row.KnowledgeCount),
			strconv.FormatBool(row.FallbackUsed),
			row.FallbackMessage,
			row.Web,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func toRow(query string, res recommend.Result) Row {
	if res.Early() {
		return Row{
			Query:         query,
			Status:        statusEarly,
			EarlyResponse: res.EarlyResponse,
		}
	}

	out := res.FinalOutput
	row := Row{
		Query:           query,
		Status:          statusFinal,
		CatalogCount:    len(out.Catalog),
		KnowledgeCount:  len(out.Knowledge),
		FallbackUsed:    out.FallbackUsed,
		FallbackMessage: out.FallbackMessage,
	}
	if out.Combined != nil {
		row.Combined = *out.Combined
	}
	if len(out.Web) > 0 {
		row.Web = jsonOrEmpty(out.Web)
	}
	return row
}

func jsonOrEmpty(records []recommend.Record) string {
	b, err := json.Marshal(records)
	if err != nil {
		// Should not happen for these value types, but keep output stable.
		return ""
	}
	return string(b)
}
