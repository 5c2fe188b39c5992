// Package gemini backs the knowledge-base side of primary retrieval with
// the Gemini API: a structured-output Source for admissions knowledge and a
// Summarizer that validates and merges both result sets into the combined
// output.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/admitpath/college-recommender/internal/core"
	"github.com/admitpath/college-recommender/internal/recommend"
	"github.com/admitpath/college-recommender/internal/retrieve"
	"google.golang.org/genai"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

// Service implements both retrieve.Source (knowledge base) and
// retrieve.Summarizer on one Gemini client.
type Service struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Service{client: client, model: strings.TrimSpace(cfg.Model)}, nil
}

type knowledgeItem struct {
	Text   string `json:"text"`
	School string `json:"school"`
	Topic  string `json:"topic"`
}

var knowledgeSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"items": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"text":   {Type: genai.TypeString},
					"school": {Type: genai.TypeString},
					"topic":  {Type: genai.TypeString},
				},
				Required: []string{"text", "school", "topic"},
			},
		},
	},
	Required: []string{"items"},
}

// Lookup implements retrieve.Source. An empty slice means the knowledge
// base holds nothing relevant; that is a valid answer, not an error.
func (s *Service) Lookup(ctx context.Context, query string) ([]recommend.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("empty query")
	}

	resp, err := s.client.Models.GenerateContent(
		ctx,
		s.model,
		genai.Text(buildKnowledgePrompt(query)),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   knowledgeSchema,
		},
	)
	if err != nil {
		return nil, classifyErr(err)
	}

	return ParseKnowledge(resp.Text())
}

// ParseKnowledge decodes the structured model output into records.
func ParseKnowledge(raw string) ([]recommend.Record, error) {
	var parsed struct {
		Items []knowledgeItem `json:"items"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("gemini: parse structured json: %w", err)
	}

	records := make([]recommend.Record, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		text := strings.TrimSpace(item.Text)
		if text == "" {
			continue
		}
		md := map[string]any{"source": "knowledge"}
		if v := strings.TrimSpace(item.School); v != "" {
			md["school"] = v
		}
		if v := strings.TrimSpace(item.Topic); v != "" {
			md["topic"] = v
		}
		records = append(records, recommend.Record{Text: text, Metadata: md})
	}
	return records, nil
}

// Summarize implements retrieve.Summarizer.
func (s *Service) Summarize(ctx context.Context, query string, catalog, knowledge []recommend.Record) (string, error) {
	resp, err := s.client.Models.GenerateContent(
		ctx,
		s.model,
		genai.Text(buildSummaryPrompt(query, catalog, knowledge)),
		&genai.GenerateContentConfig{CandidateCount: 1},
	)
	if err != nil {
		return "", classifyErr(err)
	}

	out := strings.TrimSpace(resp.Text())
	if out == "" {
		return "", errors.New("gemini: empty summary")
	}
	return out, nil
}

func buildKnowledgePrompt(query string) string {
	return strings.TrimSpace(`
You are the admissions knowledge base of a college recommendation assistant.

Answer the query below from well-established facts about colleges, degree
programs, and admissions. Return ONLY a JSON object with an "items" array;
each item has:
- text (string): one self-contained fact relevant to the query.
- school (string): the institution the fact is about, or empty.
- topic (string): a short topic label (e.g. "mba", "financial aid").

Rules:
- Return at most 8 items.
- If you have no relevant facts, return an empty items array. Never invent data.

Query: ` + query + `
`)
}

func buildSummaryPrompt(query string, catalog, knowledge []recommend.Record) string {
	var sb strings.Builder
	sb.WriteString(`You are compiling a college recommendation answer from two result sets.

Validate the results against the query and write a concise recommendation
summary (plain text, no markdown). Cross-check the sets against each other
and prefer facts both agree on. If neither set contains anything that
actually answers the query, reply with exactly: "` + retrieve.NoValidDataMarker + `".

Query: ` + query + "\n")

	writeRecords := func(title string, records []recommend.Record) {
		fmt.Fprintf(&sb, "\n%s results:\n", title)
		if len(records) == 0 {
			sb.WriteString("(none)\n")
			return
		}
		for _, r := range records {
			fmt.Fprintf(&sb, "- %s\n", strings.TrimSpace(r.Text))
		}
	}
	writeRecords("Program catalog", catalog)
	writeRecords("Knowledge base", knowledge)

	return strings.TrimSpace(sb.String())
}

func classifyErr(err error) error {
	// Wrap transient failures so the source fan-out retries with backoff.
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Code == 429 || apiErr.Code/100 == 5 {
			return &core.TransientError{Err: err}
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) && (ne.Timeout() || ne.Temporary()) {
		return &core.TransientError{Err: err}
	}
	return err
}
