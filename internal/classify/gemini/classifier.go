// Package gemini implements classify.Classifier on the Gemini API with a
// structured JSON response schema.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/admitpath/college-recommender/internal/classify"
	"github.com/admitpath/college-recommender/internal/core"
	"google.golang.org/genai"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

type Classifier struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Classifier, error) {
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
	return &Classifier{client: client, model: strings.TrimSpace(cfg.Model)}, nil
}

type responseSchema struct {
	CollegeRelated bool   `json:"college_related"`
	Safe           bool   `json:"safe"`
	Category       string `json:"category"`
	Response       string `json:"response"`
}

var outputSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"college_related": {Type: genai.TypeBoolean},
		"safe":            {Type: genai.TypeBoolean},
		"category":        {Type: genai.TypeString, Enum: []string{"college", "other", "unsafe"}},
		"response":        {Type: genai.TypeString},
	},
	Required: []string{"college_related", "safe", "category", "response"},
}

func (c *Classifier) Classify(ctx context.Context, query string) (classify.Classification, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return classify.Classification{}, errors.New("empty query")
	}

	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(buildPrompt(query)),
		&genai.GenerateContentConfig{
			CandidateCount:   1,
			ResponseMIMEType: "application/json",
			ResponseSchema:   outputSchema,
		},
	)
	if err != nil {
		return classify.Classification{}, classifyErr(err)
	}

	return ParseClassification(resp.Text())
}

// ParseClassification decodes the structured model output into a verdict.
func ParseClassification(raw string) (classify.Classification, error) {
	var parsed responseSchema
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return classify.Classification{}, fmt.Errorf("gemini: parse structured json: %w", err)
	}

	outcome := classify.Outcome(strings.TrimSpace(strings.ToLower(parsed.Category)))
	switch outcome {
	case classify.OutcomeCollege, classify.OutcomeOther, classify.OutcomeUnsafe:
	default:
		return classify.Classification{}, fmt.Errorf("gemini: unknown category %q", parsed.Category)
	}
	if !parsed.Safe && outcome != classify.OutcomeUnsafe {
		// A failed safety check always wins over the category label.
		outcome = classify.OutcomeUnsafe
	}

	return classify.Classification{
		Outcome:        outcome,
		CollegeRelated: parsed.CollegeRelated && outcome == classify.OutcomeCollege,
		Safe:           parsed.Safe,
		Response:       strings.TrimSpace(parsed.Response),
	}, nil
}

func buildPrompt(query string) string {
	// Keep this prompt public-safe: the user query is the only dynamic input.
	return strings.TrimSpace(`
You are a gatekeeper for a college recommendation assistant.

Classify the user query below. Return ONLY a single JSON object with these keys:
- college_related (boolean): true when the query asks about colleges, universities, degree programs, admissions, or related topics.
- safe (boolean): false when the query asks for harmful, illegal, or abusive content.
- category (string): one of "college", "other", "unsafe".
- response (string): a short refusal to show the user when category is not "college"; empty string otherwise.

Rules:
- Questions about academic programs, admissions, tuition, or campus life are "college".
- Anything unrelated to higher education is "other".
- Unsafe content is "unsafe" regardless of topic.

Query: ` + query + `
`)
}

func classifyErr(err error) error {
	// Wrap transient failures so callers retrying through the worker pool
	// back off instead of failing the run.
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
