// Package gemini implements the web-search fallback on the Gemini API with
// the GoogleSearch grounding tool.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/admitpath/college-recommender/internal/core"
	"github.com/admitpath/college-recommender/internal/websearch"
	"google.golang.org/genai"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

type Recommender struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Recommender, error) {
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
	return &Recommender{client: client, model: strings.TrimSpace(cfg.Model)}, nil
}

func (r *Recommender) Recommend(ctx context.Context, query string) (websearch.Recommendation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return websearch.Recommendation{}, errors.New("empty query")
	}

	resp, err := r.client.Models.GenerateContent(
		ctx,
		r.model,
		genai.Text(buildPrompt(query)),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{GoogleSearch: &genai.GoogleSearch{}},
			},
			CandidateCount: 1,
		},
	)
	if err != nil {
		return websearch.Recommendation{}, classifyErr(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return websearch.Recommendation{}, errors.New("gemini: empty response")
	}

	return websearch.Recommendation{
		Response:        text,
		SourcesExamined: CountSources(resp),
	}, nil
}

// CountSources counts distinct grounding sources the model consulted.
func CountSources(resp *genai.GenerateContentResponse) int {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return 0
	}
	c := resp.Candidates[0]
	if c.GroundingMetadata == nil {
		return 0
	}

	seen := make(map[string]struct{})
	for _, chunk := range c.GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		uri := strings.TrimSpace(chunk.Web.URI)
		if uri == "" {
			continue
		}
		seen[uri] = struct{}{}
	}
	return len(seen)
}

func buildPrompt(query string) string {
	return strings.TrimSpace(`
You are a college recommendation assistant answering from live web search
because internal databases had no data for this query.

Use web search to answer the query below. Write a concise recommendation
(plain text, no markdown) grounded in what you find. Mention specific
programs or colleges when the sources support them; say so plainly when the
web results are thin.

Query: ` + query + `
`)
}

func classifyErr(err error) error {
	// Wrap transient failures so callers can back off and retry.
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
