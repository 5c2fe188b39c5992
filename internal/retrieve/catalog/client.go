// Package catalog is an HTTP client for the program-catalog search API,
// the structured "set A" source behind primary retrieval.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/admitpath/college-recommender/internal/core"
	"github.com/admitpath/college-recommender/internal/recommend"
)

const defaultLimit = 10

// Client is a minimal client for the catalog search endpoint.
type Client struct {
	baseURL *url.URL
	token   string
	limit   int
	http    *http.Client
}

type Config struct {
	BaseURL string
	// Token is an optional bearer token for hosted catalog deployments.
	Token string
	// Limit caps the number of programs per query (default 10).
	Limit   int
	Timeout time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, fmt.Errorf("catalog base URL is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse catalog base URL: %w", err)
	}

	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: base,
		token:   strings.TrimSpace(cfg.Token),
		limit:   limit,
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type program struct {
	Name    string `json:"name"`
	School  string `json:"school"`
	Degree  string `json:"degree"`
	Field   string `json:"field"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

type searchResponse struct {
	Programs []program `json:"programs"`
}

// Lookup implements retrieve.Source. An empty slice is a valid answer and
// means the catalog has nothing matching the query.
func (c *Client) Lookup(ctx context.Context, query string) ([]recommend.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/v1/programs/search"
	q := u.Query()
	q.Set("query", query)
	q.Set("limit", strconv.Itoa(c.limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		herr := newHTTPError("searchPrograms", resp, b)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode/100 == 5 {
			return nil, &core.TransientError{Err: herr}
		}
		return nil, herr
	}

	var out searchResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse catalog search response: %w", err)
	}

	records := make([]recommend.Record, 0, len(out.Programs))
	for _, p := range out.Programs {
		records = append(records, toRecord(p))
	}
	return records, nil
}

func toRecord(p program) recommend.Record {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(p.School))
	if name := strings.TrimSpace(p.Name); name != "" {
		if sb.Len() > 0 {
			sb.WriteString(": ")
		}
		sb.WriteString(name)
	}
	if degree := strings.TrimSpace(p.Degree); degree != "" {
		fmt.Fprintf(&sb, " (%s)", degree)
	}
	if summary := strings.TrimSpace(p.Summary); summary != "" {
		sb.WriteString(" - ")
		sb.WriteString(summary)
	}

	md := map[string]any{"source": "catalog"}
	if v := strings.TrimSpace(p.School); v != "" {
		md["school"] = v
	}
	if v := strings.TrimSpace(p.Field); v != "" {
		md["field"] = v
	}
	if v := strings.TrimSpace(p.URL); v != "" {
		md["url"] = v
	}
	return recommend.Record{Text: sb.String(), Metadata: md}
}
