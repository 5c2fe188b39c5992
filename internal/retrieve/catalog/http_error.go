package catalog

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/admitpath/college-recommender/internal/util"
)

// errorEnvelope is the catalog API's standard error body. Extra fields are
// intentionally ignored.
type errorEnvelope struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

// HTTPError is a sanitized summary of a non-2xx catalog API response.
//
// Important: do not include raw response bodies here (can leak tokens).
type HTTPError struct {
	Op         string
	StatusCode int
	Status     string
	ErrorCode  string
	Message    string

	// Snippet is a redacted, truncated hint for non-JSON responses.
	Snippet string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "catalog http error"
	}
	parts := []string{
		fmt.Sprintf("catalog api error: op=%s status=%s", strings.TrimSpace(e.Op), strings.TrimSpace(e.Status)),
	}
	if strings.TrimSpace(e.ErrorCode) != "" {
		parts = append(parts, "errorCode="+strings.TrimSpace(e.ErrorCode))
	}
	if strings.TrimSpace(e.Message) != "" {
		parts = append(parts, "message="+strings.TrimSpace(e.Message))
	}
	if strings.TrimSpace(e.Snippet) != "" {
		parts = append(parts, "body="+strings.TrimSpace(e.Snippet))
	}
	return strings.Join(parts, " ")
}

func newHTTPError(op string, resp *http.Response, body []byte) error {
	h := &HTTPError{Op: op}
	if resp != nil {
		h.StatusCode = resp.StatusCode
		h.Status = resp.Status
	}

	var env errorEnvelope
	if len(body) > 0 && json.Unmarshal(body, &env) == nil {
		h.ErrorCode = strings.TrimSpace(env.ErrorCode)
		h.Message = strings.TrimSpace(env.Message)
		if h.ErrorCode != "" || h.Message != "" {
			return h
		}
	}

	h.Snippet = redactAndTruncate(body)
	return h
}

func redactAndTruncate(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	// Keep this small: response bodies can contain sensitive data.
	const max = 256
	b := body
	if len(b) > max {
		b = b[:max]
	}
	s := util.RedactSecrets(string(b))
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if len(body) > max {
		return s + "..."
	}
	return s
}
